// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package proc provides the low-level helpers used to read kernel pseudo-files from the
// /proc filesystem.
//
// It covers three concerns shared by every collector:
//
//   - opening a source fresh on every read and classifying failures,
//   - pulling whitespace-delimited integer fields out of a line with strict and lenient
//     parsing,
//   - saturating uint64 arithmetic and the sanitized ratio used for utilization metrics.
//
// Errors returned by this package wrap one of the sentinel kinds below so callers can
// branch with errors.Is:
//
//	f := proc.NewFields(line)
//	user, err := f.RequiredUint()
//	if errors.Is(err, proc.ErrMissingField) {
//		// the kernel truncated the line
//	}
//
// All paths are taken as given; callers join them onto a configurable proc root
// (for example /host/proc inside a container).
package proc
