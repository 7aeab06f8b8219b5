// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package proc

import "errors"

var (
	// ErrSourceUnavailable means the source could not be opened or read: missing file,
	// permissions, unsupported kernel or a disabled subsystem.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedSource means the content does not have the expected shape: wrong
	// header or label, unsupported unit, or zero where a nonzero value is required.
	ErrMalformedSource = errors.New("malformed source")

	// ErrMissingField means a whitespace-delimited token was expected but the line ended.
	ErrMissingField = errors.New("missing field")

	// ErrMalformedInteger means a required token is not a non-negative base-10 integer.
	ErrMalformedInteger = errors.New("malformed integer")
)
