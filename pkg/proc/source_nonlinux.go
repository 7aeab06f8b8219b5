// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

//go:build !linux

package proc

import (
	"fmt"
	"os"
)

// CheckReadable on non-Linux systems only checks that path exists
// since the proc sources it is used for are Linux-specific anyway
func CheckReadable(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot read %s: %w: %w", path, ErrSourceUnavailable, err)
	}
	return nil
}
