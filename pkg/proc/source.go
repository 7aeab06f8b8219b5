// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package proc

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// SkipRest can be returned by a ScanLines callback to stop reading without error.
var SkipRest = errors.New("skip rest of source")

// Open opens a source for a single read. Handles are never kept between samples.
func Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w: %w", path, ErrSourceUnavailable, err)
	}
	return f, nil
}

// ScanLines opens path and calls fn for every line in order. It stops at the first
// error returned by fn and returns it unchanged, except SkipRest which ends the scan
// successfully. Read errors are reported as ErrSourceUnavailable.
func ScanLines(path string, fn func(lineNum int, line string) error) error {
	f, err := Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		if err := fn(lineNum, scanner.Text()); err != nil {
			if errors.Is(err, SkipRest) {
				return nil
			}
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading %s: %w: %w", path, ErrSourceUnavailable, err)
	}
	return nil
}
