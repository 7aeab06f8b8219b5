// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package proc

import (
	"fmt"
	"strconv"
	"strings"
)

// Fields walks the whitespace-delimited tokens of a single line.
type Fields struct {
	tokens []string
	pos    int
}

// NewFields splits line on runs of whitespace.
func NewFields(line string) *Fields {
	return &Fields{tokens: strings.Fields(line)}
}

// Next returns the next raw token, or false once the line is exhausted.
func (f *Fields) Next() (string, bool) {
	if f.pos >= len(f.tokens) {
		return "", false
	}
	tok := f.tokens[f.pos]
	f.pos++
	return tok, true
}

// Remaining reports how many tokens have not been consumed yet.
func (f *Fields) Remaining() int {
	return len(f.tokens) - f.pos
}

// RequiredUint consumes the next token and parses it as a base-10 uint64.
func (f *Fields) RequiredUint() (uint64, error) {
	tok, ok := f.Next()
	if !ok {
		return 0, fmt.Errorf("field %d: %w", f.pos+1, ErrMissingField)
	}
	val, err := strconv.ParseUint(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("field %d %q: %w", f.pos, tok, ErrMalformedInteger)
	}
	return val, nil
}

// OptionalUint consumes the next token like RequiredUint, except that a token which
// does not parse yields 0. A token that is absent altogether is still ErrMissingField:
// a missing column means the format changed, a garbled one is tolerated.
func (f *Fields) OptionalUint() (uint64, error) {
	tok, ok := f.Next()
	if !ok {
		return 0, fmt.Errorf("field %d: %w", f.pos+1, ErrMissingField)
	}
	val, err := strconv.ParseUint(tok, 10, 64)
	if err != nil {
		return 0, nil
	}
	return val, nil
}
