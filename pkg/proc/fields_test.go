// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package proc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antimetal/server-status/pkg/proc"
)

func TestFields_RequiredUint(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    uint64
		wantErr error
	}{
		{name: "valid", line: "42", want: 42},
		{name: "leading whitespace", line: "   \t 7 8", want: 7},
		{name: "max uint64", line: "18446744073709551615", want: 18446744073709551615},
		{name: "empty line", line: "", wantErr: proc.ErrMissingField},
		{name: "whitespace only", line: "   ", wantErr: proc.ErrMissingField},
		{name: "not a number", line: "abc", wantErr: proc.ErrMalformedInteger},
		{name: "negative", line: "-1", wantErr: proc.ErrMalformedInteger},
		{name: "overflow", line: "18446744073709551616", wantErr: proc.ErrMalformedInteger},
		{name: "hex", line: "0x10", wantErr: proc.ErrMalformedInteger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := proc.NewFields(tt.line).RequiredUint()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFields_OptionalUint(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    uint64
		wantErr error
	}{
		{name: "valid", line: "42", want: 42},
		{name: "garbage degrades to zero", line: "n/a", want: 0},
		{name: "negative degrades to zero", line: "-5", want: 0},
		{name: "absent column still fails", line: "", wantErr: proc.ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := proc.NewFields(tt.line).OptionalUint()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFields_Sequence(t *testing.T) {
	f := proc.NewFields("cpu 1 x 3")

	label, ok := f.Next()
	require.True(t, ok)
	assert.Equal(t, "cpu", label)
	assert.Equal(t, 3, f.Remaining())

	v, err := f.RequiredUint()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	_, err = f.RequiredUint()
	assert.ErrorIs(t, err, proc.ErrMalformedInteger)

	v, err = f.OptionalUint()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)

	_, err = f.OptionalUint()
	assert.ErrorIs(t, err, proc.ErrMissingField)
	_, ok = f.Next()
	assert.False(t, ok)
}
