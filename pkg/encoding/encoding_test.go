// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package encoding_test

import (
	"testing"

	"github.com/lassandro/goc8/pkg/encoding"
	"github.com/retroenv/retrogolib/assert"
)

func TestDecodeNumber(t *testing.T) {
	tests := []struct {
		input string
		want  uint16
		valid bool
	}{
		{"0x200", 0x200, true},
		{"x2A", 0x2A, true},
		{"0XFF", 0xFF, true},
		{"0b101", 0x5, true},
		{"b11", 0x3, true},
		{"#42", 42, true},
		{"4095", 4095, true},
		{"0x", 0, false},
		{"zz", 0, false},
		{"-1", 0, false},
		{"0x10000", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			have, err := encoding.DecodeNumber(tt.input)

			if !tt.valid {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, have)
		})
	}
}

func TestDecodeHexRejectsMissingPrefix(t *testing.T) {
	_, err := encoding.DecodeHex("200")
	assert.Error(t, err)

	_, err = encoding.DecodeHex("2x00")
	assert.Error(t, err)
}

func TestBCD(t *testing.T) {
	assert.Equal(t, [3]uint8{0, 0, 0}, encoding.BCD(0))
	assert.Equal(t, [3]uint8{0, 0, 7}, encoding.BCD(7))
	assert.Equal(t, [3]uint8{0, 4, 2}, encoding.BCD(42))
	assert.Equal(t, [3]uint8{1, 2, 8}, encoding.BCD(128))
	assert.Equal(t, [3]uint8{2, 5, 5}, encoding.BCD(255))
}
