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

package encoding

import (
	"errors"
	"strconv"
	"strings"
)

// Decodes a hexidecimal string in the formats: 0xFFFF, xFFFF, 0xFF, xFF
func DecodeHex(s string) (uint16, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 {
		return 0, errors.New("Invalid hex string")
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes a binary string in the formats: 0b0101, b0101
func DecodeBin(s string) (uint16, error) {
	if i := strings.IndexAny(s, "bB"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 {
		return 0, errors.New("Invalid binary string")
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes a base-10 string in the formats: #123, 123
func DecodeInt(s string) (uint16, error) {
	if i := strings.Index(s, "#"); i == 0 {
		s = s[1:]
	}

	result, err := strconv.ParseUint(s, 10, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes any of the hex, binary or base-10 formats above
func DecodeNumber(s string) (uint16, error) {
	lower := strings.ToLower(s)

	switch {
	case strings.HasPrefix(lower, "0x"), strings.HasPrefix(lower, "x"):
		return DecodeHex(s)
	case strings.HasPrefix(lower, "0b"), strings.HasPrefix(lower, "b"):
		return DecodeBin(s)
	}

	return DecodeInt(s)
}

// BCD splits a byte into its hundreds, tens and ones digits.
func BCD(value uint8) [3]uint8 {
	return [3]uint8{value / 100, (value / 10) % 10, value % 10}
}
