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

package machine_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lassandro/goc8/pkg/machine"
	"github.com/retroenv/retrogolib/assert"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	valid := 0

	for w := 0; w <= 0xFFFF; w++ {
		word := uint16(w)
		ins, ok := machine.Decode(word)

		if !ok {
			continue
		}

		valid++

		encoded, err := machine.Encode(ins)
		if err != nil {
			t.Fatalf("Encode of decoded %#04x failed: %v", word, err)
		}

		if encoded != word {
			t.Fatalf("Round trip mismatch\nwant:%#04x\nhave:%#04x", word, encoded)
		}
	}

	// CLS, RET, the 4096-word groups 1,2,3,4,6,7,A,B,C,D, 5XY0, 9XY0,
	// nine ALU forms, two key forms and nine misc forms
	want := 2 + 10*4096 + 2*256 + 9*256 + 2*16 + 9*16
	assert.Equal(t, want, valid)
}

func TestDecodeFields(t *testing.T) {
	tests := []struct {
		word uint16
		want machine.Instruction
	}{
		{0x00E0, machine.Instruction{Op: machine.OpClear}},
		{0x00EE, machine.Instruction{Op: machine.OpReturn}},
		{0x1ABC, machine.Instruction{Op: machine.OpJump, NNN: 0xABC}},
		{0x2F00, machine.Instruction{Op: machine.OpCall, NNN: 0xF00}},
		{0x3A42, machine.Instruction{Op: machine.OpSkipEqImm, X: 0xA, NN: 0x42}},
		{0x5120, machine.Instruction{Op: machine.OpSkipEqReg, X: 1, Y: 2}},
		{0x8AB6, machine.Instruction{Op: machine.OpShiftRight, X: 0xA, Y: 0xB}},
		{0x8ABE, machine.Instruction{Op: machine.OpShiftLeft, X: 0xA, Y: 0xB}},
		{0xD12F, machine.Instruction{Op: machine.OpDraw, X: 1, Y: 2, N: 0xF}},
		{0xE59E, machine.Instruction{Op: machine.OpSkipKey, X: 5}},
		{0xF30A, machine.Instruction{Op: machine.OpWaitKey, X: 3}},
		{0xFF65, machine.Instruction{Op: machine.OpLoad, X: 0xF}},
	}

	for _, tt := range tests {
		have, ok := machine.Decode(tt.word)
		assert.True(t, ok)
		assert.Equal(t, tt.want, have)
	}
}

func TestDecodeInvalid(t *testing.T) {
	words := []uint16{
		0x0000, 0x0123, 0x00E1, 0x5121, 0x8008, 0x800F, 0x9001,
		0xE000, 0xE09F, 0xF000, 0xF008, 0xF0FF,
	}

	for _, word := range words {
		_, ok := machine.Decode(word)
		assert.False(t, ok, fmt.Sprintf("word %#04x decoded", word))
	}
}

func TestEncodeRejects(t *testing.T) {
	bad := []machine.Instruction{
		{Op: machine.OpInvalid},
		{Op: machine.Op(200)},
		{Op: machine.OpJump, NNN: 0x1000},
		{Op: machine.OpLoadImm, X: 0x10},
		{Op: machine.OpClear, X: 1},
		{Op: machine.OpSkipKey, X: 1, NN: 0x9E},
		{Op: machine.OpMove, X: 1, Y: 2, N: 3},
	}

	for _, ins := range bad {
		_, err := machine.Encode(ins)
		assert.True(t, errors.Is(err, machine.ErrEncode))
	}
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "DRW", machine.OpDraw.String())
	assert.Equal(t, "SKNP", machine.OpSkipNotKey.String())
	assert.Equal(t, "INVALID", machine.Op(250).String())
}
