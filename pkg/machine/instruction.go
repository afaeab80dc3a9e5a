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

package machine

import (
	"errors"
	"fmt"
)

type Op uint8

const (
	OpInvalid Op = iota
	OpClear
	OpReturn
	OpJump
	OpCall
	OpSkipEqImm
	OpSkipNeImm
	OpSkipEqReg
	OpLoadImm
	OpAddImm
	OpMove
	OpOr
	OpAnd
	OpXor
	OpAdd
	OpSub
	OpShiftRight
	OpSubN
	OpShiftLeft
	OpSkipNeReg
	OpLoadIndex
	OpJumpOffset
	OpRandom
	OpDraw
	OpSkipKey
	OpSkipNotKey
	OpGetDelay
	OpWaitKey
	OpSetDelay
	OpSetSound
	OpAddIndex
	OpFont
	OpBCD
	OpStore
	OpLoad

	opCount
)

var opNames = [opCount]string{
	OpInvalid:    "INVALID",
	OpClear:      "CLS",
	OpReturn:     "RET",
	OpJump:       "JP",
	OpCall:       "CALL",
	OpSkipEqImm:  "SE",
	OpSkipNeImm:  "SNE",
	OpSkipEqReg:  "SE",
	OpLoadImm:    "LD",
	OpAddImm:     "ADD",
	OpMove:       "LD",
	OpOr:         "OR",
	OpAnd:        "AND",
	OpXor:        "XOR",
	OpAdd:        "ADD",
	OpSub:        "SUB",
	OpShiftRight: "SHR",
	OpSubN:       "SUBN",
	OpShiftLeft:  "SHL",
	OpSkipNeReg:  "SNE",
	OpLoadIndex:  "LD",
	OpJumpOffset: "JP",
	OpRandom:     "RND",
	OpDraw:       "DRW",
	OpSkipKey:    "SKP",
	OpSkipNotKey: "SKNP",
	OpGetDelay:   "LD",
	OpWaitKey:    "LD",
	OpSetDelay:   "LD",
	OpSetSound:   "LD",
	OpAddIndex:   "ADD",
	OpFont:       "LD",
	OpBCD:        "LD",
	OpStore:      "LD",
	OpLoad:       "LD",
}

func (op Op) String() string {
	if op >= opCount {
		return opNames[OpInvalid]
	}

	return opNames[op]
}

// Instruction is a decoded instruction word. Only the operand fields used by
// Op are meaningful, the rest are zero.
type Instruction struct {
	Op  Op
	X   uint8
	Y   uint8
	N   uint8
	NN  uint8
	NNN uint16
}

var ErrEncode = errors.New("Instruction cannot be encoded")

var aluCodes = map[Op]uint16{
	OpMove:       0x0,
	OpOr:         0x1,
	OpAnd:        0x2,
	OpXor:        0x3,
	OpAdd:        0x4,
	OpSub:        0x5,
	OpShiftRight: 0x6,
	OpSubN:       0x7,
	OpShiftLeft:  0xE,
}

// Decode splits an instruction word into its operation and operand fields.
// The second result is false when the word matches no known opcode.
func Decode(word uint16) (Instruction, bool) {
	x := uint8((word >> 8) & 0xF)
	y := uint8((word >> 4) & 0xF)
	n := uint8(word & 0xF)
	nn := uint8(word & 0xFF)
	nnn := word & 0xFFF

	switch word >> 12 {
	case OP_SYS:
		switch word {
		case 0x00E0:
			return Instruction{Op: OpClear}, true
		case 0x00EE:
			return Instruction{Op: OpReturn}, true
		}

	case OP_JP:
		return Instruction{Op: OpJump, NNN: nnn}, true

	case OP_CALL:
		return Instruction{Op: OpCall, NNN: nnn}, true

	case OP_SEI:
		return Instruction{Op: OpSkipEqImm, X: x, NN: nn}, true

	case OP_SNEI:
		return Instruction{Op: OpSkipNeImm, X: x, NN: nn}, true

	case OP_SER:
		if n == 0 {
			return Instruction{Op: OpSkipEqReg, X: x, Y: y}, true
		}

	case OP_LDI:
		return Instruction{Op: OpLoadImm, X: x, NN: nn}, true

	case OP_ADDI:
		return Instruction{Op: OpAddImm, X: x, NN: nn}, true

	case OP_ALU:
		var op Op

		switch n {
		case 0x0:
			op = OpMove
		case 0x1:
			op = OpOr
		case 0x2:
			op = OpAnd
		case 0x3:
			op = OpXor
		case 0x4:
			op = OpAdd
		case 0x5:
			op = OpSub
		case 0x6:
			op = OpShiftRight
		case 0x7:
			op = OpSubN
		case 0xE:
			op = OpShiftLeft
		default:
			return Instruction{}, false
		}

		return Instruction{Op: op, X: x, Y: y}, true

	case OP_SNER:
		if n == 0 {
			return Instruction{Op: OpSkipNeReg, X: x, Y: y}, true
		}

	case OP_LDIX:
		return Instruction{Op: OpLoadIndex, NNN: nnn}, true

	case OP_JPV0:
		return Instruction{Op: OpJumpOffset, NNN: nnn}, true

	case OP_RND:
		return Instruction{Op: OpRandom, X: x, NN: nn}, true

	case OP_DRW:
		return Instruction{Op: OpDraw, X: x, Y: y, N: n}, true

	case OP_KEY:
		switch nn {
		case 0x9E:
			return Instruction{Op: OpSkipKey, X: x}, true
		case 0xA1:
			return Instruction{Op: OpSkipNotKey, X: x}, true
		}

	case OP_MISC:
		var op Op

		// No form reads the sound timer back into a register
		switch nn {
		case 0x07:
			op = OpGetDelay
		case 0x0A:
			op = OpWaitKey
		case 0x15:
			op = OpSetDelay
		case 0x18:
			op = OpSetSound
		case 0x1E:
			op = OpAddIndex
		case 0x29:
			op = OpFont
		case 0x33:
			op = OpBCD
		case 0x55:
			op = OpStore
		case 0x65:
			op = OpLoad
		default:
			return Instruction{}, false
		}

		return Instruction{Op: op, X: x}, true
	}

	return Instruction{}, false
}

// Encode packs an instruction back into its word. Operand fields that the
// operation does not use must be zero.
func Encode(ins Instruction) (uint16, error) {
	if ins.X > 0xF || ins.Y > 0xF || ins.N > 0xF || ins.NNN > 0xFFF {
		return 0, fmt.Errorf("%w: operand out of range (%+v)", ErrEncode, ins)
	}

	x := uint16(ins.X) << 8
	y := uint16(ins.Y) << 4
	n := uint16(ins.N)
	nn := uint16(ins.NN)
	nnn := ins.NNN

	var word uint16
	var used struct{ x, y, n, nn, nnn bool }

	switch ins.Op {
	case OpClear:
		word = 0x00E0
	case OpReturn:
		word = 0x00EE
	case OpJump:
		word, used.nnn = 0x1000|nnn, true
	case OpCall:
		word, used.nnn = 0x2000|nnn, true
	case OpSkipEqImm:
		word, used.x, used.nn = 0x3000|x|nn, true, true
	case OpSkipNeImm:
		word, used.x, used.nn = 0x4000|x|nn, true, true
	case OpSkipEqReg:
		word, used.x, used.y = 0x5000|x|y, true, true
	case OpLoadImm:
		word, used.x, used.nn = 0x6000|x|nn, true, true
	case OpAddImm:
		word, used.x, used.nn = 0x7000|x|nn, true, true
	case OpMove, OpOr, OpAnd, OpXor, OpAdd, OpSub, OpShiftRight, OpSubN,
		OpShiftLeft:
		word, used.x, used.y = 0x8000|x|y|aluCodes[ins.Op], true, true
	case OpSkipNeReg:
		word, used.x, used.y = 0x9000|x|y, true, true
	case OpLoadIndex:
		word, used.nnn = 0xA000|nnn, true
	case OpJumpOffset:
		word, used.nnn = 0xB000|nnn, true
	case OpRandom:
		word, used.x, used.nn = 0xC000|x|nn, true, true
	case OpDraw:
		word, used.x, used.y, used.n = 0xD000|x|y|n, true, true, true
	case OpSkipKey:
		word, used.x = 0xE09E|x, true
	case OpSkipNotKey:
		word, used.x = 0xE0A1|x, true
	case OpGetDelay:
		word, used.x = 0xF007|x, true
	case OpWaitKey:
		word, used.x = 0xF00A|x, true
	case OpSetDelay:
		word, used.x = 0xF015|x, true
	case OpSetSound:
		word, used.x = 0xF018|x, true
	case OpAddIndex:
		word, used.x = 0xF01E|x, true
	case OpFont:
		word, used.x = 0xF029|x, true
	case OpBCD:
		word, used.x = 0xF033|x, true
	case OpStore:
		word, used.x = 0xF055|x, true
	case OpLoad:
		word, used.x = 0xF065|x, true
	default:
		return 0, fmt.Errorf("%w: unknown operation %d", ErrEncode, ins.Op)
	}

	if (!used.x && ins.X != 0) || (!used.y && ins.Y != 0) ||
		(!used.n && ins.N != 0) || (!used.nn && ins.NN != 0) ||
		(!used.nnn && ins.NNN != 0) {
		return 0, fmt.Errorf(
			"%w: unused operand set for %s (%+v)", ErrEncode, ins.Op, ins,
		)
	}

	return word, nil
}
