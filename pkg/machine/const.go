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

const (
	MEMORY_SIZE = 4096
	STACK_DEPTH = 16
	KEY_COUNT   = 16
	REG_COUNT   = 16

	DISPLAY_WIDTH  = 64
	DISPLAY_HEIGHT = 32

	// Timers decay at a fixed wall-clock rate regardless of instruction rate
	TIMER_HZ = 60
)

const (
	MEMSPACE_FONT    uint16 = 0x050
	MEMSPACE_PROGRAM uint16 = 0x200
	MEMSPACE_END     uint16 = MEMORY_SIZE

	MAX_IMAGE_SIZE = MEMORY_SIZE - int(MEMSPACE_PROGRAM)
)

const (
	FONT_GLYPH_SIZE = 5

	REG_VF uint8 = 0xF
)

// Opcode classes, taken from the high nibble of an instruction word
const (
	OP_SYS  uint16 = 0x0
	OP_JP   uint16 = 0x1
	OP_CALL uint16 = 0x2
	OP_SEI  uint16 = 0x3
	OP_SNEI uint16 = 0x4
	OP_SER  uint16 = 0x5
	OP_LDI  uint16 = 0x6
	OP_ADDI uint16 = 0x7
	OP_ALU  uint16 = 0x8
	OP_SNER uint16 = 0x9
	OP_LDIX uint16 = 0xA
	OP_JPV0 uint16 = 0xB
	OP_RND  uint16 = 0xC
	OP_DRW  uint16 = 0xD
	OP_KEY  uint16 = 0xE
	OP_MISC uint16 = 0xF
)

var fontGlyphs = [16 * FONT_GLYPH_SIZE]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// FontAddr returns the address of the glyph for the low nibble of digit.
func FontAddr(digit uint8) uint16 {
	return MEMSPACE_FONT + uint16(digit&0xF)*FONT_GLYPH_SIZE
}
