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

package terminal

import (
	"time"

	"github.com/lassandro/goc8/pkg/machine"
)

// Key layout on a QWERTY keyboard:
//
//	1 2 3 4        1 2 3 C
//	q w e r   ->   4 5 6 D
//	a s d f        7 8 9 E
//	z x c v        A 0 B F
var keymap = map[byte]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

func MapKey(b byte) (uint8, bool) {
	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}

	code, ok := keymap[b]
	return code, ok
}

// A terminal only reports key presses, never releases. A key counts as held
// for the hold time after its last press; autorepeat keeps a held key alive,
// so the hold has to outlast the keyboard's autorepeat delay.
const HOLD = 700 * time.Millisecond

type Keys struct {
	// Hold overrides HOLD when non-zero.
	Hold time.Duration

	pressed [machine.KEY_COUNT]time.Time
}

func (k *Keys) Press(code uint8, at time.Time) {
	if code < machine.KEY_COUNT {
		k.pressed[code] = at
	}
}

// Apply writes the emulated key state at the given time into keypad.
func (k *Keys) Apply(keypad *machine.Keypad, at time.Time) {
	hold := k.Hold
	if hold <= 0 {
		hold = HOLD
	}

	for code, last := range k.pressed {
		held := !last.IsZero() && at.Sub(last) < hold
		keypad.SetKey(uint8(code), held)
	}
}

// Input is what one read of raw terminal bytes asks for.
type Input struct {
	Keys      []uint8
	Interrupt bool
	Quit      bool
}

// ParseInput maps raw terminal bytes to keypad codes. Only an escape that
// ends the read quits; escape sequences sent by arrow and function keys are
// skipped along with alt combinations.
func ParseInput(data []byte) Input {
	var input Input

	for i := 0; i < len(data); i++ {
		switch b := data[i]; b {
		case KEY_INTERRUPT:
			input.Interrupt = true

		case KEY_QUIT:
			if i == len(data)-1 {
				input.Quit = true
				break
			}

			i = skipEscape(data, i)

		default:
			if code, ok := MapKey(b); ok {
				input.Keys = append(input.Keys, code)
			}
		}
	}

	return input
}

// skipEscape returns the index of the last byte of the escape sequence
// starting at data[i].
func skipEscape(data []byte, i int) int {
	i++

	switch data[i] {
	case '[':
		// CSI: parameter bytes up to a final byte in 0x40-0x7E
		for i++; i < len(data); i++ {
			if data[i] >= 0x40 && data[i] <= 0x7E {
				return i
			}
		}

		return len(data) - 1

	case 'O':
		// SS3: one more byte, e.g. F1-F4
		return min(i+1, len(data)-1)
	}

	return i
}
