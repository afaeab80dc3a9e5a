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

// Keypad holds the 16 hex keys. A key going from released to pressed latches
// a press edge which stays set until taken, even if the key is released again
// before the program looks.
type Keypad struct {
	pressed [KEY_COUNT]bool
	latched [KEY_COUNT]bool
}

// SetKey is called by the host. Codes outside 0x0-0xF are ignored.
func (k *Keypad) SetKey(code uint8, pressed bool) {
	if code >= KEY_COUNT {
		return
	}

	if pressed && !k.pressed[code] {
		k.latched[code] = true
	}

	k.pressed[code] = pressed
}

func (k *Keypad) IsPressed(code uint8) bool {
	if code >= KEY_COUNT {
		return false
	}

	return k.pressed[code]
}

func (k *Keypad) AnyPressed() (uint8, bool) {
	for code, pressed := range k.pressed {
		if pressed {
			return uint8(code), true
		}
	}

	return 0, false
}

// TakePress consumes the lowest latched press edge.
func (k *Keypad) TakePress() (uint8, bool) {
	for code, latched := range k.latched {
		if latched {
			k.latched[code] = false
			return uint8(code), true
		}
	}

	return 0, false
}

func (k *Keypad) ClearLatch() {
	k.latched = [KEY_COUNT]bool{}
}

func (k *Keypad) Snapshot() [KEY_COUNT]bool {
	return k.pressed
}
