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

package terminal_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/lassandro/goc8/pkg/frontend/terminal"
	"github.com/lassandro/goc8/pkg/machine"
	"github.com/retroenv/retrogolib/assert"
)

func TestMapKey(t *testing.T) {
	tests := map[byte]uint8{
		'1': 0x1, '4': 0xC, 'q': 0x4, 'R': 0xD,
		'a': 0x7, 'f': 0xE, 'z': 0xA, 'X': 0x0, 'v': 0xF,
	}

	for b, want := range tests {
		code, ok := terminal.MapKey(b)
		assert.True(t, ok)
		assert.Equal(t, want, code)
	}

	_, ok := terminal.MapKey('p')
	assert.False(t, ok)
}

func TestKeyHold(t *testing.T) {
	var keys terminal.Keys
	var keypad machine.Keypad

	start := time.Now()

	keys.Press(0x5, start)
	keys.Apply(&keypad, start)
	assert.True(t, keypad.IsPressed(0x5))

	keys.Apply(&keypad, start.Add(terminal.HOLD/2))
	assert.True(t, keypad.IsPressed(0x5))

	// Autorepeat extends the hold
	keys.Press(0x5, start.Add(terminal.HOLD/2))
	keys.Apply(&keypad, start.Add(terminal.HOLD))
	assert.True(t, keypad.IsPressed(0x5))

	keys.Apply(&keypad, start.Add(2*terminal.HOLD))
	assert.False(t, keypad.IsPressed(0x5))

	// One press edge in total
	code, ok := keypad.TakePress()
	assert.True(t, ok)
	assert.Equal(t, uint8(0x5), code)

	_, ok = keypad.TakePress()
	assert.False(t, ok)
}

func TestKeyHoldOverride(t *testing.T) {
	keys := terminal.Keys{Hold: 50 * time.Millisecond}
	var keypad machine.Keypad

	start := time.Now()

	keys.Press(0xA, start)
	keys.Apply(&keypad, start.Add(40*time.Millisecond))
	assert.True(t, keypad.IsPressed(0xA))

	keys.Apply(&keypad, start.Add(60*time.Millisecond))
	assert.False(t, keypad.IsPressed(0xA))

	// The default outlasts a typical autorepeat delay
	assert.True(t, terminal.HOLD > 660*time.Millisecond)
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  terminal.Input
	}{
		{"keys", "qW1", terminal.Input{Keys: []uint8{0x4, 0x5, 0x1}}},
		{"lone escape", "\x1b", terminal.Input{Quit: true}},
		{"keys then escape", "a\x1b", terminal.Input{Keys: []uint8{0x7}, Quit: true}},
		{"interrupt", "\x03", terminal.Input{Interrupt: true}},
		{"arrow key", "\x1b[A", terminal.Input{}},
		{"arrow between keys", "z\x1b[1;5Cx", terminal.Input{Keys: []uint8{0xA, 0x0}}},
		{"function key", "\x1bOP", terminal.Input{}},
		{"alt combination", "\x1bqe", terminal.Input{Keys: []uint8{0x6}}},
		{"cut off sequence", "\x1b[1", terminal.Input{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, terminal.ParseInput([]byte(tt.input)))
		})
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	r := terminal.NewRenderer(&buf)

	mc := machine.New(nil)
	mc.Display.Draw(0, 0, []byte{0xC0, 0x80})
	mc.Display.Draw(4, 1, []byte{0x80})

	snapshot := mc.Snapshot()
	assert.NoError(t, r.Render(&snapshot))

	lines := strings.Split(buf.String(), "\r\n")
	assert.True(t, strings.HasPrefix(lines[0], "\033[H█▀  ▄ "))
	assert.Equal(t, machine.DISPLAY_WIDTH, len([]rune(strings.TrimPrefix(lines[0], "\033[H"))))
	assert.Contains(t, lines[machine.DISPLAY_HEIGHT/2], "PC 0x200  I 0x000")

	// An unchanged frame is not drawn again
	buf.Reset()
	assert.NoError(t, r.Render(&snapshot))
	assert.Equal(t, 0, buf.Len())

	r.Invalidate()
	assert.NoError(t, r.Render(&snapshot))
	assert.True(t, buf.Len() > 0)
}

func TestFrameText(t *testing.T) {
	var frame machine.Frame
	frame[0][63] = true
	frame[31][0] = true

	lines := strings.Split(strings.TrimSuffix(terminal.FrameText(&frame), "\n"), "\n")

	assert.Len(t, lines, machine.DISPLAY_HEIGHT/2)
	assert.True(t, strings.HasSuffix(lines[0], " ▀"))
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "▄ "))
}
