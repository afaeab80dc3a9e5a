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

// Package terminal runs the machine in a text terminal: the framebuffer is
// drawn with ANSI escapes and stdin is read raw and nonblocking.
package terminal

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/lassandro/goc8/pkg/host"
	"github.com/lassandro/goc8/pkg/machine"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

const (
	KEY_INTERRUPT = 0x03 // Ctrl-C, raw mode does not raise SIGINT
	KEY_QUIT      = 0x1B // Escape
)

// Lines the renderer needs: half the pixel rows plus the status line.
const MIN_ROWS = machine.DISPLAY_HEIGHT/2 + 1

type Terminal struct {
	// OnInterrupt runs when Ctrl-C is typed while the terminal is raw.
	OnInterrupt func()

	in       int
	renderer *Renderer
	keys     Keys
	logger   *log.Logger

	state *term.State
	buf   [64]byte
}

func New(in int, out io.Writer, logger *log.Logger) *Terminal {
	return &Terminal{
		in:       in,
		renderer: NewRenderer(out),
		logger:   logger,
	}
}

// Open puts the input terminal in raw nonblocking mode and clears the screen.
func (t *Terminal) Open() error {
	if !term.IsTerminal(t.in) {
		return errors.New("Standard input is not a terminal")
	}

	if width, height, err := term.GetSize(t.in); err == nil &&
		(width < machine.DISPLAY_WIDTH || height < MIN_ROWS) {
		t.logger.Warn("Terminal too small for the display",
			log.Int("width", width),
			log.Int("height", height),
		)
	}

	if err := t.Resume(); err != nil {
		return err
	}

	fmt.Fprint(t.renderer.out, "\033[2J\033[?25l")

	return nil
}

// Suspend restores the terminal to cooked blocking mode, e.g. for the
// debugger prompt.
func (t *Terminal) Suspend() error {
	if t.state == nil {
		return nil
	}

	if err := unix.SetNonblock(t.in, false); err != nil {
		return err
	}

	err := term.Restore(t.in, t.state)
	t.state = nil

	fmt.Fprint(t.renderer.out, "\033[?25h")

	return err
}

func (t *Terminal) Resume() error {
	if t.state != nil {
		return nil
	}

	state, err := term.MakeRaw(t.in)

	if err != nil {
		return fmt.Errorf("Failed to set raw mode: %w", err)
	}

	t.state = state

	if err := unix.SetNonblock(t.in, true); err != nil {
		_ = term.Restore(t.in, t.state)
		t.state = nil
		return fmt.Errorf("Failed to set nonblocking input: %w", err)
	}

	fmt.Fprint(t.renderer.out, "\033[2J\033[?25l")
	t.renderer.Invalidate()

	return nil
}

func (t *Terminal) Close() error {
	fmt.Fprint(t.renderer.out, "\033[?25h\r\n")
	return t.Suspend()
}

func (t *Terminal) Present(snapshot *machine.Snapshot) {
	if err := t.renderer.Render(snapshot); err != nil {
		t.logger.Error("Rendering failed", log.Err(err))
	}
}

// SetHold changes how long a key stays down after its last press.
func (t *Terminal) SetHold(hold time.Duration) {
	t.keys.Hold = hold
}

// Poll drains pending input and updates the keypad.
func (t *Terminal) Poll(keypad *machine.Keypad) error {
	now := time.Now()

	for t.state != nil {
		n, err := unix.Read(t.in, t.buf[:])

		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || n == 0 {
			break
		}

		if err != nil {
			return err
		}

		input := ParseInput(t.buf[:n])

		for _, code := range input.Keys {
			t.keys.Press(code, now)
		}

		if input.Interrupt && t.OnInterrupt != nil {
			t.OnInterrupt()
		}

		if input.Quit {
			return host.ErrQuit
		}
	}

	t.keys.Apply(keypad, now)

	return nil
}
