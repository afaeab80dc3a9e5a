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
	"bytes"
	"fmt"
	"io"

	"github.com/lassandro/goc8/pkg/machine"
)

// Renderer draws frames with half block characters, two pixel rows per text
// line, and a status line below.
type Renderer struct {
	out io.Writer
	buf bytes.Buffer

	version uint64
	status  string
	drawn   bool
}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

func (r *Renderer) Invalidate() {
	r.drawn = false
}

// StatusLine summarizes the registers a player cares about and the mode.
func StatusLine(snapshot *machine.Snapshot) string {
	line := fmt.Sprintf(
		"PC %#03x  I %#03x  %s",
		snapshot.State.Program, snapshot.State.Index, snapshot.Mode,
	)

	if snapshot.Mode == machine.Halted && snapshot.Fault != nil {
		line += ": " + snapshot.Fault.Error()
	}

	return line
}

func appendFrame(buf *bytes.Buffer, frame *machine.Frame, newline string) {
	for y := 0; y < machine.DISPLAY_HEIGHT; y += 2 {
		for x := 0; x < machine.DISPLAY_WIDTH; x++ {
			top, bottom := frame[y][x], frame[y+1][x]

			switch {
			case top && bottom:
				buf.WriteString("█")
			case top:
				buf.WriteString("▀")
			case bottom:
				buf.WriteString("▄")
			default:
				buf.WriteByte(' ')
			}
		}

		buf.WriteString(newline)
	}
}

// FrameText renders a frame as plain text lines of half blocks.
func FrameText(frame *machine.Frame) string {
	var buf bytes.Buffer
	appendFrame(&buf, frame, "\n")
	return buf.String()
}

// Render redraws the screen unless nothing changed since the last call.
func (r *Renderer) Render(snapshot *machine.Snapshot) error {
	line := StatusLine(snapshot)

	if r.drawn && snapshot.Version == r.version && line == r.status {
		return nil
	}

	r.version = snapshot.Version
	r.status = line
	r.drawn = true

	r.buf.Reset()
	r.buf.WriteString("\033[H")

	appendFrame(&r.buf, &snapshot.Frame, "\r\n")

	fmt.Fprintf(&r.buf, "\033[1;30m%s\033[0m\033[K\r\n", line)

	_, err := r.out.Write(r.buf.Bytes())
	return err
}
