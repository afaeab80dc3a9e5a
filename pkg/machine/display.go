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

// Frame is a row-major copy of the framebuffer, Frame[y][x].
type Frame [DISPLAY_HEIGHT][DISPLAY_WIDTH]bool

type Display struct {
	pixels  Frame
	version uint64
}

func (d *Display) Clear() {
	d.pixels = Frame{}
	d.version++
}

// Draw XORs an 8 pixel wide sprite, one byte per row, at (x, y). Every pixel
// wraps around both edges. Reports whether any set pixel was cleared.
func (d *Display) Draw(x, y uint8, sprite []byte) bool {
	collided := false

	for row, bits := range sprite {
		py := (int(y) + row) % DISPLAY_HEIGHT

		for col := 0; col < 8; col++ {
			if (bits>>(7-col))&0x1 == 0 {
				continue
			}

			px := (int(x) + col) % DISPLAY_WIDTH

			if d.pixels[py][px] {
				collided = true
			}

			d.pixels[py][px] = !d.pixels[py][px]
		}
	}

	if len(sprite) > 0 {
		d.version++
	}

	return collided
}

// Pixel reads a pixel, wrapping coordinates the same way Draw does.
func (d *Display) Pixel(x, y int) bool {
	x %= DISPLAY_WIDTH
	if x < 0 {
		x += DISPLAY_WIDTH
	}

	y %= DISPLAY_HEIGHT
	if y < 0 {
		y += DISPLAY_HEIGHT
	}

	return d.pixels[y][x]
}

func (d *Display) Snapshot() Frame {
	return d.pixels
}

// Version increases whenever the framebuffer may have changed, letting a
// renderer skip frames that are identical to the last one it drew.
func (d *Display) Version() uint64 {
	return d.version
}
