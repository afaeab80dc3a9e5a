//go:build !headless

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

// Package window runs the machine in an ebiten window. The game loop's 60
// ticks per second drive the host one frame at a time.
package window

import (
	"errors"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/lassandro/goc8/pkg/frontend/terminal"
	"github.com/lassandro/goc8/pkg/host"
	"github.com/lassandro/goc8/pkg/machine"
	"github.com/retroenv/retrogolib/log"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"
)

const STATUS_HEIGHT = 18

const (
	KEY_QUIT      = ebiten.KeyEscape
	KEY_INTERRUPT = ebiten.KeyF8 // pause into the debugger
	KEY_COPY      = ebiten.KeyF5 // copy the screen as text
)

// Same QWERTY layout as the terminal frontend.
var keymap = map[ebiten.Key]uint8{
	ebiten.KeyDigit1: 0x1, ebiten.KeyDigit2: 0x2, ebiten.KeyDigit3: 0x3, ebiten.KeyDigit4: 0xC,
	ebiten.KeyQ: 0x4, ebiten.KeyW: 0x5, ebiten.KeyE: 0x6, ebiten.KeyR: 0xD,
	ebiten.KeyA: 0x7, ebiten.KeyS: 0x8, ebiten.KeyD: 0x9, ebiten.KeyF: 0xE,
	ebiten.KeyZ: 0xA, ebiten.KeyX: 0x0, ebiten.KeyC: 0xB, ebiten.KeyV: 0xF,
}

var (
	colorOn     = color.RGBA{0xE8, 0xE8, 0xD0, 0xFF}
	colorOff    = color.RGBA{0x10, 0x18, 0x10, 0xFF}
	colorStatus = color.RGBA{0xA0, 0xA0, 0xA0, 0xFF}
)

type Window struct {
	Host *host.Host

	// OnInterrupt runs when KEY_INTERRUPT is pressed.
	OnInterrupt func()

	scale  int
	title  string
	logger *log.Logger

	snapshot machine.Snapshot
	image    *ebiten.Image
	pixels   []byte
	version  uint64
	filled   bool

	clipboardOnce sync.Once
	clipboardOK   bool
}

func New(h *host.Host, scale int, title string, logger *log.Logger) *Window {
	return &Window{
		Host:   h,
		scale:  scale,
		title:  title,
		logger: logger,
		pixels: make([]byte, machine.DISPLAY_WIDTH*machine.DISPLAY_HEIGHT*4),
	}
}

// Run blocks until the window is closed, the host stops or quit is pressed.
func (w *Window) Run() error {
	width, height := w.Layout(0, 0)

	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowTitle(w.title)
	ebiten.SetTPS(machine.TIMER_HZ)

	err := ebiten.RunGame(w)

	if errors.Is(err, ebiten.Termination) {
		return nil
	}

	return err
}

func (w *Window) Update() error {
	err := w.Host.Frame()

	if errors.Is(err, host.ErrQuit) {
		return ebiten.Termination
	}

	return err
}

func (w *Window) Present(snapshot *machine.Snapshot) {
	w.snapshot = *snapshot
}

func (w *Window) Poll(keypad *machine.Keypad) error {
	if inpututil.IsKeyJustPressed(KEY_QUIT) {
		return host.ErrQuit
	}

	if inpututil.IsKeyJustPressed(KEY_INTERRUPT) && w.OnInterrupt != nil {
		w.OnInterrupt()
	}

	if inpututil.IsKeyJustPressed(KEY_COPY) {
		w.copyScreen()
	}

	for key, code := range keymap {
		keypad.SetKey(code, ebiten.IsKeyPressed(key))
	}

	return nil
}

func (w *Window) copyScreen() {
	w.clipboardOnce.Do(func() {
		if err := clipboard.Init(); err != nil {
			w.logger.Warn("Clipboard unavailable", log.Err(err))
			return
		}

		w.clipboardOK = true
	})

	if !w.clipboardOK {
		return
	}

	clipboard.Write(clipboard.FmtText, []byte(terminal.FrameText(&w.snapshot.Frame)))
	w.logger.Info("Screen copied to clipboard")
}

// fillPixels converts the last presented frame to RGBA, reporting false when
// the framebuffer has not changed since the previous call.
func (w *Window) fillPixels() bool {
	if w.filled && w.snapshot.Version == w.version {
		return false
	}

	for y, row := range w.snapshot.Frame {
		for x, set := range row {
			c := colorOff
			if set {
				c = colorOn
			}

			i := (y*machine.DISPLAY_WIDTH + x) * 4
			w.pixels[i] = c.R
			w.pixels[i+1] = c.G
			w.pixels[i+2] = c.B
			w.pixels[i+3] = c.A
		}
	}

	w.version = w.snapshot.Version
	w.filled = true

	return true
}

func (w *Window) Draw(screen *ebiten.Image) {
	if w.image == nil {
		w.image = ebiten.NewImage(machine.DISPLAY_WIDTH, machine.DISPLAY_HEIGHT)
	}

	if w.fillPixels() {
		w.image.WritePixels(w.pixels)
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(w.scale), float64(w.scale))
	screen.DrawImage(w.image, op)

	text.Draw(
		screen,
		terminal.StatusLine(&w.snapshot),
		basicfont.Face7x13,
		4,
		machine.DISPLAY_HEIGHT*w.scale+13,
		colorStatus,
	)
}

func (w *Window) Layout(_, _ int) (int, int) {
	return machine.DISPLAY_WIDTH * w.scale, machine.DISPLAY_HEIGHT*w.scale + STATUS_HEIGHT
}
