//go:build headless

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

package window

import (
	"errors"

	"github.com/lassandro/goc8/pkg/host"
	"github.com/lassandro/goc8/pkg/machine"
	"github.com/retroenv/retrogolib/log"
)

var ErrHeadless = errors.New("Built without window support")

type Window struct {
	Host        *host.Host
	OnInterrupt func()
}

func New(h *host.Host, _ int, _ string, _ *log.Logger) *Window {
	return &Window{Host: h}
}

func (w *Window) Run() error {
	return ErrHeadless
}

func (w *Window) Present(*machine.Snapshot) {}

func (w *Window) Poll(*machine.Keypad) error {
	return nil
}
