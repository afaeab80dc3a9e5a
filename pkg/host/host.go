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

// Package host drives a machine in real time: it runs the configured number
// of instructions per 60 Hz frame, ticks the timers and exchanges the
// framebuffer and key state with a frontend.
package host

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/lassandro/goc8/pkg/machine"
	"github.com/retroenv/retrogolib/log"
)

const FRAME = time.Second / machine.TIMER_HZ

// Frames of backlog kept after the loop stalled, e.g. in the debugger.
const MAX_LAG = 4 * FRAME

var ErrQuit = errors.New("Quit requested")

// Frontend shows the machine and feeds it keys. Present receives a detached
// snapshot; Poll writes the current key state into the keypad and may return
// ErrQuit.
type Frontend interface {
	Present(snapshot *machine.Snapshot)
	Poll(keypad *machine.Keypad) error
}

type Speaker interface {
	SetActive(active bool)
}

// Breaker is consulted before every step; true means the machine is paused.
type Breaker interface {
	Check() bool
}

type Host struct {
	Machine  *machine.Machine
	Breaker  Breaker
	Frontend Frontend
	Speaker  Speaker

	// OnBreak runs synchronously whenever a frame ends with the machine
	// newly paused or halted. Returning an error stops the host.
	OnBreak func(mc *machine.Machine) error

	logger *log.Logger
	rate   int

	accumulator time.Duration
	budget      float64
	stopped     machine.Mode
	frames      uint64
}

func New(mc *machine.Machine, rate int, logger *log.Logger) *Host {
	return &Host{
		Machine: mc,
		logger:  logger,
		rate:    rate,
		stopped: machine.Running,
	}
}

func (h *Host) Frames() uint64 {
	return h.frames
}

// Advance adds elapsed real time and runs every whole frame it covers.
func (h *Host) Advance(elapsed time.Duration) error {
	h.accumulator += elapsed

	if h.accumulator > MAX_LAG {
		h.accumulator = MAX_LAG
	}

	for h.accumulator >= FRAME {
		h.accumulator -= FRAME

		if err := h.Frame(); err != nil {
			return err
		}
	}

	return nil
}

// Frame runs one 1/60 s frame: the instruction budget, one timer tick, then
// the frontend exchange. Paused and halted machines neither step nor tick.
func (h *Host) Frame() error {
	mc := h.Machine

	h.budget += float64(h.rate) / machine.TIMER_HZ

	for h.budget >= 1 {
		if h.Breaker != nil && h.Breaker.Check() {
			break
		}

		h.budget--

		if mode := mc.Step(); mode != machine.Running {
			break
		}
	}

	mode := mc.Mode()

	switch mode {
	case machine.Running:
		mc.Tick()
	case machine.WaitingForKey:
		h.budget = math.Mod(h.budget, 1)
		mc.Tick()
	default:
		h.budget = 0
	}

	h.frames++

	if h.Speaker != nil {
		h.Speaker.SetActive(mc.SoundActive())
	}

	if h.Frontend != nil {
		snapshot := mc.Snapshot()
		h.Frontend.Present(&snapshot)

		if err := h.Frontend.Poll(&mc.Keypad); err != nil {
			return err
		}
	}

	return h.stop(mode)
}

func (h *Host) stop(mode machine.Mode) error {
	if mode != machine.Paused && mode != machine.Halted {
		h.stopped = mode
		return nil
	}

	if mode == h.stopped {
		return nil
	}

	h.stopped = mode
	mc := h.Machine

	if mode == machine.Halted {
		h.logger.Error("Machine halted",
			log.Err(mc.Fault()),
			log.Hex("pc", mc.State.Program),
		)
	} else {
		h.logger.Debug("Machine paused",
			log.Stringer("reason", mc.PauseReason()),
			log.Hex("pc", mc.State.Program),
		)
	}

	if h.Speaker != nil {
		h.Speaker.SetActive(false)
	}

	if h.OnBreak == nil {
		if mode == machine.Halted {
			return mc.Fault()
		}

		return nil
	}

	if err := h.OnBreak(mc); err != nil {
		return err
	}

	// The break handler may have resumed or reset the machine
	h.stopped = mc.Mode()

	if h.stopped == machine.Halted {
		return mc.Fault()
	}

	return nil
}

// Run drives the host from a ticker until ctx is done, the frontend asks to
// quit or the machine halts.
func (h *Host) Run(ctx context.Context) error {
	ticker := time.NewTicker(FRAME)
	defer ticker.Stop()

	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil

		case now := <-ticker.C:
			err := h.Advance(now.Sub(last))
			last = time.Now()

			if errors.Is(err, ErrQuit) {
				return nil
			}

			if err != nil {
				return err
			}
		}
	}
}
