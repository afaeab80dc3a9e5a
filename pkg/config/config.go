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

// Package config holds the interpreter options and builds the logger.
package config

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/lassandro/goc8/pkg/encoding"
	"github.com/lassandro/goc8/pkg/machine"
	"github.com/retroenv/retrogolib/log"
)

const (
	DEFAULT_RATE  = 700
	DEFAULT_SCALE = 10

	MAX_RATE  = 100000
	MAX_SCALE = 32

	MAX_HOLD = 5 * time.Second
)

var (
	ErrNoProgram = errors.New("No program image given")
	ErrRate      = errors.New("Instruction rate out of range")
	ErrScale     = errors.New("Window scale out of range")
	ErrHold      = errors.New("Key hold time out of range")
)

type Options struct {
	Program string

	Debug  bool
	Window bool
	Mute   bool

	Rate  int
	Scale int
	Seed  uint64

	// Hold is how long a terminal key stays down after its last press,
	// zero keeps the frontend default.
	Hold time.Duration

	Breakpoints AddressList

	Verbose bool
	Quiet   bool
}

func Default() Options {
	return Options{
		Rate:  DEFAULT_RATE,
		Scale: DEFAULT_SCALE,
	}
}

func (o *Options) Validate() error {
	if o.Program == "" {
		return ErrNoProgram
	}

	if o.Rate < 1 || o.Rate > MAX_RATE {
		return fmt.Errorf("%w: %d (1-%d)", ErrRate, o.Rate, MAX_RATE)
	}

	if o.Scale < 1 || o.Scale > MAX_SCALE {
		return fmt.Errorf("%w: %d (1-%d)", ErrScale, o.Scale, MAX_SCALE)
	}

	if o.Hold < 0 || o.Hold > MAX_HOLD {
		return fmt.Errorf("%w: %s (0-%s)", ErrHold, o.Hold, MAX_HOLD)
	}

	return nil
}

// Random returns the source for RND. A zero seed means a fresh random seed
// on every run.
func (o *Options) Random() machine.Random {
	if o.Seed == 0 {
		return nil
	}

	return rand.New(rand.NewPCG(o.Seed, o.Seed))
}

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// AddressList collects repeated address flags such as -break 0x200.
type AddressList []uint16

func (a *AddressList) String() string {
	parts := make([]string, len(*a))

	for i, addr := range *a {
		parts[i] = fmt.Sprintf("%#03x", addr)
	}

	return strings.Join(parts, ",")
}

func (a *AddressList) Set(value string) error {
	addr, err := encoding.DecodeNumber(value)

	if err != nil {
		return err
	}

	if addr >= machine.MEMORY_SIZE {
		return fmt.Errorf("Address %#03x out of range", addr)
	}

	*a = append(*a, addr)

	return nil
}
