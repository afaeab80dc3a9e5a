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


package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/lassandro/goc8/pkg/audio"
	"github.com/lassandro/goc8/pkg/config"
	"github.com/lassandro/goc8/pkg/debugger"
	"github.com/lassandro/goc8/pkg/frontend/terminal"
	"github.com/lassandro/goc8/pkg/frontend/window"
	"github.com/lassandro/goc8/pkg/host"
	"github.com/lassandro/goc8/pkg/machine"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
)

var helpvar bool
var opts = config.Default()

const usage = "goc8 [options] filename"

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&opts.Debug, "debug", false, "Pauses in the debugger before the first instruction")
	flag.BoolVar(&opts.Window, "window", false, "Opens a window instead of drawing in the terminal")
	flag.BoolVar(&opts.Mute, "mute", false, "Disables the sound timer tone")
	flag.IntVar(&opts.Rate, "rate", config.DEFAULT_RATE, "Instructions executed per second")
	flag.IntVar(&opts.Scale, "scale", config.DEFAULT_SCALE, "Window pixels per display pixel")
	flag.DurationVar(&opts.Hold, "hold", 0, "How long a terminal key stays down after a press, 0 for the default")
	flag.Uint64Var(&opts.Seed, "seed", 0, "Seed for RND, 0 picks a random seed")
	flag.Var(&opts.Breakpoints, "break", "Sets a breakpoint, can be repeated")
	flag.BoolVar(&opts.Verbose, "v", false, "Logs pauses and other debug output")
	flag.BoolVar(&opts.Quiet, "quiet", false, "Only logs errors")
	flag.Parse()
}

func goc8() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, usage)
		return 1
	}

	opts.Program = args[0]
	logger := config.CreateLogger(opts.Verbose, opts.Quiet)

	if err := opts.Validate(); err != nil {
		logger.Error("Invalid options", log.Err(err))
		return 1
	}

	image, err := os.ReadFile(opts.Program)

	if err != nil {
		logger.Error("Loading program failed", log.Err(err))
		return 1
	}

	mc := machine.New(opts.Random())

	if err := mc.LoadImage(image); err != nil {
		logger.Error("Loading program failed", log.Err(err))
		return 1
	}

	dbg := debugger.New(mc)
	defer dbg.Close()

	for _, addr := range opts.Breakpoints {
		if err := dbg.SetBreakpoint(addr); err != nil {
			logger.Error("Invalid breakpoint", log.Err(err))
			return 1
		}
	}

	h := host.New(mc, opts.Rate, logger)
	h.Breaker = dbg

	// A breakpoint without the prompt would freeze the machine for good
	debugging := opts.Debug || len(opts.Breakpoints) > 0

	if opts.Debug {
		_ = dbg.Pause()
	}

	if !opts.Mute {
		if beeper, err := audio.NewBeeper(); err == nil {
			h.Speaker = beeper
			defer beeper.Close()
		} else {
			logger.Warn("Audio unavailable", log.Err(err))
		}
	}

	if opts.Window {
		err = runWindow(h, dbg, image, debugging, logger)
	} else {
		err = runTerminal(h, dbg, image, debugging, logger)
	}

	if err != nil {
		var fault *machine.Fault

		if !errors.As(err, &fault) {
			logger.Error("Interpreter stopped", log.Err(err))
		}

		return 1
	}

	return 0
}

func runTerminal(
	h *host.Host,
	dbg *debugger.Debugger,
	image []byte,
	debugging bool,
	logger *log.Logger,
) error {
	term := terminal.New(int(os.Stdin.Fd()), os.Stdout, logger)
	term.SetHold(opts.Hold)

	if err := term.Open(); err != nil {
		return err
	}

	defer term.Close()

	parent := context.Background()

	if !debugging {
		parent = app.Context()
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	h.Frontend = term

	if debugging {
		// Raw mode swallows the interrupt signal, Ctrl-C arrives as a key
		term.OnInterrupt = dbg.Break
		h.OnBreak = func(*machine.Machine) error {
			if err := term.Suspend(); err != nil {
				return err
			}

			defer term.Resume()

			return handleBreak(dbg, image)
		}

		defer notifyBreak(dbg)()
	} else {
		term.OnInterrupt = cancel
	}

	return h.Run(ctx)
}

func runWindow(
	h *host.Host,
	dbg *debugger.Debugger,
	image []byte,
	debugging bool,
	logger *log.Logger,
) error {
	title := fmt.Sprintf("goc8 - %s", filepath.Base(opts.Program))
	win := window.New(h, opts.Scale, title, logger)
	h.Frontend = win

	if debugging {
		win.OnInterrupt = dbg.Break
		h.OnBreak = func(*machine.Machine) error {
			return handleBreak(dbg, image)
		}

		defer notifyBreak(dbg)()
	}

	return win.Run()
}

// notifyBreak turns SIGINT into a break request until the returned function
// is called.
func notifyBreak(dbg *debugger.Debugger) func() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		for range c {
			dbg.Break()
		}
	}()

	return func() {
		signal.Stop(c)
		close(c)
	}
}

func main() {
	os.Exit(goc8())
}
