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

import (
	"errors"
	"fmt"
)

var (
	ErrImageTooLarge = errors.New("Program image too large")

	ErrDecode         = errors.New("Invalid instruction")
	ErrStackOverflow  = errors.New("Call stack overflow")
	ErrStackUnderflow = errors.New("Call stack underflow")
	ErrMemory         = errors.New("Memory access out of range")
	ErrMisaligned     = errors.New("Misaligned program counter")

	ErrHalted        = errors.New("Machine is halted")
	ErrNotPaused     = errors.New("Machine is not paused")
	ErrAlreadyPaused = errors.New("Machine is already paused")
)

// Fault is the terminal error that halted a machine. Program and Word
// identify the instruction being executed, Addr the offending address or
// jump target where one applies.
type Fault struct {
	Err     error
	Program uint16
	Word    uint16
	Addr    uint16
}

func (f *Fault) Error() string {
	switch f.Err {
	case ErrMemory, ErrMisaligned:
		return fmt.Sprintf(
			"%s (%#03x) at [%#03x] %#04x", f.Err, f.Addr, f.Program, f.Word,
		)
	}

	return fmt.Sprintf("%s at [%#03x] %#04x", f.Err, f.Program, f.Word)
}

func (f *Fault) Unwrap() error {
	return f.Err
}
