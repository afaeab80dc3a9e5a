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

type Mode uint8

const (
	Running Mode = iota
	WaitingForKey
	Paused
	Halted
)

func (m Mode) String() string {
	switch m {
	case Running:
		return "running"
	case WaitingForKey:
		return "waiting for key"
	case Paused:
		return "paused"
	case Halted:
		return "halted"
	}

	return "unknown"
}

type PauseReason uint8

const (
	PauseNone PauseReason = iota
	PauseRequest
	PauseBreakpoint
	PauseWatchpoint
	PauseStep
)

func (r PauseReason) String() string {
	switch r {
	case PauseNone:
		return "none"
	case PauseRequest:
		return "requested"
	case PauseBreakpoint:
		return "breakpoint"
	case PauseWatchpoint:
		return "watchpoint"
	case PauseStep:
		return "step"
	}

	return "unknown"
}

// Random supplies the bytes drawn by RND. *rand.Rand from math/rand/v2
// satisfies it.
type Random interface {
	Uint32() uint32
}

type MachineState struct {
	Registers [REG_COUNT]uint8
	Index     uint16
	Program   uint16
	Delay     uint8
	Sound     uint8
	Stack     [STACK_DEPTH]uint16
	StackSize int
	Memory    [MEMORY_SIZE]byte
}

// MachineDebugger observes execution. Step runs after every executed
// instruction, Read and Write on every data access an instruction makes.
type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

type Machine struct {
	State    MachineState
	Display  Display
	Keypad   Keypad
	Random   Random
	Debugger MachineDebugger

	mode    Mode
	resume  Mode
	reason  PauseReason
	waitReg uint8
	fault   *Fault
}

// Snapshot is a detached copy of everything a debugger or renderer may show.
type Snapshot struct {
	State        MachineState
	Frame        Frame
	Version      uint64
	Keys         [KEY_COUNT]bool
	Mode         Mode
	ResumeMode   Mode
	Reason       PauseReason
	WaitRegister uint8
	Fault        *Fault
}

func (s *Snapshot) Stack() []uint16 {
	return s.State.Stack[:s.State.StackSize]
}
