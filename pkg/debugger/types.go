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

package debugger

import (
	"errors"
	"sync/atomic"

	"github.com/lassandro/goc8/pkg/machine"
	lua "github.com/yuin/gopher-lua"
)

type WatchpointType uint

const (
	ReadWatch WatchpointType = iota
	WriteWatch
	ReadWriteWatch
)

func (w WatchpointType) String() string {
	switch w {
	case ReadWatch:
		return "read"
	case WriteWatch:
		return "write"
	case ReadWriteWatch:
		return "readwrite"
	}

	return "unknown"
}

type Watchpoint struct {
	Addr uint16
	Type WatchpointType
}

// WatchHit records the access that tripped a watchpoint.
type WatchHit struct {
	Addr  uint16
	Write bool
	Value byte
}

type Breakpoint struct {
	Addr      uint16
	Condition string
	Hits      uint

	condition *lua.LFunction
}

type Register uint8

const (
	REG_V0 Register = iota
	REG_V1
	REG_V2
	REG_V3
	REG_V4
	REG_V5
	REG_V6
	REG_V7
	REG_V8
	REG_V9
	REG_VA
	REG_VB
	REG_VC
	REG_VD
	REG_VE
	REG_VF
	REG_I
	REG_PC
	REG_DT
	REG_ST

	REG_COUNT
)

var (
	ErrNotPaused     = machine.ErrNotPaused
	ErrAlreadyPaused = machine.ErrAlreadyPaused
	ErrHalted        = machine.ErrHalted

	ErrInvalidRegister = errors.New("Invalid register")
	ErrValueRange      = errors.New("Value out of range for register")
	ErrAddressRange    = errors.New("Address out of range")
	ErrStackFull       = errors.New("Call stack is full")
	ErrStackEmpty      = errors.New("Call stack is empty")
	ErrCondition       = errors.New("Invalid breakpoint condition")
	ErrNoBreakpoint    = errors.New("No breakpoint at address")
)

type Debugger struct {
	Machine *machine.Machine

	Watchpoints []Watchpoint

	breakpoints map[uint16]*Breakpoint
	request     atomic.Bool

	skipAddr uint16
	skipOnce bool

	watchHit *WatchHit
	lastHit  *WatchHit
	condErr  error

	lua *lua.LState
}
