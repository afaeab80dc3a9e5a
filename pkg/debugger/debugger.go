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
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/lassandro/goc8/pkg/machine"
)

var registerNames = [REG_COUNT]string{
	"V0", "V1", "V2", "V3", "V4", "V5", "V6", "V7",
	"V8", "V9", "VA", "VB", "VC", "VD", "VE", "VF",
	"I", "PC", "DT", "ST",
}

func (r Register) String() string {
	if r >= REG_COUNT {
		return "??"
	}

	return registerNames[r]
}

// ParseRegister accepts V0-VF, I, PC, DT, ST in any case, plus delay and
// sound for the two timers.
func ParseRegister(name string) (Register, error) {
	switch upper := strings.ToUpper(name); upper {
	case "DELAY":
		return REG_DT, nil
	case "SOUND":
		return REG_ST, nil
	default:
		for i, reg := range registerNames {
			if reg == upper {
				return Register(i), nil
			}
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidRegister, name)
}

// New attaches a debugger to mc. Memory watchpoints only fire while attached.
func New(mc *machine.Machine) *Debugger {
	dbg := &Debugger{
		Machine:     mc,
		breakpoints: make(map[uint16]*Breakpoint),
	}

	mc.Debugger = dbg

	return dbg
}

func (dbg *Debugger) Close() {
	if dbg.lua != nil {
		dbg.lua.Close()
		dbg.lua = nil
	}
}

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.watchHit == nil {
		return
	}

	dbg.lastHit = dbg.watchHit
	dbg.watchHit = nil

	// The hook only runs for a machine that just executed, so it can pause
	_ = mc.Pause(machine.PauseWatchpoint)
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr && dbg.watchHit == nil {
			dbg.watchHit = &WatchHit{Addr: addr, Value: mc.State.Memory[addr]}
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr && dbg.watchHit == nil {
			dbg.watchHit = &WatchHit{
				Addr:  addr,
				Write: true,
				Value: mc.State.Memory[addr],
			}
			break
		}
	}
}

// Break asks the machine to pause before its next step. Safe to call from
// another goroutine, e.g. a signal handler.
func (dbg *Debugger) Break() {
	dbg.request.Store(true)
}

func (dbg *Debugger) Pause() error {
	return dbg.Machine.Pause(machine.PauseRequest)
}

// Resume continues a paused machine. A breakpoint at the address it resumes
// from is not hit again until execution leaves it.
func (dbg *Debugger) Resume() error {
	if err := dbg.Machine.Resume(); err != nil {
		return err
	}

	// A break requested while paused was already satisfied
	dbg.request.Store(false)

	dbg.skipAddr = dbg.Machine.State.Program
	dbg.skipOnce = true
	dbg.lastHit = nil
	dbg.condErr = nil

	return nil
}

// Check is called by the host before every step. It reports whether the
// machine is paused, pausing it first when a break was requested or the
// program counter sits on a breakpoint whose condition holds.
func (dbg *Debugger) Check() bool {
	mc := dbg.Machine

	switch mc.Mode() {
	case machine.Paused:
		return true
	case machine.Halted:
		return false
	}

	if dbg.request.Swap(false) {
		_ = mc.Pause(machine.PauseRequest)
		return true
	}

	if mc.Mode() != machine.Running {
		return false
	}

	pc := mc.State.Program

	if dbg.skipOnce {
		dbg.skipOnce = false

		if pc == dbg.skipAddr {
			return false
		}
	}

	breakpoint, exists := dbg.breakpoints[pc]

	if !exists {
		return false
	}

	if breakpoint.condition != nil {
		hit, err := dbg.evaluate(breakpoint)

		if err != nil {
			// A broken condition stops the program so the error is seen
			dbg.condErr = err
		} else if !hit {
			return false
		}
	}

	breakpoint.Hits++
	_ = mc.Pause(machine.PauseBreakpoint)

	return true
}

// StepOnce executes exactly one instruction of a paused machine, ignoring
// breakpoints, and leaves it paused again unless the instruction faulted.
func (dbg *Debugger) StepOnce() (machine.Mode, error) {
	if err := dbg.checkPaused(); err != nil {
		return dbg.Machine.Mode(), err
	}

	mc := dbg.Machine

	if err := mc.Resume(); err != nil {
		return mc.Mode(), err
	}

	dbg.lastHit = nil
	dbg.condErr = nil

	if mode := mc.Step(); mode != machine.Paused && mode != machine.Halted {
		_ = mc.Pause(machine.PauseStep)
	}

	return mc.Mode(), nil
}

// LastWatch returns the access that caused the current watchpoint pause.
func (dbg *Debugger) LastWatch() (WatchHit, bool) {
	if dbg.lastHit == nil {
		return WatchHit{}, false
	}

	return *dbg.lastHit, true
}

// ConditionError returns the error of a breakpoint condition that failed to
// evaluate at the current pause.
func (dbg *Debugger) ConditionError() error {
	return dbg.condErr
}

func (dbg *Debugger) SetBreakpoint(addr uint16) error {
	if addr > machine.MEMORY_SIZE-2 || addr&0x1 != 0 {
		return fmt.Errorf("%w: %#03x is not an instruction address", ErrAddressRange, addr)
	}

	if _, exists := dbg.breakpoints[addr]; !exists {
		dbg.breakpoints[addr] = &Breakpoint{Addr: addr}
	}

	return nil
}

func (dbg *Debugger) ClearBreakpoint(addr uint16) error {
	if _, exists := dbg.breakpoints[addr]; !exists {
		return fmt.Errorf("%w: %#03x", ErrNoBreakpoint, addr)
	}

	delete(dbg.breakpoints, addr)

	return nil
}

func (dbg *Debugger) ClearBreakpoints() {
	clear(dbg.breakpoints)
}

// Breakpoints returns a copy of every breakpoint ordered by address.
func (dbg *Debugger) Breakpoints() []Breakpoint {
	list := make([]Breakpoint, 0, len(dbg.breakpoints))

	for _, breakpoint := range dbg.breakpoints {
		list = append(list, *breakpoint)
	}

	slices.SortFunc(list, func(a, b Breakpoint) int {
		return cmp.Compare(a.Addr, b.Addr)
	})

	return list
}

// AddWatchpoint watches a memory address, replacing the type of an existing
// watchpoint on the same address.
func (dbg *Debugger) AddWatchpoint(addr uint16, typ WatchpointType) error {
	if addr >= machine.MEMORY_SIZE {
		return fmt.Errorf("%w: %#03x", ErrAddressRange, addr)
	}

	for i := range dbg.Watchpoints {
		if dbg.Watchpoints[i].Addr == addr {
			dbg.Watchpoints[i].Type = typ
			return nil
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{Addr: addr, Type: typ})

	return nil
}

func (dbg *Debugger) RemoveWatchpoint(addr uint16) bool {
	for i, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr {
			dbg.Watchpoints = slices.Delete(dbg.Watchpoints, i, i+1)
			return true
		}
	}

	return false
}

func (dbg *Debugger) ReadState() machine.Snapshot {
	return dbg.Machine.Snapshot()
}

func (dbg *Debugger) ReadRegister(reg Register) (uint16, error) {
	state := &dbg.Machine.State

	switch {
	case reg <= REG_VF:
		return uint16(state.Registers[reg]), nil
	case reg == REG_I:
		return state.Index, nil
	case reg == REG_PC:
		return state.Program, nil
	case reg == REG_DT:
		return uint16(state.Delay), nil
	case reg == REG_ST:
		return uint16(state.Sound), nil
	}

	return 0, fmt.Errorf("%w: %d", ErrInvalidRegister, reg)
}

func (dbg *Debugger) ReadMemory(addr uint16, count int) ([]byte, error) {
	if count < 0 || int(addr)+count > machine.MEMORY_SIZE {
		return nil, fmt.Errorf(
			"%w: %d bytes at %#03x", ErrAddressRange, count, addr,
		)
	}

	return slices.Clone(dbg.Machine.State.Memory[addr : int(addr)+count]), nil
}

func (dbg *Debugger) checkPaused() error {
	switch dbg.Machine.Mode() {
	case machine.Paused:
		return nil
	case machine.Halted:
		return ErrHalted
	}

	return ErrNotPaused
}

// WriteRegister sets a register of a paused machine. V registers and timers
// take 8 bit values, I and PC 12 bit ones, and PC must stay even.
func (dbg *Debugger) WriteRegister(reg Register, value uint16) error {
	if err := dbg.checkPaused(); err != nil {
		return err
	}

	if reg >= REG_COUNT {
		return fmt.Errorf("%w: %d", ErrInvalidRegister, reg)
	}

	limit := uint16(0xFF)
	if reg == REG_I || reg == REG_PC {
		limit = 0xFFF
	}

	if value > limit || (reg == REG_PC && value&0x1 != 0) {
		return fmt.Errorf("%w: %s = %#x", ErrValueRange, reg, value)
	}

	state := &dbg.Machine.State

	switch reg {
	case REG_I:
		state.Index = value
	case REG_PC:
		state.Program = value
	case REG_DT:
		state.Delay = uint8(value)
	case REG_ST:
		state.Sound = uint8(value)
	default:
		state.Registers[reg] = uint8(value)
	}

	return nil
}

func (dbg *Debugger) WriteMemory(addr uint16, values ...byte) error {
	if err := dbg.checkPaused(); err != nil {
		return err
	}

	if int(addr)+len(values) > machine.MEMORY_SIZE {
		return fmt.Errorf(
			"%w: %d bytes at %#03x", ErrAddressRange, len(values), addr,
		)
	}

	copy(dbg.Machine.State.Memory[addr:], values)

	return nil
}

func (dbg *Debugger) PushStack(addr uint16) error {
	if err := dbg.checkPaused(); err != nil {
		return err
	}

	state := &dbg.Machine.State

	if state.StackSize >= machine.STACK_DEPTH {
		return ErrStackFull
	}

	if addr > 0xFFF {
		return fmt.Errorf("%w: %#03x", ErrValueRange, addr)
	}

	state.Stack[state.StackSize] = addr
	state.StackSize++

	return nil
}

func (dbg *Debugger) PopStack() (uint16, error) {
	if err := dbg.checkPaused(); err != nil {
		return 0, err
	}

	state := &dbg.Machine.State

	if state.StackSize == 0 {
		return 0, ErrStackEmpty
	}

	state.StackSize--

	return state.Stack[state.StackSize], nil
}
