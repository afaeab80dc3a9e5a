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

package debugger_test

import (
	"errors"
	"testing"

	"github.com/lassandro/goc8/pkg/debugger"
	"github.com/lassandro/goc8/pkg/machine"
	"github.com/retroenv/retrogolib/assert"
)

func setup(t *testing.T, image ...byte) (*machine.Machine, *debugger.Debugger) {
	t.Helper()

	mc := machine.New(nil)
	assert.NoError(t, mc.LoadImage(image))

	dbg := debugger.New(mc)
	t.Cleanup(dbg.Close)

	return mc, dbg
}

// hostStep is what the host loop does for one instruction slot.
func hostStep(mc *machine.Machine, dbg *debugger.Debugger) {
	if !dbg.Check() {
		mc.Step()
	}
}

func TestBreakpointAtThirdInstruction(t *testing.T) {
	// LD V0, 1; LD V1, 2; LD V2, 3
	mc, dbg := setup(t, 0x60, 0x01, 0x61, 0x02, 0x62, 0x03)

	assert.NoError(t, dbg.SetBreakpoint(0x204))

	for i := 0; i < 3; i++ {
		hostStep(mc, dbg)
	}

	assert.Equal(t, machine.Paused, mc.Mode())
	assert.Equal(t, machine.PauseBreakpoint, mc.PauseReason())
	assert.Equal(t, uint16(0x204), mc.State.Program)
	assert.Equal(t, uint8(1), mc.State.Registers[0])
	assert.Equal(t, uint8(2), mc.State.Registers[1])
	assert.Equal(t, uint8(0), mc.State.Registers[2])

	// Further host steps leave the paused machine alone
	hostStep(mc, dbg)
	assert.Equal(t, uint16(0x204), mc.State.Program)

	// Resuming passes over the breakpoint it stopped at
	assert.NoError(t, dbg.Resume())
	hostStep(mc, dbg)
	assert.Equal(t, machine.Running, mc.Mode())
	assert.Equal(t, uint8(3), mc.State.Registers[2])

	breakpoints := dbg.Breakpoints()
	assert.Len(t, breakpoints, 1)
	assert.Equal(t, uint(1), breakpoints[0].Hits)
}

func TestBreakpointLoopHitsAgain(t *testing.T) {
	// ADD V0, 1; JP 0x200
	mc, dbg := setup(t, 0x70, 0x01, 0x12, 0x00)

	assert.NoError(t, dbg.SetBreakpoint(0x200))

	hostStep(mc, dbg)
	assert.Equal(t, machine.Paused, mc.Mode())

	assert.NoError(t, dbg.Resume())

	for i := 0; i < 3; i++ {
		hostStep(mc, dbg)
	}

	assert.Equal(t, machine.Paused, mc.Mode())
	assert.Equal(t, uint8(1), mc.State.Registers[0])
	assert.Equal(t, uint(2), dbg.Breakpoints()[0].Hits)
}

func TestConditionalBreakpoint(t *testing.T) {
	// ADD V0, 1; JP 0x200
	mc, dbg := setup(t, 0x70, 0x01, 0x12, 0x00)

	assert.NoError(t, dbg.SetBreakpoint(0x202))
	assert.NoError(t, dbg.SetCondition(0x202, "V0 == 3 and PC == 0x202"))

	for i := 0; i < 20 && mc.Mode() == machine.Running; i++ {
		hostStep(mc, dbg)
	}

	assert.Equal(t, machine.Paused, mc.Mode())
	assert.Equal(t, uint8(3), mc.State.Registers[0])
	assert.Equal(t, uint16(0x202), mc.State.Program)
	assert.NoError(t, dbg.ConditionError())

	// Numbers count as true when non-zero
	assert.NoError(t, dbg.SetCondition(0x202, "mem(0x200) - 0x70"))
	assert.NoError(t, dbg.Resume())

	for i := 0; i < 10; i++ {
		hostStep(mc, dbg)
	}

	assert.Equal(t, machine.Running, mc.Mode())

	assert.NoError(t, dbg.SetCondition(0x202, ""))
	assert.Empty(t, dbg.Breakpoints()[0].Condition)
}

func TestConditionErrors(t *testing.T) {
	mc, dbg := setup(t, 0x70, 0x01, 0x12, 0x00)

	err := dbg.SetCondition(0x202, "V0 == 1")
	assert.True(t, errors.Is(err, debugger.ErrNoBreakpoint))

	assert.NoError(t, dbg.SetBreakpoint(0x202))

	err = dbg.SetCondition(0x202, "V0 ==")
	assert.True(t, errors.Is(err, debugger.ErrCondition))

	// Fails at run time, which still stops the program
	assert.NoError(t, dbg.SetCondition(0x202, "mem(99999) == 1"))

	hostStep(mc, dbg)
	hostStep(mc, dbg)

	assert.Equal(t, machine.Paused, mc.Mode())
	assert.True(t, errors.Is(dbg.ConditionError(), debugger.ErrCondition))
}

func TestBreakRequest(t *testing.T) {
	mc, dbg := setup(t, 0x70, 0x01, 0x12, 0x00)

	hostStep(mc, dbg)
	dbg.Break()
	hostStep(mc, dbg)

	assert.Equal(t, machine.Paused, mc.Mode())
	assert.Equal(t, machine.PauseRequest, mc.PauseReason())
	assert.Equal(t, uint16(0x202), mc.State.Program)
}

func TestBreakWhilePausedIsDropped(t *testing.T) {
	mc, dbg := setup(t, 0x70, 0x01, 0x12, 0x00)

	assert.NoError(t, dbg.Pause())
	dbg.Break()
	assert.NoError(t, dbg.Resume())

	assert.False(t, dbg.Check())
	assert.Equal(t, machine.Running, mc.Mode())

	hostStep(mc, dbg)
	assert.Equal(t, machine.Running, mc.Mode())
	assert.Equal(t, uint8(1), mc.State.Registers[0])
}

func TestStepOnce(t *testing.T) {
	mc, dbg := setup(t, 0x60, 0x01, 0x61, 0x02, 0x62, 0x03)

	_, err := dbg.StepOnce()
	assert.True(t, errors.Is(err, debugger.ErrNotPaused))

	assert.NoError(t, dbg.SetBreakpoint(0x202))
	assert.NoError(t, dbg.Pause())
	assert.True(t, errors.Is(dbg.Pause(), debugger.ErrAlreadyPaused))

	// Steps straight through the breakpoint
	for i := 0; i < 2; i++ {
		mode, err := dbg.StepOnce()
		assert.NoError(t, err)
		assert.Equal(t, machine.Paused, mode)
		assert.Equal(t, machine.PauseStep, mc.PauseReason())
	}

	assert.Equal(t, uint16(0x204), mc.State.Program)
	assert.Equal(t, uint8(2), mc.State.Registers[1])
}

func TestStepOnceFault(t *testing.T) {
	mc, dbg := setup(t, 0x00, 0xEE)

	assert.NoError(t, dbg.Pause())

	mode, err := dbg.StepOnce()
	assert.NoError(t, err)
	assert.Equal(t, machine.Halted, mode)
	assert.True(t, errors.Is(mc.Fault(), machine.ErrStackUnderflow))

	_, err = dbg.StepOnce()
	assert.True(t, errors.Is(err, debugger.ErrHalted))
	assert.True(t, errors.Is(dbg.Pause(), debugger.ErrHalted))
}

func TestWatchpoints(t *testing.T) {
	// LD I, 0x300; LD V0, 7; LD [I], V0; LD V0, [I]
	mc, dbg := setup(t, 0xA3, 0x00, 0x60, 0x07, 0xF0, 0x55, 0xF0, 0x65)

	assert.NoError(t, dbg.AddWatchpoint(0x300, debugger.ReadWatch))
	assert.True(t, errors.Is(dbg.AddWatchpoint(0x1000, debugger.ReadWatch), debugger.ErrAddressRange))

	for i := 0; i < 4 && mc.Mode() == machine.Running; i++ {
		hostStep(mc, dbg)
	}

	// The write did not trip the read watch, the read did
	assert.Equal(t, machine.Paused, mc.Mode())
	assert.Equal(t, machine.PauseWatchpoint, mc.PauseReason())
	assert.Equal(t, uint16(0x208), mc.State.Program)

	hit, ok := dbg.LastWatch()
	assert.True(t, ok)
	assert.False(t, hit.Write)
	assert.Equal(t, uint16(0x300), hit.Addr)
	assert.Equal(t, byte(7), hit.Value)

	mc.Reset()
	assert.NoError(t, mc.LoadImage([]byte{0xA3, 0x00, 0x60, 0x07, 0xF0, 0x55}))
	assert.NoError(t, dbg.AddWatchpoint(0x300, debugger.WriteWatch))
	assert.Len(t, dbg.Watchpoints, 1)

	for i := 0; i < 3 && mc.Mode() == machine.Running; i++ {
		hostStep(mc, dbg)
	}

	assert.Equal(t, machine.PauseWatchpoint, mc.PauseReason())
	assert.Equal(t, uint16(0x206), mc.State.Program)

	hit, ok = dbg.LastWatch()
	assert.True(t, ok)
	assert.True(t, hit.Write)

	assert.True(t, dbg.RemoveWatchpoint(0x300))
	assert.False(t, dbg.RemoveWatchpoint(0x300))
}

func TestWriteRequiresPause(t *testing.T) {
	mc, dbg := setup(t, 0x12, 0x00)

	err := dbg.WriteRegister(debugger.REG_V0, 1)
	assert.True(t, errors.Is(err, debugger.ErrNotPaused))

	err = dbg.WriteMemory(0x300, 1)
	assert.True(t, errors.Is(err, debugger.ErrNotPaused))

	err = dbg.PushStack(0x200)
	assert.True(t, errors.Is(err, debugger.ErrNotPaused))

	assert.Equal(t, uint8(0), mc.State.Registers[0])
	assert.Equal(t, byte(0), mc.State.Memory[0x300])
}

func TestWriteRegister(t *testing.T) {
	mc, dbg := setup(t, 0x12, 0x00)
	assert.NoError(t, dbg.Pause())

	assert.NoError(t, dbg.WriteRegister(debugger.REG_VA, 0xFF))
	assert.NoError(t, dbg.WriteRegister(debugger.REG_I, 0xFFF))
	assert.NoError(t, dbg.WriteRegister(debugger.REG_PC, 0x300))
	assert.NoError(t, dbg.WriteRegister(debugger.REG_DT, 9))
	assert.NoError(t, dbg.WriteRegister(debugger.REG_ST, 4))

	assert.Equal(t, uint8(0xFF), mc.State.Registers[0xA])
	assert.Equal(t, uint16(0xFFF), mc.State.Index)
	assert.Equal(t, uint16(0x300), mc.State.Program)
	assert.Equal(t, uint8(9), mc.State.Delay)
	assert.Equal(t, uint8(4), mc.State.Sound)

	value, err := dbg.ReadRegister(debugger.REG_DT)
	assert.NoError(t, err)
	assert.Equal(t, uint16(9), value)

	tests := []struct {
		reg   debugger.Register
		value uint16
		want  error
	}{
		{debugger.REG_V0, 0x100, debugger.ErrValueRange},
		{debugger.REG_I, 0x1000, debugger.ErrValueRange},
		{debugger.REG_PC, 0x301, debugger.ErrValueRange},
		{debugger.REG_ST, 0x100, debugger.ErrValueRange},
		{debugger.REG_COUNT, 0, debugger.ErrInvalidRegister},
	}

	for _, tt := range tests {
		err := dbg.WriteRegister(tt.reg, tt.value)
		assert.True(t, errors.Is(err, tt.want), tt.reg.String())
	}
}

func TestParseRegister(t *testing.T) {
	tests := map[string]debugger.Register{
		"v0":    debugger.REG_V0,
		"VF":    debugger.REG_VF,
		"i":     debugger.REG_I,
		"pc":    debugger.REG_PC,
		"delay": debugger.REG_DT,
		"ST":    debugger.REG_ST,
	}

	for name, want := range tests {
		have, err := debugger.ParseRegister(name)
		assert.NoError(t, err)
		assert.Equal(t, want, have)
	}

	_, err := debugger.ParseRegister("vg")
	assert.True(t, errors.Is(err, debugger.ErrInvalidRegister))
}

func TestWriteMemory(t *testing.T) {
	mc, dbg := setup(t, 0x12, 0x00)
	assert.NoError(t, dbg.Pause())

	assert.NoError(t, dbg.WriteMemory(0xFFE, 0xAB, 0xCD))
	assert.Equal(t, byte(0xCD), mc.State.Memory[0xFFF])

	err := dbg.WriteMemory(0xFFF, 0xAB, 0xCD)
	assert.True(t, errors.Is(err, debugger.ErrAddressRange))

	data, err := dbg.ReadMemory(0xFFE, 2)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xAB, 0xCD}, data)

	_, err = dbg.ReadMemory(0xFFF, 2)
	assert.True(t, errors.Is(err, debugger.ErrAddressRange))
}

func TestStackEditing(t *testing.T) {
	mc, dbg := setup(t, 0x12, 0x00)
	assert.NoError(t, dbg.Pause())

	_, err := dbg.PopStack()
	assert.True(t, errors.Is(err, debugger.ErrStackEmpty))

	for i := 0; i < machine.STACK_DEPTH; i++ {
		assert.NoError(t, dbg.PushStack(uint16(0x200+i*2)))
	}

	assert.True(t, errors.Is(dbg.PushStack(0x200), debugger.ErrStackFull))

	addr, err := dbg.PopStack()
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x21E), addr)
	assert.Equal(t, machine.STACK_DEPTH-1, mc.State.StackSize)

	snapshot := dbg.ReadState()
	assert.Len(t, snapshot.Stack(), machine.STACK_DEPTH-1)
}

func TestBreakpointManagement(t *testing.T) {
	_, dbg := setup(t, 0x12, 0x00)

	assert.NoError(t, dbg.SetBreakpoint(0x300))
	assert.NoError(t, dbg.SetBreakpoint(0x200))
	assert.NoError(t, dbg.SetBreakpoint(0x200))

	assert.True(t, errors.Is(dbg.SetBreakpoint(0x201), debugger.ErrAddressRange))
	assert.True(t, errors.Is(dbg.SetBreakpoint(0xFFF), debugger.ErrAddressRange))

	breakpoints := dbg.Breakpoints()
	assert.Len(t, breakpoints, 2)
	assert.Equal(t, uint16(0x200), breakpoints[0].Addr)
	assert.Equal(t, uint16(0x300), breakpoints[1].Addr)

	assert.NoError(t, dbg.ClearBreakpoint(0x200))
	assert.True(t, errors.Is(dbg.ClearBreakpoint(0x200), debugger.ErrNoBreakpoint))

	dbg.ClearBreakpoints()
	assert.Empty(t, dbg.Breakpoints())
}
