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
	"fmt"
	"strings"

	"github.com/lassandro/goc8/pkg/machine"
	lua "github.com/yuin/gopher-lua"
)

// SetCondition attaches a Lua expression to the breakpoint at addr. The
// breakpoint then only fires when the expression is true or a non-zero
// number. The expression sees V0-VF, I, PC, DT and ST as globals and can call
// mem(addr) and key(code). An empty expression removes the condition.
func (dbg *Debugger) SetCondition(addr uint16, expr string) error {
	breakpoint, exists := dbg.breakpoints[addr]

	if !exists {
		return fmt.Errorf("%w: %#03x", ErrNoBreakpoint, addr)
	}

	expr = strings.TrimSpace(expr)

	if expr == "" {
		breakpoint.Condition = ""
		breakpoint.condition = nil
		return nil
	}

	fn, err := dbg.state().LoadString("return " + expr)

	if err != nil {
		return fmt.Errorf("%w: %v", ErrCondition, err)
	}

	breakpoint.Condition = expr
	breakpoint.condition = fn

	return nil
}

func (dbg *Debugger) state() *lua.LState {
	if dbg.lua != nil {
		return dbg.lua
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	L.SetGlobal("mem", L.NewFunction(func(L *lua.LState) int {
		addr := L.CheckInt(1)

		if addr < 0 || addr >= machine.MEMORY_SIZE {
			L.ArgError(1, "address out of range")
			return 0
		}

		L.Push(lua.LNumber(dbg.Machine.State.Memory[addr]))
		return 1
	}))

	L.SetGlobal("key", L.NewFunction(func(L *lua.LState) int {
		code := L.CheckInt(1)
		L.Push(lua.LBool(
			code >= 0 && code < machine.KEY_COUNT &&
				dbg.Machine.Keypad.IsPressed(uint8(code)),
		))
		return 1
	}))

	dbg.lua = L

	return L
}

func (dbg *Debugger) evaluate(breakpoint *Breakpoint) (bool, error) {
	L := dbg.state()
	state := &dbg.Machine.State

	for i, value := range state.Registers {
		L.SetGlobal(registerNames[i], lua.LNumber(value))
	}

	L.SetGlobal("I", lua.LNumber(state.Index))
	L.SetGlobal("PC", lua.LNumber(state.Program))
	L.SetGlobal("DT", lua.LNumber(state.Delay))
	L.SetGlobal("ST", lua.LNumber(state.Sound))

	L.Push(breakpoint.condition)

	if err := L.PCall(0, 1, nil); err != nil {
		return false, fmt.Errorf(
			"%w: %#03x: %v", ErrCondition, breakpoint.Addr, err,
		)
	}

	result := L.Get(-1)
	L.Pop(1)

	if number, ok := result.(lua.LNumber); ok {
		return number != 0, nil
	}

	return lua.LVAsBool(result), nil
}
