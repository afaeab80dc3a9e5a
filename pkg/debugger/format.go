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
	"io"
	"strings"

	"github.com/lassandro/goc8/pkg/machine"
	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// mnemonic looks a word up in the retrogolib CHIP-8 opcode table.
func mnemonic(word uint16) (string, bool) {
	for _, op := range chip8.Opcodes[int(word>>12)] {
		if op.Info.Mask&word == op.Info.Value && op.Instruction != nil {
			return op.Instruction.Name, true
		}
	}

	return "", false
}

func operands(ins machine.Instruction) string {
	switch ins.Op {
	case machine.OpClear, machine.OpReturn:
		return ""
	case machine.OpJump, machine.OpCall:
		return fmt.Sprintf("$%03X", ins.NNN)
	case machine.OpJumpOffset:
		return fmt.Sprintf("V0, $%03X", ins.NNN)
	case machine.OpLoadIndex:
		return fmt.Sprintf("I, $%03X", ins.NNN)
	case machine.OpSkipEqImm, machine.OpSkipNeImm, machine.OpLoadImm,
		machine.OpAddImm, machine.OpRandom:
		return fmt.Sprintf("V%X, $%02X", ins.X, ins.NN)
	case machine.OpDraw:
		return fmt.Sprintf("V%X, V%X, $%X", ins.X, ins.Y, ins.N)
	case machine.OpSkipKey, machine.OpSkipNotKey:
		return fmt.Sprintf("V%X", ins.X)
	case machine.OpGetDelay:
		return fmt.Sprintf("V%X, DT", ins.X)
	case machine.OpWaitKey:
		return fmt.Sprintf("V%X, K", ins.X)
	case machine.OpSetDelay:
		return fmt.Sprintf("DT, V%X", ins.X)
	case machine.OpSetSound:
		return fmt.Sprintf("ST, V%X", ins.X)
	case machine.OpAddIndex:
		return fmt.Sprintf("I, V%X", ins.X)
	case machine.OpFont:
		return fmt.Sprintf("F, V%X", ins.X)
	case machine.OpBCD:
		return fmt.Sprintf("B, V%X", ins.X)
	case machine.OpStore:
		return fmt.Sprintf("[I], V%X", ins.X)
	case machine.OpLoad:
		return fmt.Sprintf("V%X, [I]", ins.X)
	}

	// Register to register forms, shifts included since they read Vy
	return fmt.Sprintf("V%X, V%X", ins.X, ins.Y)
}

// Describe renders an instruction word as assembly, or as a data word when
// it does not decode.
func Describe(word uint16) string {
	ins, ok := machine.Decode(word)

	if !ok {
		return fmt.Sprintf(".word $%04X", word)
	}

	name, found := mnemonic(word)

	if !found {
		name = strings.ToLower(ins.Op.String())
	}

	if args := operands(ins); args != "" {
		return name + " " + args
	}

	return name
}

// Disassemble prints count instructions starting at addr, marking pc.
func Disassemble(w io.Writer, state *machine.MachineState, addr uint16, count int) {
	for i := 0; i < count; i++ {
		at := int(addr) + i*2

		if at+1 >= machine.MEMORY_SIZE {
			break
		}

		word := uint16(state.Memory[at])<<8 | uint16(state.Memory[at+1])

		marker := "  "
		if uint16(at) == state.Program {
			marker = "\033[1;32m=>\033[0m"
		}

		fmt.Fprintf(
			w, "%s \033[1m[%#03x]\033[0m %04x  %s\n",
			marker, at, word, Describe(word),
		)
	}
}

func PrintMem(w io.Writer, state *machine.MachineState, addr, count uint16) {
	end := min(int(addr)+int(count), machine.MEMORY_SIZE)

	for i := int(addr); i < end; i++ {
		if i == int(addr) {
			fmt.Fprintf(w, "\033[1m[%#03x]\033[0m ", i)
		} else if (i-int(addr))%8 == 0 {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "\033[1m[%#03x]\033[0m ", i)
		}

		result := state.Memory[i]

		if result == 0 {
			fmt.Fprintf(w, "\033[1;30m%02x\033[0m ", result)
		} else {
			fmt.Fprintf(w, "%02x ", result)
		}
	}

	fmt.Fprintln(w)
}

func PrintState(w io.Writer, snapshot *machine.Snapshot) {
	state := &snapshot.State

	for i, value := range state.Registers {
		fmt.Fprintf(w, "\033[1mV%X\033[0m %#02x ", i, value)

		if i%8 == 7 {
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintf(
		w, "\033[1mPC\033[0m %#03x \033[1mI\033[0m %#03x "+
			"\033[1mDT\033[0m %d \033[1mST\033[0m %d\n",
		state.Program, state.Index, state.Delay, state.Sound,
	)

	fmt.Fprint(w, "\033[1mstack\033[0m")
	for _, addr := range snapshot.Stack() {
		fmt.Fprintf(w, " %#03x", addr)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1mmode\033[0m %s", snapshot.Mode)

	switch snapshot.Mode {
	case machine.Paused:
		fmt.Fprintf(w, " (%s, resumes %s)", snapshot.Reason, snapshot.ResumeMode)
	case machine.WaitingForKey:
		fmt.Fprintf(w, " (V%X)", snapshot.WaitRegister)
	case machine.Halted:
		fmt.Fprintf(w, " (%v)", snapshot.Fault)
	}

	fmt.Fprintln(w)
}
