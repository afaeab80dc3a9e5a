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
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lassandro/goc8/pkg/debugger"
	"github.com/lassandro/goc8/pkg/encoding"
	"github.com/lassandro/goc8/pkg/host"
	"github.com/lassandro/goc8/pkg/machine"
)

var lastcmd []string
var scanner = bufio.NewScanner(os.Stdin)

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

// Parses an optional count argument, falling back to def
func parseCount(args []string, i int, def int) (int, error) {
	if len(args) <= i {
		return def, nil
	}

	value, err := strconv.ParseUint(args[i], 10, 16)

	if err != nil {
		return 0, err
	}

	return int(value), nil
}

func debugBreak(dbg *debugger.Debugger, args []string) {
	const usage = "break [add|list|remove|cond|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [0x###] [condition]"

		if len(args) < 1 {
			log.Println(usage)
			return
		}

		addr, err := encoding.DecodeNumber(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if err := dbg.SetBreakpoint(addr); err != nil {
			log.Println(err)
			return
		}

		if len(args) > 1 {
			if err := dbg.SetCondition(addr, strings.Join(args[1:], " ")); err != nil {
				log.Println(err)
			}
		}

		fmt.Printf("Breakpoint added [%#03x]\n", addr)

	case "l", "ls", "list":
		const usage = "break list"

		if len(args) != 0 {
			log.Println(usage)
			return
		}

		for _, breakpoint := range dbg.Breakpoints() {
			fmt.Printf("\033[1m[%#03x]\033[0m hits %d", breakpoint.Addr, breakpoint.Hits)

			if breakpoint.Condition != "" {
				fmt.Printf(" \033[1;30mif %s\033[0m", breakpoint.Condition)
			}

			fmt.Println()
		}

	case "c", "cond", "condition":
		const usage = "break cond [0x###] [condition]"

		if len(args) < 1 {
			log.Println(usage)
			return
		}

		addr, err := encoding.DecodeNumber(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if err := dbg.SetCondition(addr, strings.Join(args[1:], " ")); err != nil {
			log.Println(err)
			return
		}

		fmt.Printf("Condition set [%#03x]\n", addr)

	case "r", "rm", "remove":
		const usage = "break remove [0x###]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		addr, err := encoding.DecodeNumber(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if err := dbg.ClearBreakpoint(addr); err != nil {
			log.Println(err)
			return
		}

		fmt.Printf("Breakpoint removed [%#03x]\n", addr)

	case "clear":
		dbg.ClearBreakpoints()
		fmt.Println("Breakpoints reset")

	default:
		log.Printf("break: '%s' is not a valid command\n", cmd)
		log.Println(usage)
	}
}

func debugWatch(dbg *debugger.Debugger, args []string) {
	const usage = "watch [add|list|rm|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x###] [read|write|readwrite]"

		if len(args) != 2 {
			log.Println(usage)
			return
		}

		addr, err := encoding.DecodeNumber(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "rwrite", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			log.Println(usage)
			return
		}

		if err := dbg.AddWatchpoint(addr, wtype); err != nil {
			log.Println(err)
			return
		}

		fmt.Printf("Watchpoint added [%#03x] (%s)\n", addr, wtype)

	case "l", "ls", "list":
		for _, watchpoint := range dbg.Watchpoints {
			fmt.Printf(
				"\033[1m[%#03x]\033[0m %s\n", watchpoint.Addr, watchpoint.Type,
			)
		}

	case "r", "rm", "remove":
		const usage = "watch rm [0x###]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		addr, err := encoding.DecodeNumber(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if !dbg.RemoveWatchpoint(addr) {
			log.Printf("No watchpoint at %#03x\n", addr)
			return
		}

		fmt.Printf("Watchpoint removed [%#03x]\n", addr)

	case "clear":
		dbg.Watchpoints = nil
		fmt.Println("Watchpoints reset")

	default:
		log.Printf("watch: '%s' is not a valid command\n", cmd)
		log.Println(usage)
	}
}

func debugReg(dbg *debugger.Debugger, args []string) {
	const usage = "register [V#|I|PC|DT|ST] [value]"

	switch len(args) {
	case 0:
		snapshot := dbg.ReadState()
		debugger.PrintState(os.Stdout, &snapshot)

	case 1:
		reg, err := debugger.ParseRegister(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		value, _ := dbg.ReadRegister(reg)
		fmt.Printf("\033[1m%s:\033[0m %#x\n", reg, value)

	case 2:
		reg, err := debugger.ParseRegister(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		value, err := encoding.DecodeNumber(args[1])

		if err != nil {
			log.Println(err)
			return
		}

		if err := dbg.WriteRegister(reg, value); err != nil {
			log.Println(err)
			return
		}

		fmt.Printf("\033[1m%s:\033[0m %#x\n", reg, value)

	default:
		log.Println(usage)
	}
}

func debugMemory(dbg *debugger.Debugger, args []string) {
	const usage = "memory [0x###] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	state := dbg.ReadState().State
	addr := state.Index

	if len(args) > 0 {
		value, err := encoding.DecodeNumber(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		addr = value
	}

	size, err := parseCount(args, 1, 16)

	if err != nil {
		log.Println(err)
		return
	}

	if _, err := dbg.ReadMemory(addr, size); err != nil {
		log.Println(err)
		return
	}

	debugger.PrintMem(os.Stdout, &state, addr, uint16(size))
}

func debugDisassemble(dbg *debugger.Debugger, args []string) {
	const usage = "disassemble [0x###] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	state := dbg.ReadState().State
	addr := state.Program

	if len(args) > 0 {
		value, err := encoding.DecodeNumber(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		addr = value
	}

	count, err := parseCount(args, 1, 8)

	if err != nil {
		log.Println(err)
		return
	}

	debugger.Disassemble(os.Stdout, &state, addr, count)
}

func debugSet(dbg *debugger.Debugger, args []string) {
	const usage = "set [0x###] [0x##]..."

	if len(args) < 2 {
		log.Println(usage)
		return
	}

	addr, err := encoding.DecodeNumber(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	values := make([]byte, 0, len(args)-1)

	for _, arg := range args[1:] {
		value, err := encoding.DecodeNumber(arg)

		if err != nil {
			log.Println(err)
			return
		}

		if value > 0xFF {
			log.Printf("%s: %#x does not fit in a byte\n", debugger.ErrValueRange, value)
			return
		}

		values = append(values, byte(value))
	}

	if err := dbg.WriteMemory(addr, values...); err != nil {
		log.Println(err)
		return
	}

	state := dbg.ReadState().State
	debugger.PrintMem(os.Stdout, &state, addr, uint16(len(values)))
}

func debugJump(dbg *debugger.Debugger, args []string) {
	const usage = "jump [0x###]"

	if len(args) != 1 {
		log.Println(usage)
		return
	}

	addr, err := encoding.DecodeNumber(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	if err := dbg.WriteRegister(debugger.REG_PC, addr); err != nil {
		log.Println(err)
		return
	}

	fmt.Printf("\033[1mPC:\033[0m %#03x\n", addr)
}

func debugStack(dbg *debugger.Debugger, cmd string, args []string) {
	switch cmd {
	case "push":
		const usage = "push [0x###]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		addr, err := encoding.DecodeNumber(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if err := dbg.PushStack(addr); err != nil {
			log.Println(err)
			return
		}

	case "pop":
		addr, err := dbg.PopStack()

		if err != nil {
			log.Println(err)
			return
		}

		fmt.Printf("Popped %#03x\n", addr)
	}

	snapshot := dbg.ReadState()

	fmt.Print("\033[1mstack\033[0m")
	for _, addr := range snapshot.Stack() {
		fmt.Printf(" %#03x", addr)
	}
	fmt.Println()
}

func debugNext(dbg *debugger.Debugger, args []string) {
	count, err := parseCount(args, 0, 1)

	if err != nil {
		log.Println(err)
		return
	}

	for i := 0; i < count; i++ {
		mode, err := dbg.StepOnce()

		if err != nil {
			log.Println(err)
			break
		}

		if mode == machine.Halted {
			break
		}
	}

	printStop(dbg)
}

func debugHelp() {
	fmt.Println("break [add|list|remove|cond|clear]  manage breakpoints")
	fmt.Println("watch [add|list|rm|clear]           manage watchpoints")
	fmt.Println("register [name] [value]             show or set registers")
	fmt.Println("memory [addr] [#]                   dump memory, default at I")
	fmt.Println("disassemble [addr] [#]              list instructions, default at PC")
	fmt.Println("set [addr] [byte]...                write memory")
	fmt.Println("jump [addr]                         set PC")
	fmt.Println("push [addr] | pop                   edit the call stack")
	fmt.Println("next [#]                            execute instructions")
	fmt.Println("continue                            resume the program")
	fmt.Println("reset                               reload the program")
	fmt.Println("quit                                exit")
}

// Prints why the machine stopped and the code around the program counter
func printStop(dbg *debugger.Debugger) {
	snapshot := dbg.ReadState()

	switch snapshot.Mode {
	case machine.Halted:
		fmt.Printf("\033[1;31mProgram halted:\033[0m %v\n", snapshot.Fault)

	case machine.Paused:
		switch snapshot.Reason {
		case machine.PauseBreakpoint:
			if err := dbg.ConditionError(); err != nil {
				fmt.Printf("Breakpoint condition failed: %v\n", err)
			}

		case machine.PauseWatchpoint:
			if hit, ok := dbg.LastWatch(); ok {
				access := "read"
				if hit.Write {
					access = "write"
				}

				fmt.Printf(
					"Watchpoint %s [%#03x] = %#02x\n", access, hit.Addr, hit.Value,
				)
			}
		}
	}

	debugger.Disassemble(os.Stdout, &snapshot.State, snapshot.State.Program, 4)
}

func debugREPL(dbg *debugger.Debugger, image []byte) error {
	for {
		fmt.Print("\033[1;30m(dbg)\033[0m ")

		if !scanner.Scan() {
			fmt.Println()
			return host.ErrQuit
		}

		args := strings.Fields(scanner.Text())

		if len(args) == 0 {
			if len(lastcmd) == 0 {
				continue
			}
			args = lastcmd
		} else {
			lastcmd = make([]string, len(args))
			copy(lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, args)

		case "r", "reg", "register", "registers":
			debugReg(dbg, args)

		case "m", "mem", "memory":
			debugMemory(dbg, args)

		case "d", "dis", "disassemble":
			debugDisassemble(dbg, args)

		case "set":
			debugSet(dbg, args)

		case "j", "jmp", "jump":
			debugJump(dbg, args)

		case "push", "pop":
			debugStack(dbg, cmd, args)

		case "n", "next":
			debugNext(dbg, args)

		case "c", "continue":
			if err := dbg.Resume(); err != nil {
				log.Println(err)
				continue
			}
			return nil

		case "q", "quit", "exit":
			return host.ErrQuit

		case "clear":
			fmt.Print("\033[H\033[2J")

		case "reset":
			if err := dbg.Machine.LoadImage(image); err != nil {
				log.Println(err)
				continue
			}

			_ = dbg.Pause()
			fmt.Println("Program reset")
			printStop(dbg)

		case "h", "help":
			debugHelp()

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func handleBreak(dbg *debugger.Debugger, image []byte) error {
	fmt.Println()
	fmt.Println("Program stopped")
	printStop(dbg)

	return debugREPL(dbg, image)
}
