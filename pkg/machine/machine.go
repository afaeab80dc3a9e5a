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
	"bytes"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/lassandro/goc8/pkg/encoding"
)

func New(random Random) *Machine {
	mc := &Machine{Random: random}
	mc.Reset()
	return mc
}

func (mc *MachineState) Reset() {
	*mc = MachineState{}

	copy(mc.Memory[MEMSPACE_FONT:], fontGlyphs[:])

	mc.Program = MEMSPACE_PROGRAM
}

// Reset clears all state, reloads the font and returns to Running.
// Breakpoints and other debugger state live outside the machine and survive.
func (mc *Machine) Reset() {
	mc.State.Reset()
	mc.Display.Clear()
	mc.Keypad = Keypad{}
	mc.mode = Running
	mc.resume = Running
	mc.reason = PauseNone
	mc.waitReg = 0
	mc.fault = nil
}

// LoadImage resets the machine and copies image to MEMSPACE_PROGRAM.
func (mc *Machine) LoadImage(image []byte) error {
	if len(image) > MAX_IMAGE_SIZE {
		return fmt.Errorf(
			"%w: %d bytes, at most %d fit",
			ErrImageTooLarge, len(image), MAX_IMAGE_SIZE,
		)
	}

	mc.Reset()
	copy(mc.State.Memory[MEMSPACE_PROGRAM:], image)

	return nil
}

func (mc *Machine) LoadBin(reader io.Reader) error {
	var buf bytes.Buffer

	// Read one byte past the limit so oversized images are detected
	if _, err := io.CopyN(&buf, reader, int64(MAX_IMAGE_SIZE)+1); err != nil &&
		err != io.EOF {
		return err
	}

	return mc.LoadImage(buf.Bytes())
}

func (mc *Machine) Mode() Mode {
	return mc.mode
}

func (mc *Machine) PauseReason() PauseReason {
	return mc.reason
}

// ResumeMode is the mode a paused machine returns to.
func (mc *Machine) ResumeMode() Mode {
	return mc.resume
}

func (mc *Machine) WaitRegister() uint8 {
	return mc.waitReg
}

func (mc *Machine) Fault() *Fault {
	return mc.fault
}

func (mc *Machine) Pause(reason PauseReason) error {
	switch mc.mode {
	case Halted:
		return ErrHalted
	case Paused:
		return ErrAlreadyPaused
	}

	mc.resume = mc.mode
	mc.reason = reason
	mc.mode = Paused

	return nil
}

func (mc *Machine) Resume() error {
	if mc.mode != Paused {
		return ErrNotPaused
	}

	mc.mode = mc.resume
	mc.reason = PauseNone

	return nil
}

// Tick decrements both timers toward zero. The host calls it at TIMER_HZ.
func (mc *Machine) Tick() {
	if mc.State.Delay > 0 {
		mc.State.Delay--
	}

	if mc.State.Sound > 0 {
		mc.State.Sound--
	}
}

// SoundActive reports whether a tone should currently be playing.
func (mc *Machine) SoundActive() bool {
	return mc.State.Sound > 0
}

func (mc *Machine) Snapshot() Snapshot {
	return Snapshot{
		State:        mc.State,
		Frame:        mc.Display.Snapshot(),
		Version:      mc.Display.Version(),
		Keys:         mc.Keypad.Snapshot(),
		Mode:         mc.mode,
		ResumeMode:   mc.resume,
		Reason:       mc.reason,
		WaitRegister: mc.waitReg,
		Fault:        mc.fault,
	}
}

func (mc *Machine) halt(fault *Fault) Mode {
	mc.fault = fault
	mc.mode = Halted
	return mc.mode
}

func inBounds(addr uint16, size int) bool {
	return int(addr)+size <= MEMORY_SIZE
}

func (mc *Machine) fetch(addr uint16) (uint16, bool) {
	if !inBounds(addr, 2) {
		return 0, false
	}

	return uint16(mc.State.Memory[addr])<<8 | uint16(mc.State.Memory[addr+1]), true
}

func (mc *Machine) read(addr uint16) byte {
	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return mc.State.Memory[addr]
}

func (mc *Machine) write(addr uint16, value byte) {
	mc.State.Memory[addr] = value

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

func (mc *Machine) push(value uint16) error {
	if mc.State.StackSize >= STACK_DEPTH {
		return ErrStackOverflow
	}

	mc.State.Stack[mc.State.StackSize] = value
	mc.State.StackSize++

	return nil
}

func (mc *Machine) pop() (uint16, error) {
	if mc.State.StackSize == 0 {
		return 0, ErrStackUnderflow
	}

	mc.State.StackSize--
	return mc.State.Stack[mc.State.StackSize], nil
}

func (mc *Machine) random() uint8 {
	if mc.Random == nil {
		return uint8(rand.Uint32())
	}

	return uint8(mc.Random.Uint32())
}

func (mc *Machine) skip() {
	mc.State.Program += 2
}

func (mc *Machine) jump(target uint16) error {
	if target&0x1 != 0 {
		return ErrMisaligned
	}

	mc.State.Program = target
	return nil
}

// Step executes one instruction when Running and returns the resulting mode.
// A machine waiting for a key only polls the keypad; it consumes a latched
// press, stores it and becomes Running without executing anything else.
// Paused and Halted machines are left untouched.
func (mc *Machine) Step() Mode {
	switch mc.mode {
	case Running:
	case WaitingForKey:
		if key, ok := mc.Keypad.TakePress(); ok {
			mc.State.Registers[mc.waitReg] = key
			mc.mode = Running
		}

		return mc.mode
	default:
		return mc.mode
	}

	program := mc.State.Program
	word, ok := mc.fetch(program)

	if !ok {
		return mc.halt(&Fault{Err: ErrMemory, Program: program, Addr: program})
	}

	instruction, ok := Decode(word)

	if !ok {
		return mc.halt(&Fault{Err: ErrDecode, Program: program, Word: word})
	}

	mc.State.Program += 2

	if fault := mc.execute(instruction); fault != nil {
		mc.State.Program = program
		fault.Program = program
		fault.Word = word
		return mc.halt(fault)
	}

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return mc.mode
}

func (mc *Machine) execute(ins Instruction) *Fault {
	v := &mc.State.Registers
	x, y := ins.X, ins.Y

	switch ins.Op {
	// CLS  |0000    |0000   |1110   |0000   | Clear display
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OpClear:
		mc.Display.Clear()

	// RET  |0000    |0000   |1110   |1110   | Return from subroutine
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OpReturn:
		addr, err := mc.pop()

		if err != nil {
			return &Fault{Err: err}
		}

		mc.State.Program = addr

	// JP   |0001    |NNN                    | Jump
	// JP   |1011    |NNN                    | Jump offset by V0
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OpJump, OpJumpOffset:
		target := ins.NNN

		if ins.Op == OpJumpOffset {
			target += uint16(v[0])
		}

		if err := mc.jump(target); err != nil {
			return &Fault{Err: err, Addr: target}
		}

	// CALL |0010    |NNN                    | Call subroutine
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OpCall:
		if ins.NNN&0x1 != 0 {
			return &Fault{Err: ErrMisaligned, Addr: ins.NNN}
		}

		if err := mc.push(mc.State.Program); err != nil {
			return &Fault{Err: err}
		}

		mc.State.Program = ins.NNN

	// SE   |0011    |X      |NN             | Skip if Vx == NN
	// SNE  |0100    |X      |NN             | Skip if Vx != NN
	// SE   |0101    |X      |Y      |0000   | Skip if Vx == Vy
	// SNE  |1001    |X      |Y      |0000   | Skip if Vx != Vy
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OpSkipEqImm:
		if v[x] == ins.NN {
			mc.skip()
		}

	case OpSkipNeImm:
		if v[x] != ins.NN {
			mc.skip()
		}

	case OpSkipEqReg:
		if v[x] == v[y] {
			mc.skip()
		}

	case OpSkipNeReg:
		if v[x] != v[y] {
			mc.skip()
		}

	// LD   |0110    |X      |NN             | Vx = NN
	// ADD  |0111    |X      |NN             | Vx += NN, VF untouched
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OpLoadImm:
		v[x] = ins.NN

	case OpAddImm:
		v[x] += ins.NN

	// LD   |1000    |X      |Y      |0000   | Vx = Vy
	// OR   |1000    |X      |Y      |0001   | Vx |= Vy, VF = 0
	// AND  |1000    |X      |Y      |0010   | Vx &= Vy, VF = 0
	// XOR  |1000    |X      |Y      |0011   | Vx ^= Vy, VF = 0
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OpMove:
		v[x] = v[y]

	case OpOr:
		v[x] |= v[y]
		v[REG_VF] = 0

	case OpAnd:
		v[x] &= v[y]
		v[REG_VF] = 0

	case OpXor:
		v[x] ^= v[y]
		v[REG_VF] = 0

	// ADD  |1000    |X      |Y      |0100   | Vx += Vy, VF = carry
	// SUB  |1000    |X      |Y      |0101   | Vx = Vx - Vy, VF = !borrow
	// SUBN |1000    |X      |Y      |0111   | Vx = Vy - Vx, VF = !borrow
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OpAdd:
		sum := uint16(v[x]) + uint16(v[y])
		v[x] = uint8(sum)
		v[REG_VF] = boolByte(sum > 0xFF)

	case OpSub:
		a, b := v[x], v[y]
		v[x] = a - b
		v[REG_VF] = boolByte(a >= b)

	case OpSubN:
		a, b := v[x], v[y]
		v[x] = b - a
		v[REG_VF] = boolByte(b >= a)

	// SHR  |1000    |X      |Y      |0110   | Vx = Vy >> 1, VF = Vy bit 0
	// SHL  |1000    |X      |Y      |1110   | Vx = Vy << 1, VF = Vy bit 7
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OpShiftRight:
		src := v[y]
		v[x] = src >> 1
		v[REG_VF] = src & 0x1

	case OpShiftLeft:
		src := v[y]
		v[x] = src << 1
		v[REG_VF] = src >> 7

	// LD   |1010    |NNN                    | I = NNN
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OpLoadIndex:
		mc.State.Index = ins.NNN

	// RND  |1100    |X      |NN             | Vx = random & NN
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OpRandom:
		v[x] = mc.random() & ins.NN

	// DRW  |1101    |X      |Y      |N      | Draw N rows from [I] at Vx,Vy
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OpDraw:
		height := int(ins.N)
		addr := mc.State.Index

		if height > 0 && !inBounds(addr, height) {
			return &Fault{Err: ErrMemory, Addr: addr}
		}

		sprite := make([]byte, height)
		for i := range sprite {
			sprite[i] = mc.read(addr + uint16(i))
		}

		collided := mc.Display.Draw(v[x], v[y], sprite)
		v[REG_VF] = boolByte(collided)

	// SKP  |1110    |X      |1001   |1110   | Skip if key Vx is down
	// SKNP |1110    |X      |1010   |0001   | Skip if key Vx is up
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OpSkipKey:
		if mc.Keypad.IsPressed(v[x]) {
			mc.skip()
		}

	case OpSkipNotKey:
		if !mc.Keypad.IsPressed(v[x]) {
			mc.skip()
		}

	// LD   |1111    |X      |0000   |0111   | Vx = DT
	// LD   |1111    |X      |0000   |1010   | Vx = next key press
	// LD   |1111    |X      |0001   |0101   | DT = Vx
	// LD   |1111    |X      |0001   |1000   | ST = Vx
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OpGetDelay:
		v[x] = mc.State.Delay

	case OpWaitKey:
		// Only presses that happen from now on satisfy the wait
		mc.Keypad.ClearLatch()
		mc.waitReg = x
		mc.mode = WaitingForKey

	case OpSetDelay:
		mc.State.Delay = v[x]

	case OpSetSound:
		mc.State.Sound = v[x]

	// ADD  |1111    |X      |0001   |1110   | I += Vx
	// LD   |1111    |X      |0010   |1001   | I = glyph address of Vx
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OpAddIndex:
		mc.State.Index += uint16(v[x])

	case OpFont:
		mc.State.Index = FontAddr(v[x])

	// LD   |1111    |X      |0011   |0011   | [I..I+2] = BCD of Vx
	// LD   |1111    |X      |0101   |0101   | [I..I+X] = V0..Vx
	// LD   |1111    |X      |0110   |0101   | V0..Vx = [I..I+X]
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OpBCD:
		addr := mc.State.Index

		if !inBounds(addr, 3) {
			return &Fault{Err: ErrMemory, Addr: addr}
		}

		for i, digit := range encoding.BCD(v[x]) {
			mc.write(addr+uint16(i), digit)
		}

	case OpStore:
		addr := mc.State.Index

		if !inBounds(addr, int(x)+1) {
			return &Fault{Err: ErrMemory, Addr: addr}
		}

		for i := uint16(0); i <= uint16(x); i++ {
			mc.write(addr+i, v[i])
		}

	case OpLoad:
		addr := mc.State.Index

		if !inBounds(addr, int(x)+1) {
			return &Fault{Err: ErrMemory, Addr: addr}
		}

		for i := uint16(0); i <= uint16(x); i++ {
			v[i] = mc.read(addr + i)
		}

	default:
		return &Fault{Err: ErrDecode}
	}

	return nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}

	return 0
}
