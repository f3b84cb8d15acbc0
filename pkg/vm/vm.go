// Package vm implements the register-based bytecode virtual machine.
//
// The VM has:
//   - 32 signed 32-bit registers (R0-R31), zeroed at creation
//   - an append-only program buffer of bytes
//   - an instruction pointer, a remainder register and an equal flag
//
// Every instruction occupies four bytes: one opcode byte followed by three
// operand bytes, some of which are padding.
//
// Basic usage:
//
//	v := vm.New()
//	for _, b := range program {
//		v.AppendByte(b)
//	}
//	err := v.Run()
//
// The VM is not safe for concurrent use. Run has no iteration bound; hosts
// that need one step the machine themselves (see package embed).
package vm

import (
	"errors"
	"fmt"
	"math"
)

// Error definitions
var (
	ErrInvalidRegister   = errors.New("invalid register")
	ErrDivisionByZero    = errors.New("division by zero")
	ErrOverflow          = errors.New("integer overflow")
	ErrProgramBounds     = errors.New("operand fetch past end of program")
	ErrJumpUnderflow     = errors.New("backward jump before start of program")
	ErrInvalidJumpTarget = errors.New("invalid jump target")
)

// ExecError is a fatal fault raised while executing one instruction.
type ExecError struct {
	PC     int    // Offset of the faulting instruction's opcode byte
	Opcode Opcode // Decoded opcode of the faulting instruction
	Err    error  // One of the Err* sentinels, possibly wrapped with detail
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s at %04d: %v", e.Opcode, e.PC, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// StepEvent describes one executed instruction.
type StepEvent struct {
	Index     uint64 // Zero-based count of executed instructions
	PC        int    // Offset of the opcode byte
	Opcode    Opcode
	NextPC    int // Instruction pointer after execution
	EqualFlag bool
	Remainder int32
	Halted    bool // The instruction was HLT
	Jumped    bool // A jump transferred control, even to the following slot
}

// Observer receives an event after every executed instruction.
type Observer interface {
	OnStep(ev StepEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev StepEvent)

// OnStep calls f(ev).
func (f ObserverFunc) OnStep(ev StepEvent) {
	f(ev)
}

// VM represents the virtual machine.
type VM struct {
	registers RegisterFile
	program   []byte
	pc        int   // Instruction pointer, never negative
	remainder int32 // Remainder of the last DIV
	equalFlag bool  // Result of the last comparison

	halted bool
	jumped bool  // set by execute when a jump is taken
	err    error // once set, returned from every later Step
	steps  uint64

	observer Observer
}

// New creates a VM with zeroed registers and an empty program.
func New() *VM {
	return &VM{
		program: []byte{},
	}
}

// AppendByte appends one byte to the program buffer. It may be called at any
// time, including between steps.
func (vm *VM) AppendByte(b byte) {
	vm.program = append(vm.program, b)
}

// SetObserver installs an observer; nil removes it.
func (vm *VM) SetObserver(o Observer) {
	vm.observer = o
}

// Registers returns a copy of the register file.
func (vm *VM) Registers() RegisterFile {
	return vm.registers
}

// Register returns the value of register idx. It panics if idx is not a
// register, as indexing an array would.
func (vm *VM) Register(idx int) int32 {
	return vm.registers[idx]
}

// Remainder returns the remainder of the most recent DIV.
func (vm *VM) Remainder() int32 {
	return vm.remainder
}

// EqualFlag returns the result of the most recent comparison.
func (vm *VM) EqualFlag() bool {
	return vm.equalFlag
}

// PC returns the instruction pointer.
func (vm *VM) PC() int {
	return vm.pc
}

// Program returns a copy of the program buffer.
func (vm *VM) Program() []byte {
	out := make([]byte, len(vm.program))
	copy(out, vm.program)
	return out
}

// Len returns the length of the program buffer.
func (vm *VM) Len() int {
	return len(vm.program)
}

// Steps returns the number of instructions executed so far.
func (vm *VM) Steps() uint64 {
	return vm.steps
}

// Halted reports whether the machine has stopped, normally or by fault.
func (vm *VM) Halted() bool {
	return vm.halted || vm.err != nil
}

// Err returns the fault that stopped the machine, if any.
func (vm *VM) Err() error {
	return vm.err
}

// Run steps the machine until it halts or faults.
func (vm *VM) Run() error {
	for {
		done, err := vm.Step()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// Step executes exactly one instruction and reports whether the machine is
// done. Reaching the end of the program and HLT both end the run without an
// error. A fault returns an *ExecError; the machine then stays faulted and
// every later call returns the same error without touching any state.
func (vm *VM) Step() (bool, error) {
	if vm.err != nil {
		return true, vm.err
	}
	if vm.halted {
		return true, nil
	}
	if vm.pc >= len(vm.program) {
		vm.halted = true
		return true, nil
	}

	start := vm.pc
	op := vm.decodeOpcode()
	vm.jumped = false

	halted, err := vm.execute(op)
	if err != nil {
		vm.pc = start
		vm.err = &ExecError{PC: start, Opcode: op, Err: err}
		return true, vm.err
	}
	vm.halted = halted

	if vm.observer != nil {
		vm.observer.OnStep(StepEvent{
			Index:     vm.steps,
			PC:        start,
			Opcode:    op,
			NextPC:    vm.pc,
			EqualFlag: vm.equalFlag,
			Remainder: vm.remainder,
			Halted:    halted,
			Jumped:    vm.jumped,
		})
	}
	vm.steps++

	return halted, nil
}

func (vm *VM) execute(op Opcode) (bool, error) {
	switch op {
	case LOAD:
		dst, err := vm.nextRegister()
		if err != nil {
			return false, err
		}
		imm, err := vm.next16Bits()
		if err != nil {
			return false, err
		}
		vm.registers[dst] = int32(imm)

	case ADD, SUB, MUL, DIV:
		src1, src2, dst, err := vm.nextThreeRegisters()
		if err != nil {
			return false, err
		}
		a, b := vm.registers[src1], vm.registers[src2]
		result, rem, err := arithmetic(op, a, b)
		if err != nil {
			return false, err
		}
		if op == DIV {
			vm.remainder = rem
		}
		vm.registers[dst] = result

	case JMP:
		target, err := vm.nextRegisterValue()
		if err != nil {
			return false, err
		}
		if target < 0 {
			return false, fmt.Errorf("%w: %d", ErrInvalidJumpTarget, target)
		}
		vm.pc = int(target)
		vm.jumped = true

	case JMPF:
		offset, err := vm.nextRegisterValue()
		if err != nil {
			return false, err
		}
		if offset < 0 {
			return false, fmt.Errorf("%w: negative offset %d", ErrInvalidJumpTarget, offset)
		}
		vm.pc += int(offset)
		vm.jumped = true

	case JMPB:
		offset, err := vm.nextRegisterValue()
		if err != nil {
			return false, err
		}
		if offset < 0 {
			return false, fmt.Errorf("%w: negative offset %d", ErrInvalidJumpTarget, offset)
		}
		if int(offset) > vm.pc {
			return false, fmt.Errorf("%w: %d - %d", ErrJumpUnderflow, vm.pc, offset)
		}
		vm.pc -= int(offset)
		vm.jumped = true

	case EQ, NEQ, GT, LT, GTQ, LTQ:
		r1, err := vm.nextRegister()
		if err != nil {
			return false, err
		}
		r2, err := vm.nextRegister()
		if err != nil {
			return false, err
		}
		vm.equalFlag = compare(op, vm.registers[r1], vm.registers[r2])
		vm.skip(1)

	case JEQ, JNEQ:
		target, err := vm.nextRegisterValue()
		if err != nil {
			return false, err
		}
		if vm.equalFlag != (op == JEQ) {
			vm.skip(2)
			break
		}
		if target < 0 {
			return false, fmt.Errorf("%w: %d", ErrInvalidJumpTarget, target)
		}
		vm.pc = int(target)
		vm.jumped = true

	case INC, DEC:
		r, err := vm.nextRegister()
		if err != nil {
			return false, err
		}
		delta := int64(1)
		if op == DEC {
			delta = -1
		}
		result, err := checked(int64(vm.registers[r]) + delta)
		if err != nil {
			return false, err
		}
		vm.registers[r] = result
		vm.skip(2)

	case HLT:
		vm.skip(3)
		return true, nil

	case IGL:
		vm.skip(3)
	}

	return false, nil
}

// arithmetic computes an ADD, SUB, MUL or DIV result. Results that do not
// fit in 32 bits are faults.
func arithmetic(op Opcode, a, b int32) (int32, int32, error) {
	x, y := int64(a), int64(b)
	switch op {
	case ADD:
		r, err := checked(x + y)
		return r, 0, err
	case SUB:
		r, err := checked(x - y)
		return r, 0, err
	case MUL:
		r, err := checked(x * y)
		return r, 0, err
	case DIV:
		if y == 0 {
			return 0, 0, ErrDivisionByZero
		}
		q, err := checked(x / y)
		if err != nil {
			return 0, 0, err
		}
		return q, int32(x % y), nil
	}
	return 0, 0, fmt.Errorf("not an arithmetic opcode: %s", op)
}

func checked(v int64) (int32, error) {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("%w: %d", ErrOverflow, v)
	}
	return int32(v), nil
}

func compare(op Opcode, a, b int32) bool {
	switch op {
	case EQ:
		return a == b
	case NEQ:
		return a != b
	case GT:
		return a > b
	case LT:
		return a < b
	case GTQ:
		return a >= b
	case LTQ:
		return a <= b
	}
	return false
}

func (vm *VM) decodeOpcode() Opcode {
	op := Decode(vm.program[vm.pc])
	vm.pc++
	return op
}

func (vm *VM) next8Bits() (byte, error) {
	if vm.pc >= len(vm.program) {
		return 0, fmt.Errorf("%w: offset %d, length %d", ErrProgramBounds, vm.pc, len(vm.program))
	}
	b := vm.program[vm.pc]
	vm.pc++
	return b, nil
}

func (vm *VM) next16Bits() (uint16, error) {
	hi, err := vm.next8Bits()
	if err != nil {
		return 0, err
	}
	lo, err := vm.next8Bits()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

func (vm *VM) nextRegister() (byte, error) {
	idx, err := vm.next8Bits()
	if err != nil {
		return 0, err
	}
	if !validRegister(idx) {
		return 0, fmt.Errorf("%w: R%d", ErrInvalidRegister, idx)
	}
	return idx, nil
}

func (vm *VM) nextRegisterValue() (int32, error) {
	idx, err := vm.nextRegister()
	if err != nil {
		return 0, err
	}
	return vm.registers[idx], nil
}

func (vm *VM) nextThreeRegisters() (byte, byte, byte, error) {
	var regs [3]byte
	for i := range regs {
		r, err := vm.nextRegister()
		if err != nil {
			return 0, 0, 0, err
		}
		regs[i] = r
	}
	return regs[0], regs[1], regs[2], nil
}

// skip steps over padding bytes. Padding is never read, so skipping past the
// end of the program is not a fault; the next Step sees the end.
func (vm *VM) skip(n int) {
	vm.pc += n
}
