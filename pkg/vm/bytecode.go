package vm

import (
	"bytes"
	"fmt"
)

// Disassemble converts a program buffer to a listing, one line per
// four-byte slot. A trailing partial slot is shown as raw bytes.
func Disassemble(program []byte) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("; %d bytes, %d instructions\n",
		len(program), len(program)/InstructionWidth))

	for off := 0; off < len(program); off += InstructionWidth {
		if off+InstructionWidth > len(program) {
			buf.WriteString(fmt.Sprintf("%04d: %-5s % x\n", off, "??", program[off:]))
			break
		}
		var inst Instruction
		copy(inst[:], program[off:off+InstructionWidth])
		buf.WriteString(fmt.Sprintf("%04d: %s\n", off, DisassembleInstruction(inst)))
	}

	return buf.String()
}

// DisassembleInstruction formats a single instruction.
func DisassembleInstruction(inst Instruction) string {
	op := inst.Opcode()
	opName := op.String()

	switch op {
	case LOAD:
		return fmt.Sprintf("%-5s R%d, #%d", opName, inst[1], inst.Imm16())

	case ADD, SUB, MUL, DIV:
		return fmt.Sprintf("%-5s R%d, R%d, R%d", opName, inst[1], inst[2], inst[3])

	case EQ, NEQ, GT, LT, GTQ, LTQ:
		return fmt.Sprintf("%-5s R%d, R%d", opName, inst[1], inst[2])

	case JMP, JMPF, JMPB, JEQ, JNEQ, INC, DEC:
		return fmt.Sprintf("%-5s R%d", opName, inst[1])

	case HLT:
		return opName

	default:
		return fmt.Sprintf("%-5s 0x%02X", opName, inst[0])
	}
}
