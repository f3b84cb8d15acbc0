package vm

// Instruction is one fixed-width instruction slot.
//
// Layout:
// ┌─────────┬──────────┬──────────┬──────────┐
// │ opcode  │ operand0 │ operand1 │ operand2 │
// │ 8 bits  │  8 bits  │  8 bits  │  8 bits  │
// └─────────┴──────────┴──────────┴──────────┘
//
// LOAD combines operand1 and operand2 into a big-endian imm16. Operands a
// handler does not read are padding and are still stepped over.
type Instruction [InstructionWidth]byte

// EncodeLoad creates LOAD reg, imm16.
func EncodeLoad(reg uint8, imm uint16) Instruction {
	return Instruction{byte(LOAD), reg, byte(imm >> 8), byte(imm)}
}

// EncodeRRR creates a three-register instruction (ADD, SUB, MUL, DIV).
func EncodeRRR(op Opcode, a, b, c uint8) Instruction {
	return Instruction{byte(op), a, b, c}
}

// EncodeRR creates a two-register instruction (comparisons).
func EncodeRR(op Opcode, a, b uint8) Instruction {
	return Instruction{byte(op), a, b, 0}
}

// EncodeR creates a one-register instruction (jumps, INC, DEC).
func EncodeR(op Opcode, a uint8) Instruction {
	return Instruction{byte(op), a, 0, 0}
}

// EncodeHalt creates HLT.
func EncodeHalt() Instruction {
	return Instruction{byte(HLT), 0, 0, 0}
}

// Opcode returns the decoded opcode.
func (i Instruction) Opcode() Opcode {
	return Decode(i[0])
}

// Imm16 returns operand1 and operand2 as a big-endian 16-bit immediate.
func (i Instruction) Imm16() uint16 {
	return uint16(i[2])<<8 | uint16(i[3])
}

// Assemble concatenates instructions into a program buffer.
func Assemble(insts ...Instruction) []byte {
	out := make([]byte, 0, len(insts)*InstructionWidth)
	for _, inst := range insts {
		out = append(out, inst[:]...)
	}
	return out
}
