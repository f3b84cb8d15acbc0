package verifier

import (
	"fmt"

	"github.com/akhildatla/rvm/pkg/vm"
)

// registerOperands returns which of the three operand bytes name registers.
func registerOperands(op vm.Opcode) []int {
	switch op {
	case vm.LOAD, vm.JMP, vm.JMPF, vm.JMPB, vm.JEQ, vm.JNEQ, vm.INC, vm.DEC:
		return []int{0}
	case vm.EQ, vm.NEQ, vm.GT, vm.LT, vm.GTQ, vm.LTQ:
		return []int{0, 1}
	case vm.ADD, vm.SUB, vm.MUL, vm.DIV:
		return []int{0, 1, 2}
	}
	return nil
}

func (v *Verifier) checkSlots(program []byte) []Finding {
	var findings []Finding

	for off := 0; off < len(program); off += vm.InstructionWidth {
		op := vm.Decode(program[off])

		if v.enableIllegalCheck && op == vm.IGL {
			findings = append(findings, Finding{
				Offset:   off,
				Opcode:   op,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("byte 0x%02X is not an opcode and is skipped", program[off]),
			})
		}

		if !v.enableRegisterCheck {
			continue
		}
		for _, i := range registerOperands(op) {
			pos := off + 1 + i
			if pos >= len(program) {
				break
			}
			if int(program[pos]) >= vm.NumRegisters {
				findings = append(findings, Finding{
					Offset:   off,
					Opcode:   op,
					Severity: SeverityError,
					Message:  fmt.Sprintf("operand %d names R%d, only R0-R%d exist", i+1, program[pos], vm.NumRegisters-1),
				})
			}
		}
	}

	return findings
}

func (v *Verifier) checkTruncation(program []byte) []Finding {
	tail := len(program) % vm.InstructionWidth
	if tail == 0 {
		return nil
	}

	off := len(program) - tail
	op := vm.Decode(program[off])

	// Padding never faults, so a short tail only matters when the handler
	// reads operands that are missing.
	severity := SeverityError
	if bytesRead(op) <= tail {
		severity = SeverityWarning
	}

	return []Finding{{
		Offset:   off,
		Opcode:   op,
		Severity: severity,
		Message:  fmt.Sprintf("last instruction has %d of %d bytes", tail, vm.InstructionWidth),
	}}
}

// bytesRead returns how many bytes, including the opcode, a handler reads.
func bytesRead(op vm.Opcode) int {
	switch op {
	case vm.LOAD, vm.ADD, vm.SUB, vm.MUL, vm.DIV:
		return 4
	case vm.EQ, vm.NEQ, vm.GT, vm.LT, vm.GTQ, vm.LTQ:
		return 3
	case vm.JMP, vm.JMPF, vm.JMPB, vm.JEQ, vm.JNEQ, vm.INC, vm.DEC:
		return 2
	}
	return 1
}

func (v *Verifier) checkHalt(program []byte) []Finding {
	for off := 0; off < len(program); off += vm.InstructionWidth {
		if vm.Decode(program[off]) == vm.HLT {
			return nil
		}
	}

	return []Finding{{
		Offset:   len(program),
		Opcode:   vm.HLT,
		Severity: SeverityWarning,
		Message:  "no HLT; the program ends by running off the end",
	}}
}
