package vm

import (
	"fmt"
	"strings"
)

const NumRegisters = 32 // R0-R31: signed 32-bit registers

// RegisterFile holds the general purpose registers.
type RegisterFile [NumRegisters]int32

// validRegister reports whether idx names a register.
func validRegister(idx byte) bool {
	return int(idx) < NumRegisters
}

// String lays the registers out four to a line.
func (rf RegisterFile) String() string {
	var sb strings.Builder
	for i, v := range rf {
		fmt.Fprintf(&sb, "R%-2d = %-11d", i, v)
		if i%4 == 3 {
			sb.WriteByte('\n')
		} else {
			sb.WriteString("  ")
		}
	}
	return sb.String()
}
