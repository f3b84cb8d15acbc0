package vm

// Opcode represents a VM instruction opcode.
//
// Assigned opcodes occupy a single byte in the program buffer. IGL is the
// tag for every byte that is not assigned; it lies outside the byte range so
// no program can name it directly.
type Opcode uint16

const (
	// ===== Data Loading =====
	LOAD Opcode = 0 // R[dst] = imm16

	// ===== Arithmetic =====
	ADD Opcode = 1 // R[c] = R[a] + R[b]
	SUB Opcode = 2 // R[c] = R[a] - R[b]
	MUL Opcode = 3 // R[c] = R[a] * R[b]
	DIV Opcode = 4 // R[c] = R[a] / R[b], remainder = R[a] % R[b]

	// ===== Unconditional Jumps =====
	JMP  Opcode = 5 // pc = R[a]
	JMPF Opcode = 6 // pc += R[a]
	JMPB Opcode = 7 // pc -= R[a]

	// ===== Comparison =====
	EQ  Opcode = 8  // eq = R[a] == R[b]
	NEQ Opcode = 9  // eq = R[a] != R[b]
	GT  Opcode = 10 // eq = R[a] > R[b]
	LT  Opcode = 11 // eq = R[a] < R[b]
	GTQ Opcode = 12 // eq = R[a] >= R[b]
	LTQ Opcode = 13 // eq = R[a] <= R[b]

	// ===== Conditional Jumps =====
	JEQ  Opcode = 14 // if eq: pc = R[a]
	JNEQ Opcode = 15 // if !eq: pc = R[a]

	// ===== Counters =====
	INC Opcode = 16 // R[a]++
	DEC Opcode = 17 // R[a]--

	// ===== Control Flow =====
	HLT Opcode = 255 // stop execution
	IGL Opcode = 256 // illegal instruction, never encoded
)

// InstructionWidth is the number of bytes every instruction occupies.
const InstructionWidth = 4

// Decode maps a program byte to its opcode. It never fails: unassigned
// bytes decode to IGL.
func Decode(b byte) Opcode {
	op := Opcode(b)
	if op <= DEC || op == HLT {
		return op
	}
	return IGL
}

// String returns the mnemonic of an opcode.
func (o Opcode) String() string {
	switch o {
	case LOAD:
		return "LOAD"
	case ADD:
		return "ADD"
	case SUB:
		return "SUB"
	case MUL:
		return "MUL"
	case DIV:
		return "DIV"
	case JMP:
		return "JMP"
	case JMPF:
		return "JMPF"
	case JMPB:
		return "JMPB"
	case EQ:
		return "EQ"
	case NEQ:
		return "NEQ"
	case GT:
		return "GT"
	case LT:
		return "LT"
	case GTQ:
		return "GTQ"
	case LTQ:
		return "LTQ"
	case JEQ:
		return "JEQ"
	case JNEQ:
		return "JNEQ"
	case INC:
		return "INC"
	case DEC:
		return "DEC"
	case HLT:
		return "HLT"
	default:
		return "IGL"
	}
}

// Byte returns the encoding of an opcode. IGL has no encoding and reports
// false.
func (o Opcode) Byte() (byte, bool) {
	if o == IGL || o > HLT {
		return 0, false
	}
	return byte(o), true
}

// opcodeNames maps mnemonics to opcodes for OpcodeFromString.
var opcodeNames = map[string]Opcode{
	"LOAD": LOAD,
	"ADD":  ADD,
	"SUB":  SUB,
	"MUL":  MUL,
	"DIV":  DIV,
	"JMP":  JMP,
	"JMPF": JMPF,
	"JMPB": JMPB,
	"EQ":   EQ,
	"NEQ":  NEQ,
	"GT":   GT,
	"LT":   LT,
	"GTQ":  GTQ,
	"LTQ":  LTQ,
	"JEQ":  JEQ,
	"JNEQ": JNEQ,
	"INC":  INC,
	"DEC":  DEC,
	"HLT":  HLT,
}

// OpcodeFromString returns the opcode for an upper-case mnemonic.
// IGL is not accepted since it has no encoding.
func OpcodeFromString(s string) (Opcode, bool) {
	op, ok := opcodeNames[s]
	return op, ok
}
