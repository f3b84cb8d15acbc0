package vm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInstruction_EncodeLoad(t *testing.T) {
	inst := EncodeLoad(3, 500)

	want := Instruction{0, 3, 1, 244}
	if inst != want {
		t.Errorf("expected %v, got %v", want, inst)
	}
	if inst.Imm16() != 500 {
		t.Errorf("expected imm16 500, got %d", inst.Imm16())
	}
	if inst.Opcode() != LOAD {
		t.Errorf("expected LOAD, got %v", inst.Opcode())
	}
}

func TestInstruction_EncodeShapes(t *testing.T) {
	tests := []struct {
		name string
		inst Instruction
		want Instruction
	}{
		{"rrr", EncodeRRR(ADD, 0, 1, 2), Instruction{1, 0, 1, 2}},
		{"rr", EncodeRR(GTQ, 4, 5), Instruction{12, 4, 5, 0}},
		{"r", EncodeR(JNEQ, 7), Instruction{15, 7, 0, 0}},
		{"halt", EncodeHalt(), Instruction{255, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.inst != tt.want {
				t.Errorf("expected %v, got %v", tt.want, tt.inst)
			}
		})
	}
}

func TestInstruction_Assemble(t *testing.T) {
	got := Assemble(EncodeLoad(0, 5), EncodeLoad(1, 3), EncodeRRR(ADD, 0, 1, 2))
	want := []byte{0, 0, 0, 5, 0, 1, 0, 3, 1, 0, 1, 2}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Assemble mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Total(t *testing.T) {
	for b := 0; b <= 255; b++ {
		op := Decode(byte(b))
		switch {
		case b <= 17:
			if op != Opcode(b) {
				t.Errorf("byte %d: expected opcode %d, got %v", b, b, op)
			}
		case b == 255:
			if op != HLT {
				t.Errorf("byte 255: expected HLT, got %v", op)
			}
		default:
			if op != IGL {
				t.Errorf("byte %d: expected IGL, got %v", b, op)
			}
		}
	}
}

func TestOpcodeString(t *testing.T) {
	tests := []struct {
		opcode   Opcode
		expected string
	}{
		{LOAD, "LOAD"},
		{DIV, "DIV"},
		{JMPB, "JMPB"},
		{GTQ, "GTQ"},
		{JNEQ, "JNEQ"},
		{DEC, "DEC"},
		{HLT, "HLT"},
		{IGL, "IGL"},
		{Decode(185), "IGL"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.opcode.String(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestOpcodeFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected Opcode
		ok       bool
	}{
		{"LOAD", LOAD, true},
		{"JMPF", JMPF, true},
		{"LTQ", LTQ, true},
		{"HLT", HLT, true},
		{"IGL", 0, false},
		{"load", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := OpcodeFromString(tt.input)
			if ok != tt.ok {
				t.Errorf("ok: expected %v, got %v", tt.ok, ok)
			}
			if ok && got != tt.expected {
				t.Errorf("opcode: expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestOpcode_Byte(t *testing.T) {
	if b, ok := HLT.Byte(); !ok || b != 255 {
		t.Errorf("expected HLT to encode as 255, got %d (ok=%v)", b, ok)
	}
	if b, ok := INC.Byte(); !ok || b != 16 {
		t.Errorf("expected INC to encode as 16, got %d (ok=%v)", b, ok)
	}
	if _, ok := IGL.Byte(); ok {
		t.Error("expected IGL to have no encoding")
	}
}
