// Package testutil provides testing utilities for RVM tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	dataframe "github.com/rocketlaunchr/dataframe-go"

	"github.com/akhildatla/rvm/pkg/vm"
)

// TempFile creates a temporary file with the given content and extension.
// The file is automatically cleaned up when the test finishes.
func TempFile(t *testing.T, content, ext string) string {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test"+ext)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

// TempPath returns a path with the given extension inside a fresh temp dir.
// Nothing is created at the path.
func TempPath(t *testing.T, ext string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "out"+ext)
}

// AddProgram loads a and b into R0 and R1, adds them into R2 and halts.
func AddProgram(a, b uint16) []byte {
	return vm.Assemble(
		vm.EncodeLoad(0, a),
		vm.EncodeLoad(1, b),
		vm.EncodeRRR(vm.ADD, 0, 1, 2),
		vm.EncodeHalt(),
	)
}

// CountdownProgram decrements R0 from n to zero and halts.
//
//	0000: LOAD R0, #n
//	0004: LOAD R1, #0
//	0008: LOAD R2, #12
//	0012: DEC  R0
//	0016: NEQ  R0, R1
//	0020: JEQ  R2
//	0024: HLT
func CountdownProgram(n uint16) []byte {
	return vm.Assemble(
		vm.EncodeLoad(0, n),
		vm.EncodeLoad(1, 0),
		vm.EncodeLoad(2, 12),
		vm.EncodeR(vm.DEC, 0),
		vm.EncodeRR(vm.NEQ, 0, 1),
		vm.EncodeR(vm.JEQ, 2),
		vm.EncodeHalt(),
	)
}

// InfiniteLoopProgram jumps back to its own JMP forever.
func InfiniteLoopProgram() []byte {
	return vm.Assemble(
		vm.EncodeLoad(0, 4),
		vm.EncodeR(vm.JMP, 0),
	)
}

// MakeTraceFrame creates a small trace frame with the recorded column layout.
func MakeTraceFrame() *dataframe.DataFrame {
	return dataframe.NewDataFrame(
		dataframe.NewSeriesInt64("step", nil, 0, 1, 2),
		dataframe.NewSeriesInt64("pc", nil, 0, 4, 8),
		dataframe.NewSeriesInt64("opcode", nil, 0, 16, 255),
		dataframe.NewSeriesString("mnemonic", nil, "LOAD", "INC", "HLT"),
		dataframe.NewSeriesInt64("next_pc", nil, 4, 8, 12),
		dataframe.NewSeriesInt64("equal_flag", nil, 0, 0, 0),
		dataframe.NewSeriesInt64("remainder", nil, 0, 0, 0),
		dataframe.NewSeriesInt64("jumped", nil, 0, 0, 0),
	)
}

// AssertInt32Equal checks if two int32 values are equal.
func AssertInt32Equal(t *testing.T, expected, actual int32) {
	t.Helper()
	if expected != actual {
		t.Errorf("expected %d, got %d", expected, actual)
	}
}
