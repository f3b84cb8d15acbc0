package embed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akhildatla/rvm/internal/testutil"
	"github.com/akhildatla/rvm/pkg/vm"
)

func TestRun_BasicProgram(t *testing.T) {
	result, err := Run(testutil.AddProgram(10, 5))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	testutil.AssertInt32Equal(t, 15, result.Registers[2])
	if result.Stats.StepsExecuted != 4 {
		t.Errorf("expected 4 steps, got %d", result.Stats.StepsExecuted)
	}
	if result.PC != 16 {
		t.Errorf("expected PC 16, got %d", result.PC)
	}
}

func TestRun_EmptyProgram(t *testing.T) {
	result, err := Run(nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Stats.StepsExecuted != 0 || result.PC != 0 {
		t.Errorf("expected untouched machine, got %+v", result)
	}
}

func TestRun_OpCounts(t *testing.T) {
	result, err := Run(testutil.CountdownProgram(3))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	counts := result.Stats.OpCounts
	if counts["DEC"] != 3 {
		t.Errorf("expected 3 DEC, got %d", counts["DEC"])
	}
	if counts["HLT"] != 1 {
		t.Errorf("expected 1 HLT, got %d", counts["HLT"])
	}
	if result.Registers[0] != 0 {
		t.Errorf("expected R0 = 0, got %d", result.Registers[0])
	}
}

func TestRun_DivisionRemainder(t *testing.T) {
	program := vm.Assemble(
		vm.EncodeLoad(0, 17),
		vm.EncodeLoad(1, 5),
		vm.EncodeRRR(vm.DIV, 0, 1, 2),
		vm.EncodeHalt(),
	)

	result, err := Run(program)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Registers[2] != 3 || result.Remainder != 2 {
		t.Errorf("expected 3 r 2, got %d r %d", result.Registers[2], result.Remainder)
	}
}

func TestRun_FaultReturnsState(t *testing.T) {
	program := vm.Assemble(
		vm.EncodeLoad(0, 1),
		vm.EncodeRRR(vm.DIV, 0, 1, 2),
		vm.EncodeHalt(),
	)

	result, err := Run(program)
	if !errors.Is(err, vm.ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
	if result == nil {
		t.Fatal("expected result on fault")
	}
	if result.PC != 4 {
		t.Errorf("expected PC at faulting instruction 4, got %d", result.PC)
	}
	if result.Registers[0] != 1 {
		t.Errorf("expected R0 = 1, got %d", result.Registers[0])
	}
}

func TestRun_StepLimit(t *testing.T) {
	_, err := Run(testutil.InfiniteLoopProgram(), WithMaxSteps(100))
	if !errors.Is(err, ErrStepLimit) {
		t.Errorf("expected ErrStepLimit, got %v", err)
	}
}

func TestRun_StepLimitExactFit(t *testing.T) {
	// Four instructions fit a limit of four.
	result, err := Run(testutil.AddProgram(1, 2), WithMaxSteps(4))
	if err != nil {
		t.Fatalf("expected program to finish within limit, got %v", err)
	}
	if result.Registers[2] != 3 {
		t.Errorf("expected R2 = 3, got %d", result.Registers[2])
	}
}

func TestRun_StepLimitWithoutHalt(t *testing.T) {
	// Running off the end is not a limit violation.
	program := vm.Assemble(vm.EncodeLoad(0, 1), vm.EncodeR(vm.INC, 0))
	result, err := Run(program, WithMaxSteps(2))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Registers[0] != 2 {
		t.Errorf("expected R0 = 2, got %d", result.Registers[0])
	}
}

func TestRun_Timeout(t *testing.T) {
	_, err := Run(testutil.InfiniteLoopProgram(), WithTimeout(10*time.Millisecond))
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(testutil.InfiniteLoopProgram(), WithContext(ctx))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRun_Observer(t *testing.T) {
	var pcs []int
	obs := vm.ObserverFunc(func(ev vm.StepEvent) {
		pcs = append(pcs, ev.PC)
	})

	if _, err := Run(testutil.AddProgram(1, 1), WithObserver(obs)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []int{0, 4, 8, 12}
	if len(pcs) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), pcs)
	}
	for i := range want {
		if pcs[i] != want[i] {
			t.Errorf("event %d: expected PC %d, got %d", i, want[i], pcs[i])
		}
	}
}

func TestRunFile_LoadsAndRuns(t *testing.T) {
	path := testutil.TempFile(t, "; answer\n00 00 00 2A\nFF 00 00 00\n", ".hex")

	result, err := RunFile(path)
	if err != nil {
		t.Fatalf("RunFile failed: %v", err)
	}
	if result.Registers[0] != 42 {
		t.Errorf("expected R0 = 42, got %d", result.Registers[0])
	}
}

func TestRunFile_NotFound(t *testing.T) {
	if _, err := RunFile("/nonexistent/prog.hex"); err == nil {
		t.Error("expected error for missing file")
	}
}
