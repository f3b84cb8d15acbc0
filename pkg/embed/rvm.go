// Package embed provides the Go embedding API for the register VM.
//
// The core VM runs until it halts and has no iteration bound of its own.
// This package steps it on the host side, so callers can cap steps, apply a
// timeout, or cancel through a context.
//
// Basic usage:
//
//	result, err := embed.Run(program)
//
// With limits:
//
//	result, err := embed.Run(program,
//	    embed.WithMaxSteps(10000),
//	    embed.WithTimeout(time.Second),
//	)
package embed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tliron/commonlog"

	"github.com/akhildatla/rvm/pkg/hexcode"
	"github.com/akhildatla/rvm/pkg/vm"
)

var log = commonlog.GetLogger("rvm.embed")

// Common errors
var (
	ErrTimeout   = errors.New("execution timeout exceeded")
	ErrStepLimit = errors.New("step limit exceeded")
)

// Result is the machine state after a run.
type Result struct {
	Registers vm.RegisterFile
	Remainder int32
	EqualFlag bool
	PC        int
	Stats     ExecutionStats
}

// ExecutionStats contains metrics about a run.
type ExecutionStats struct {
	StepsExecuted   uint64         // Total instructions executed
	ExecutionTimeNs int64          // Wall time in nanoseconds
	OpCounts        map[string]int // Count of each opcode executed
}

// Options configures execution behavior for Run.
type Options struct {
	// MaxSteps limits the number of instructions executed.
	// Zero means unlimited.
	MaxSteps uint64

	// Timeout sets maximum execution time. Zero means no timeout.
	Timeout time.Duration

	// Observer receives every executed instruction.
	Observer vm.Observer

	// Context for cancellation. If nil, context.Background() is used.
	Context context.Context
}

// Option is a functional option for configuring execution.
type Option func(*Options)

// WithMaxSteps sets the step limit.
func WithMaxSteps(n uint64) Option {
	return func(o *Options) {
		o.MaxSteps = n
	}
}

// WithTimeout sets execution timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithObserver installs an observer on the VM.
func WithObserver(obs vm.Observer) Option {
	return func(o *Options) {
		o.Observer = obs
	}
}

// WithContext sets the context for cancellation.
func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		o.Context = ctx
	}
}

// RunFile reads a hex program file and runs it.
func RunFile(path string, opts ...Option) (*Result, error) {
	program, err := hexcode.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Run(program, opts...)
}

// Run loads program into a fresh VM and steps it until it halts.
// The returned Result is non-nil whenever the machine was created, including
// on faults and limit errors, so callers can inspect the final state.
func Run(program []byte, opts ...Option) (*Result, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	ctx := options.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	machine := vm.New()
	for _, b := range program {
		machine.AppendByte(b)
	}

	stats := ExecutionStats{OpCounts: make(map[string]int)}
	machine.SetObserver(vm.ObserverFunc(func(ev vm.StepEvent) {
		stats.OpCounts[ev.Opcode.String()]++
		if options.Observer != nil {
			options.Observer.OnStep(ev)
		}
	}))

	log.Debugf("running %d bytes (max steps %d, timeout %s)", len(program), options.MaxSteps, options.Timeout)

	start := time.Now()
	err := drive(ctx, machine, options.MaxSteps)
	stats.ExecutionTimeNs = time.Since(start).Nanoseconds()
	stats.StepsExecuted = machine.Steps()

	result := &Result{
		Registers: machine.Registers(),
		Remainder: machine.Remainder(),
		EqualFlag: machine.EqualFlag(),
		PC:        machine.PC(),
		Stats:     stats,
	}

	if err != nil {
		log.Debugf("run stopped after %d steps: %s", stats.StepsExecuted, err)
		return result, err
	}

	log.Debugf("halted after %d steps at pc %d", stats.StepsExecuted, result.PC)
	return result, nil
}

func drive(ctx context.Context, machine *vm.VM, maxSteps uint64) error {
	for {
		// Context cancellation check
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrTimeout
			}
			return ctx.Err()
		default:
		}

		if maxSteps > 0 && machine.Steps() >= maxSteps && !machine.Halted() {
			if machine.PC() < machine.Len() {
				return fmt.Errorf("%w: %d", ErrStepLimit, maxSteps)
			}
		}

		done, err := machine.Step()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}
