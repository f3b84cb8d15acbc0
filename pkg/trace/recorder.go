// Package trace records executed instructions and moves execution traces in
// and out of tabular formats.
//
// A Recorder is installed as a vm.Observer. Its steps can be turned into a
// dataframe and written as CSV, Parquet or CBOR. Load reads any of those
// back, together with JSON exported by other tools.
package trace

import (
	dataframe "github.com/rocketlaunchr/dataframe-go"

	"github.com/akhildatla/rvm/pkg/vm"
)

// Column names of a trace frame, in order.
const (
	ColStep      = "step"
	ColPC        = "pc"
	ColOpcode    = "opcode"
	ColMnemonic  = "mnemonic"
	ColNextPC    = "next_pc"
	ColEqualFlag = "equal_flag"
	ColRemainder = "remainder"
	ColJumped    = "jumped"
)

// Step is one executed instruction.
type Step struct {
	Index     uint64    `cbor:"step"`
	PC        int       `cbor:"pc"`
	Opcode    vm.Opcode `cbor:"opcode"`
	Mnemonic  string    `cbor:"mnemonic"`
	NextPC    int       `cbor:"next_pc"`
	EqualFlag bool      `cbor:"equal_flag"`
	Remainder int32     `cbor:"remainder"`
	Jumped    bool      `cbor:"jumped"`
}

// Recorder collects steps from a VM. The zero value is ready to use.
type Recorder struct {
	steps []Step
	limit int
}

// NewRecorder creates a recorder that keeps at most limit steps, dropping
// the oldest. A limit of zero keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// OnStep implements vm.Observer.
func (r *Recorder) OnStep(ev vm.StepEvent) {
	r.steps = append(r.steps, Step{
		Index:     ev.Index,
		PC:        ev.PC,
		Opcode:    ev.Opcode,
		Mnemonic:  ev.Opcode.String(),
		NextPC:    ev.NextPC,
		EqualFlag: ev.EqualFlag,
		Remainder: ev.Remainder,
		Jumped:    ev.Jumped,
	})
	if r.limit > 0 && len(r.steps) > r.limit {
		r.steps = r.steps[len(r.steps)-r.limit:]
	}
}

// Steps returns a copy of the recorded steps.
func (r *Recorder) Steps() []Step {
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Len returns the number of recorded steps.
func (r *Recorder) Len() int {
	return len(r.steps)
}

// Reset discards all recorded steps.
func (r *Recorder) Reset() {
	r.steps = r.steps[:0]
}

// DataFrame returns the recorded steps as a frame.
func (r *Recorder) DataFrame() *dataframe.DataFrame {
	return FromSteps(r.steps)
}

// FromSteps builds a trace frame. Flags are stored as 0 or 1 so every column
// other than mnemonic is int64.
func FromSteps(steps []Step) *dataframe.DataFrame {
	n := len(steps)
	init := &dataframe.SeriesInit{Capacity: n}

	step := dataframe.NewSeriesInt64(ColStep, init)
	pc := dataframe.NewSeriesInt64(ColPC, init)
	opcode := dataframe.NewSeriesInt64(ColOpcode, init)
	mnemonic := dataframe.NewSeriesString(ColMnemonic, init)
	nextPC := dataframe.NewSeriesInt64(ColNextPC, init)
	eq := dataframe.NewSeriesInt64(ColEqualFlag, init)
	rem := dataframe.NewSeriesInt64(ColRemainder, init)
	jumped := dataframe.NewSeriesInt64(ColJumped, init)

	for _, s := range steps {
		step.Append(int64(s.Index))
		pc.Append(int64(s.PC))
		opcode.Append(int64(s.Opcode))
		mnemonic.Append(s.Mnemonic)
		nextPC.Append(int64(s.NextPC))
		eq.Append(boolToInt64(s.EqualFlag))
		rem.Append(int64(s.Remainder))
		jumped.Append(boolToInt64(s.Jumped))
	}

	return dataframe.NewDataFrame(step, pc, opcode, mnemonic, nextPC, eq, rem, jumped)
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
