// Package verifier runs static checks over a program buffer before it is
// executed. It never runs code; findings describe what the VM would fault on
// or silently skip.
package verifier

import (
	"fmt"

	"github.com/akhildatla/rvm/pkg/vm"
)

// Severity ranks a finding.
type Severity uint8

const (
	SeverityWarning Severity = iota // Runs, but probably not as intended
	SeverityError                   // Faults when reached
)

// String returns the string representation of a severity.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Finding is one problem at a program offset.
type Finding struct {
	Offset   int
	Opcode   vm.Opcode
	Severity Severity
	Message  string
}

// String formats a finding like a disassembly line.
func (f Finding) String() string {
	return fmt.Sprintf("%04d: %s: %s: %s", f.Offset, f.Severity, f.Opcode, f.Message)
}

// Verifier applies enabled checks to a program.
type Verifier struct {
	enableRegisterCheck   bool
	enableTruncationCheck bool
	enableIllegalCheck    bool
	enableHaltCheck       bool
}

// Option is a functional option for the Verifier.
type Option func(*Verifier)

// WithRegisterCheck reports register operands above R31.
func WithRegisterCheck() Option {
	return func(v *Verifier) {
		v.enableRegisterCheck = true
	}
}

// WithTruncationCheck reports a trailing partial instruction.
func WithTruncationCheck() Option {
	return func(v *Verifier) {
		v.enableTruncationCheck = true
	}
}

// WithIllegalOpcodeCheck reports bytes that decode to IGL.
func WithIllegalOpcodeCheck() Option {
	return func(v *Verifier) {
		v.enableIllegalCheck = true
	}
}

// WithHaltCheck reports programs without any HLT.
func WithHaltCheck() Option {
	return func(v *Verifier) {
		v.enableHaltCheck = true
	}
}

// WithAllChecks enables all checks.
func WithAllChecks() Option {
	return func(v *Verifier) {
		v.enableRegisterCheck = true
		v.enableTruncationCheck = true
		v.enableIllegalCheck = true
		v.enableHaltCheck = true
	}
}

// New creates a new Verifier with the given options.
func New(opts ...Option) *Verifier {
	v := &Verifier{}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Verify checks the program slot by slot. Slots are walked at the fixed
// instruction stride from offset 0; code reached only through a jump into
// the middle of a slot is not analysed.
func (v *Verifier) Verify(program []byte) []Finding {
	var findings []Finding

	if v.enableRegisterCheck || v.enableIllegalCheck {
		findings = append(findings, v.checkSlots(program)...)
	}

	if v.enableTruncationCheck {
		findings = append(findings, v.checkTruncation(program)...)
	}

	if v.enableHaltCheck {
		findings = append(findings, v.checkHalt(program)...)
	}

	return findings
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}
