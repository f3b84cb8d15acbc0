package repl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/akhildatla/rvm/internal/testutil"
)

func eval(r *REPL, lines ...string) string {
	var out bytes.Buffer
	for _, l := range lines {
		r.Eval(l, &out)
	}
	return out.String()
}

func TestREPL_New(t *testing.T) {
	r := New()
	if r == nil {
		t.Fatal("New returned nil")
	}
	if r.prompt != defaultPrompt {
		t.Errorf("expected default prompt, got %q", r.prompt)
	}
	if r.VM().Len() != 0 {
		t.Errorf("expected empty program, got %d bytes", r.VM().Len())
	}
}

func TestREPL_HexStepsOnce(t *testing.T) {
	r := New()
	eval(r, "00 00 01 F4")

	if r.VM().Register(0) != 500 {
		t.Errorf("expected R0 = 500, got %d", r.VM().Register(0))
	}
	if r.VM().PC() != 4 || r.VM().Steps() != 1 {
		t.Errorf("expected one step to pc 4, got pc=%d steps=%d", r.VM().PC(), r.VM().Steps())
	}
}

func TestREPL_OneStepPerLine(t *testing.T) {
	r := New()
	// Two instructions on one line still execute only the first.
	eval(r, "00 00 00 05 10 00 00 00")

	if r.VM().Steps() != 1 || r.VM().Register(0) != 5 {
		t.Errorf("expected one step, got steps=%d R0=%d", r.VM().Steps(), r.VM().Register(0))
	}

	eval(r, "10 00 00 00")
	if r.VM().Register(0) != 6 {
		t.Errorf("expected INC from the first line to run next, got R0=%d", r.VM().Register(0))
	}
}

func TestREPL_DecodeFailure(t *testing.T) {
	tests := []string{"zz", "0", "000", "00 0G", "00 00 01 F4 x"}

	for _, line := range tests {
		r := New()
		out := eval(r, line)

		if !strings.Contains(out, "Unable to decode hex value") {
			t.Errorf("%q: expected decode error, got %q", line, out)
		}
		if r.VM().Len() != 0 || r.VM().Steps() != 0 {
			t.Errorf("%q: expected no append and no step", line)
		}
	}
}

func TestREPL_BlankLineIgnored(t *testing.T) {
	r := New()
	out := eval(r, "", "   ")

	if out != "" {
		t.Errorf("expected no output, got %q", out)
	}
	if len(r.History()) != 0 || r.VM().Steps() != 0 {
		t.Error("expected blank lines to be ignored")
	}
}

func TestREPL_Fault(t *testing.T) {
	r := New()
	out := eval(r, "00 40 00 01")

	if !strings.Contains(out, "Error:") || !strings.Contains(out, "invalid register") {
		t.Errorf("expected register fault, got %q", out)
	}

	out = eval(r, ".state")
	if !strings.Contains(out, "faulted") {
		t.Errorf("expected faulted status, got %q", out)
	}
}

func TestREPL_Halt(t *testing.T) {
	r := New()
	out := eval(r, "FF 00 00 00")

	if !strings.Contains(out, "Halted at 0004") {
		t.Errorf("expected halt message, got %q", out)
	}
	if !r.VM().Halted() {
		t.Error("expected machine halted")
	}
}

func TestREPL_HandleCommand_Quit(t *testing.T) {
	r := New()
	out := eval(r, ".quit")

	if out != "Goodbye.\n" {
		t.Errorf("expected goodbye message, got %q", out)
	}
	if !r.Done() {
		t.Error("expected REPL to be done")
	}
}

func TestREPL_HandleCommand_Help(t *testing.T) {
	out := eval(New(), ".help")
	if !strings.Contains(out, "RVM Shell Commands") {
		t.Errorf("expected help text, got: %s", out)
	}
}

func TestREPL_HandleCommand_Unknown(t *testing.T) {
	r := New()
	out := eval(r, ".bogus")
	if !strings.Contains(out, "Unknown command .bogus") {
		t.Errorf("expected unknown command message, got %q", out)
	}
	if r.VM().Len() != 0 {
		t.Error("expected commands not to append bytes")
	}
}

func TestREPL_History(t *testing.T) {
	r := New()
	out := eval(r, "00 00 00 01", "zz", ".history")

	want := []string{"00 00 00 01", "zz", ".history"}
	if diff := cmp.Diff(want, r.History()); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasSuffix(out, "00 00 00 01\nzz\n.history\n") {
		t.Errorf("expected history listing, got %q", out)
	}
}

func TestREPL_HistoryLimit(t *testing.T) {
	r := New(WithHistoryLimit(2))
	eval(r, ".state", ".registers", ".program")

	want := []string{".registers", ".program"}
	if diff := cmp.Diff(want, r.History()); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestREPL_Program(t *testing.T) {
	r := New()
	out := eval(r, "00 00 01 f4", ".program")

	if !strings.Contains(out, "00 00 01 F4\nEnd of Program\n") {
		t.Errorf("expected program listing, got %q", out)
	}

	out = eval(New(), ".program")
	if out != "End of Program\n" {
		t.Errorf("expected empty listing, got %q", out)
	}
}

func TestREPL_Registers(t *testing.T) {
	r := New()
	out := eval(r, "00 1F 00 2A", ".registers")

	if !strings.Contains(out, "R31 = 42") {
		t.Errorf("expected R31 = 42, got %q", out)
	}
	if strings.Count(out, "R") != 32 {
		t.Errorf("expected 32 registers, got %q", out)
	}
}

func TestREPL_Disasm(t *testing.T) {
	r := New()
	out := eval(r, "00 00 01 F4", ".disasm")

	if !strings.Contains(out, "0000: LOAD  R0, #500") {
		t.Errorf("expected disassembly, got %q", out)
	}
}

func TestREPL_Trace(t *testing.T) {
	r := New()
	out := eval(r, ".trace")
	if !strings.Contains(out, "No steps recorded") {
		t.Errorf("expected empty trace, got %q", out)
	}

	out = eval(r, "00 00 00 01", ".trace")
	if !strings.Contains(out, "LOAD") {
		t.Errorf("expected LOAD in trace, got %q", out)
	}

	path := testutil.TempPath(t, ".csv")
	out = eval(r, ".trace "+path)
	if !strings.Contains(out, "Wrote 1 steps") {
		t.Errorf("expected write confirmation, got %q", out)
	}
}

func TestREPL_Tokens(t *testing.T) {
	out := eval(New(), ".tokens 12+ 3")
	if out != "INTEGER(12) PLUS(+) INTEGER(3)\n" {
		t.Errorf("unexpected tokens %q", out)
	}

	out = eval(New(), ".tokens 1 * 2")
	if !strings.Contains(out, "unrecognized character") {
		t.Errorf("expected lexer error, got %q", out)
	}
}

func TestREPL_Reset(t *testing.T) {
	r := New()
	eval(r, "00 00 00 01", ".reset")

	if r.VM().Len() != 0 || r.VM().Register(0) != 0 {
		t.Error("expected fresh machine after reset")
	}
	if len(r.History()) != 2 {
		t.Errorf("expected history to survive reset, got %v", r.History())
	}
}

func TestREPL_Start(t *testing.T) {
	r := New(WithPrompt("> "), WithBanner(false))
	in := strings.NewReader("00 00 00 07\n.quit\n00 01 00 01\n")
	var out bytes.Buffer

	r.Start(in, &out)

	if r.VM().Register(0) != 7 {
		t.Errorf("expected R0 = 7, got %d", r.VM().Register(0))
	}
	if r.VM().Register(1) != 0 {
		t.Error("expected input after .quit to be ignored")
	}
	if out.String() != "> > Goodbye.\n" {
		t.Errorf("unexpected transcript %q", out.String())
	}
}

func TestREPL_StartEOF(t *testing.T) {
	r := New()
	var out bytes.Buffer
	r.Start(strings.NewReader("00 00 00 01\n"), &out)

	if !strings.HasPrefix(out.String(), banner) {
		t.Errorf("expected banner, got %q", out.String())
	}
	if r.Done() {
		t.Error("expected EOF not to count as .quit")
	}
}
