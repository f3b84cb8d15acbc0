// Package repl implements the interactive shell. Each line of hex bytes is
// appended to the program buffer and executed with exactly one step.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/akhildatla/rvm/pkg/hexcode"
	"github.com/akhildatla/rvm/pkg/lexer"
	"github.com/akhildatla/rvm/pkg/parser"
	"github.com/akhildatla/rvm/pkg/trace"
	"github.com/akhildatla/rvm/pkg/vm"
)

var log = commonlog.GetLogger("rvm.repl")

const (
	defaultPrompt = ">>> "
	banner        = "RVM shell - enter hex bytes to append and step"
)

// REPL provides an interactive Read-Eval-Print Loop over a single VM.
type REPL struct {
	vm           *vm.VM
	recorder     *trace.Recorder
	history      []string
	historyLimit int
	prompt       string
	banner       bool
	done         bool
}

// Option configures a REPL.
type Option func(*REPL)

// WithPrompt sets the prompt printed before each line.
func WithPrompt(prompt string) Option {
	return func(r *REPL) {
		r.prompt = prompt
	}
}

// WithHistoryLimit bounds the history to the newest n lines. Zero keeps
// everything.
func WithHistoryLimit(n int) Option {
	return func(r *REPL) {
		r.historyLimit = n
	}
}

// WithBanner controls the greeting printed by Start.
func WithBanner(show bool) Option {
	return func(r *REPL) {
		r.banner = show
	}
}

// New creates a new REPL instance.
func New(opts ...Option) *REPL {
	r := &REPL{
		prompt: defaultPrompt,
		banner: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.reset()
	return r
}

func (r *REPL) reset() {
	r.vm = vm.New()
	r.recorder = trace.NewRecorder(r.historyLimit)
	r.vm.SetObserver(r.recorder)
}

// VM returns the machine driven by the shell.
func (r *REPL) VM() *vm.VM {
	return r.vm
}

// History returns a copy of the recorded input lines.
func (r *REPL) History() []string {
	out := make([]string, len(r.history))
	copy(out, r.history)
	return out
}

// Done reports whether .quit was entered.
func (r *REPL) Done() bool {
	return r.done
}

// Start reads lines from in until .quit or end of input.
func (r *REPL) Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)

	if r.banner {
		fmt.Fprintln(out, banner)
		fmt.Fprintln(out, "Type '.help' for available commands, '.quit' to exit")
		fmt.Fprintln(out)
	}

	for !r.done {
		fmt.Fprint(out, r.prompt)

		if !scanner.Scan() {
			break
		}

		r.Eval(scanner.Text(), out)
	}
}

// Eval handles one input line.
func (r *REPL) Eval(line string, out io.Writer) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	r.record(line)

	if strings.HasPrefix(line, ".") {
		r.handleCommand(line, out)
		return
	}

	r.evalHex(line, out)
}

func (r *REPL) record(line string) {
	r.history = append(r.history, line)
	if r.historyLimit > 0 && len(r.history) > r.historyLimit {
		r.history = r.history[len(r.history)-r.historyLimit:]
	}
}

func (r *REPL) handleCommand(line string, out io.Writer) {
	parts := strings.Fields(line)

	switch parts[0] {
	case ".quit":
		fmt.Fprintln(out, "Goodbye.")
		r.done = true

	case ".help":
		r.printHelp(out)

	case ".history":
		for _, cmd := range r.history {
			fmt.Fprintln(out, cmd)
		}

	case ".program":
		if program := r.vm.Program(); len(program) > 0 {
			fmt.Fprintln(out, hexcode.Format(program))
		}
		fmt.Fprintln(out, "End of Program")

	case ".registers":
		fmt.Fprint(out, r.vm.Registers())

	case ".state":
		r.printState(out)

	case ".disasm":
		fmt.Fprint(out, vm.Disassemble(r.vm.Program()))

	case ".trace":
		if len(parts) > 1 {
			r.writeTrace(parts[1], out)
		} else {
			r.printTrace(out)
		}

	case ".tokens":
		r.printTokens(strings.TrimSpace(strings.TrimPrefix(line, ".tokens")), out)

	case ".reset":
		r.reset()
		fmt.Fprintln(out, "Machine reset")

	default:
		fmt.Fprintf(out, "Unknown command %s. Type '.help' for available commands\n", parts[0])
	}
}

func (r *REPL) evalHex(line string, out io.Writer) {
	bytes, err := hexcode.ParseLine(line)
	if err != nil {
		log.Debugf("rejected input %q: %s", line, err)
		fmt.Fprintf(out, "Unable to decode hex value: %v\n", err)
		return
	}

	for _, b := range bytes {
		r.vm.AppendByte(b)
	}
	log.Debugf("appended %d bytes, program is %d bytes", len(bytes), r.vm.Len())

	done, err := r.vm.Step()
	if err != nil {
		var execErr *vm.ExecError
		if errors.As(err, &execErr) {
			log.Warningf("machine faulted: %s", execErr)
		}
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	if done {
		fmt.Fprintf(out, "Halted at %04d\n", r.vm.PC())
	}
}

func (r *REPL) printState(out io.Writer) {
	status := "running"
	switch {
	case r.vm.Err() != nil:
		status = "faulted"
	case r.vm.Halted():
		status = "halted"
	}

	fmt.Fprintf(out, "pc:        %04d\n", r.vm.PC())
	fmt.Fprintf(out, "remainder: %d\n", r.vm.Remainder())
	fmt.Fprintf(out, "equal:     %v\n", r.vm.EqualFlag())
	fmt.Fprintf(out, "steps:     %d\n", r.vm.Steps())
	fmt.Fprintf(out, "status:    %s\n", status)
	if err := r.vm.Err(); err != nil {
		fmt.Fprintf(out, "fault:     %v\n", err)
	}
}

func (r *REPL) printTrace(out io.Writer) {
	steps := r.recorder.Steps()
	if len(steps) == 0 {
		fmt.Fprintln(out, "No steps recorded")
		return
	}
	for _, s := range steps {
		fmt.Fprintf(out, "%5d  %04d  %-5s -> %04d\n", s.Index, s.PC, s.Mnemonic, s.NextPC)
	}
}

func (r *REPL) writeTrace(path string, out io.Writer) {
	format, err := trace.FormatFromPath(path)
	if err == nil {
		err = r.recorder.WriteFile(context.Background(), path, format)
	}
	if err != nil {
		fmt.Fprintf(out, "Error writing trace: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Wrote %d steps to %s\n", r.recorder.Len(), path)
}

// printTokens runs the expression tokenizer over text and drains the
// resulting queue.
func (r *REPL) printTokens(text string, out io.Writer) {
	tokens, err := lexer.Tokenize(text)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}

	p := parser.New()
	p.AddToQueue(tokens)

	parts := make([]string, 0, p.Len())
	for tok, ok := p.Next(); ok; tok, ok = p.Next() {
		parts = append(parts, fmt.Sprintf("%s(%s)", tok.Type, tok))
	}
	fmt.Fprintln(out, strings.Join(parts, " "))
}

func (r *REPL) printHelp(out io.Writer) {
	help := `
RVM Shell Commands:
  .help             Show this help message
  .quit             Exit the shell
  .history          Show entered lines
  .program          Show the program buffer as hex
  .registers        Show all 32 registers
  .state            Show pc, remainder, equal flag and status
  .disasm           Disassemble the program buffer
  .trace [path]     Show executed steps, or write them to .csv/.parquet/.cbor
  .reset            Start over with an empty machine
  .tokens <expr>    Tokenize an integer expression such as 1 + 2

Any other line is hex bytes, appended and then stepped once:
  00 00 01 F4       LOAD R0, #500
  10 00 00 00       INC  R0
  FF 00 00 00       HLT
`
	fmt.Fprint(out, help)
}
