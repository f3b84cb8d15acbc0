// Package main provides the CLI entry point for RVM, the register VM.
//
// Usage:
//
//	rvm                              # Start the interactive shell
//	rvm run program.hex              # Run a hex program to halt
//	rvm check program.hex            # Verify a program without running it
//	rvm disasm program.hex           # Disassemble a program
//	rvm trace program.hex -o t.csv   # Run and record every step
//	rvm summary t.csv                # Summarize a recorded trace
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/akhildatla/rvm/pkg/config"
	"github.com/akhildatla/rvm/pkg/embed"
	"github.com/akhildatla/rvm/pkg/hexcode"
	"github.com/akhildatla/rvm/pkg/repl"
	"github.com/akhildatla/rvm/pkg/trace"
	"github.com/akhildatla/rvm/pkg/verifier"
	"github.com/akhildatla/rvm/pkg/vm"
)

// Version info set by GoReleaser via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var log = commonlog.GetLogger("rvm.cli")

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		return replCommand(nil)
	}

	cmd := args[0]

	switch cmd {
	case "repl":
		return replCommand(args[1:])
	case "run":
		return runCommand(args[1:])
	case "check":
		return checkCommand(args[1:])
	case "disasm":
		return disasmCommand(args[1:])
	case "trace":
		return traceCommand(args[1:])
	case "summary":
		return summaryCommand(args[1:])
	case "version":
		fmt.Printf("rvm version %s\n", version)
		if commit != "none" {
			fmt.Printf("  commit: %s\n", commit)
		}
		if date != "unknown" {
			fmt.Printf("  built:  %s\n", date)
		}
		return nil
	case "help", "-h", "--help":
		return printUsage()
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// commonFlags are accepted by every subcommand.
type commonFlags struct {
	verbose    *bool
	configPath *string
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		verbose:    fs.Bool("v", false, "verbose output"),
		configPath: fs.String("config", "", "config file (default: nearest rvm.toml)"),
	}
}

// setup loads configuration and configures logging.
func (c commonFlags) setup() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if *c.configPath != "" {
		cfg, err = config.Load(*c.configPath)
	} else {
		cfg, err = config.FindAndLoad(".")
	}
	if err != nil {
		return nil, err
	}

	verbosity := cfg.Log.Verbosity
	if *c.verbose && verbosity < 2 {
		verbosity = 2
	}
	var logPath *string
	if cfg.Log.File != "" {
		logPath = &cfg.Log.File
	}
	commonlog.Configure(verbosity, logPath)

	if cfg.Path != "" {
		log.Debugf("using config %s", cfg.Path)
	}
	return cfg, nil
}

// parseFile parses flags that may come before or after the single file
// argument and returns that file.
func parseFile(fs *flag.FlagSet, args []string, usage string) (string, error) {
	var files []string
	for {
		if err := fs.Parse(args); err != nil {
			return "", err
		}
		if fs.NArg() == 0 {
			break
		}
		files = append(files, fs.Arg(0))
		args = fs.Args()[1:]
	}
	if len(files) != 1 {
		return "", fmt.Errorf("usage: %s", usage)
	}
	return files[0], nil
}

func replCommand(args []string) error {
	fs := flag.NewFlagSet("repl", flag.ExitOnError)
	common := addCommonFlags(fs)
	prompt := fs.String("prompt", "", "prompt (default from config)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.setup()
	if err != nil {
		return err
	}
	if *prompt != "" {
		cfg.Shell.Prompt = *prompt
	}

	r := repl.New(
		repl.WithPrompt(cfg.Shell.Prompt),
		repl.WithHistoryLimit(cfg.Shell.HistoryLimit),
		repl.WithBanner(cfg.Shell.Banner),
	)
	r.Start(os.Stdin, os.Stdout)
	return nil
}

// runOptions turns config and flag overrides into embed options.
func runOptions(cfg *config.Config, maxSteps uint64, timeout time.Duration) ([]embed.Option, error) {
	if maxSteps == 0 {
		maxSteps = cfg.Run.MaxSteps
	}
	if timeout == 0 {
		d, err := cfg.TimeoutDuration()
		if err != nil {
			return nil, err
		}
		timeout = d
	}
	return []embed.Option{
		embed.WithMaxSteps(maxSteps),
		embed.WithTimeout(timeout),
	}, nil
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	common := addCommonFlags(fs)
	maxSteps := fs.Uint64("max-steps", 0, "stop after this many instructions (default from config, 0 = unlimited)")
	timeout := fs.Duration("timeout", 0, "stop after this long (default from config, 0 = none)")

	path, err := parseFile(fs, args, "rvm run <file.hex>")
	if err != nil {
		return err
	}

	cfg, err := common.setup()
	if err != nil {
		return err
	}
	opts, err := runOptions(cfg, *maxSteps, *timeout)
	if err != nil {
		return err
	}

	if *common.verbose {
		fmt.Printf("Executing: %s\n", path)
	}

	result, err := embed.RunFile(path, opts...)
	if result != nil {
		printResult(result, *common.verbose)
	}
	return err
}

func printResult(result *embed.Result, verbose bool) {
	fmt.Print(result.Registers)
	fmt.Printf("remainder: %d\n", result.Remainder)
	fmt.Printf("equal:     %v\n", result.EqualFlag)

	if verbose {
		fmt.Printf("pc:        %04d\n", result.PC)
		fmt.Printf("steps:     %d\n", result.Stats.StepsExecuted)
		fmt.Printf("time:      %s\n", time.Duration(result.Stats.ExecutionTimeNs))
	}
}

func checkCommand(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	common := addCommonFlags(fs)
	noHalt := fs.Bool("no-halt-check", false, "do not warn about programs without HLT")

	path, err := parseFile(fs, args, "rvm check <file.hex>")
	if err != nil {
		return err
	}

	if _, err := common.setup(); err != nil {
		return err
	}

	program, err := hexcode.LoadFile(path)
	if err != nil {
		return err
	}

	opts := []verifier.Option{
		verifier.WithRegisterCheck(),
		verifier.WithTruncationCheck(),
		verifier.WithIllegalOpcodeCheck(),
	}
	if !*noHalt {
		opts = append(opts, verifier.WithHaltCheck())
	}

	findings := verifier.New(opts...).Verify(program)
	for _, f := range findings {
		fmt.Println(f)
	}

	if verifier.HasErrors(findings) {
		return fmt.Errorf("%s: program has errors", path)
	}
	if *common.verbose || len(findings) == 0 {
		fmt.Printf("%s: ok (%d bytes)\n", path, len(program))
	}
	return nil
}

func disasmCommand(args []string) error {
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	output := fs.String("o", "", "output file (default: stdout)")

	path, err := parseFile(fs, args, "rvm disasm <file.hex> [-o output.txt]")
	if err != nil {
		return err
	}

	program, err := hexcode.LoadFile(path)
	if err != nil {
		return err
	}

	asm := vm.Disassemble(program)

	if *output != "" {
		if err := os.WriteFile(*output, []byte(asm), 0644); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		fmt.Printf("Disassembled to: %s\n", *output)
	} else {
		fmt.Print(asm)
	}

	return nil
}

func traceCommand(args []string) error {
	fs := flag.NewFlagSet("trace", flag.ExitOnError)
	common := addCommonFlags(fs)
	output := fs.String("o", "", "output file; extension picks csv, parquet or cbor (default from config)")
	limit := fs.Int("limit", 0, "keep only the newest n steps (0 = all)")
	maxSteps := fs.Uint64("max-steps", 0, "stop after this many instructions (default from config, 0 = unlimited)")

	input, err := parseFile(fs, args, "rvm trace <file.hex> [-o trace.csv]")
	if err != nil {
		return err
	}

	cfg, err := common.setup()
	if err != nil {
		return err
	}

	outPath, format, err := traceOutput(cfg, input, *output)
	if err != nil {
		return err
	}

	opts, err := runOptions(cfg, *maxSteps, 0)
	if err != nil {
		return err
	}

	rec := trace.NewRecorder(*limit)
	opts = append(opts, embed.WithObserver(rec))

	_, runErr := embed.RunFile(input, opts...)
	if runErr != nil && rec.Len() == 0 {
		return runErr
	}

	if err := rec.WriteFile(context.Background(), outPath, format); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	log.Infof("wrote %d steps to %s", rec.Len(), outPath)
	fmt.Printf("Traced %d steps to: %s\n", rec.Len(), outPath)

	return runErr
}

// traceOutput resolves the output path and format. An explicit path wins,
// then the configured output, then the input name with the configured format.
func traceOutput(cfg *config.Config, input, output string) (string, trace.Format, error) {
	if output == "" {
		output = cfg.Trace.Output
	}
	if output != "" {
		format, err := trace.FormatFromPath(output)
		return output, format, err
	}

	format, err := trace.ParseFormat(cfg.Trace.Format)
	if err != nil {
		return "", "", err
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + ".trace." + string(format), format, nil
}

func summaryCommand(args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	common := addCommonFlags(fs)

	path, err := parseFile(fs, args, "rvm summary <trace.{csv,json,parquet,cbor}>")
	if err != nil {
		return err
	}

	if _, err := common.setup(); err != nil {
		return err
	}

	df, err := trace.Load(path)
	if err != nil {
		return err
	}

	s, err := trace.Summarize(df)
	if err != nil {
		if errors.Is(err, trace.ErrInvalidTrace) {
			return fmt.Errorf("%s: %w", path, err)
		}
		return err
	}

	fmt.Printf("steps:  %d\n", s.Steps)
	fmt.Printf("max pc: %04d\n", s.MaxPC)
	fmt.Printf("jumps:  %d taken\n", s.JumpsTaken)
	fmt.Println("opcodes:")
	for _, oc := range s.Sorted() {
		fmt.Printf("  %-5s %d\n", oc.Mnemonic, oc.Count)
	}
	return nil
}

func printUsage() error {
	fmt.Println(`RVM - register-based bytecode virtual machine

Usage:
  rvm <command> [arguments]

Commands:
  repl                  Start the interactive shell (default)
  run <file.hex>        Run a hex program and print the registers
  check <file.hex>      Verify a program without running it
  disasm <file.hex>     Disassemble a hex program
  trace <file.hex>      Run a program and record every step
  summary <trace>       Summarize a trace (.csv, .json, .parquet, .cbor)
  version               Print version information
  help                  Show this help message

Common Options:
  -v                    Verbose output and debug logging
  -config <file>        Config file (default: nearest rvm.toml)

Run Options:
  -max-steps <n>        Stop after n instructions
  -timeout <d>          Stop after duration d, e.g. 2s

Trace Options:
  -o <file>             Output file; extension picks the format
  -limit <n>            Keep only the newest n steps
  -max-steps <n>        Stop after n instructions

Disasm Options:
  -o <file>             Output file (default: stdout)

Hex files hold two-digit hex bytes separated by whitespace. A ';' starts a
comment. Each instruction is four bytes:
  00 00 01 F4           LOAD R0, #500
  FF 00 00 00           HLT

Examples:
  rvm run examples/countdown.hex
  rvm check examples/countdown.hex
  rvm trace examples/countdown.hex -o countdown.parquet
  rvm summary countdown.parquet`)
	return nil
}
