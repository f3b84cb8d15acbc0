// Package config handles rvm.toml configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "rvm.toml"

// ErrUnknownKey is returned when a file sets keys this package does not know.
var ErrUnknownKey = errors.New("unknown configuration key")

// Config represents an rvm.toml file.
type Config struct {
	Shell Shell     `toml:"shell"`
	Run   Run       `toml:"run"`
	Trace TraceConf `toml:"trace"`
	Log   Log       `toml:"log"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Shell configures the interactive shell.
type Shell struct {
	Prompt       string `toml:"prompt"`
	HistoryLimit int    `toml:"history_limit"`
	Banner       bool   `toml:"banner"`
}

// Run configures host-side bounds for batch runs.
type Run struct {
	MaxSteps uint64 `toml:"max_steps"`
	Timeout  string `toml:"timeout"`
}

// TraceConf configures trace output.
type TraceConf struct {
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// Log configures logging.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Shell: Shell{
			Prompt:       ">>> ",
			HistoryLimit: 1000,
			Banner:       true,
		},
		Trace: TraceConf{
			Format: "csv",
		},
	}
}

// TimeoutDuration parses Run.Timeout. An empty value means no timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Run.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Run.Timeout)
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, err
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(keys, ", "))
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.Shell.HistoryLimit < 0 {
		return fmt.Errorf("shell.history_limit must not be negative, got %d", c.Shell.HistoryLimit)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return fmt.Errorf("run.timeout: %w", err)
	}
	if c.Log.Verbosity < 0 {
		return fmt.Errorf("log.verbosity must not be negative, got %d", c.Log.Verbosity)
	}
	return nil
}

// Load reads a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find an rvm.toml file and loads it.
// Defaults are returned when no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return Default(), nil
		}
		dir = parent
	}
}
