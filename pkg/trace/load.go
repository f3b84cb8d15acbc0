package trace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/imports"
	"github.com/xitongsys/parquet-go-source/local"
)

// Error definitions
var (
	ErrUnsupportedFormat = errors.New("unsupported trace format")
	ErrEmptyTrace        = errors.New("empty trace")
	ErrInvalidTrace      = errors.New("invalid trace")
)

// Format names a trace file encoding.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
	FormatCBOR    Format = "cbor"
)

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatCSV, FormatJSON, FormatParquet, FormatCBOR:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// WriteFile writes the recorded steps to path in the given format. JSON is
// read-only and is rejected.
func (r *Recorder) WriteFile(ctx context.Context, path string, format Format) error {
	if format == FormatParquet {
		return r.WriteParquet(path)
	}

	var buf bytes.Buffer
	switch format {
	case FormatCSV:
		if err := r.WriteCSV(ctx, &buf); err != nil {
			return err
		}
	case FormatCBOR:
		if err := r.WriteCBOR(&buf); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: cannot write %q", ErrUnsupportedFormat, format)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// Load reads a trace file into a frame, choosing the reader by extension.
func Load(path string) (*dataframe.DataFrame, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	var df *dataframe.DataFrame
	switch format {
	case FormatCSV:
		df, err = loadCSV(path)
	case FormatJSON:
		df, err = loadJSON(path)
	case FormatParquet:
		df, err = loadParquet(path)
	case FormatCBOR:
		df, err = loadCBOR(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if df == nil || len(df.Series) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyTrace)
	}
	return df, nil
}

func loadCSV(path string) (*dataframe.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return imports.LoadFromCSV(context.Background(), file, imports.CSVLoadOptions{
		InferDataTypes: true,
	})
}

// loadJSON expects an array of objects, one per step.
func loadJSON(path string) (*dataframe.DataFrame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyTrace
	}

	return imports.LoadFromJSON(context.Background(), bytes.NewReader(data))
}

func loadParquet(path string) (*dataframe.DataFrame, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer fr.Close()

	return imports.LoadFromParquet(context.Background(), fr)
}

func loadCBOR(path string) (*dataframe.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	steps, err := DecodeCBOR(file)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, ErrEmptyTrace
	}
	return FromSteps(steps), nil
}
