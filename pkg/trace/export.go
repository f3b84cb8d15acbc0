package trace

import (
	"context"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/rocketlaunchr/dataframe-go/exports"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"
)

// parquetRow is the on-disk layout of one step.
type parquetRow struct {
	Step      int64  `parquet:"name=step, type=INT64"`
	PC        int64  `parquet:"name=pc, type=INT64"`
	Opcode    int64  `parquet:"name=opcode, type=INT64"`
	Mnemonic  string `parquet:"name=mnemonic, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	NextPC    int64  `parquet:"name=next_pc, type=INT64"`
	EqualFlag int64  `parquet:"name=equal_flag, type=INT64"`
	Remainder int64  `parquet:"name=remainder, type=INT64"`
	Jumped    int64  `parquet:"name=jumped, type=INT64"`
}

// WriteCSV writes the recorded steps as CSV with a header row.
func (r *Recorder) WriteCSV(ctx context.Context, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return exports.ExportToCSV(ctx, w, r.DataFrame())
}

// WriteParquet writes the recorded steps to a Parquet file at path.
func (r *Recorder) WriteParquet(path string) error {
	return WriteParquet(path, r.steps)
}

// WriteCBOR writes the recorded steps as a canonical CBOR array.
func (r *Recorder) WriteCBOR(w io.Writer) error {
	return EncodeCBOR(w, r.steps)
}

// WriteParquet writes steps to a Parquet file at path.
func WriteParquet(path string, steps []Step) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 1)
	if err != nil {
		return fmt.Errorf("parquet schema: %w", err)
	}

	for _, s := range steps {
		row := parquetRow{
			Step:      int64(s.Index),
			PC:        int64(s.PC),
			Opcode:    int64(s.Opcode),
			Mnemonic:  s.Mnemonic,
			NextPC:    int64(s.NextPC),
			EqualFlag: boolToInt64(s.EqualFlag),
			Remainder: int64(s.Remainder),
			Jumped:    boolToInt64(s.Jumped),
		}
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("parquet write step %d: %w", s.Index, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("parquet flush: %w", err)
	}
	return nil
}

// EncodeCBOR writes steps as a canonical CBOR array.
func EncodeCBOR(w io.Writer, steps []Step) error {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return err
	}
	if steps == nil {
		steps = []Step{}
	}
	return em.NewEncoder(w).Encode(steps)
}

// DecodeCBOR reads steps written by EncodeCBOR.
func DecodeCBOR(r io.Reader) ([]Step, error) {
	var steps []Step
	if err := cbor.NewDecoder(r).Decode(&steps); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTrace, err)
	}
	return steps, nil
}
