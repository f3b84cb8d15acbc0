package trace

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	dataframe "github.com/rocketlaunchr/dataframe-go"
)

// Summary aggregates a trace frame.
type Summary struct {
	Steps      int
	OpCounts   map[string]int
	MaxPC      int64
	JumpsTaken int // Steps flagged as jumped; zero when the frame has no jumped column
}

// OpCount is one row of a sorted opcode histogram.
type OpCount struct {
	Mnemonic string
	Count    int
}

// Sorted returns opcode counts, most frequent first, ties by mnemonic.
func (s *Summary) Sorted() []OpCount {
	out := make([]OpCount, 0, len(s.OpCounts))
	for m, c := range s.OpCounts {
		out = append(out, OpCount{Mnemonic: m, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Mnemonic < out[j].Mnemonic
	})
	return out
}

// Summarize counts steps and opcodes in a trace frame. Column names are
// matched case-insensitively since some readers capitalise them.
func Summarize(df *dataframe.DataFrame) (*Summary, error) {
	if df == nil {
		return nil, ErrEmptyTrace
	}

	mnemonic, err := column(df, ColMnemonic)
	if err != nil {
		return nil, err
	}
	pc, err := column(df, ColPC)
	if err != nil {
		return nil, err
	}

	// Traces from other tools may lack the jumped column.
	jumped, _ := column(df, ColJumped)

	s := &Summary{
		Steps:    df.NRows(),
		OpCounts: make(map[string]int),
	}

	for row := 0; row < s.Steps; row++ {
		if m := mnemonic.Value(row); m != nil {
			s.OpCounts[fmt.Sprint(m)]++
		}
		v, err := toInt64(pc.Value(row))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d pc: %v", ErrInvalidTrace, row, err)
		}
		if v > s.MaxPC {
			s.MaxPC = v
		}

		if jumped == nil {
			continue
		}
		j, err := toInt64(jumped.Value(row))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d jumped: %v", ErrInvalidTrace, row, err)
		}
		if j != 0 {
			s.JumpsTaken++
		}
	}

	return s, nil
}

func column(df *dataframe.DataFrame, name string) (dataframe.Series, error) {
	for i, n := range df.Names() {
		if strings.EqualFold(n, name) {
			return df.Series[i], nil
		}
	}
	return nil, fmt.Errorf("%w: missing column %q", ErrInvalidTrace, name)
}

func toInt64(v interface{}) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case string:
		return strconv.ParseInt(x, 10, 64)
	}
	return 0, fmt.Errorf("unexpected %T", v)
}
