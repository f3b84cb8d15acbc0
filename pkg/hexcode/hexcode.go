// Package hexcode decodes the textual byte form the shell and the CLI accept:
// whitespace-separated two-digit hexadecimal literals such as "00 01 01 F4".
package hexcode

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Error definitions
var (
	ErrEmptyInput   = errors.New("empty input")
	ErrInvalidToken = errors.New("invalid hex byte")
)

// ParseLine decodes one line of hex byte literals. Every token must be
// exactly two hex digits; on any bad token nothing is returned.
func ParseLine(line string) ([]byte, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrEmptyInput
	}

	out := make([]byte, 0, len(fields))
	for i, tok := range fields {
		b, err := parseToken(tok)
		if err != nil {
			return nil, fmt.Errorf("token %d %q: %w", i+1, tok, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func parseToken(tok string) (byte, error) {
	if len(tok) != 2 {
		return 0, ErrInvalidToken
	}
	hi, ok := nibble(tok[0])
	if !ok {
		return 0, ErrInvalidToken
	}
	lo, ok := nibble(tok[1])
	if !ok {
		return 0, ErrInvalidToken
	}
	return hi<<4 | lo, nil
}

func nibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// ReadProgram decodes a hex program. A ';' starts a comment that runs to the
// end of the line; blank lines are skipped.
func ReadProgram(r io.Reader) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	var program []byte
	line := 0

	for scanner.Scan() {
		line++
		text := scanner.Text()
		if idx := strings.IndexByte(text, ';'); idx >= 0 {
			text = text[:idx]
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		bytes, err := ParseLine(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		program = append(program, bytes...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return program, nil
}

// LoadFile reads a hex program file.
func LoadFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	program, err := ReadProgram(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return program, nil
}

// Format renders bytes in the same form ParseLine accepts, sixteen per line.
func Format(program []byte) string {
	var sb strings.Builder
	for i, b := range program {
		if i > 0 {
			if i%16 == 0 {
				sb.WriteByte('\n')
			} else {
				sb.WriteByte(' ')
			}
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}
