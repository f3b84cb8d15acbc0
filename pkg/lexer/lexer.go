package lexer

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"
)

// Error definitions
var (
	ErrUnexpectedChar = errors.New("unrecognized character")
	ErrIntegerRange   = errors.New("integer out of range")
)

// Lexer tokenizes a single line of input.
type Lexer struct {
	input  []rune
	pos    int
	tokens []Token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  []rune(input),
		pos:    0,
		tokens: []Token{},
	}
}

// Tokenize is shorthand for NewLexer(input).Tokenize().
func Tokenize(input string) ([]Token, error) {
	return NewLexer(input).Tokenize()
}

// Tokenize tokenizes the entire input and returns the tokens. Signs are
// always separate tokens; "-5" is Minus followed by Integer(5).
func (l *Lexer) Tokenize() ([]Token, error) {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]

		switch {
		case unicode.IsSpace(ch):
			l.pos++

		case ch == '+':
			l.tokens = append(l.tokens, Token{Type: TokenPlus, Col: l.pos + 1})
			l.pos++

		case ch == '-':
			l.tokens = append(l.tokens, Token{Type: TokenMinus, Col: l.pos + 1})
			l.pos++

		case ch >= '0' && ch <= '9':
			if err := l.scanInteger(); err != nil {
				return nil, err
			}

		default:
			return nil, fmt.Errorf("column %d: %w: %q", l.pos+1, ErrUnexpectedChar, ch)
		}
	}

	return l.tokens, nil
}

func (l *Lexer) scanInteger() error {
	start := l.pos

	for l.pos < len(l.input) && l.input[l.pos] >= '0' && l.input[l.pos] <= '9' {
		l.pos++
	}

	text := string(l.input[start:l.pos])
	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return fmt.Errorf("column %d: %w: %s", start+1, ErrIntegerRange, text)
	}

	l.tokens = append(l.tokens, Token{Type: TokenInteger, Value: value, Col: start + 1})
	return nil
}
