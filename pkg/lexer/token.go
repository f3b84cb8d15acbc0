// Package lexer splits a line of arithmetic into integer and sign tokens.
//
// It is a front-end building block. Nothing compiles tokens to bytecode yet;
// the shell only lists them.
package lexer

import "strconv"

// TokenType represents the type of a token.
type TokenType uint8

const (
	TokenInteger TokenType = iota // 42
	TokenPlus                     // +
	TokenMinus                    // -
)

// String returns the string representation of a token type.
func (t TokenType) String() string {
	switch t {
	case TokenInteger:
		return "INTEGER"
	case TokenPlus:
		return "PLUS"
	case TokenMinus:
		return "MINUS"
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexical token.
type Token struct {
	Type  TokenType
	Value int64 // Set for TokenInteger only
	Col   int   // 1-based column of the first character
}

// Integer creates an integer token.
func Integer(v int64) Token {
	return Token{Type: TokenInteger, Value: v}
}

// Plus creates a plus token.
func Plus() Token {
	return Token{Type: TokenPlus}
}

// Minus creates a minus token.
func Minus() Token {
	return Token{Type: TokenMinus}
}

// Is reports whether the token has the given type.
func (t Token) Is(tt TokenType) bool {
	return t.Type == tt
}

// String returns the token as it appears in source.
func (t Token) String() string {
	switch t.Type {
	case TokenInteger:
		return strconv.FormatInt(t.Value, 10)
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	default:
		return "?"
	}
}
