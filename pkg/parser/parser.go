// Package parser holds tokens for a future expression front end. It has no
// grammar yet; it only queues tokens in arrival order.
package parser

import "github.com/akhildatla/rvm/pkg/lexer"

// Parser owns a FIFO queue of tokens.
type Parser struct {
	queue []lexer.Token
}

// New creates an empty parser.
func New() *Parser {
	return &Parser{queue: []lexer.Token{}}
}

// AddToQueue appends tokens to the back of the queue.
func (p *Parser) AddToQueue(tokens []lexer.Token) {
	p.queue = append(p.queue, tokens...)
}

// Len returns the number of queued tokens.
func (p *Parser) Len() int {
	return len(p.queue)
}

// Peek returns the front token without removing it.
func (p *Parser) Peek() (lexer.Token, bool) {
	if len(p.queue) == 0 {
		return lexer.Token{}, false
	}
	return p.queue[0], true
}

// Next removes and returns the front token.
func (p *Parser) Next() (lexer.Token, bool) {
	tok, ok := p.Peek()
	if ok {
		p.queue = p.queue[1:]
	}
	return tok, ok
}
