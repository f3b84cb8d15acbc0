package parser

import (
	"testing"

	"github.com/akhildatla/rvm/pkg/lexer"
)

func TestParser_QueueOrder(t *testing.T) {
	p := New()
	p.AddToQueue([]lexer.Token{lexer.Integer(1), lexer.Plus()})
	p.AddToQueue([]lexer.Token{lexer.Integer(2)})

	if p.Len() != 3 {
		t.Fatalf("expected 3 queued tokens, got %d", p.Len())
	}

	want := []string{"1", "+", "2"}
	for i, w := range want {
		tok, ok := p.Next()
		if !ok {
			t.Fatalf("token %d: queue empty", i)
		}
		if tok.String() != w {
			t.Errorf("token %d: expected %q, got %q", i, w, tok.String())
		}
	}

	if _, ok := p.Next(); ok {
		t.Error("expected empty queue")
	}
}

func TestParser_PeekDoesNotConsume(t *testing.T) {
	p := New()
	if _, ok := p.Peek(); ok {
		t.Error("expected Peek on empty queue to fail")
	}

	tokens, err := lexer.Tokenize("7 - 2")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	p.AddToQueue(tokens)

	tok, ok := p.Peek()
	if !ok || !tok.Is(lexer.TokenInteger) || tok.Value != 7 {
		t.Errorf("expected Integer(7), got %v", tok)
	}
	if p.Len() != 3 {
		t.Errorf("expected Peek to leave 3 tokens, got %d", p.Len())
	}
}
