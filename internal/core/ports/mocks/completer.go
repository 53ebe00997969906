package mocks

import (
	"context"
	"sync"

	"github.com/lueurxax/chat-digest-bot/internal/core/llm"
)

// Completer is a scripted llm.Completer.
type Completer struct {
	mu       sync.Mutex
	requests []llm.Request

	// Text is returned on success.
	Text string
	// Cost is returned on success.
	Cost float64
	// Err, when set, is returned from every call.
	Err error

	// CompleteFn allows overriding Complete behavior.
	CompleteFn func(ctx context.Context, req llm.Request) (llm.Completion, error)
}

// NewCompleter creates a completer that always returns text.
func NewCompleter(text string) *Completer {
	return &Completer{Text: text}
}

// Complete records the request and returns the scripted result.
func (c *Completer) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	if c.CompleteFn != nil {
		return c.CompleteFn(ctx, req)
	}

	if c.Err != nil {
		return llm.Completion{}, c.Err
	}

	return llm.Completion{Text: c.Text, Cost: c.Cost}, nil
}

// Calls returns how many times Complete was called.
func (c *Completer) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.requests)
}

// Requests returns a copy of all received requests.
func (c *Completer) Requests() []llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]llm.Request(nil), c.requests...)
}
