// Package modifier implements the ordered chain of status document mutations
// applied after sensor readings are merged in.
package modifier

import (
	"context"

	"github.com/nerrad567/spaceapi-core/internal/status"
)

// Logger defines the logging interface used by modifiers that touch the store.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Modifier mutates a per-request copy of the status document.
//
// Modify must not fail: missing inputs are a no-op. Implementations hold no
// per-request state and are safe for concurrent use.
type Modifier interface {
	Modify(ctx context.Context, doc *status.Document)
}

// Func adapts a function to Modifier.
type Func func(ctx context.Context, doc *status.Document)

// Modify calls f.
func (f Func) Modify(ctx context.Context, doc *status.Document) {
	f(ctx, doc)
}

// Chain runs modifiers in registration order; each sees the mutations of
// all earlier ones.
type Chain struct {
	modifiers []Modifier
}

// NewChain freezes the given modifiers into a chain. Nil entries are skipped.
func NewChain(modifiers ...Modifier) *Chain {
	c := &Chain{modifiers: make([]Modifier, 0, len(modifiers))}
	for _, m := range modifiers {
		if m != nil {
			c.modifiers = append(c.modifiers, m)
		}
	}
	return c
}

// Apply runs every modifier over doc.
func (c *Chain) Apply(ctx context.Context, doc *status.Document) {
	if c == nil {
		return
	}
	for _, m := range c.modifiers {
		m.Modify(ctx, doc)
	}
}

// Len returns the number of modifiers in the chain.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.modifiers)
}
