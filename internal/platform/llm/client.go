package llm

import (
	"context"
	"errors"
)

// Message is a minimal chat message used by the intake services.
// Role must be one of: "user" or "assistant"; anything else is coerced to
// "user" by the implementation.
type Message struct {
	Role    string
	Content string
}

// Request is a single completion request. The system instruction is kept
// separate from the turn history so implementations can place it in the
// provider's system slot.
type Request struct {
	System      string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Client is the capability boundary for the external language model:
// one request in, free text out. Implementations must honor the context
// deadline and return ErrTimeout when it expires.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

var (
	// ErrTimeout reports that the upstream model did not answer within the
	// configured deadline.
	ErrTimeout = errors.New("llm: upstream timeout")
	// ErrUpstream reports a transport or provider failure. Unparseable
	// content is not an upstream error; callers handle that themselves.
	ErrUpstream = errors.New("llm: upstream failure")
)
