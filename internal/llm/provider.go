// Package llm abstracts the chat-completion backends used to draft
// document sections. Drafting is optional: a nil Provider means
// generators emit their deterministic templates unchanged.
package llm

import "context"

// Role identifies the author of a drafting message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one turn of a drafting exchange.
type Message struct {
	Role    Role
	Content string
}

// Request is a single drafting call.
type Request struct {
	// Model overrides the provider's configured model when non-empty.
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Response carries the drafted text and usage counters.
type Response struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
}

// Provider is a chat-completion backend. Implementations must be safe
// for concurrent use; the orchestrator calls Complete from multiple
// goroutines during fan-out.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Name() string
}
