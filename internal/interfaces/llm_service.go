package interfaces

import (
	"context"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user" or "assistant"
	Role string

	// Content contains the text content of the message
	Content string
}

// TokenUsage tracks token consumption reported by the upstream provider
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerationResult carries the generated text plus provider metadata
type GenerationResult struct {
	// Generated assistant text
	Text string

	// Model that produced the text, as reported by the provider
	Model string

	// Token usage, nil when the provider does not report it
	Usage *TokenUsage
}

// LLMService defines the interface for chat completion against an external
// language model provider. Implementations wrap cloud APIs (Gemini, Claude)
// and translate transport failures into the common error taxonomy.
type LLMService interface {
	// Generate produces a completion for the given conversation. The system
	// prompt carries persona identity, style, and composed context; messages
	// hold prior turns plus the current user question in chronological order.
	Generate(ctx context.Context, systemPrompt string, messages []Message) (*GenerationResult, error)

	// ModelName returns the configured model identifier
	ModelName() string

	// HealthCheck verifies the provider is reachable and authenticated
	HealthCheck(ctx context.Context) error

	// Close releases provider resources
	Close() error
}
