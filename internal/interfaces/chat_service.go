package interfaces

import (
	"context"

	"github.com/eidolon-chat/eidolon/internal/models"
)

// ChatRequest represents one question addressed to a persona
type ChatRequest struct {
	// Persona name, must match an ingested persona
	Persona string `json:"persona" validate:"required"`

	// User's question
	Question string `json:"question" validate:"required"`

	// Existing conversation to continue (optional, a new one is created
	// when omitted)
	ConversationID string `json:"conversation_id,omitempty"`

	// Retrieval budget override (optional, server default when zero)
	TopK int `json:"top_k,omitempty" validate:"omitempty,gt=0,lte=50"`
}

// ChatResponse represents the generated answer and its provenance
type ChatResponse struct {
	// Conversation the exchange was appended to
	ConversationID string `json:"conversation_id"`

	// Generated answer in the persona's voice
	Answer string `json:"answer"`

	// Cited context units, ordered by citation index
	Sources []models.Source `json:"sources"`

	// Model that produced the answer
	Model string `json:"model"`

	// Token usage when the provider reports it
	TokenUsage *TokenUsage `json:"token_usage,omitempty"`
}

// ChatService runs the retrieval-augmented persona chat pipeline
type ChatService interface {
	// Chat classifies the question, retrieves context, generates an answer
	// in the persona's voice, and persists the exchange. The conversation is
	// only written to after generation succeeds.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// HealthCheck verifies the chat service is operational
	HealthCheck(ctx context.Context) error
}
