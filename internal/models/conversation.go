package models

import (
	"time"
)

const (
	// RoleUser marks a message sent by the caller
	RoleUser = "user"
	// RoleAssistant marks a message generated by the persona
	RoleAssistant = "assistant"
)

// Conversation groups the exchanged messages between a caller and one persona.
// A conversation never changes personas once created.
type Conversation struct {
	ID          string    `json:"id"`           // conv_{uuid}
	PersonaName string    `json:"persona_name"` // fixed for the lifetime of the conversation
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Message is a single turn within a conversation. Seq is strictly increasing
// per conversation and defines replay order.
type Message struct {
	ID             string    `json:"id"`              // msg_{uuid}
	ConversationID string    `json:"conversation_id"` // owning conversation
	Seq            int       `json:"seq"`             // strictly increasing within the conversation
	Role           string    `json:"role"`            // user or assistant
	Content        string    `json:"content"`
	Sources        []Source  `json:"sources,omitempty"` // citations, assistant messages only
	CreatedAt      time.Time `json:"created_at"`
}

// Source describes one cited context unit returned alongside an answer.
// Index matches the [n] citation labels embedded in the composed context.
type Source struct {
	Index   int     `json:"index"`   // 1-based citation label
	Kind    string  `json:"kind"`    // fact or chunk
	Title   string  `json:"title"`   // document title, or "biography" for facts
	Snippet string  `json:"snippet"` // leading portion of the cited text
	Score   float64 `json:"score"`   // cosine similarity against the question
}

const (
	// SourceKindFact marks a citation drawn from the biographical fact tier
	SourceKindFact = "fact"
	// SourceKindChunk marks a citation drawn from the document chunk tier
	SourceKindChunk = "chunk"
)
