package models

import (
	"time"
)

// Persona represents an impersonated figure the chat service can answer as.
// Style fields drive prompt construction; they are seeded at ingestion time
// and may be refined by re-ingesting a style profile.
type Persona struct {
	// Identity
	ID   string `json:"id"`   // persona ID, unique
	Name string `json:"name"` // display name, unique, used as the lookup key

	// Short biographical sketch injected into the identity prompt
	Description string `json:"description,omitempty"`

	// Style profile
	ToneDirective string   `json:"tone_directive,omitempty"` // one-line voice instruction
	Catchphrases  []string `json:"catchphrases,omitempty"`   // signature expressions, used sparingly
	Era           string   `json:"era,omitempty"`            // e.g. "1905-1955"

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
