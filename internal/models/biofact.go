package models

import (
	"time"
)

// BioFact is a short, self-contained biographical statement about a persona.
// Facts form the first retrieval tier for biographical questions and carry
// their own embeddings, independent of document chunks.
type BioFact struct {
	// Identity
	ID          string `json:"id"`           // fact_{uuid}
	PersonaName string `json:"persona_name"` // owning persona

	// Content
	Text      string     `json:"text"`
	DateStart *time.Time `json:"date_start,omitempty"` // earliest date mentioned, when parseable
	DateEnd   *time.Time `json:"date_end,omitempty"`
	Location  string     `json:"location,omitempty"`
	Tags      []string   `json:"tags,omitempty"`   // e.g. birth, education, family, award
	Source    string     `json:"source,omitempty"` // document title or file the fact came from

	// Embedding, L2-normalized at ingestion time
	Embedding []float32 `json:"embedding"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
}
