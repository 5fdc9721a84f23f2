package models

import (
	"time"
)

const (
	// SourceTypeBook marks documents ingested from book PDFs or plain text
	SourceTypeBook = "book"
	// SourceTypeTranscript marks documents ingested from interview transcripts
	SourceTypeTranscript = "transcript"
	// SourceTypeBio marks documents ingested from biographical summaries
	SourceTypeBio = "bio"
)

// Document represents an ingested source text for a persona.
// Documents are content-addressed: re-ingesting a file with an unchanged
// ContentHash is a no-op, which keeps ingestion idempotent.
type Document struct {
	// Identity
	ID          string `json:"id"`           // doc_{uuid}
	PersonaName string `json:"persona_name"` // owning persona
	SourceType  string `json:"source_type"`  // book, transcript, bio
	SourcePath  string `json:"source_path"`  // original file path or URL

	// Content
	Title       string `json:"title"`
	ContentHash string `json:"content_hash"` // sha256 of the normalized text

	// Counts filled in after chunking
	ChunkCount int `json:"chunk_count"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Chunk is a retrievable passage of a document with its embedding inline.
// PersonaName and Title are denormalized so retrieval never needs a join.
type Chunk struct {
	// Identity
	ID          string `json:"id"`           // chunk_{uuid}
	DocumentID  string `json:"document_id"`  // owning document
	PersonaName string `json:"persona_name"` // denormalized for scoped queries
	Ordinal     int    `json:"ordinal"`      // position within the document

	// Content
	Title string `json:"title"` // denormalized document title, used in citations
	Text  string `json:"text"`

	// Embedding, L2-normalized at ingestion time
	Embedding []float32 `json:"embedding"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
}
