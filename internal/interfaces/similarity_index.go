package interfaces

import (
	"context"
)

// IndexKind identifies which retrieval tier an indexed unit belongs to
type IndexKind string

const (
	// IndexKindFact marks entries from the biographical fact tier
	IndexKindFact IndexKind = "fact"
	// IndexKindChunk marks entries from the document chunk tier
	IndexKindChunk IndexKind = "chunk"
)

// IndexScope restricts a similarity query to one persona and tier
type IndexScope struct {
	PersonaName string
	Kind        IndexKind
}

// IndexHit is one scored result from a similarity query
type IndexHit struct {
	// ID of the underlying fact or chunk
	ID string

	// Kind of the hit, fact or chunk
	Kind IndexKind

	// Title of the source document, or empty for facts
	Title string

	// Text of the indexed unit
	Text string

	// Score is the cosine similarity against the query vector
	Score float64
}

// SimilarityIndex answers nearest-neighbor queries over embedded units.
// Implementations hold vectors in memory and refresh from storage.
type SimilarityIndex interface {
	// Query returns up to limit hits within scope, ordered by descending
	// score with ID as the tiebreak. An empty scope yields no hits, not an
	// error.
	Query(ctx context.Context, scope IndexScope, vector []float32, limit int) ([]IndexHit, error)

	// Upsert adds or replaces an entry
	Upsert(scope IndexScope, id, title, text string, vector []float32) error

	// Refresh rebuilds the index from persistent storage
	Refresh(ctx context.Context) error

	// Count returns the number of entries within scope
	Count(scope IndexScope) int
}
