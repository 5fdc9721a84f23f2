package interfaces

import (
	"context"
)

// EmbeddingService generates vector embeddings for retrieval
type EmbeddingService interface {
	// Generate an L2-normalized embedding for raw text
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// Generate query embedding (same space as document embeddings)
	GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error)

	// Get model information
	ModelName() string
	Dimension() int

	// Check if service is available
	IsAvailable(ctx context.Context) bool
}
