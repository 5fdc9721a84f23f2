package chat

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/eidolon-chat/eidolon/internal/interfaces"
)

// Retriever runs two-tier similarity retrieval for a persona. Biographical
// questions reserve part of the budget for the fact tier; the chunk tier
// fills whatever remains. Facts always precede chunks in the merged result.
type Retriever struct {
	index    interfaces.SimilarityIndex
	embedder interfaces.EmbeddingService
	logger   arbor.ILogger
}

// NewRetriever creates a retriever over the given index and embedder
func NewRetriever(index interfaces.SimilarityIndex, embedder interfaces.EmbeddingService, logger arbor.ILogger) *Retriever {
	return &Retriever{
		index:    index,
		embedder: embedder,
		logger:   logger,
	}
}

// Retrieve embeds the question once and queries the relevant tiers. The
// merged result never exceeds topK. An empty corpus yields an empty slice,
// not an error.
func (r *Retriever) Retrieve(ctx context.Context, personaName, question string, kind QuestionKind, topK int) ([]interfaces.IndexHit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	vector, err := r.embedder.GenerateQueryEmbedding(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	var hits []interfaces.IndexHit

	if kind == KindBiographical {
		factK := topK / 2
		if factK < 1 {
			factK = 1
		}

		factHits, err := r.index.Query(ctx, interfaces.IndexScope{
			PersonaName: personaName,
			Kind:        interfaces.IndexKindFact,
		}, vector, factK)
		if err != nil {
			return nil, fmt.Errorf("fact retrieval failed: %w", err)
		}
		hits = append(hits, factHits...)
	}

	chunkBudget := topK - len(hits)
	if chunkBudget > 0 {
		chunkHits, err := r.index.Query(ctx, interfaces.IndexScope{
			PersonaName: personaName,
			Kind:        interfaces.IndexKindChunk,
		}, vector, chunkBudget)
		if err != nil {
			return nil, fmt.Errorf("chunk retrieval failed: %w", err)
		}
		hits = append(hits, chunkHits...)
	}

	r.logger.Debug().
		Str("persona", personaName).
		Str("kind", string(kind)).
		Int("top_k", topK).
		Int("hits", len(hits)).
		Msg("Retrieval completed")

	return hits, nil
}
