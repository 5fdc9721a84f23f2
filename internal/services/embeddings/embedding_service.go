package embeddings

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/eidolon-chat/eidolon/internal/common"
	"github.com/eidolon-chat/eidolon/internal/interfaces"
)

// Service implements the EmbeddingService interface using the Gemini
// embedding API. Every returned vector is L2-normalized, so downstream
// cosine similarity reduces to a dot product.
type Service struct {
	config    *common.EmbeddingConfig
	client    *genai.Client
	limiter   *rate.Limiter
	dimension int
	timeout   time.Duration
	logger    arbor.ILogger
}

// NewService creates a new embedding service
func NewService(config *common.EmbeddingConfig, apiKey string, logger arbor.ILogger) (interfaces.EmbeddingService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required for embedding service")
	}

	if config.Model == "" {
		config.Model = "gemini-embedding-001"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	interval, err := time.ParseDuration(config.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit duration '%s': %w", config.RateLimit, err)
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &Service{
		config:    config,
		client:    client,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		dimension: config.Dimension,
		timeout:   timeout,
		logger:    logger,
	}

	logger.Info().
		Str("model", config.Model).
		Int("dimension", config.Dimension).
		Msg("Embedding service initialized")

	return service, nil
}

// GenerateEmbedding creates an L2-normalized vector embedding for text
func (s *Service) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.limiter.Wait(timeoutCtx); err != nil {
		return nil, fmt.Errorf("embedding request aborted: %w: %w", common.ErrUpstreamUnavailable, err)
	}

	start := time.Now()

	outputDim := int32(s.dimension)
	result, err := s.client.Models.EmbedContent(timeoutCtx, s.config.Model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{
			OutputDimensionality: &outputDim,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w: %w", common.ErrUpstreamUnavailable, err)
	}

	if len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("embedding API returned empty vector")
	}

	embedding := result.Embeddings[0].Values
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("embedding has %d dimensions, want %d: %w",
			len(embedding), s.dimension, common.ErrDimensionMismatch)
	}

	normalized := Normalize(embedding)

	s.logger.Debug().
		Int("text_length", len(text)).
		Int("dimension", len(normalized)).
		Dur("duration", time.Since(start)).
		Msg("Embedding generated")

	return normalized, nil
}

// GenerateQueryEmbedding creates an embedding for a query. Queries share the
// embedding space with documents, so this delegates to GenerateEmbedding.
func (s *Service) GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error) {
	return s.GenerateEmbedding(ctx, query)
}

// ModelName returns the embedding model identifier
func (s *Service) ModelName() string {
	return s.config.Model
}

// Dimension returns the pinned output dimensionality
func (s *Service) Dimension() int {
	return s.dimension
}

// IsAvailable probes the embedding API with a static string
func (s *Service) IsAvailable(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.GenerateEmbedding(probeCtx, "health check probe")
	if err != nil {
		s.logger.Warn().Err(err).Msg("Embedding service unavailable")
		return false
	}
	return true
}

// Normalize scales a vector to unit L2 norm. A zero vector is returned
// unchanged since it has no direction to preserve.
func Normalize(vector []float32) []float32 {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vector
	}

	norm := math.Sqrt(sum)
	normalized := make([]float32, len(vector))
	for i, v := range vector {
		normalized[i] = float32(float64(v) / norm)
	}
	return normalized
}
