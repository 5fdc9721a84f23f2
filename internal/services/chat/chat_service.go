package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/eidolon-chat/eidolon/internal/common"
	"github.com/eidolon-chat/eidolon/internal/interfaces"
	"github.com/eidolon-chat/eidolon/internal/models"
)

// Service implements the ChatService interface. One call runs the whole
// pipeline: classify, retrieve, compose, prompt, generate, persist. The
// conversation is only written to after generation succeeds, so a failed
// upstream call leaves no partial exchange behind.
type Service struct {
	storage   interfaces.StorageManager
	retriever *Retriever
	llm       interfaces.LLMService
	embedder  interfaces.EmbeddingService
	config    *common.RetrievalConfig
	logger    arbor.ILogger
}

// NewService creates a new chat service
func NewService(
	storage interfaces.StorageManager,
	retriever *Retriever,
	llm interfaces.LLMService,
	embedder interfaces.EmbeddingService,
	config *common.RetrievalConfig,
	logger arbor.ILogger,
) interfaces.ChatService {
	return &Service{
		storage:   storage,
		retriever: retriever,
		llm:       llm,
		embedder:  embedder,
		config:    config,
		logger:    logger,
	}
}

// Chat answers one question in the persona's voice
func (s *Service) Chat(ctx context.Context, req *interfaces.ChatRequest) (*interfaces.ChatResponse, error) {
	startTime := time.Now()

	persona, err := s.storage.PersonaStorage().GetPersona(req.Persona)
	if err != nil {
		return nil, err
	}

	// Reject a mismatched conversation before paying for retrieval and
	// generation. A missing conversation is fine, it is created at persist
	// time.
	if req.ConversationID != "" {
		conv, err := s.storage.ConversationStorage().GetConversation(req.ConversationID)
		if err != nil && !errors.Is(err, common.ErrConversationNotFound) {
			return nil, err
		}
		if conv != nil && conv.PersonaName != persona.Name {
			return nil, fmt.Errorf("conversation %s is bound to persona %q: %w",
				conv.ID, conv.PersonaName, common.ErrPersonaMismatch)
		}
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.config.TopK
	}

	kind := ClassifyQuestion(req.Question)

	hits, err := s.retriever.Retrieve(ctx, persona.Name, req.Question, kind, topK)
	if err != nil {
		return nil, err
	}

	composed := ComposeContext(hits, ComposerConfig{
		MaxUnitChars: s.config.MaxUnitChars,
		SnippetChars: s.config.SnippetChars,
	})

	systemPrompt := BuildSystemPrompt(persona, composed.Block, time.Now())

	messages, err := s.buildHistory(req.ConversationID, req.Question)
	if err != nil {
		return nil, err
	}

	result, err := s.llm.Generate(ctx, systemPrompt, messages)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("persona", persona.Name).
			Msg("Generation failed, nothing persisted")
		return nil, err
	}

	conv, err := s.storage.ConversationStorage().EnsureConversation(req.ConversationID, persona.Name)
	if err != nil {
		return nil, err
	}

	if _, err := s.storage.ConversationStorage().AppendMessage(conv.ID, models.RoleUser, req.Question, nil); err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}
	if _, err := s.storage.ConversationStorage().AppendMessage(conv.ID, models.RoleAssistant, result.Text, composed.Sources); err != nil {
		return nil, fmt.Errorf("failed to persist assistant message: %w", err)
	}

	s.logger.Info().
		Str("persona", persona.Name).
		Str("conversation_id", conv.ID).
		Str("kind", string(kind)).
		Int("sources", len(composed.Sources)).
		Dur("duration", time.Since(startTime)).
		Msg("Chat completed")

	return &interfaces.ChatResponse{
		ConversationID: conv.ID,
		Answer:         result.Text,
		Sources:        composed.Sources,
		Model:          result.Model,
		TokenUsage:     result.Usage,
	}, nil
}

// buildHistory loads prior turns of an existing conversation and appends the
// current question. A new conversation starts with just the question.
func (s *Service) buildHistory(conversationID, question string) ([]interfaces.Message, error) {
	var messages []interfaces.Message

	if conversationID != "" {
		prior, err := s.storage.ConversationStorage().GetMessages(conversationID)
		if err != nil {
			return nil, fmt.Errorf("failed to load conversation history: %w", err)
		}
		for _, m := range prior {
			messages = append(messages, interfaces.Message{Role: m.Role, Content: m.Content})
		}
	}

	messages = append(messages, interfaces.Message{Role: models.RoleUser, Content: question})
	return messages, nil
}

// HealthCheck verifies the downstream services the pipeline depends on
func (s *Service) HealthCheck(ctx context.Context) error {
	if !s.embedder.IsAvailable(ctx) {
		return fmt.Errorf("embedding service unavailable")
	}
	if err := s.llm.HealthCheck(ctx); err != nil {
		return fmt.Errorf("llm service unhealthy: %w", err)
	}
	return nil
}
