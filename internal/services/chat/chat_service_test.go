package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/eidolon-chat/eidolon/internal/common"
	"github.com/eidolon-chat/eidolon/internal/interfaces"
	"github.com/eidolon-chat/eidolon/internal/models"
)

type fakeLLM struct {
	result       *interfaces.GenerationResult
	err          error
	systemPrompt string
	messages     []interfaces.Message
	calls        int
}

func (f *fakeLLM) Generate(ctx context.Context, systemPrompt string, messages []interfaces.Message) (*interfaces.GenerationResult, error) {
	f.calls++
	f.systemPrompt = systemPrompt
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeLLM) ModelName() string { return "fake-model" }

func (f *fakeLLM) HealthCheck(ctx context.Context) error { return nil }

func (f *fakeLLM) Close() error { return nil }

// memoryStorage is an in-memory StorageManager covering the stores the chat
// pipeline touches
type memoryStorage struct {
	personas      map[string]*models.Persona
	conversations map[string]*models.Conversation
	messages      map[string][]*models.Message
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		personas:      make(map[string]*models.Persona),
		conversations: make(map[string]*models.Conversation),
		messages:      make(map[string][]*models.Message),
	}
}

func (m *memoryStorage) PersonaStorage() interfaces.PersonaStorage           { return m }
func (m *memoryStorage) DocumentStorage() interfaces.DocumentStorage         { return nil }
func (m *memoryStorage) ChunkStorage() interfaces.ChunkStorage               { return nil }
func (m *memoryStorage) BioFactStorage() interfaces.BioFactStorage           { return nil }
func (m *memoryStorage) ConversationStorage() interfaces.ConversationStorage { return m }
func (m *memoryStorage) DB() interface{}                                     { return nil }
func (m *memoryStorage) Close() error                                        { return nil }

func (m *memoryStorage) EnsurePersona(name string) (*models.Persona, error) {
	key := strings.ToLower(name)
	if p, ok := m.personas[key]; ok {
		return p, nil
	}
	p := &models.Persona{ID: "persona_" + key, Name: name}
	m.personas[key] = p
	return p, nil
}

func (m *memoryStorage) SavePersona(persona *models.Persona) error {
	m.personas[strings.ToLower(persona.Name)] = persona
	return nil
}

func (m *memoryStorage) GetPersona(name string) (*models.Persona, error) {
	if p, ok := m.personas[strings.ToLower(name)]; ok {
		return p, nil
	}
	return nil, common.ErrUnknownPersona
}

func (m *memoryStorage) ListPersonas() ([]*models.Persona, error) { return nil, nil }
func (m *memoryStorage) DeletePersona(name string) error          { return nil }
func (m *memoryStorage) CountPersonas() (int, error)              { return len(m.personas), nil }

func (m *memoryStorage) EnsureConversation(id, personaName string) (*models.Conversation, error) {
	if id == "" {
		id = common.NewConversationID()
	}
	if conv, ok := m.conversations[id]; ok {
		if conv.PersonaName != personaName {
			return nil, common.ErrPersonaMismatch
		}
		return conv, nil
	}
	conv := &models.Conversation{ID: id, PersonaName: personaName}
	m.conversations[id] = conv
	return conv, nil
}

func (m *memoryStorage) GetConversation(id string) (*models.Conversation, error) {
	if conv, ok := m.conversations[id]; ok {
		return conv, nil
	}
	return nil, common.ErrConversationNotFound
}

func (m *memoryStorage) AppendMessage(conversationID, role, content string, sources []models.Source) (*models.Message, error) {
	msg := &models.Message{
		ID:             common.NewMessageID(),
		ConversationID: conversationID,
		Seq:            len(m.messages[conversationID]) + 1,
		Role:           role,
		Content:        content,
		Sources:        sources,
	}
	m.messages[conversationID] = append(m.messages[conversationID], msg)
	return msg, nil
}

func (m *memoryStorage) GetMessages(conversationID string) ([]*models.Message, error) {
	return m.messages[conversationID], nil
}

func (m *memoryStorage) CountConversationsByPersona(personaName string) (int, error) {
	return 0, nil
}

func newTestService(storage *memoryStorage, index *fakeIndex, llm *fakeLLM) interfaces.ChatService {
	logger := arbor.NewLogger()
	embedder := &fakeEmbedder{vector: []float32{1, 0, 0}}
	retriever := NewRetriever(index, embedder, logger)
	cfg := &common.RetrievalConfig{TopK: 6, MaxUnitChars: 800, SnippetChars: 200}
	return NewService(storage, retriever, llm, embedder, cfg, logger)
}

func TestChat_FullPipeline(t *testing.T) {
	storage := newMemoryStorage()
	_, err := storage.EnsurePersona("Albert Einstein")
	require.NoError(t, err)

	index := &fakeIndex{hits: map[interfaces.IndexKind][]interfaces.IndexHit{
		interfaces.IndexKindFact: {
			{ID: "fact_a", Kind: interfaces.IndexKindFact, Text: "Born in Ulm in 1879.", Score: 0.9},
		},
	}}
	llm := &fakeLLM{result: &interfaces.GenerationResult{
		Text:  "I was born in Ulm, a small city on the Danube [1].",
		Model: "fake-model",
		Usage: &interfaces.TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
	}}

	service := newTestService(storage, index, llm)

	resp, err := service.Chat(context.Background(), &interfaces.ChatRequest{
		Persona:  "Albert Einstein",
		Question: "Where were you born?",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ConversationID)
	assert.Equal(t, "I was born in Ulm, a small city on the Danube [1].", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, 1, resp.Sources[0].Index)
	assert.Equal(t, "biography", resp.Sources[0].Title)
	assert.Equal(t, 120, resp.TokenUsage.TotalTokens)

	assert.Contains(t, llm.systemPrompt, "You are Albert Einstein.")
	assert.Contains(t, llm.systemPrompt, "Born in Ulm in 1879.")
	require.Len(t, llm.messages, 1)
	assert.Equal(t, models.RoleUser, llm.messages[0].Role)

	// Both sides of the exchange are persisted in order.
	messages, err := storage.GetMessages(resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)
	assert.Len(t, messages[1].Sources, 1)
	assert.Nil(t, messages[0].Sources)
}

func TestChat_UnknownPersona(t *testing.T) {
	service := newTestService(newMemoryStorage(), &fakeIndex{}, &fakeLLM{})

	_, err := service.Chat(context.Background(), &interfaces.ChatRequest{
		Persona:  "Nobody",
		Question: "Hello?",
	})
	assert.ErrorIs(t, err, common.ErrUnknownPersona)
}

func TestChat_GenerationFailureLeavesNothingPersisted(t *testing.T) {
	storage := newMemoryStorage()
	_, err := storage.EnsurePersona("Albert Einstein")
	require.NoError(t, err)

	llm := &fakeLLM{err: common.ErrUpstreamUnavailable}
	service := newTestService(storage, &fakeIndex{}, llm)

	_, err = service.Chat(context.Background(), &interfaces.ChatRequest{
		Persona:  "Albert Einstein",
		Question: "Where were you born?",
	})
	assert.ErrorIs(t, err, common.ErrUpstreamUnavailable)

	assert.Empty(t, storage.conversations)
	assert.Empty(t, storage.messages)
}

func TestChat_PersonaMismatchRejectedBeforeGeneration(t *testing.T) {
	storage := newMemoryStorage()
	_, err := storage.EnsurePersona("Albert Einstein")
	require.NoError(t, err)
	_, err = storage.EnsurePersona("Marie Curie")
	require.NoError(t, err)

	conv, err := storage.EnsureConversation("conv_1", "Marie Curie")
	require.NoError(t, err)

	llm := &fakeLLM{result: &interfaces.GenerationResult{Text: "hi"}}
	service := newTestService(storage, &fakeIndex{}, llm)

	_, err = service.Chat(context.Background(), &interfaces.ChatRequest{
		Persona:        "Albert Einstein",
		Question:       "Where were you born?",
		ConversationID: conv.ID,
	})
	assert.ErrorIs(t, err, common.ErrPersonaMismatch)
	assert.Zero(t, llm.calls, "mismatch must be caught before calling the model")
}

func TestChat_ContinuesExistingConversation(t *testing.T) {
	storage := newMemoryStorage()
	_, err := storage.EnsurePersona("Albert Einstein")
	require.NoError(t, err)

	conv, err := storage.EnsureConversation("conv_7", "Albert Einstein")
	require.NoError(t, err)
	_, err = storage.AppendMessage(conv.ID, models.RoleUser, "Where were you born?", nil)
	require.NoError(t, err)
	_, err = storage.AppendMessage(conv.ID, models.RoleAssistant, "In Ulm.", nil)
	require.NoError(t, err)

	llm := &fakeLLM{result: &interfaces.GenerationResult{Text: "I moved to Munich as an infant.", Model: "fake-model"}}
	service := newTestService(storage, &fakeIndex{}, llm)

	resp, err := service.Chat(context.Background(), &interfaces.ChatRequest{
		Persona:        "Albert Einstein",
		Question:       "And after that?",
		ConversationID: conv.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, conv.ID, resp.ConversationID)
	// History plus the fresh question goes to the model.
	require.Len(t, llm.messages, 3)
	assert.Equal(t, "And after that?", llm.messages[2].Content)

	messages, err := storage.GetMessages(conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	for i, msg := range messages {
		assert.Equal(t, i+1, msg.Seq)
	}
}

func TestChat_TopKDefaultsFromConfig(t *testing.T) {
	storage := newMemoryStorage()
	_, err := storage.EnsurePersona("Albert Einstein")
	require.NoError(t, err)

	index := &fakeIndex{hits: map[interfaces.IndexKind][]interfaces.IndexHit{}}
	llm := &fakeLLM{result: &interfaces.GenerationResult{Text: "answer"}}
	service := newTestService(storage, index, llm)

	_, err = service.Chat(context.Background(), &interfaces.ChatRequest{
		Persona:  "Albert Einstein",
		Question: "Thoughts on relativity?",
	})
	require.NoError(t, err)

	require.Len(t, index.limits, 1)
	assert.Equal(t, 6, index.limits[0], "general question spends the whole configured budget on chunks")
}

func TestChat_NoContextMarkerWhenCorpusEmpty(t *testing.T) {
	storage := newMemoryStorage()
	_, err := storage.EnsurePersona("Albert Einstein")
	require.NoError(t, err)

	llm := &fakeLLM{result: &interfaces.GenerationResult{Text: "answer"}}
	service := newTestService(storage, &fakeIndex{}, llm)

	resp, err := service.Chat(context.Background(), &interfaces.ChatRequest{
		Persona:  "Albert Einstein",
		Question: "Thoughts on relativity?",
	})
	require.NoError(t, err)

	assert.Empty(t, resp.Sources)
	assert.Contains(t, llm.systemPrompt, "No relevant context was found")
}

func TestChat_ErrorTaxonomyPreserved(t *testing.T) {
	storage := newMemoryStorage()
	_, err := storage.EnsurePersona("Albert Einstein")
	require.NoError(t, err)

	wrapped := errors.New("api error 400: bad request")
	llm := &fakeLLM{err: errors.Join(common.ErrUpstreamRejected, wrapped)}
	service := newTestService(storage, &fakeIndex{}, llm)

	_, err = service.Chat(context.Background(), &interfaces.ChatRequest{
		Persona:  "Albert Einstein",
		Question: "Hello?",
	})
	assert.ErrorIs(t, err, common.ErrUpstreamRejected)
}
