package badger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/eidolon-chat/eidolon/internal/common"
	"github.com/eidolon-chat/eidolon/internal/interfaces"
	"github.com/eidolon-chat/eidolon/internal/models"
)

const testDimension = 3

func newTestManager(t *testing.T) interfaces.StorageManager {
	t.Helper()

	config := &common.BadgerConfig{Path: t.TempDir()}
	manager, err := NewManager(arbor.NewLogger(), config, testDimension)
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return manager
}

func TestEnsurePersona_Idempotent(t *testing.T) {
	manager := newTestManager(t)
	store := manager.PersonaStorage()

	first, err := store.EnsurePersona("Albert Einstein")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := store.EnsurePersona("Albert Einstein")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	count, err := store.CountPersonas()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetPersona_CaseInsensitive(t *testing.T) {
	manager := newTestManager(t)
	store := manager.PersonaStorage()

	_, err := store.EnsurePersona("Albert Einstein")
	require.NoError(t, err)

	persona, err := store.GetPersona("albert einstein")
	require.NoError(t, err)
	assert.Equal(t, "Albert Einstein", persona.Name)
}

func TestGetPersona_Unknown(t *testing.T) {
	manager := newTestManager(t)

	_, err := manager.PersonaStorage().GetPersona("Nobody")
	assert.ErrorIs(t, err, common.ErrUnknownPersona)
}

func TestSavePersona_UpdatesFields(t *testing.T) {
	manager := newTestManager(t)
	store := manager.PersonaStorage()

	persona, err := store.EnsurePersona("Marie Curie")
	require.NoError(t, err)

	persona.ToneDirective = "Precise and understated."
	persona.Catchphrases = []string{"Nothing in life is to be feared, it is only to be understood."}
	require.NoError(t, store.SavePersona(persona))

	loaded, err := store.GetPersona("Marie Curie")
	require.NoError(t, err)
	assert.Equal(t, "Precise and understated.", loaded.ToneDirective)
	assert.Len(t, loaded.Catchphrases, 1)
}

func TestGetDocumentByContentHash(t *testing.T) {
	manager := newTestManager(t)
	store := manager.DocumentStorage()

	doc := &models.Document{
		ID:          common.NewDocumentID(),
		PersonaName: "Albert Einstein",
		SourceType:  models.SourceTypeBook,
		Title:       "My Life",
		ContentHash: "abc123",
	}
	require.NoError(t, store.SaveDocument(doc))

	found, err := store.GetDocumentByContentHash("Albert Einstein", "abc123")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, doc.ID, found.ID)

	// Absent hash is a miss, not an error.
	missing, err := store.GetDocumentByContentHash("Albert Einstein", "deadbeef")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// Same hash under another persona is a separate corpus.
	other, err := store.GetDocumentByContentHash("Marie Curie", "abc123")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestSaveChunk_RejectsWrongDimension(t *testing.T) {
	manager := newTestManager(t)
	store := manager.ChunkStorage()

	chunk := &models.Chunk{
		ID:          common.NewChunkID(),
		DocumentID:  "doc_1",
		PersonaName: "Albert Einstein",
		Text:        "some text",
		Embedding:   []float32{1, 0},
	}
	err := store.SaveChunk(chunk)
	assert.ErrorIs(t, err, common.ErrDimensionMismatch)

	chunk.Embedding = []float32{1, 0, 0}
	assert.NoError(t, store.SaveChunk(chunk))
}

func TestGetChunksByDocument_OrderedByOrdinal(t *testing.T) {
	manager := newTestManager(t)
	store := manager.ChunkStorage()

	for _, ordinal := range []int{2, 0, 1} {
		chunk := &models.Chunk{
			ID:          common.NewChunkID(),
			DocumentID:  "doc_1",
			PersonaName: "Albert Einstein",
			Ordinal:     ordinal,
			Text:        fmt.Sprintf("chunk %d", ordinal),
			Embedding:   []float32{1, 0, 0},
		}
		require.NoError(t, store.SaveChunk(chunk))
	}

	chunks, err := store.GetChunksByDocument("doc_1")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Ordinal)
	}
}

func TestSaveFact_RejectsWrongDimension(t *testing.T) {
	manager := newTestManager(t)
	store := manager.BioFactStorage()

	fact := &models.BioFact{
		ID:          common.NewFactID(),
		PersonaName: "Albert Einstein",
		Text:        "Born in Ulm in 1879.",
		Embedding:   []float32{1, 0, 0, 0},
	}
	assert.ErrorIs(t, store.SaveFact(fact), common.ErrDimensionMismatch)
}

func TestEnsureConversation(t *testing.T) {
	manager := newTestManager(t)
	store := manager.ConversationStorage()

	conv, err := store.EnsureConversation("", "Albert Einstein")
	require.NoError(t, err)
	require.NotEmpty(t, conv.ID)

	// Same ID and persona returns the existing conversation.
	again, err := store.EnsureConversation(conv.ID, "Albert Einstein")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)

	// Same ID under a different persona is rejected.
	_, err = store.EnsureConversation(conv.ID, "Marie Curie")
	assert.ErrorIs(t, err, common.ErrPersonaMismatch)
}

func TestAppendMessage_SequenceStrictlyIncreasing(t *testing.T) {
	manager := newTestManager(t)
	store := manager.ConversationStorage()

	conv, err := store.EnsureConversation("", "Albert Einstein")
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		role := models.RoleUser
		if i%2 == 0 {
			role = models.RoleAssistant
		}
		msg, err := store.AppendMessage(conv.ID, role, fmt.Sprintf("message %d", i), nil)
		require.NoError(t, err)
		assert.Equal(t, i, msg.Seq)
	}

	messages, err := store.GetMessages(conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	for i, msg := range messages {
		assert.Equal(t, i+1, msg.Seq)
	}
}

func TestAppendMessage_CarriesSources(t *testing.T) {
	manager := newTestManager(t)
	store := manager.ConversationStorage()

	conv, err := store.EnsureConversation("", "Albert Einstein")
	require.NoError(t, err)

	sources := []models.Source{{Index: 1, Kind: "fact", Title: "biography", Snippet: "Born in Ulm.", Score: 0.92}}
	_, err = store.AppendMessage(conv.ID, models.RoleAssistant, "I was born in Ulm [1].", sources)
	require.NoError(t, err)

	messages, err := store.GetMessages(conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Len(t, messages[0].Sources, 1)
	assert.Equal(t, "biography", messages[0].Sources[0].Title)
}

func TestAppendMessage_InvalidInputs(t *testing.T) {
	manager := newTestManager(t)
	store := manager.ConversationStorage()

	_, err := store.AppendMessage("conv_missing", models.RoleUser, "hello", nil)
	assert.ErrorIs(t, err, common.ErrConversationNotFound)

	conv, err := store.EnsureConversation("", "Albert Einstein")
	require.NoError(t, err)

	_, err = store.AppendMessage(conv.ID, "narrator", "hello", nil)
	assert.Error(t, err)
}
