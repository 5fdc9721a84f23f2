package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/eidolon-chat/eidolon/internal/common"
	"github.com/eidolon-chat/eidolon/internal/interfaces"
	"github.com/eidolon-chat/eidolon/internal/models"
)

type memoryStore struct {
	personas  map[string]*models.Persona
	documents map[string]*models.Document
	chunks    map[string]*models.Chunk
	facts     map[string]*models.BioFact
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		personas:  make(map[string]*models.Persona),
		documents: make(map[string]*models.Document),
		chunks:    make(map[string]*models.Chunk),
		facts:     make(map[string]*models.BioFact),
	}
}

func (m *memoryStore) PersonaStorage() interfaces.PersonaStorage           { return m }
func (m *memoryStore) DocumentStorage() interfaces.DocumentStorage         { return m }
func (m *memoryStore) ChunkStorage() interfaces.ChunkStorage               { return m }
func (m *memoryStore) BioFactStorage() interfaces.BioFactStorage           { return m }
func (m *memoryStore) ConversationStorage() interfaces.ConversationStorage { return nil }
func (m *memoryStore) DB() interface{}                                     { return nil }
func (m *memoryStore) Close() error                                        { return nil }

func (m *memoryStore) EnsurePersona(name string) (*models.Persona, error) {
	key := strings.ToLower(name)
	if p, ok := m.personas[key]; ok {
		return p, nil
	}
	p := &models.Persona{ID: "persona_" + key, Name: name}
	m.personas[key] = p
	return p, nil
}

func (m *memoryStore) SavePersona(persona *models.Persona) error {
	m.personas[strings.ToLower(persona.Name)] = persona
	return nil
}

func (m *memoryStore) GetPersona(name string) (*models.Persona, error) {
	if p, ok := m.personas[strings.ToLower(name)]; ok {
		return p, nil
	}
	return nil, common.ErrUnknownPersona
}

func (m *memoryStore) ListPersonas() ([]*models.Persona, error) { return nil, nil }
func (m *memoryStore) DeletePersona(name string) error          { return nil }
func (m *memoryStore) CountPersonas() (int, error)              { return len(m.personas), nil }

func (m *memoryStore) SaveDocument(doc *models.Document) error {
	m.documents[doc.ID] = doc
	return nil
}

func (m *memoryStore) GetDocument(id string) (*models.Document, error) {
	return m.documents[id], nil
}

func (m *memoryStore) GetDocumentByContentHash(personaName, contentHash string) (*models.Document, error) {
	for _, doc := range m.documents {
		if doc.PersonaName == personaName && doc.ContentHash == contentHash {
			return doc, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) ListDocumentsByPersona(personaName string) ([]*models.Document, error) {
	var out []*models.Document
	for _, doc := range m.documents {
		if doc.PersonaName == personaName {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *memoryStore) DeleteDocument(id string) error { return nil }

func (m *memoryStore) CountDocumentsByPersona(personaName string) (int, error) {
	docs, _ := m.ListDocumentsByPersona(personaName)
	return len(docs), nil
}

func (m *memoryStore) SaveChunk(chunk *models.Chunk) error {
	m.chunks[chunk.ID] = chunk
	return nil
}

func (m *memoryStore) SaveChunks(chunks []*models.Chunk) error {
	for _, c := range chunks {
		m.chunks[c.ID] = c
	}
	return nil
}

func (m *memoryStore) GetChunksByDocument(documentID string) ([]*models.Chunk, error) {
	var out []*models.Chunk
	for _, c := range m.chunks {
		if c.DocumentID == documentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryStore) GetChunksByPersona(personaName string) ([]*models.Chunk, error) {
	var out []*models.Chunk
	for _, c := range m.chunks {
		if c.PersonaName == personaName {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryStore) DeleteChunksByDocument(documentID string) error { return nil }

func (m *memoryStore) CountChunksByPersona(personaName string) (int, error) {
	chunks, _ := m.GetChunksByPersona(personaName)
	return len(chunks), nil
}

func (m *memoryStore) SaveFact(fact *models.BioFact) error {
	m.facts[fact.ID] = fact
	return nil
}

func (m *memoryStore) SaveFacts(facts []*models.BioFact) error {
	for _, f := range facts {
		m.facts[f.ID] = f
	}
	return nil
}

func (m *memoryStore) GetFactsByPersona(personaName string) ([]*models.BioFact, error) {
	var out []*models.BioFact
	for _, f := range m.facts {
		if f.PersonaName == personaName {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memoryStore) DeleteFactsByPersona(personaName string) error { return nil }

func (m *memoryStore) CountFactsByPersona(personaName string) (int, error) {
	facts, _ := m.GetFactsByPersona(personaName)
	return len(facts), nil
}

type countingEmbedder struct {
	calls int
}

func (e *countingEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	return []float32{1, 0, 0}, nil
}

func (e *countingEmbedder) GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error) {
	return e.GenerateEmbedding(ctx, query)
}

func (e *countingEmbedder) ModelName() string { return "fake-embedding" }

func (e *countingEmbedder) Dimension() int { return 3 }

func (e *countingEmbedder) IsAvailable(ctx context.Context) bool { return true }

func newTestIngestService(t *testing.T, store *memoryStore) (*Service, *countingEmbedder) {
	t.Helper()
	embedder := &countingEmbedder{}
	cfg := &common.IngestConfig{ChunkSize: 50, ChunkOverlap: 5, StyleDir: t.TempDir()}
	return NewService(store, embedder, nil, cfg, arbor.NewLogger()), embedder
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestIngestFile_TextSource(t *testing.T) {
	store := newMemoryStore()
	service, embedder := newTestIngestService(t, store)

	path := writeSource(t, "my_life_story.txt", "Albert Einstein was born in Ulm in 1879. He later moved to Munich.")

	result, err := service.IngestFile(context.Background(), "Albert Einstein", path, models.SourceTypeBio)
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.Equal(t, "my life story", result.Document.Title)
	assert.Equal(t, models.SourceTypeBio, result.Document.SourceType)
	assert.NotEmpty(t, result.Document.ContentHash)
	assert.Equal(t, 1, result.Chunks)
	assert.Equal(t, 1, embedder.calls)

	chunks, err := store.GetChunksByDocument(result.Document.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, []float32{1, 0, 0}, chunks[0].Embedding)
}

func TestIngestFile_SkipsUnchangedContent(t *testing.T) {
	store := newMemoryStore()
	service, embedder := newTestIngestService(t, store)

	content := "Albert Einstein was born in Ulm in 1879 and studied physics in Zurich."
	first := writeSource(t, "bio.txt", content)

	r1, err := service.IngestFile(context.Background(), "Albert Einstein", first, models.SourceTypeBio)
	require.NoError(t, err)
	require.False(t, r1.Skipped)
	callsAfterFirst := embedder.calls

	// Same content under a different filename and formatting still skips.
	second := writeSource(t, "bio_copy.txt", "  Albert   Einstein was born in\nUlm in 1879 and studied physics in Zurich. ")

	r2, err := service.IngestFile(context.Background(), "Albert Einstein", second, models.SourceTypeBio)
	require.NoError(t, err)
	assert.True(t, r2.Skipped)
	assert.Equal(t, r1.Document.ID, r2.Document.ID)
	assert.Equal(t, callsAfterFirst, embedder.calls, "skipped ingestion must not re-embed")

	count, err := store.CountDocumentsByPersona("Albert Einstein")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIngestFile_SameContentDifferentPersona(t *testing.T) {
	store := newMemoryStore()
	service, _ := newTestIngestService(t, store)

	content := "Marie Curie was born in Warsaw in 1867 and won two Nobel Prizes."
	path := writeSource(t, "bio.txt", content)

	r1, err := service.IngestFile(context.Background(), "Marie Curie", path, models.SourceTypeBio)
	require.NoError(t, err)
	require.False(t, r1.Skipped)

	r2, err := service.IngestFile(context.Background(), "Albert Einstein", path, models.SourceTypeBio)
	require.NoError(t, err)
	assert.False(t, r2.Skipped, "content hashes are scoped per persona")
}

func TestIngestFile_RejectsEmptyAndUnsupported(t *testing.T) {
	store := newMemoryStore()
	service, _ := newTestIngestService(t, store)

	empty := writeSource(t, "empty.txt", "   \n\t ")
	_, err := service.IngestFile(context.Background(), "Albert Einstein", empty, models.SourceTypeBio)
	assert.Error(t, err)

	exe := writeSource(t, "binary.exe", "not text")
	_, err = service.IngestFile(context.Background(), "Albert Einstein", exe, models.SourceTypeBio)
	assert.Error(t, err)
}

func TestEnsurePersona_AppliesStyleSeed(t *testing.T) {
	store := newMemoryStore()
	embedder := &countingEmbedder{}
	styleDir := t.TempDir()
	cfg := &common.IngestConfig{ChunkSize: 50, ChunkOverlap: 5, StyleDir: styleDir}
	service := NewService(store, embedder, nil, cfg, arbor.NewLogger())

	seed := `name: Albert Einstein
description: Theoretical physicist
tone_directive: Warm, playful, fond of thought experiments.
catchphrases:
  - Imagination is more important than knowledge.
era: 1879-1955
`
	require.NoError(t, os.WriteFile(filepath.Join(styleDir, "albert_einstein.yaml"), []byte(seed), 0644))

	persona, err := service.EnsurePersona("Albert Einstein")
	require.NoError(t, err)

	assert.Equal(t, "Theoretical physicist", persona.Description)
	assert.Equal(t, "Warm, playful, fond of thought experiments.", persona.ToneDirective)
	assert.Len(t, persona.Catchphrases, 1)
	assert.Equal(t, "1879-1955", persona.Era)
}

func TestEnsurePersona_SeedDoesNotOverwriteExistingStyle(t *testing.T) {
	store := newMemoryStore()
	embedder := &countingEmbedder{}
	styleDir := t.TempDir()
	cfg := &common.IngestConfig{ChunkSize: 50, ChunkOverlap: 5, StyleDir: styleDir}
	service := NewService(store, embedder, nil, cfg, arbor.NewLogger())

	existing, err := store.EnsurePersona("Albert Einstein")
	require.NoError(t, err)
	existing.ToneDirective = "Hand-tuned directive."
	require.NoError(t, store.SavePersona(existing))

	seed := "tone_directive: Seed directive.\ndescription: From seed.\n"
	require.NoError(t, os.WriteFile(filepath.Join(styleDir, "albert_einstein.yaml"), []byte(seed), 0644))

	persona, err := service.EnsurePersona("Albert Einstein")
	require.NoError(t, err)

	assert.Equal(t, "Hand-tuned directive.", persona.ToneDirective, "hand edits survive re-seeding")
	assert.Equal(t, "From seed.", persona.Description, "empty fields still fill from the seed")
}

func TestExtractBioFacts_Idempotent(t *testing.T) {
	store := newMemoryStore()
	service, _ := newTestIngestService(t, store)

	path := writeSource(t, "bio.txt",
		"Albert Einstein was born in Ulm on March 14, 1879. "+
			"Einstein won the Nobel Prize in Physics in 1921.")

	_, err := service.IngestFile(context.Background(), "Albert Einstein", path, models.SourceTypeBio)
	require.NoError(t, err)

	added, err := service.ExtractBioFacts(context.Background(), "Albert Einstein")
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	// Second pass over the same corpus adds nothing.
	again, err := service.ExtractBioFacts(context.Background(), "Albert Einstein")
	require.NoError(t, err)
	assert.Zero(t, again)

	facts, err := store.GetFactsByPersona("Albert Einstein")
	require.NoError(t, err)
	require.Len(t, facts, 2)
	for _, fact := range facts {
		assert.NotEmpty(t, fact.Tags)
		assert.Equal(t, "bio", fact.Source)
	}
}

func TestExtractBioFacts_UnknownPersona(t *testing.T) {
	store := newMemoryStore()
	service, _ := newTestIngestService(t, store)

	_, err := service.ExtractBioFacts(context.Background(), "Nobody")
	assert.ErrorIs(t, err, common.ErrUnknownPersona)
}
