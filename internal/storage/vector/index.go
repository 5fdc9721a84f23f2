package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/eidolon-chat/eidolon/internal/common"
	"github.com/eidolon-chat/eidolon/internal/interfaces"
)

type entry struct {
	id     string
	title  string
	text   string
	vector []float32
}

// Index is an in-memory brute-force cosine similarity index over embedded
// facts and chunks. Vectors are stored L2-normalized, so cosine similarity
// reduces to a dot product. Refresh rebuilds the index from Badger.
type Index struct {
	mu        sync.RWMutex
	dimension int
	entries   map[interfaces.IndexScope][]entry

	personas interfaces.PersonaStorage
	chunks   interfaces.ChunkStorage
	facts    interfaces.BioFactStorage
	logger   arbor.ILogger
}

// NewIndex creates an empty index backed by the given stores
func NewIndex(personas interfaces.PersonaStorage, chunks interfaces.ChunkStorage, facts interfaces.BioFactStorage, dimension int, logger arbor.ILogger) *Index {
	return &Index{
		dimension: dimension,
		entries:   make(map[interfaces.IndexScope][]entry),
		personas:  personas,
		chunks:    chunks,
		facts:     facts,
		logger:    logger,
	}
}

func (idx *Index) Upsert(scope interfaces.IndexScope, id, title, text string, vector []float32) error {
	if len(vector) != idx.dimension {
		return fmt.Errorf("vector has %d dimensions, want %d: %w",
			len(vector), idx.dimension, common.ErrDimensionMismatch)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	list := idx.entries[scope]
	for i := range list {
		if list[i].id == id {
			list[i] = entry{id: id, title: title, text: text, vector: vector}
			return nil
		}
	}
	idx.entries[scope] = append(list, entry{id: id, title: title, text: text, vector: vector})
	return nil
}

func (idx *Index) Query(ctx context.Context, scope interfaces.IndexScope, vector []float32, limit int) ([]interfaces.IndexHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("query vector has %d dimensions, want %d: %w",
			len(vector), idx.dimension, common.ErrDimensionMismatch)
	}
	if limit <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	list := idx.entries[scope]
	if len(list) == 0 {
		return nil, nil
	}

	hits := make([]interfaces.IndexHit, 0, len(list))
	for i := range list {
		hits = append(hits, interfaces.IndexHit{
			ID:    list[i].id,
			Kind:  scope.Kind,
			Title: list[i].title,
			Text:  list[i].text,
			Score: dot(list[i].vector, vector),
		})
	}

	// Descending score, ID as deterministic tiebreak
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if limit > len(hits) {
		limit = len(hits)
	}
	return hits[:limit], nil
}

// Refresh rebuilds the whole index from storage. The rebuilt entries replace
// the old map in one swap, so queries never see a half-built index.
func (idx *Index) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	personas, err := idx.personas.ListPersonas()
	if err != nil {
		return fmt.Errorf("failed to list personas: %w", err)
	}

	rebuilt := make(map[interfaces.IndexScope][]entry)
	for _, p := range personas {
		chunkEntries, factEntries, err := idx.loadPersonaEntries(p.Name)
		if err != nil {
			return err
		}
		rebuilt[interfaces.IndexScope{PersonaName: p.Name, Kind: interfaces.IndexKindChunk}] = chunkEntries
		rebuilt[interfaces.IndexScope{PersonaName: p.Name, Kind: interfaces.IndexKindFact}] = factEntries
	}

	idx.mu.Lock()
	idx.entries = rebuilt
	idx.mu.Unlock()

	total := 0
	for _, list := range rebuilt {
		total += len(list)
	}
	idx.logger.Debug().Int("personas", len(personas)).Int("entries", total).Msg("Similarity index refreshed")
	return nil
}

func (idx *Index) Count(scope interfaces.IndexScope) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries[scope])
}

// LoadPersona pulls one persona's chunks and facts into the index without
// touching other personas. Used after ingestion.
func (idx *Index) LoadPersona(personaName string) error {
	chunkEntries, factEntries, err := idx.loadPersonaEntries(personaName)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	idx.entries[interfaces.IndexScope{PersonaName: personaName, Kind: interfaces.IndexKindChunk}] = chunkEntries
	idx.entries[interfaces.IndexScope{PersonaName: personaName, Kind: interfaces.IndexKindFact}] = factEntries
	idx.mu.Unlock()

	return nil
}

func (idx *Index) loadPersonaEntries(personaName string) ([]entry, []entry, error) {
	chunks, err := idx.chunks.GetChunksByPersona(personaName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load chunks for %s: %w", personaName, err)
	}
	facts, err := idx.facts.GetFactsByPersona(personaName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load facts for %s: %w", personaName, err)
	}

	chunkEntries := make([]entry, 0, len(chunks))
	for _, c := range chunks {
		chunkEntries = append(chunkEntries, entry{id: c.ID, title: c.Title, text: c.Text, vector: c.Embedding})
	}
	factEntries := make([]entry, 0, len(facts))
	for _, f := range facts {
		factEntries = append(factEntries, entry{id: f.ID, text: f.Text, vector: f.Embedding})
	}
	return chunkEntries, factEntries, nil
}

// dot computes the inner product, which equals cosine similarity for
// L2-normalized vectors
func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
