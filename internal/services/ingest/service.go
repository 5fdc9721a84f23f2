package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/arbor"

	"github.com/eidolon-chat/eidolon/internal/common"
	"github.com/eidolon-chat/eidolon/internal/interfaces"
	"github.com/eidolon-chat/eidolon/internal/models"
)

// Service runs offline batch ingestion: read a source file, normalize and
// chunk it, embed every chunk, and persist the document. Documents are
// content-addressed, so re-ingesting an unchanged file is a no-op.
type Service struct {
	storage   interfaces.StorageManager
	embedder  interfaces.EmbeddingService
	extractor interfaces.PDFExtractor
	config    *common.IngestConfig
	logger    arbor.ILogger
}

// Result summarizes one ingestion call
type Result struct {
	Document *models.Document
	Chunks   int
	Skipped  bool // content hash already present
}

// NewService creates a new ingestion service
func NewService(
	storage interfaces.StorageManager,
	embedder interfaces.EmbeddingService,
	extractor interfaces.PDFExtractor,
	config *common.IngestConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		storage:   storage,
		embedder:  embedder,
		extractor: extractor,
		config:    config,
		logger:    logger,
	}
}

// EnsurePersona creates the persona if needed and applies its style seed
// when one exists in the configured style directory. Seeds only fill fields
// on first creation or when currently empty, so hand edits survive re-runs.
func (s *Service) EnsurePersona(personaName string) (*models.Persona, error) {
	persona, err := s.storage.PersonaStorage().EnsurePersona(personaName)
	if err != nil {
		return nil, err
	}

	seed, err := LoadStyleSeed(s.config.StyleDir, personaName)
	if err != nil {
		return nil, err
	}
	if seed == nil {
		return persona, nil
	}

	changed := false
	if persona.Description == "" && seed.Description != "" {
		persona.Description = seed.Description
		changed = true
	}
	if persona.ToneDirective == "" && seed.ToneDirective != "" {
		persona.ToneDirective = seed.ToneDirective
		changed = true
	}
	if len(persona.Catchphrases) == 0 && len(seed.Catchphrases) > 0 {
		persona.Catchphrases = seed.Catchphrases
		changed = true
	}
	if persona.Era == "" && seed.Era != "" {
		persona.Era = seed.Era
		changed = true
	}

	if changed {
		if err := s.storage.PersonaStorage().SavePersona(persona); err != nil {
			return nil, err
		}
		s.logger.Info().Str("persona", persona.Name).Msg("Applied style seed")
	}
	return persona, nil
}

// IngestFile ingests one source file for a persona. Supported extensions:
// .txt and .md read directly, .pdf through the extractor, .html and .htm
// converted to markdown first.
func (s *Service) IngestFile(ctx context.Context, personaName, path, sourceType string) (*Result, error) {
	persona, err := s.EnsurePersona(personaName)
	if err != nil {
		return nil, err
	}

	text, err := s.readSource(ctx, path)
	if err != nil {
		return nil, err
	}

	normalized := NormalizeWhitespace(text)
	if normalized == "" {
		return nil, fmt.Errorf("source file %s contains no text", path)
	}

	contentHash := hashContent(normalized)

	existing, err := s.storage.DocumentStorage().GetDocumentByContentHash(persona.Name, contentHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Info().
			Str("persona", persona.Name).
			Str("path", path).
			Str("document_id", existing.ID).
			Msg("Content unchanged, skipping ingestion")
		return &Result{Document: existing, Skipped: true}, nil
	}

	title := titleFromPath(path)
	doc := &models.Document{
		ID:          common.NewDocumentID(),
		PersonaName: persona.Name,
		SourceType:  sourceType,
		SourcePath:  path,
		Title:       title,
		ContentHash: contentHash,
	}

	pieces := SimpleChunk(normalized, s.config.ChunkSize, s.config.ChunkOverlap)
	chunks := make([]*models.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		embedding, err := s.embedder.GenerateEmbedding(ctx, piece)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk %d of %s: %w", i, path, err)
		}
		chunks = append(chunks, &models.Chunk{
			ID:          common.NewChunkID(),
			DocumentID:  doc.ID,
			PersonaName: persona.Name,
			Ordinal:     i,
			Title:       title,
			Text:        piece,
			Embedding:   embedding,
		})
	}

	doc.ChunkCount = len(chunks)
	if err := s.storage.DocumentStorage().SaveDocument(doc); err != nil {
		return nil, err
	}
	if err := s.storage.ChunkStorage().SaveChunks(chunks); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("persona", persona.Name).
		Str("path", path).
		Str("document_id", doc.ID).
		Int("chunks", len(chunks)).
		Msg("Document ingested")

	return &Result{Document: doc, Chunks: len(chunks)}, nil
}

// ExtractBioFacts scans a persona's ingested documents for biographical
// sentences and stores them as facts. Facts are idempotent by (persona,
// text): an existing fact with the same text is never duplicated.
func (s *Service) ExtractBioFacts(ctx context.Context, personaName string) (int, error) {
	persona, err := s.storage.PersonaStorage().GetPersona(personaName)
	if err != nil {
		return 0, err
	}

	docs, err := s.storage.DocumentStorage().ListDocumentsByPersona(persona.Name)
	if err != nil {
		return 0, err
	}

	existing, err := s.storage.BioFactStorage().GetFactsByPersona(persona.Name)
	if err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(existing))
	for _, f := range existing {
		known[f.Text] = true
	}

	added := 0
	for _, doc := range docs {
		chunks, err := s.storage.ChunkStorage().GetChunksByDocument(doc.ID)
		if err != nil {
			return added, err
		}

		for _, chunk := range chunks {
			for _, cand := range ExtractFactCandidates(chunk.Text, persona.Name) {
				if known[cand.Text] {
					continue
				}

				embedding, err := s.embedder.GenerateEmbedding(ctx, cand.Text)
				if err != nil {
					return added, fmt.Errorf("failed to embed fact: %w", err)
				}

				fact := &models.BioFact{
					ID:          common.NewFactID(),
					PersonaName: persona.Name,
					Text:        cand.Text,
					DateStart:   cand.DateStart,
					Location:    cand.Location,
					Tags:        cand.Tags,
					Source:      doc.Title,
					Embedding:   embedding,
				}
				if err := s.storage.BioFactStorage().SaveFact(fact); err != nil {
					return added, err
				}
				known[cand.Text] = true
				added++
			}
		}
	}

	s.logger.Info().
		Str("persona", persona.Name).
		Int("facts_added", added).
		Msg("Bio fact extraction completed")

	return added, nil
}

func (s *Service) readSource(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(data), nil

	case ".pdf":
		text, err := s.extractor.ExtractText(ctx, path)
		if err != nil {
			return "", fmt.Errorf("failed to extract PDF %s: %w", path, err)
		}
		return text, nil

	case ".html", ".htm":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		converter := md.NewConverter("", true, nil)
		markdown, err := converter.ConvertString(string(data))
		if err != nil {
			return "", fmt.Errorf("failed to convert HTML %s: %w", path, err)
		}
		return markdown, nil

	default:
		return "", fmt.Errorf("unsupported source file type: %s", path)
	}
}

func hashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(name, "_", " ")
}
