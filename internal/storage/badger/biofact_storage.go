package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/eidolon-chat/eidolon/internal/common"
	"github.com/eidolon-chat/eidolon/internal/interfaces"
	"github.com/eidolon-chat/eidolon/internal/models"
)

// BioFactStorage implements the BioFactStorage interface for Badger
type BioFactStorage struct {
	db        *BadgerDB
	logger    arbor.ILogger
	dimension int
}

// NewBioFactStorage creates a new BioFactStorage instance
func NewBioFactStorage(db *BadgerDB, logger arbor.ILogger, dimension int) interfaces.BioFactStorage {
	return &BioFactStorage{
		db:        db,
		logger:    logger,
		dimension: dimension,
	}
}

func (s *BioFactStorage) SaveFact(fact *models.BioFact) error {
	if fact.ID == "" {
		return fmt.Errorf("fact ID is required")
	}
	if fact.PersonaName == "" {
		return fmt.Errorf("fact persona name is required")
	}
	if len(fact.Embedding) != s.dimension {
		return fmt.Errorf("fact %s has %d-dimension embedding, want %d: %w",
			fact.ID, len(fact.Embedding), s.dimension, common.ErrDimensionMismatch)
	}

	if fact.CreatedAt.IsZero() {
		fact.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(fact.ID, fact); err != nil {
		return fmt.Errorf("failed to save fact: %w", err)
	}
	return nil
}

func (s *BioFactStorage) SaveFacts(facts []*models.BioFact) error {
	for _, fact := range facts {
		if err := s.SaveFact(fact); err != nil {
			return err
		}
	}
	return nil
}

func (s *BioFactStorage) GetFactsByPersona(personaName string) ([]*models.BioFact, error) {
	var facts []models.BioFact
	if err := s.db.Store().Find(&facts, badgerhold.Where("PersonaName").Eq(personaName)); err != nil {
		return nil, fmt.Errorf("failed to get facts: %w", err)
	}

	result := make([]*models.BioFact, len(facts))
	for i := range facts {
		result[i] = &facts[i]
	}
	return result, nil
}

func (s *BioFactStorage) DeleteFactsByPersona(personaName string) error {
	err := s.db.Store().DeleteMatching(&models.BioFact{}, badgerhold.Where("PersonaName").Eq(personaName))
	if err != nil {
		return fmt.Errorf("failed to delete facts: %w", err)
	}
	return nil
}

func (s *BioFactStorage) CountFactsByPersona(personaName string) (int, error) {
	count, err := s.db.Store().Count(&models.BioFact{}, badgerhold.Where("PersonaName").Eq(personaName))
	if err != nil {
		return 0, fmt.Errorf("failed to count facts: %w", err)
	}
	return int(count), nil
}
