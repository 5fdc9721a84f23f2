package badger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/eidolon-chat/eidolon/internal/common"
	"github.com/eidolon-chat/eidolon/internal/interfaces"
	"github.com/eidolon-chat/eidolon/internal/models"
)

// PersonaStorage implements the PersonaStorage interface for Badger.
// Personas are keyed by name, which is the lookup key everywhere else.
type PersonaStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewPersonaStorage creates a new PersonaStorage instance
func NewPersonaStorage(db *BadgerDB, logger arbor.ILogger) interfaces.PersonaStorage {
	return &PersonaStorage{
		db:     db,
		logger: logger,
	}
}

func (s *PersonaStorage) EnsurePersona(name string) (*models.Persona, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("persona name is required")
	}

	var persona models.Persona
	err := s.db.Store().Get(personaKey(name), &persona)
	if err == nil {
		return &persona, nil
	}
	if err != badgerhold.ErrNotFound {
		return nil, fmt.Errorf("failed to get persona: %w", err)
	}

	now := time.Now()
	persona = models.Persona{
		ID:        "persona_" + uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.Store().Upsert(personaKey(name), &persona); err != nil {
		return nil, fmt.Errorf("failed to create persona: %w", err)
	}

	s.logger.Info().Str("persona", name).Msg("Created persona")
	return &persona, nil
}

func (s *PersonaStorage) SavePersona(persona *models.Persona) error {
	if persona.Name == "" {
		return fmt.Errorf("persona name is required")
	}

	now := time.Now()
	if persona.CreatedAt.IsZero() {
		persona.CreatedAt = now
	}
	persona.UpdatedAt = now

	if persona.ID == "" {
		persona.ID = "persona_" + uuid.New().String()
	}

	if err := s.db.Store().Upsert(personaKey(persona.Name), persona); err != nil {
		return fmt.Errorf("failed to save persona: %w", err)
	}
	return nil
}

func (s *PersonaStorage) GetPersona(name string) (*models.Persona, error) {
	var persona models.Persona
	if err := s.db.Store().Get(personaKey(name), &persona); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, common.ErrUnknownPersona
		}
		return nil, fmt.Errorf("failed to get persona: %w", err)
	}
	return &persona, nil
}

func (s *PersonaStorage) ListPersonas() ([]*models.Persona, error) {
	var personas []models.Persona
	if err := s.db.Store().Find(&personas, badgerhold.Where("Name").Ne("")); err != nil {
		return nil, fmt.Errorf("failed to list personas: %w", err)
	}

	result := make([]*models.Persona, len(personas))
	for i := range personas {
		result[i] = &personas[i]
	}
	return result, nil
}

func (s *PersonaStorage) DeletePersona(name string) error {
	if err := s.db.Store().Delete(personaKey(name), &models.Persona{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete persona: %w", err)
	}
	return nil
}

func (s *PersonaStorage) CountPersonas() (int, error) {
	count, err := s.db.Store().Count(&models.Persona{}, badgerhold.Where("Name").Ne(""))
	if err != nil {
		return 0, fmt.Errorf("failed to count personas: %w", err)
	}
	return int(count), nil
}

// personaKey normalizes a persona name into its storage key. Lookups are
// case-insensitive so "Marie Curie" and "marie curie" resolve identically.
func personaKey(name string) string {
	return "persona:" + strings.ToLower(strings.TrimSpace(name))
}
