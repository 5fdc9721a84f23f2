package interfaces

import (
	"github.com/eidolon-chat/eidolon/internal/models"
)

// PersonaStorage - interface for persona persistence
type PersonaStorage interface {
	// EnsurePersona returns the persona with the given name, creating it when
	// it does not exist. Repeated calls with the same name are idempotent.
	EnsurePersona(name string) (*models.Persona, error)

	SavePersona(persona *models.Persona) error
	GetPersona(name string) (*models.Persona, error)
	ListPersonas() ([]*models.Persona, error)
	DeletePersona(name string) error
	CountPersonas() (int, error)
}

// DocumentStorage - interface for ingested document persistence
type DocumentStorage interface {
	SaveDocument(doc *models.Document) error
	GetDocument(id string) (*models.Document, error)

	// GetDocumentByContentHash looks up a document by its content hash within
	// a persona's corpus, the basis of idempotent ingestion.
	GetDocumentByContentHash(personaName, contentHash string) (*models.Document, error)

	ListDocumentsByPersona(personaName string) ([]*models.Document, error)
	DeleteDocument(id string) error
	CountDocumentsByPersona(personaName string) (int, error)
}

// ChunkStorage - interface for chunk persistence
type ChunkStorage interface {
	SaveChunk(chunk *models.Chunk) error
	SaveChunks(chunks []*models.Chunk) error
	GetChunksByDocument(documentID string) ([]*models.Chunk, error)
	GetChunksByPersona(personaName string) ([]*models.Chunk, error)
	DeleteChunksByDocument(documentID string) error
	CountChunksByPersona(personaName string) (int, error)
}

// BioFactStorage - interface for biographical fact persistence
type BioFactStorage interface {
	SaveFact(fact *models.BioFact) error
	SaveFacts(facts []*models.BioFact) error
	GetFactsByPersona(personaName string) ([]*models.BioFact, error)
	DeleteFactsByPersona(personaName string) error
	CountFactsByPersona(personaName string) (int, error)
}

// ConversationStorage - interface for conversation and message persistence
type ConversationStorage interface {
	// EnsureConversation returns the conversation with the given ID, creating
	// it when absent. Returns common.ErrPersonaMismatch when the conversation
	// exists but belongs to a different persona.
	EnsureConversation(id, personaName string) (*models.Conversation, error)

	GetConversation(id string) (*models.Conversation, error)

	// AppendMessage assigns the next sequence number and persists the
	// message. Sources are only meaningful for assistant messages and may be
	// nil.
	AppendMessage(conversationID, role, content string, sources []models.Source) (*models.Message, error)

	GetMessages(conversationID string) ([]*models.Message, error)
	CountConversationsByPersona(personaName string) (int, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	PersonaStorage() PersonaStorage
	DocumentStorage() DocumentStorage
	ChunkStorage() ChunkStorage
	BioFactStorage() BioFactStorage
	ConversationStorage() ConversationStorage
	DB() interface{}
	Close() error
}
