package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/eidolon-chat/eidolon/internal/common"
	"github.com/eidolon-chat/eidolon/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db           *BadgerDB
	persona      interfaces.PersonaStorage
	document     interfaces.DocumentStorage
	chunk        interfaces.ChunkStorage
	bioFact      interfaces.BioFactStorage
	conversation interfaces.ConversationStorage
	logger       arbor.ILogger
}

// NewManager creates a new Badger storage manager. The dimension pins the
// embedding length accepted by the chunk and fact stores.
func NewManager(logger arbor.ILogger, config *common.BadgerConfig, dimension int) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:           db,
		persona:      NewPersonaStorage(db, logger),
		document:     NewDocumentStorage(db, logger),
		chunk:        NewChunkStorage(db, logger, dimension),
		bioFact:      NewBioFactStorage(db, logger, dimension),
		conversation: NewConversationStorage(db, logger),
		logger:       logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// PersonaStorage returns the Persona storage interface
func (m *Manager) PersonaStorage() interfaces.PersonaStorage {
	return m.persona
}

// DocumentStorage returns the Document storage interface
func (m *Manager) DocumentStorage() interfaces.DocumentStorage {
	return m.document
}

// ChunkStorage returns the Chunk storage interface
func (m *Manager) ChunkStorage() interfaces.ChunkStorage {
	return m.chunk
}

// BioFactStorage returns the BioFact storage interface
func (m *Manager) BioFactStorage() interfaces.BioFactStorage {
	return m.bioFact
}

// ConversationStorage returns the Conversation storage interface
func (m *Manager) ConversationStorage() interfaces.ConversationStorage {
	return m.conversation
}

// DB returns the underlying database connection
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// RunValueLogGC forwards one GC cycle to the connection
func (m *Manager) RunValueLogGC(discardRatio float64) error {
	return m.db.RunValueLogGC(discardRatio)
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
