package badger

import (
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/eidolon-chat/eidolon/internal/common"
	"github.com/eidolon-chat/eidolon/internal/interfaces"
	"github.com/eidolon-chat/eidolon/internal/models"
)

// ConversationStorage implements the ConversationStorage interface for Badger.
// A mutex serializes message appends so sequence numbers stay strictly
// increasing under concurrent requests.
type ConversationStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
	mu     sync.Mutex
}

// NewConversationStorage creates a new ConversationStorage instance
func NewConversationStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ConversationStorage {
	return &ConversationStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ConversationStorage) EnsureConversation(id, personaName string) (*models.Conversation, error) {
	if personaName == "" {
		return nil, fmt.Errorf("persona name is required")
	}

	if id == "" {
		id = common.NewConversationID()
	}

	var conv models.Conversation
	err := s.db.Store().Get(id, &conv)
	if err == nil {
		if conv.PersonaName != personaName {
			return nil, fmt.Errorf("conversation %s is bound to persona %q: %w",
				id, conv.PersonaName, common.ErrPersonaMismatch)
		}
		return &conv, nil
	}
	if err != badgerhold.ErrNotFound {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	now := time.Now()
	conv = models.Conversation{
		ID:          id,
		PersonaName: personaName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.Store().Upsert(id, &conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	s.logger.Debug().Str("conversation_id", id).Str("persona", personaName).Msg("Created conversation")
	return &conv, nil
}

func (s *ConversationStorage) GetConversation(id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.db.Store().Get(id, &conv); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, common.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

func (s *ConversationStorage) AppendMessage(conversationID, role, content string, sources []models.Source) (*models.Message, error) {
	if role != models.RoleUser && role != models.RoleAssistant {
		return nil, fmt.Errorf("invalid message role: %q", role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var conv models.Conversation
	if err := s.db.Store().Get(conversationID, &conv); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, common.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	seq, err := s.nextSeq(conversationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	msg := &models.Message{
		ID:             common.NewMessageID(),
		ConversationID: conversationID,
		Seq:            seq,
		Role:           role,
		Content:        content,
		Sources:        sources,
		CreatedAt:      now,
	}
	if err := s.db.Store().Upsert(msg.ID, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	conv.UpdatedAt = now
	if err := s.db.Store().Upsert(conv.ID, &conv); err != nil {
		return nil, fmt.Errorf("failed to touch conversation: %w", err)
	}

	return msg, nil
}

func (s *ConversationStorage) GetMessages(conversationID string) ([]*models.Message, error) {
	var msgs []models.Message
	err := s.db.Store().Find(&msgs, badgerhold.Where("ConversationID").Eq(conversationID).SortBy("Seq"))
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	result := make([]*models.Message, len(msgs))
	for i := range msgs {
		result[i] = &msgs[i]
	}
	return result, nil
}

func (s *ConversationStorage) CountConversationsByPersona(personaName string) (int, error) {
	count, err := s.db.Store().Count(&models.Conversation{}, badgerhold.Where("PersonaName").Eq(personaName))
	if err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return int(count), nil
}

// nextSeq returns the next strictly increasing sequence number for the
// conversation. Caller must hold s.mu.
func (s *ConversationStorage) nextSeq(conversationID string) (int, error) {
	var msgs []models.Message
	err := s.db.Store().Find(&msgs, badgerhold.Where("ConversationID").Eq(conversationID))
	if err != nil {
		return 0, fmt.Errorf("failed to scan messages: %w", err)
	}

	max := 0
	for i := range msgs {
		if msgs[i].Seq > max {
			max = msgs[i].Seq
		}
	}
	return max + 1, nil
}
