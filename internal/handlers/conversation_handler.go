package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/eidolon-chat/eidolon/internal/interfaces"
)

// ConversationHandler handles conversation read requests
type ConversationHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(storage interfaces.StorageManager, logger arbor.ILogger) *ConversationHandler {
	return &ConversationHandler{
		storage: storage,
		logger:  logger,
	}
}

// GetHandler handles GET /api/conversations/{id} requests, returning the
// conversation with its messages in sequence order
func (h *ConversationHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/conversations/")
	if id == "" {
		writeValidationError(w, "Conversation ID is required")
		return
	}

	conv, err := h.storage.ConversationStorage().GetConversation(id)
	if err != nil {
		writeError(w, err)
		return
	}

	messages, err := h.storage.ConversationStorage().GetMessages(id)
	if err != nil {
		h.logger.Error().Err(err).Str("conversation_id", id).Msg("Failed to load messages")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversation": conv,
		"messages":     messages,
	})
}
