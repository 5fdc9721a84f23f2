package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eidolon-chat/eidolon/internal/common"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps an error to its HTTP status through the shared taxonomy
// and writes a JSON error body
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrUnknownPersona),
		errors.Is(err, common.ErrConversationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrPersonaMismatch):
		status = http.StatusConflict
	case errors.Is(err, common.ErrUpstreamRejected):
		status = http.StatusBadGateway
	case errors.Is(err, common.ErrUpstreamUnavailable):
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]interface{}{
		"error": err.Error(),
	})
}

// writeValidationError writes a 400 response for malformed requests
func writeValidationError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error": message,
	})
}
