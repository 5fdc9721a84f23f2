package handlers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/eidolon-chat/eidolon/internal/interfaces"
)

// PersonaHandler handles persona read requests
type PersonaHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewPersonaHandler creates a new persona handler
func NewPersonaHandler(storage interfaces.StorageManager, logger arbor.ILogger) *PersonaHandler {
	return &PersonaHandler{
		storage: storage,
		logger:  logger,
	}
}

// stylePreviewChars bounds the style preview in list responses
const stylePreviewChars = 120

// ListHandler handles GET /api/personas requests
func (h *PersonaHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	personas, err := h.storage.PersonaStorage().ListPersonas()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list personas")
		writeError(w, err)
		return
	}

	sort.Slice(personas, func(i, j int) bool {
		return personas[i].Name < personas[j].Name
	})

	out := make([]map[string]interface{}, 0, len(personas))
	for _, p := range personas {
		style := strings.TrimSpace(p.ToneDirective)
		item := map[string]interface{}{
			"name":      p.Name,
			"has_style": style != "",
		}
		if style != "" {
			preview := style
			if len(preview) > stylePreviewChars {
				preview = preview[:stylePreviewChars]
			}
			item["style_preview"] = preview
		}
		out = append(out, item)
	}

	writeJSON(w, http.StatusOK, out)
}

// GetHandler handles GET /api/personas/{name} requests
func (h *PersonaHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/personas/")
	if name == "" {
		writeValidationError(w, "Persona name is required")
		return
	}

	persona, err := h.storage.PersonaStorage().GetPersona(name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, persona)
}
