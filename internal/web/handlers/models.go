package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-locker/internal/recognizer"
)

// ModelsHandler lists trained model files.
type ModelsHandler struct {
	recognizer *recognizer.Recognizer
}

// NewModelsHandler creates a new models handler.
func NewModelsHandler(rec *recognizer.Recognizer) *ModelsHandler {
	return &ModelsHandler{recognizer: rec}
}

type modelEntry struct {
	User string `json:"user"`
	Ref  string `json:"ref"`
}

// List returns a reference to every stored model file.
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	refs, err := h.recognizer.Models(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list models")
		return
	}

	models := make([]modelEntry, 0, len(refs))
	for _, ref := range refs {
		models = append(models, modelEntry{User: ref.User, Ref: ref.Ref})
	}
	respondJSON(w, http.StatusOK, map[string][]modelEntry{"models": models})
}
