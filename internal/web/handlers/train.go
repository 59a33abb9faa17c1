package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-locker/internal/recognizer"
)

// TrainHandler handles model training.
type TrainHandler struct {
	recognizer *recognizer.Recognizer
}

// NewTrainHandler creates a new train handler.
func NewTrainHandler(rec *recognizer.Recognizer) *TrainHandler {
	return &TrainHandler{recognizer: rec}
}

// Train rebuilds the models for all enrolled users. Users without usable
// images are reported in the results instead of failing the whole run.
func (h *TrainHandler) Train(w http.ResponseWriter, r *http.Request) {
	results, err := h.recognizer.TrainAll(r.Context(), nil)
	if err != nil {
		logrus.WithError(err).Error("training failed")
		respondError(w, http.StatusInternalServerError, "training failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"results": results,
	})
}
