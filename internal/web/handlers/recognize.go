package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-locker/internal/recognizer"
)

// RecognizeHandler handles face recognition requests.
type RecognizeHandler struct {
	recognizer *recognizer.Recognizer
}

// NewRecognizeHandler creates a new recognize handler.
func NewRecognizeHandler(rec *recognizer.Recognizer) *RecognizeHandler {
	return &RecognizeHandler{recognizer: rec}
}

// Recognize matches an uploaded probe image against the trained models.
// Domain outcomes (no face, no models, low confidence) are reported in the
// result body with status 200; only infrastructure failures are errors.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	data, err := readUploadedImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}

	result, err := h.recognizer.Recognize(r.Context(), data)
	if err != nil {
		logrus.WithError(err).Error("recognition failed")
		respondError(w, http.StatusInternalServerError, "recognition failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
