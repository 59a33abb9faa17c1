package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kozaktomas/face-locker/internal/recognizer"
	"github.com/kozaktomas/face-locker/internal/storage"
)

// UsersHandler handles user enrollment, listing and deletion.
type UsersHandler struct {
	store      storage.Store
	recognizer *recognizer.Recognizer
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(store storage.Store, rec *recognizer.Recognizer) *UsersHandler {
	return &UsersHandler{
		store:      store,
		recognizer: rec,
	}
}

// usernameNormalizer strips diacritics so "Tomáš" and "Tomas" enroll into
// the same user directory.
var usernameNormalizer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeUsername lowercases the username, removes diacritics and rejects
// anything that could escape the per-user storage prefix.
func normalizeUsername(raw string) (string, error) {
	s, _, err := transform.String(usernameNormalizer, strings.TrimSpace(raw))
	if err != nil {
		return "", errors.New("invalid username")
	}
	s = strings.ToLower(s)
	if s == "" {
		return "", errors.New("username is required")
	}
	if strings.ContainsAny(s, `/\`) || strings.Contains(s, "..") {
		return "", errors.New("invalid username")
	}
	return s, nil
}

// Add enrolls one face image for a user. Images are numbered sequentially
// within the user's storage prefix.
func (h *UsersHandler) Add(w http.ResponseWriter, r *http.Request) {
	username, err := normalizeUsername(chi.URLParam(r, "username"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := readUploadedImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}

	existing, err := h.store.ListUserImages(r.Context(), username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list existing images")
		return
	}

	filename := fmt.Sprintf("img%d.jpg", len(existing)+1)
	ref, err := h.store.SaveImage(r.Context(), username, filename, data)
	if err != nil {
		logrus.WithError(err).WithField("user", sanitizeForLog(username)).Error("failed to save image")
		respondError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	h.recognizer.Invalidate()
	respondJSON(w, http.StatusCreated, map[string]string{"saved": ref})
}

// List returns all enrolled user names.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.recognizer.Users(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []string{}
	}
	respondJSON(w, http.StatusOK, map[string][]string{"users": users})
}

// Delete removes a user together with all their images and models.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username, err := normalizeUsername(chi.URLParam(r, "username"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.DeleteUser(r.Context(), username); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		logrus.WithError(err).WithField("user", sanitizeForLog(username)).Error("failed to delete user")
		respondError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	h.recognizer.Invalidate()
	respondJSON(w, http.StatusOK, map[string]string{"deleted": username})
}
