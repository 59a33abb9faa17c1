package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-locker/internal/storage/mock"
)

type modelsResponse struct {
	Models []modelEntry `json:"models"`
}

func TestListModels_Empty(t *testing.T) {
	store := mock.NewMockStore()
	handler := NewModelsHandler(newTestRecognizer(store, nil))

	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/models", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var result modelsResponse
	parseJSONResponse(t, recorder, &result)
	if result.Models == nil || len(result.Models) != 0 {
		t.Errorf("expected empty models array, got %v", result.Models)
	}
}

func TestListModels(t *testing.T) {
	store := mock.NewMockStore()
	handler := NewModelsHandler(newTestRecognizer(store, nil))

	ctx := context.Background()
	if _, err := store.SaveModel(ctx, "alice", "alice_trainer_abc.yml", []byte("user: alice\n")); err != nil {
		t.Fatalf("failed to save model: %v", err)
	}

	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/models", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var result modelsResponse
	parseJSONResponse(t, recorder, &result)
	if len(result.Models) != 1 {
		t.Fatalf("expected 1 model, got %v", result.Models)
	}
	if result.Models[0].User != "alice" {
		t.Errorf("expected model user 'alice', got '%s'", result.Models[0].User)
	}
}

func TestListModels_StoreFailure(t *testing.T) {
	store := mock.NewMockStore()
	store.ListModelsError = errors.New("backend unavailable")
	handler := NewModelsHandler(newTestRecognizer(store, nil))

	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/models", nil))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "failed to list models")
}
