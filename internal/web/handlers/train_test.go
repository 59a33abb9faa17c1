package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/face-locker/internal/storage/mock"
)

type trainResponse struct {
	Status  string            `json:"status"`
	Results map[string]string `json:"results"`
}

func TestTrain(t *testing.T) {
	store := mock.NewMockStore()
	handler := NewTrainHandler(newTestRecognizer(store, []float32{1, 0, 0}))

	req := httptest.NewRequest(http.MethodPost, "/train", nil)
	if _, err := store.SaveImage(req.Context(), "alice", "img1.jpg", testImage(t)); err != nil {
		t.Fatalf("failed to save image: %v", err)
	}

	recorder := httptest.NewRecorder()
	handler.Train(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var result trainResponse
	parseJSONResponse(t, recorder, &result)
	if result.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", result.Status)
	}
	ref, ok := result.Results["alice"]
	if !ok {
		t.Fatalf("expected a result for alice, got %v", result.Results)
	}
	if !strings.Contains(ref, "trainer") {
		t.Errorf("expected a model ref for alice, got '%s'", ref)
	}
}

func TestTrain_NoUsers(t *testing.T) {
	store := mock.NewMockStore()
	handler := NewTrainHandler(newTestRecognizer(store, []float32{1, 0, 0}))

	recorder := httptest.NewRecorder()
	handler.Train(recorder, httptest.NewRequest(http.MethodPost, "/train", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var result trainResponse
	parseJSONResponse(t, recorder, &result)
	if result.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", result.Status)
	}
	if len(result.Results) != 0 {
		t.Errorf("expected empty results, got %v", result.Results)
	}
}

func TestTrain_NoValidImages(t *testing.T) {
	store := mock.NewMockStore()
	// Engine detects no faces in any image.
	handler := NewTrainHandler(newTestRecognizer(store, nil))

	req := httptest.NewRequest(http.MethodPost, "/train", nil)
	if _, err := store.SaveImage(req.Context(), "bob", "img1.jpg", testImage(t)); err != nil {
		t.Fatalf("failed to save image: %v", err)
	}

	recorder := httptest.NewRecorder()
	handler.Train(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var result trainResponse
	parseJSONResponse(t, recorder, &result)
	if result.Results["bob"] != "no-valid-images" {
		t.Errorf("expected 'no-valid-images' for bob, got '%s'", result.Results["bob"])
	}
}

func TestTrain_StoreFailure(t *testing.T) {
	store := mock.NewMockStore()
	store.ListUsersError = errors.New("backend unavailable")
	handler := NewTrainHandler(newTestRecognizer(store, nil))

	recorder := httptest.NewRecorder()
	handler.Train(recorder, httptest.NewRequest(http.MethodPost, "/train", nil))

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "training failed")
}
