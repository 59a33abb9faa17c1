package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/face-locker/internal/storage/mock"
)

func TestNormalizeUsername(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"lowercase passthrough", "alice", "alice", false},
		{"uppercase", "Alice", "alice", false},
		{"diacritics", "Tomáš", "tomas", false},
		{"surrounding whitespace", "  bob  ", "bob", false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"path separator", "a/b", "", true},
		{"backslash", `a\b`, "", true},
		{"parent traversal", "..", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalizeUsername(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Errorf("expected error for '%s', got '%s'", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("expected '%s', got '%s'", tc.expected, got)
			}
		})
	}
}

func TestAddUser(t *testing.T) {
	store := mock.NewMockStore()
	handler := NewUsersHandler(store, newTestRecognizer(store, []float32{1, 0, 0}))

	req := multipartImageRequest(t, "/add-user/Alice", testImage(t))
	req = requestWithChiParams(req, map[string]string{"username": "Alice"})
	recorder := httptest.NewRecorder()

	handler.Add(recorder, req)

	assertStatusCode(t, recorder, http.StatusCreated)
	var result map[string]string
	parseJSONResponse(t, recorder, &result)
	if !strings.Contains(result["saved"], "alice") {
		t.Errorf("expected ref under normalized user 'alice', got '%s'", result["saved"])
	}
	if !strings.HasSuffix(result["saved"], "img1.jpg") {
		t.Errorf("expected first image named img1.jpg, got '%s'", result["saved"])
	}
}

func TestAddUser_SequentialFilenames(t *testing.T) {
	store := mock.NewMockStore()
	handler := NewUsersHandler(store, newTestRecognizer(store, []float32{1, 0, 0}))

	for _, expected := range []string{"img1.jpg", "img2.jpg", "img3.jpg"} {
		req := multipartImageRequest(t, "/add-user/alice", testImage(t))
		req = requestWithChiParams(req, map[string]string{"username": "alice"})
		recorder := httptest.NewRecorder()

		handler.Add(recorder, req)

		assertStatusCode(t, recorder, http.StatusCreated)
		var result map[string]string
		parseJSONResponse(t, recorder, &result)
		if !strings.HasSuffix(result["saved"], expected) {
			t.Errorf("expected image named %s, got '%s'", expected, result["saved"])
		}
	}
}

func TestAddUser_InvalidUsername(t *testing.T) {
	store := mock.NewMockStore()
	handler := NewUsersHandler(store, newTestRecognizer(store, nil))

	req := multipartImageRequest(t, "/add-user/a%2Fb", testImage(t))
	req = requestWithChiParams(req, map[string]string{"username": "a/b"})
	recorder := httptest.NewRecorder()

	handler.Add(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "invalid username")
}

func TestAddUser_MissingFile(t *testing.T) {
	store := mock.NewMockStore()
	handler := NewUsersHandler(store, newTestRecognizer(store, nil))

	req := httptest.NewRequest(http.MethodPost, "/add-user/alice", nil)
	req = requestWithChiParams(req, map[string]string{"username": "alice"})
	recorder := httptest.NewRecorder()

	handler.Add(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "file is required")
}

func TestListUsers_Empty(t *testing.T) {
	store := mock.NewMockStore()
	handler := NewUsersHandler(store, newTestRecognizer(store, nil))

	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/users", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var result map[string][]string
	parseJSONResponse(t, recorder, &result)
	if result["users"] == nil || len(result["users"]) != 0 {
		t.Errorf("expected empty users array, got %v", result["users"])
	}
}

func TestListUsers(t *testing.T) {
	store := mock.NewMockStore()
	handler := NewUsersHandler(store, newTestRecognizer(store, nil))

	ctx := httptest.NewRequest(http.MethodGet, "/users", nil).Context()
	if _, err := store.SaveImage(ctx, "alice", "img1.jpg", testImage(t)); err != nil {
		t.Fatalf("failed to save image: %v", err)
	}
	if _, err := store.SaveImage(ctx, "bob", "img1.jpg", testImage(t)); err != nil {
		t.Fatalf("failed to save image: %v", err)
	}

	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/users", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	var result map[string][]string
	parseJSONResponse(t, recorder, &result)
	if len(result["users"]) != 2 {
		t.Errorf("expected 2 users, got %v", result["users"])
	}
}

func TestDeleteUser(t *testing.T) {
	store := mock.NewMockStore()
	handler := NewUsersHandler(store, newTestRecognizer(store, nil))

	req := httptest.NewRequest(http.MethodDelete, "/users/alice", nil)
	if _, err := store.SaveImage(req.Context(), "alice", "img1.jpg", testImage(t)); err != nil {
		t.Fatalf("failed to save image: %v", err)
	}

	req = requestWithChiParams(req, map[string]string{"username": "alice"})
	recorder := httptest.NewRecorder()

	handler.Delete(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var result map[string]string
	parseJSONResponse(t, recorder, &result)
	if result["deleted"] != "alice" {
		t.Errorf("expected deleted user 'alice', got '%s'", result["deleted"])
	}
}

func TestDeleteUser_NotFound(t *testing.T) {
	store := mock.NewMockStore()
	handler := NewUsersHandler(store, newTestRecognizer(store, nil))

	req := httptest.NewRequest(http.MethodDelete, "/users/ghost", nil)
	req = requestWithChiParams(req, map[string]string{"username": "ghost"})
	recorder := httptest.NewRecorder()

	handler.Delete(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
	assertJSONError(t, recorder, "user not found")
}
