// Package mock provides an in-memory implementation of storage.Store for testing.
package mock

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/kozaktomas/face-locker/internal/constants"
	"github.com/kozaktomas/face-locker/internal/storage"
)

// MockStore is an in-memory implementation of storage.Store.
// References have the form mem://<user>/<filename>.
type MockStore struct {
	mu      sync.RWMutex
	objects map[string][]byte // keyed by "<user>/<filename>" or "<user>/trainer/<filename>"

	// Error injection
	SaveImageError  error
	ListUsersError  error
	ListImagesError error
	SaveModelError  error
	ListModelsError error
	DownloadError   error
	DeleteUserError error
}

const refScheme = "mem://"

// NewMockStore creates a new empty in-memory store
func NewMockStore() *MockStore {
	return &MockStore{
		objects: make(map[string][]byte),
	}
}

// Put adds an object directly to the mock store
func (m *MockStore) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
}

// Keys returns all stored object keys, sorted
func (m *MockStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *MockStore) SaveImage(ctx context.Context, user, filename string, data []byte) (string, error) {
	if m.SaveImageError != nil {
		return "", m.SaveImageError
	}
	key := user + "/" + filename
	m.Put(key, data)
	return refScheme + key, nil
}

func (m *MockStore) ListUsers(ctx context.Context) ([]string, error) {
	if m.ListUsersError != nil {
		return nil, m.ListUsersError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]struct{}{}
	for key := range m.objects {
		if user, _, ok := strings.Cut(key, "/"); ok {
			seen[user] = struct{}{}
		}
	}
	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}

func (m *MockStore) ListUserImages(ctx context.Context, user string) ([]string, error) {
	if m.ListImagesError != nil {
		return nil, m.ListImagesError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	images := []string{}
	for key := range m.objects {
		rest, ok := strings.CutPrefix(key, user+"/")
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		images = append(images, refScheme+key)
	}
	sort.Strings(images)
	return images, nil
}

func (m *MockStore) SaveModel(ctx context.Context, user, filename string, data []byte) (string, error) {
	if m.SaveModelError != nil {
		return "", m.SaveModelError
	}
	key := user + "/" + constants.TrainerDir + "/" + filename
	m.Put(key, data)
	return refScheme + key, nil
}

func (m *MockStore) ListModels(ctx context.Context) ([]storage.ModelRef, error) {
	if m.ListModelsError != nil {
		return nil, m.ListModelsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	models := []storage.ModelRef{}
	for key := range m.objects {
		parts := strings.Split(key, "/")
		if len(parts) == 3 && parts[1] == constants.TrainerDir {
			models = append(models, storage.ModelRef{User: parts[0], Ref: refScheme + key})
		}
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Ref < models[j].Ref })
	return models, nil
}

func (m *MockStore) Download(ctx context.Context, ref string) ([]byte, error) {
	if m.DownloadError != nil {
		return nil, m.DownloadError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := strings.TrimPrefix(ref, refScheme)
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (m *MockStore) DeleteUser(ctx context.Context, user string) error {
	if m.DeleteUserError != nil {
		return m.DeleteUserError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for key := range m.objects {
		if strings.HasPrefix(key, user+"/") {
			delete(m.objects, key)
			found = true
		}
	}
	if !found {
		return storage.ErrUserNotFound
	}
	return nil
}
