package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kozaktomas/face-locker/internal/constants"
)

// LocalStore stores the dataset on the local filesystem under a base
// directory. References are absolute file paths.
type LocalStore struct {
	base string
}

// NewLocalStore creates a local storage backend rooted at baseDir,
// creating the directory if needed.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving dataset dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating dataset dir: %w", err)
	}
	return &LocalStore{base: abs}, nil
}

func (s *LocalStore) userDir(user string) string {
	return filepath.Join(s.base, user)
}

func (s *LocalStore) SaveImage(ctx context.Context, user, filename string, data []byte) (string, error) {
	dir := s.userDir(user)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating user dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	return path, nil
}

func (s *LocalStore) ListUsers(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.base)
	if err != nil {
		return nil, fmt.Errorf("reading dataset dir: %w", err)
	}
	users := []string{}
	for _, e := range entries {
		if e.IsDir() {
			users = append(users, e.Name())
		}
	}
	sort.Strings(users)
	return users, nil
}

func (s *LocalStore) ListUserImages(ctx context.Context, user string) ([]string, error) {
	dir := s.userDir(user)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("reading user dir: %w", err)
	}
	images := []string{}
	for _, e := range entries {
		if !e.IsDir() && isImageFile(e.Name()) {
			images = append(images, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(images)
	return images, nil
}

func (s *LocalStore) SaveModel(ctx context.Context, user, filename string, data []byte) (string, error) {
	dir := filepath.Join(s.userDir(user), constants.TrainerDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating trainer dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing model: %w", err)
	}
	return path, nil
}

func (s *LocalStore) ListModels(ctx context.Context) ([]ModelRef, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	models := []ModelRef{}
	for _, user := range users {
		dir := filepath.Join(s.userDir(user), constants.TrainerDir)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading trainer dir: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() && isModelFile(e.Name()) {
				models = append(models, ModelRef{User: user, Ref: filepath.Join(dir, e.Name())})
			}
		}
	}
	return models, nil
}

func (s *LocalStore) Download(ctx context.Context, ref string) ([]byte, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading %s: %w", ref, err)
	}
	return data, nil
}

func (s *LocalStore) DeleteUser(ctx context.Context, user string) error {
	dir := s.userDir(user)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return ErrUserNotFound
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing user dir: %w", err)
	}
	return nil
}
