// Package storage provides the pluggable dataset storage layer. Enrolled
// face images and trained model files live in a single configured backend:
// local filesystem, AWS S3, or Azure Blob. The backend is selected once at
// startup and every reference it hands out is self-describing (a plain path
// for local storage, s3://bucket/key or azure://container/blob otherwise).
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/kozaktomas/face-locker/internal/config"
	"github.com/kozaktomas/face-locker/internal/constants"
)

var (
	// ErrNotFound is returned when a referenced object does not exist
	ErrNotFound = errors.New("object not found")

	// ErrUserNotFound is returned when deleting a user with no stored data
	ErrUserNotFound = errors.New("user not found")
)

// ModelRef points at a trained model file for a user
type ModelRef struct {
	User string `json:"user"`
	Ref  string `json:"ref"`
}

// Store is the uniform contract implemented by every storage backend.
// Images are stored under <prefix>/<user>/<filename>, trained models under
// <prefix>/<user>/trainer/<filename>. Listings are sorted.
type Store interface {
	// SaveImage stores an enrolled face image and returns its reference.
	SaveImage(ctx context.Context, user, filename string, data []byte) (string, error)

	// ListUsers returns the names of all users with stored data.
	ListUsers(ctx context.Context) ([]string, error)

	// ListUserImages returns references to a user's enrolled images.
	// Returns an empty slice for unknown users.
	ListUserImages(ctx context.Context, user string) ([]string, error)

	// SaveModel stores a trained model file and returns its reference.
	SaveModel(ctx context.Context, user, filename string, data []byte) (string, error)

	// ListModels returns references to all trained model files.
	ListModels(ctx context.Context) ([]ModelRef, error)

	// Download fetches the content behind a reference previously returned
	// by this store. Returns ErrNotFound for missing objects.
	Download(ctx context.Context, ref string) ([]byte, error)

	// DeleteUser removes all stored data for a user.
	// Returns ErrUserNotFound when nothing was stored.
	DeleteUser(ctx context.Context, user string) error
}

// New selects and constructs the configured storage backend.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Backend {
	case constants.S3Backend:
		if cfg.S3.Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET is required for the s3 backend")
		}
		return NewS3Store(ctx, &cfg.S3, cfg.Storage.Prefix)
	case constants.AzureBackend:
		if cfg.Azure.Container == "" {
			return nil, errors.New("AZURE_CONTAINER_NAME is required for the azure backend")
		}
		return NewAzureStore(ctx, &cfg.Azure, cfg.Storage.Prefix)
	case constants.LocalBackend, "":
		return NewLocalStore(cfg.Storage.DatasetDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// joinKey builds an object key from non-empty parts under an optional prefix.
func joinKey(prefix string, parts ...string) string {
	all := make([]string, 0, len(parts)+1)
	if prefix != "" {
		all = append(all, strings.Trim(prefix, "/"))
	}
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			all = append(all, p)
		}
	}
	return strings.Join(all, "/")
}

// isImageFile reports whether a filename has a supported image extension.
func isImageFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// isModelFile reports whether a filename is a serialized model file.
func isModelFile(name string) bool {
	return strings.EqualFold(path.Ext(name), constants.ModelExtension)
}

// modelUserFromKey extracts the user name from a model object key of the
// form <...>/<user>/trainer/<file>. Returns empty string if the key does
// not follow the layout.
func modelUserFromKey(key string) string {
	parts := strings.Split(key, "/")
	if len(parts) >= 3 && parts[len(parts)-2] == constants.TrainerDir {
		return parts[len(parts)-3]
	}
	return ""
}
