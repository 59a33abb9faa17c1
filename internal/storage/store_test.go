package storage

import (
	"context"
	"testing"

	"github.com/kozaktomas/face-locker/internal/config"
)

func TestNew_DefaultsToLocal(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.DatasetDir = t.TempDir()

	store, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*LocalStore); !ok {
		t.Errorf("expected *LocalStore, got %T", store)
	}
}

func TestNew_S3RequiresBucket(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Backend = "s3"

	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("expected error for s3 backend without bucket")
	}
}

func TestNew_AzureRequiresContainer(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Backend = "azure"

	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("expected error for azure backend without container")
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Backend = "ftp"

	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestJoinKey(t *testing.T) {
	if got := joinKey("", "alice", "img1.jpg"); got != "alice/img1.jpg" {
		t.Errorf("expected 'alice/img1.jpg', got '%s'", got)
	}
	if got := joinKey("locker", "alice", "img1.jpg"); got != "locker/alice/img1.jpg" {
		t.Errorf("expected 'locker/alice/img1.jpg', got '%s'", got)
	}
	if got := joinKey("/locker/", "/alice/", ""); got != "locker/alice" {
		t.Errorf("expected 'locker/alice', got '%s'", got)
	}
}

func TestIsImageFile(t *testing.T) {
	for name, want := range map[string]bool{
		"img1.jpg":    true,
		"img1.JPEG":   true,
		"face.png":    true,
		"model.yml":   false,
		"readme.txt":  false,
		"noextension": false,
	} {
		if got := isImageFile(name); got != want {
			t.Errorf("isImageFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestModelUserFromKey(t *testing.T) {
	if got := modelUserFromKey("locker/alice/trainer/alice_trainer_abc.yml"); got != "alice" {
		t.Errorf("expected 'alice', got '%s'", got)
	}
	if got := modelUserFromKey("alice/trainer/model.yml"); got != "alice" {
		t.Errorf("expected 'alice', got '%s'", got)
	}
	if got := modelUserFromKey("alice/model.yml"); got != "" {
		t.Errorf("expected empty user for non-trainer key, got '%s'", got)
	}
}

func TestParseS3Ref(t *testing.T) {
	bucket, key, err := parseS3Ref("s3://faces/locker/alice/img1.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bucket != "faces" {
		t.Errorf("expected bucket 'faces', got '%s'", bucket)
	}
	if key != "locker/alice/img1.jpg" {
		t.Errorf("expected key 'locker/alice/img1.jpg', got '%s'", key)
	}

	if _, _, err := parseS3Ref("azure://c/b"); err == nil {
		t.Error("expected error for non-s3 reference")
	}
	if _, _, err := parseS3Ref("s3://bucketonly"); err == nil {
		t.Error("expected error for reference without key")
	}
}

func TestParseAzureRef(t *testing.T) {
	container, blob, err := parseAzureRef("azure://faces/alice/trainer/m.yml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if container != "faces" {
		t.Errorf("expected container 'faces', got '%s'", container)
	}
	if blob != "alice/trainer/m.yml" {
		t.Errorf("expected blob 'alice/trainer/m.yml', got '%s'", blob)
	}

	if _, _, err := parseAzureRef("s3://b/k"); err == nil {
		t.Error("expected error for non-azure reference")
	}
}
