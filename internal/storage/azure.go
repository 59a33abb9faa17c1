package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/kozaktomas/face-locker/internal/config"
	"github.com/kozaktomas/face-locker/internal/constants"
)

const azureScheme = "azure://"

// AzureStore stores the dataset in an Azure Blob container.
// References have the form azure://container/blob.
type AzureStore struct {
	client    *azblob.Client
	container string
	prefix    string
}

// NewAzureStore creates an Azure Blob storage backend from a connection
// string, creating the container if it does not exist yet.
func NewAzureStore(ctx context.Context, cfg *config.AzureConfig, prefix string) (*AzureStore, error) {
	if cfg.ConnectionString == "" {
		return nil, fmt.Errorf("AZURE_STORAGE_CONNECTION_STRING is required for the azure backend")
	}

	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("creating azure blob client: %w", err)
	}

	if _, err := client.CreateContainer(ctx, cfg.Container, nil); err != nil {
		if !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			return nil, fmt.Errorf("creating container %s: %w", cfg.Container, err)
		}
	}

	return &AzureStore{
		client:    client,
		container: cfg.Container,
		prefix:    strings.Trim(prefix, "/"),
	}, nil
}

func (s *AzureStore) blobName(parts ...string) string {
	return joinKey(s.prefix, parts...)
}

func (s *AzureStore) ref(name string) string {
	return azureScheme + s.container + "/" + name
}

// parseAzureRef splits an azure://container/blob reference.
func parseAzureRef(ref string) (container, blob string, err error) {
	rest, ok := strings.CutPrefix(ref, azureScheme)
	if !ok {
		return "", "", fmt.Errorf("not an azure reference: %s", ref)
	}
	container, blob, ok = strings.Cut(rest, "/")
	if !ok || container == "" || blob == "" {
		return "", "", fmt.Errorf("malformed azure reference: %s", ref)
	}
	return container, blob, nil
}

// listBlobs returns the names of all blobs under the given prefix.
func (s *AzureStore) listBlobs(ctx context.Context, prefix string) ([]string, error) {
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})

	var names []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing blobs under %s: %w", prefix, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}
	return names, nil
}

func (s *AzureStore) upload(ctx context.Context, name string, data []byte) error {
	if _, err := s.client.UploadBuffer(ctx, s.container, name, data, nil); err != nil {
		return fmt.Errorf("uploading blob %s: %w", name, err)
	}
	return nil
}

func (s *AzureStore) SaveImage(ctx context.Context, user, filename string, data []byte) (string, error) {
	name := s.blobName(user, filename)
	if err := s.upload(ctx, name, data); err != nil {
		return "", err
	}
	return s.ref(name), nil
}

func (s *AzureStore) ListUsers(ctx context.Context) ([]string, error) {
	prefix := ""
	if s.prefix != "" {
		prefix = s.prefix + "/"
	}

	names, err := s.listBlobs(ctx, prefix)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	for _, name := range names {
		rel := strings.TrimPrefix(name, prefix)
		if user, _, ok := strings.Cut(rel, "/"); ok && user != "" {
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

func (s *AzureStore) ListUserImages(ctx context.Context, user string) ([]string, error) {
	names, err := s.listBlobs(ctx, s.blobName(user)+"/")
	if err != nil {
		return nil, err
	}
	images := []string{}
	for _, name := range names {
		if isImageFile(name) {
			images = append(images, s.ref(name))
		}
	}
	sort.Strings(images)
	return images, nil
}

func (s *AzureStore) SaveModel(ctx context.Context, user, filename string, data []byte) (string, error) {
	name := s.blobName(user, constants.TrainerDir, filename)
	if err := s.upload(ctx, name, data); err != nil {
		return "", err
	}
	return s.ref(name), nil
}

func (s *AzureStore) ListModels(ctx context.Context) ([]ModelRef, error) {
	prefix := ""
	if s.prefix != "" {
		prefix = s.prefix + "/"
	}

	names, err := s.listBlobs(ctx, prefix)
	if err != nil {
		return nil, err
	}

	models := []ModelRef{}
	for _, name := range names {
		if !isModelFile(name) {
			continue
		}
		if user := modelUserFromKey(name); user != "" {
			models = append(models, ModelRef{User: user, Ref: s.ref(name)})
		}
	}
	return models, nil
}

func (s *AzureStore) Download(ctx context.Context, ref string) ([]byte, error) {
	container, blob, err := parseAzureRef(ref)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("downloading blob %s: %w", blob, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", blob, err)
	}
	return data, nil
}

func (s *AzureStore) DeleteUser(ctx context.Context, user string) error {
	names, err := s.listBlobs(ctx, s.blobName(user)+"/")
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return ErrUserNotFound
	}

	for _, name := range names {
		if _, err := s.client.DeleteBlob(ctx, s.container, name, nil); err != nil {
			return fmt.Errorf("deleting blob %s: %w", name, err)
		}
	}
	return nil
}
