package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kozaktomas/face-locker/internal/config"
	"github.com/kozaktomas/face-locker/internal/constants"
)

const s3Scheme = "s3://"

// S3Store stores the dataset in an AWS S3 bucket.
// References have the form s3://bucket/key.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store creates an S3 storage backend. Static credentials from the
// configuration take precedence; otherwise the default AWS credential
// chain applies.
func NewS3Store(ctx context.Context, cfg *config.S3Config, prefix string) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &S3Store{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

// NewS3StoreWithClient creates an S3 storage backend around an existing
// client. Used by integration tests that point the client at MinIO.
func NewS3StoreWithClient(client *s3.Client, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (s *S3Store) key(parts ...string) string {
	return joinKey(s.prefix, parts...)
}

func (s *S3Store) ref(key string) string {
	return s3Scheme + s.bucket + "/" + key
}

// parseS3Ref splits an s3://bucket/key reference.
func parseS3Ref(ref string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(ref, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("not an s3 reference: %s", ref)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed s3 reference: %s", ref)
	}
	return bucket, key, nil
}

func (s *S3Store) put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("putting s3 object %s: %w", key, err)
	}
	return nil
}

// listKeys returns all object keys under the given prefix.
func (s *S3Store) listKeys(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing s3 objects under %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

func (s *S3Store) SaveImage(ctx context.Context, user, filename string, data []byte) (string, error) {
	key := s.key(user, filename)
	if err := s.put(ctx, key, data); err != nil {
		return "", err
	}
	return s.ref(key), nil
}

func (s *S3Store) ListUsers(ctx context.Context) ([]string, error) {
	prefix := ""
	if s.prefix != "" {
		prefix = s.prefix + "/"
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	seen := map[string]struct{}{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing s3 users: %w", err)
		}
		for _, common := range page.CommonPrefixes {
			rel := strings.Trim(strings.TrimPrefix(aws.ToString(common.Prefix), prefix), "/")
			if rel != "" {
				seen[rel] = struct{}{}
			}
		}
	}

	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}

func (s *S3Store) ListUserImages(ctx context.Context, user string) ([]string, error) {
	keys, err := s.listKeys(ctx, s.key(user)+"/")
	if err != nil {
		return nil, err
	}
	images := []string{}
	for _, key := range keys {
		if isImageFile(key) {
			images = append(images, s.ref(key))
		}
	}
	sort.Strings(images)
	return images, nil
}

func (s *S3Store) SaveModel(ctx context.Context, user, filename string, data []byte) (string, error) {
	key := s.key(user, constants.TrainerDir, filename)
	if err := s.put(ctx, key, data); err != nil {
		return "", err
	}
	return s.ref(key), nil
}

func (s *S3Store) ListModels(ctx context.Context) ([]ModelRef, error) {
	prefix := ""
	if s.prefix != "" {
		prefix = s.prefix + "/"
	}
	keys, err := s.listKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	models := []ModelRef{}
	for _, key := range keys {
		if !isModelFile(key) {
			continue
		}
		if user := modelUserFromKey(key); user != "" {
			models = append(models, ModelRef{User: user, Ref: s.ref(key)})
		}
	}
	return models, nil
}

func (s *S3Store) Download(ctx context.Context, ref string) ([]byte, error) {
	bucket, key, err := parseS3Ref(ref)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting s3 object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading s3 object %s: %w", key, err)
	}
	return data, nil
}

func (s *S3Store) DeleteUser(ctx context.Context, user string) error {
	keys, err := s.listKeys(ctx, s.key(user)+"/")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return ErrUserNotFound
	}

	// DeleteObjects accepts at most 1000 keys per call.
	for start := 0; start < len(keys); start += 1000 {
		end := min(start+1000, len(keys))
		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, key := range keys[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
		}
		_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects},
		})
		if err != nil {
			return fmt.Errorf("deleting s3 objects for %s: %w", user, err)
		}
	}
	return nil
}
