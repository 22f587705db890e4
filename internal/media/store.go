// Package media stores uploaded post attachments in an object store and
// hands back a retrievable URL plus the resource kind.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/emilythestrangee/community-forum/backend/internal/config"
	"github.com/emilythestrangee/community-forum/backend/internal/models"
)

// Store uploads one file and returns its public URL and kind (Image|Video).
type Store interface {
	Upload(ctx context.Context, name string, contentType string, size int64, r io.Reader) (*models.PostMedia, error)
}

// MinioStore keeps attachments in a MinIO bucket.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

func NewMinioStore(cfg config.MinIO) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}

	store := &MinioStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: fmt.Sprintf("%s://%s", scheme, cfg.Endpoint),
	}
	if err := store.ensureBucket(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *MinioStore) ensureBucket() error {
	ctx := context.Background()
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

func (s *MinioStore) Upload(ctx context.Context, name string, contentType string, size int64, r io.Reader) (*models.PostMedia, error) {
	objectKey := uuid.NewString() + path.Ext(name)

	_, err := s.client.PutObject(ctx, s.bucket, objectKey, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: media upload failed", models.ErrDependency)
	}

	return &models.PostMedia{
		URL:  fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, objectKey),
		Kind: KindFromContentType(contentType),
	}, nil
}

// KindFromContentType maps a MIME type onto the stored media kind.
func KindFromContentType(contentType string) string {
	if strings.HasPrefix(contentType, "video") {
		return models.MediaVideo
	}
	return models.MediaImage
}
