package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// Config captures the settings for the S3-compatible media bucket.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicBaseURL is the URL prefix clients use to fetch objects, e.g. a
	// CDN origin. Defaults to the endpoint itself.
	PublicBaseURL string
}

// MediaStore uploads user media (avatars, cover images) to an S3-compatible
// bucket. It implements the absence-on-failure contract: a failed upload
// yields an empty URL, never an error, and the local temp file is always
// removed before returning.
type MediaStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
	log     zerolog.Logger
}

// NewMediaStore constructs a MediaStore from config.
func NewMediaStore(cfg Config, log zerolog.Logger) (*MediaStore, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("media store endpoint is required")
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("media store access key and secret key are required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("media store bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	}

	return &MediaStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: baseURL,
		log:     log,
	}, nil
}

// EnsureBucket ensures the configured bucket exists.
func (m *MediaStore) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
}

// Upload stores the file at localPath under a fresh object key and returns
// its public URL, or "" when the upload fails. The local file is deleted on
// both paths.
func (m *MediaStore) Upload(ctx context.Context, localPath string) string {
	if localPath == "" {
		return ""
	}
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			m.log.Warn().Err(err).Str("path", localPath).Msg("failed to remove temp upload file")
		}
	}()

	ext := filepath.Ext(localPath)
	key := uuid.NewString() + ext

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := m.client.FPutObject(ctx, m.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		m.log.Error().Err(err).Str("path", localPath).Msg("media upload failed")
		return ""
	}

	return fmt.Sprintf("%s/%s/%s", m.baseURL, m.bucket, key)
}

// Healthy reports whether the bucket is reachable.
func (m *MediaStore) Healthy(ctx context.Context) error {
	_, err := m.client.BucketExists(ctx, m.bucket)
	return err
}
