package storage

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/visually/visually-api/internal/domain/entities"
	"github.com/visually/visually-api/pkg/config"
)

const audioPrefix = "audio/"

// MinIOClient wraps S3-compatible object storage operations
type MinIOClient struct {
	client    *minio.Client
	bucket    string
	region    string
	publicURL string        // Public URL for generating accessible URLs (e.g., https://minio.example.com)
	urlExpiry time.Duration // Lifetime of presigned URLs handed to the render service
	logger    *zap.Logger
}

// NewMinIOClient creates a new MinIO client. It does not contact the server;
// call EnsureBucket before first use.
func NewMinIOClient(cfg *config.StorageConfig, logger *zap.Logger) (*MinIOClient, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}

	return &MinIOClient{
		client:    minioClient,
		bucket:    cfg.BucketName,
		region:    cfg.Region,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		urlExpiry: expiry,
		logger:    logger,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (m *MinIOClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	if m.logger != nil {
		m.logger.Info("🪣 Bucket created", zap.String("bucket", m.bucket))
	}
	return nil
}

// Upload stores a local file under a fresh key and returns a presigned
// location the render service can download it from
func (m *MinIOClient) Upload(ctx context.Context, localPath string) (entities.StoredObject, error) {
	key := ObjectKey(localPath)

	info, err := m.client.FPutObject(ctx, m.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentTypeFor(localPath),
	})
	if err != nil {
		return entities.StoredObject{}, fmt.Errorf("failed to upload file: %w", err)
	}

	location, err := m.GetFileURL(ctx, key, m.urlExpiry)
	if err != nil {
		return entities.StoredObject{}, err
	}

	if m.logger != nil {
		m.logger.Debug("object uploaded",
			zap.String("bucket", m.bucket),
			zap.String("key", key),
			zap.Int64("size", info.Size),
		)
	}
	return entities.StoredObject{Location: location, Key: key}, nil
}

// Delete removes an object
func (m *MinIOClient) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// GetFileURL gets a presigned URL for accessing a file
func (m *MinIOClient) GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	presigned, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return rewriteHost(presigned, m.publicURL)
}

// Check verifies the bucket is reachable
func (m *MinIOClient) Check(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", m.bucket)
	}
	return nil
}

// ObjectKey builds a unique key for a staged audio file
func ObjectKey(localPath string) string {
	return audioPrefix + uuid.NewString() + "-" + filepath.Base(localPath)
}

// rewriteHost replaces the scheme and host of u with those of publicURL.
// Useful when MinIO sits behind a reverse proxy.
func rewriteHost(u *url.URL, publicURL string) (string, error) {
	if publicURL == "" {
		return u.String(), nil
	}
	public, err := url.Parse(publicURL)
	if err != nil {
		return "", fmt.Errorf("invalid public URL: %w", err)
	}
	rewritten := *u
	rewritten.Scheme = public.Scheme
	rewritten.Host = public.Host
	rewritten.Path = strings.TrimSuffix(public.Path, "/") + u.Path
	return rewritten.String(), nil
}

func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
