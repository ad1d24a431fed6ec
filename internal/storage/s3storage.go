package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Storage implements MasterStorage on an S3 compatible object store.
// Objects are stored as <prefix>/<location>/<name>.
type S3Storage struct {
	api      *minio.Client
	bucket   string
	prefix   string
	location string
	policy   ConflictPolicy
	logger   *slog.Logger
}

// NewS3Storage creates a client for the configured bucket
func NewS3Storage(cfg S3Config, location string, policy ConflictPolicy, logger *slog.Logger) (*S3Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return &S3Storage{
		api:      client,
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		location: location,
		policy:   policy,
		logger:   logger,
	}, nil
}

func (s *S3Storage) key(name string) string {
	return path.Join(s.prefix, s.location, name)
}

func (s *S3Storage) Put(ctx context.Context, sourcePath, name string) (string, error) {
	key := s.key(name)

	if s.policy != ConflictPolicyOverwrite {
		exists, err := s.Exists(ctx, name)
		if err != nil {
			return "", err
		}
		if exists {
			return "", fmt.Errorf("%w: s3://%s/%s", ErrDestinationConflict, s.bucket, key)
		}
	}

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(sourcePath); err == nil {
		contentType = mt.String()
	}

	info, err := s.api.FPutObject(ctx, s.bucket, key, sourcePath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}

	s.logger.Debug("uploaded image",
		"bucket", s.bucket,
		"key", key,
		"size", info.Size,
	)
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

func (s *S3Storage) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.api.StatObject(ctx, s.bucket, s.key(name), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", name, err)
}

func (s *S3Storage) Remove(ctx context.Context, name string) error {
	if err := s.api.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}
