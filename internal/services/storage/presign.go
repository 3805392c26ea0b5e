package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/phambaophuc/image-alt/internal/models"
	"github.com/phambaophuc/image-alt/pkg/utils"
	"go.uber.org/zap"
)

// Presign issues a short-lived POST policy for one object of contentType and
// a signed GET URL to read it back.
func (s *StorageService) Presign(ctx context.Context, contentType string) (*models.UploadTarget, error) {
	if !utils.IsAllowedType(contentType, s.allowedTypes) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFileType, contentType)
	}
	if s.bucket == "" {
		return nil, fmt.Errorf("%w: S3_BUCKET_NAME is undefined", ErrNotConfigured)
	}

	key := utils.GenerateStorageKey(contentType)

	policy := minio.NewPostPolicy()
	if err := policy.SetBucket(s.bucket); err != nil {
		return nil, err
	}
	if err := policy.SetKey(key); err != nil {
		return nil, err
	}
	if err := policy.SetExpires(time.Now().UTC().Add(s.presignExpiry)); err != nil {
		return nil, err
	}
	if err := policy.SetContentLengthRange(1, s.maxFileSize); err != nil {
		return nil, err
	}
	if err := policy.SetContentTypeStartsWith("image/"); err != nil {
		return nil, err
	}

	postURL, fields, err := s.s3Client.PresignedPostPolicy(ctx, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned POST: %w", err)
	}

	getURL, err := s.FileURL(ctx, key)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Upload target issued", zap.String("key", key), zap.String("content_type", contentType))

	return &models.UploadTarget{
		PostURL: postURL.String(),
		GetURL:  getURL,
		Fields:  fields,
		Key:     key,
	}, nil
}

// FileURL returns a signed GET URL for key.
func (s *StorageService) FileURL(ctx context.Context, key string) (string, error) {
	if s.bucket == "" {
		return "", fmt.Errorf("%w: S3_BUCKET_NAME is undefined", ErrNotConfigured)
	}
	u, err := s.s3Client.PresignedGetObject(ctx, s.bucket, key, s.getURLExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned GET: %w", err)
	}
	return u.String(), nil
}
