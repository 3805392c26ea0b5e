package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/patrickmn/go-cache"
	"github.com/phambaophuc/image-alt/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrNotConfigured   = errors.New("object storage is not configured")
	ErrUploadRejected  = errors.New("upload rejected by storage")
)

type StorageService struct {
	s3Client      *minio.Client
	redisClient   *redis.Client
	l1            *cache.Cache
	bucket        string
	presignExpiry time.Duration
	getURLExpiry  time.Duration
	maxFileSize   int64
	allowedTypes  []string
	cacheDuration time.Duration
	logger        *zap.Logger
}

func NewStorageService(cfg *config.Config, logger *zap.Logger) (*StorageService, error) {
	s3Client, err := minio.New(cfg.S3.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, ""),
		Secure: cfg.S3.UseSSL,
		Region: cfg.S3.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	} else {
		logger.Warn("REDIS_ADDR not set, caching in process only")
	}

	return &StorageService{
		s3Client:      s3Client,
		redisClient:   redisClient,
		l1:            cache.New(5*time.Minute, 10*time.Minute),
		bucket:        cfg.S3.Bucket,
		presignExpiry: cfg.S3.PresignExpiry,
		getURLExpiry:  cfg.S3.GetURLExpiry,
		maxFileSize:   cfg.Batch.MaxFileSize,
		allowedTypes:  cfg.Batch.AllowedTypes,
		cacheDuration: cfg.Redis.CacheDuration,
		logger:        logger,
	}, nil
}

// Close releases the redis connection pool.
func (s *StorageService) Close() error {
	if s.redisClient != nil {
		return s.redisClient.Close()
	}
	return nil
}
