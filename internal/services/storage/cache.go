package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/patrickmn/go-cache"
	"github.com/phambaophuc/image-alt/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	captionCachePrefix = "alt_cache:"
	jobKeyPrefix       = "caption_job:"
)

var ErrJobNotFound = errors.New("caption job not found")

func (s *StorageService) GetFromCache(ctx context.Context, cacheKey string) ([]byte, error) {
	if s.redisClient == nil {
		return nil, nil
	}
	data, err := s.redisClient.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}
	return data, nil
}

func (s *StorageService) SetCache(ctx context.Context, cacheKey string, data []byte) error {
	if s.redisClient == nil {
		return nil
	}
	return s.redisClient.Set(ctx, cacheKey, data, s.cacheDuration).Err()
}

// LookupCaption returns the cached result for a content key, or nil on a
// miss. The in-process cache is consulted before redis.
func (s *StorageService) LookupCaption(ctx context.Context, contentKey string) (*models.CachedCaption, error) {
	key := captionCachePrefix + contentKey
	if v, ok := s.l1.Get(key); ok {
		if entry, ok := v.(models.CachedCaption); ok {
			return &entry, nil
		}
	}

	data, err := s.GetFromCache(ctx, key)
	if err != nil || data == nil {
		return nil, err
	}

	var entry models.CachedCaption
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cached caption: %w", err)
	}
	s.l1.Set(key, entry, cache.DefaultExpiration)
	return &entry, nil
}

func (s *StorageService) StoreCaption(ctx context.Context, contentKey string, entry models.CachedCaption) error {
	key := captionCachePrefix + contentKey
	s.l1.Set(key, entry, cache.DefaultExpiration)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode caption: %w", err)
	}
	return s.SetCache(ctx, key, data)
}

// SaveJob records an async caption job.
func (s *StorageService) SaveJob(ctx context.Context, job *models.CaptionJob) error {
	key := jobKeyPrefix + job.ID
	s.l1.Set(key, *job, s.cacheDuration)

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	return s.SetCache(ctx, key, data)
}

func (s *StorageService) GetJob(ctx context.Context, id string) (*models.CaptionJob, error) {
	key := jobKeyPrefix + id
	if v, ok := s.l1.Get(key); ok {
		if job, ok := v.(models.CaptionJob); ok {
			return &job, nil
		}
	}

	data, err := s.GetFromCache(ctx, key)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrJobNotFound
	}

	var job models.CaptionJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	return &job, nil
}
