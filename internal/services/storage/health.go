package storage

import (
	"context"
)

// HealthCheck checks Redis + S3
func (s *StorageService) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	// Redis
	if s.redisClient == nil {
		status["redis"] = "not configured"
	} else if err := s.redisClient.Ping(ctx).Err(); err != nil {
		status["redis"] = "unhealthy: " + err.Error()
	} else {
		status["redis"] = "healthy"
	}

	// S3 bucket check
	if s.bucket == "" {
		status["s3"] = "not configured"
		return status
	}
	exists, err := s.s3Client.BucketExists(ctx, s.bucket)
	switch {
	case err != nil:
		status["s3"] = "unhealthy: " + err.Error()
	case !exists:
		status["s3"] = "unhealthy: bucket " + s.bucket + " not found"
	default:
		status["s3"] = "healthy"
	}

	return status
}
