package queue

import (
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/image-alt/internal/models"
)

// NewCaptionJob returns a pending job for imageURL.
func NewCaptionJob(imageURL string) *models.CaptionJob {
	now := time.Now()
	return &models.CaptionJob{
		ID:        uuid.New().String(),
		ImageURL:  imageURL,
		Status:    models.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
