package queue

import (
	"context"
	"fmt"

	"github.com/phambaophuc/image-alt/internal/models"
)

func (q *QueueService) processJob(ctx context.Context, job *models.CaptionJob) (string, error) {
	if job.ImageURL == "" {
		return "", fmt.Errorf("job %s has no image url", job.ID)
	}

	caption, err := q.captioner.Caption(ctx, job.ImageURL)
	if err != nil {
		return "", fmt.Errorf("failed to caption image: %w", err)
	}
	return caption, nil
}
