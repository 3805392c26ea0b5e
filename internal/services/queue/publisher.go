package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phambaophuc/image-alt/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// PublishJob records job as pending and queues it for a worker.
func (q *QueueService) PublishJob(ctx context.Context, job *models.CaptionJob) error {
	if err := q.jobs.SaveJob(ctx, job); err != nil {
		return fmt.Errorf("failed to store job: %w", err)
	}

	if err := q.publish(q.queueName, job); err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	q.logger.Info("Job published to queue", zap.String("job_id", job.ID))
	return nil
}

// Notify forwards a batch notification to the notification queue. Failures
// are logged; notifications are best effort.
func (q *QueueService) Notify(_ context.Context, n models.Notification) {
	if err := q.publish(q.notificationQueue, n); err != nil {
		q.logger.Warn("Failed to publish notification",
			zap.String("batch_id", n.BatchID),
			zap.String("kind", string(n.Kind)),
			zap.Error(err))
	}
}

func (q *QueueService) publish(queueName string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	return q.channel.Publish(
		"",        // exchange
		queueName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}
