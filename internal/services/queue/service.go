package queue

import (
	"context"
	"fmt"

	"github.com/phambaophuc/image-alt/internal/config"
	"github.com/phambaophuc/image-alt/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

type Captioner interface {
	Caption(ctx context.Context, imageURL string) (string, error)
}

type JobStore interface {
	SaveJob(ctx context.Context, job *models.CaptionJob) error
}

// QueueService carries async caption jobs and batch notifications over
// RabbitMQ.
type QueueService struct {
	conn              *amqp.Connection
	channel           *amqp.Channel
	logger            *zap.Logger
	queueName         string
	notificationQueue string
	captioner         Captioner
	jobs              JobStore
}

func NewQueueService(
	cfg config.RabbitMQConfig,
	captioner Captioner,
	jobs JobStore,
	logger *zap.Logger,
) (*QueueService, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	for _, name := range []string{cfg.CaptionQueue, cfg.NotificationQueue} {
		_, err = channel.QueueDeclare(
			name,  // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			channel.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to declare queue %s: %w", name, err)
		}
	}

	return &QueueService{
		conn:              conn,
		channel:           channel,
		logger:            logger,
		queueName:         cfg.CaptionQueue,
		notificationQueue: cfg.NotificationQueue,
		captioner:         captioner,
		jobs:              jobs,
	}, nil
}

// Close closes the queue connection
func (q *QueueService) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
	return nil
}
