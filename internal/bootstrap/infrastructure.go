package bootstrap

import (
	"github.com/phambaophuc/image-alt/internal/config"
	"github.com/phambaophuc/image-alt/internal/services/captioner"
	"github.com/phambaophuc/image-alt/internal/services/processor"
	"github.com/phambaophuc/image-alt/internal/services/queue"
	"github.com/phambaophuc/image-alt/internal/services/storage"
	"go.uber.org/zap"
)

type Infrastructure struct {
	Storage   *storage.StorageService
	Uploader  *storage.Uploader
	Captioner *captioner.Client
	Processor *processor.ImageProcessor
	// Queue is nil when RABBITMQ_URL is unset or unreachable.
	Queue *queue.QueueService
}

func NewInfrastructure(cfg *config.Config, logger *zap.Logger) (*Infrastructure, error) {
	infra := &Infrastructure{}

	storageService, err := storage.NewStorageService(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage service", zap.Error(err))
		return nil, err
	}
	infra.Storage = storageService
	infra.Uploader = storage.NewUploader(nil)

	infra.Captioner = captioner.NewClient(captioner.Config{
		APIURL:       cfg.Replicate.APIURL,
		Token:        cfg.Replicate.Token,
		ModelVersion: cfg.Replicate.ModelVersion,
		PollInterval: cfg.Replicate.PollInterval,
		MaxWait:      cfg.Replicate.MaxWait,
		Logger:       logger,
	})

	infra.Processor = processor.NewImageProcessor(cfg.Batch.MaxFileSize, logger)

	if cfg.RabbitMQ.URL == "" {
		logger.Info("RABBITMQ_URL not set, async jobs disabled")
		return infra, nil
	}
	queueService, err := queue.NewQueueService(cfg.RabbitMQ, infra.Captioner, storageService, logger)
	if err != nil {
		// Continue without queue service for basic functionality
		logger.Warn("Failed to initialize queue service", zap.Error(err))
	} else {
		infra.Queue = queueService
	}

	return infra, nil
}

func (i *Infrastructure) Shutdown() error {
	if i.Queue != nil {
		i.Queue.Close()
	}
	return i.Storage.Close()
}
