package bootstrap

import (
	"github.com/phambaophuc/image-alt/internal/config"
	"github.com/phambaophuc/image-alt/internal/services/tracker"
	"go.uber.org/zap"
)

type Services struct {
	Runner  *tracker.Runner
	Manager *tracker.Manager
}

func NewServices(cfg *config.Config, infra *Infrastructure, logger *zap.Logger) *Services {
	runner := tracker.NewRunner(tracker.RunnerConfig{
		Presigner:   infra.Storage,
		Uploader:    infra.Uploader,
		Captioner:   infra.Captioner,
		Cache:       infra.Storage,
		MaxFileSize: cfg.Batch.MaxFileSize,
		Logger:      logger,
	})

	notifiers := tracker.MultiNotifier{tracker.NewLogNotifier(logger)}
	if infra.Queue != nil {
		notifiers = append(notifiers, infra.Queue)
	}

	manager := tracker.NewManager(tracker.ManagerConfig{
		Policy:            Policy(cfg),
		NotificationLimit: cfg.Batch.NotificationLimit,
		SessionTTL:        cfg.Batch.SessionTTL,
		Notifier:          notifiers,
		Preview:           Preview(infra),
		Logger:            logger,
	}, runner)

	return &Services{Runner: runner, Manager: manager}
}

func Policy(cfg *config.Config) tracker.Policy {
	return tracker.Policy{
		MaxBatchSize: cfg.Batch.MaxBatchSize,
		MaxFileSize:  cfg.Batch.MaxFileSize,
		AllowedTypes: cfg.Batch.AllowedTypes,
	}
}

func Preview(infra *Infrastructure) tracker.PreviewFunc {
	return func(c tracker.Candidate) string {
		return infra.Processor.Preview(c.Name, c.Data)
	}
}
