package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phambaophuc/image-alt/internal/models"
	"go.uber.org/zap"
)

// Notifier receives user-facing notifications from a tracker.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification)
}

type NotifierFunc func(ctx context.Context, n models.Notification)

func (f NotifierFunc) Notify(ctx context.Context, n models.Notification) {
	f(ctx, n)
}

// MultiNotifier fans a notification out to every non-nil notifier.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, n models.Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}

type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n models.Notification) {
	l.logger.Info("Batch notification",
		zap.String("batch_id", n.BatchID),
		zap.String("kind", string(n.Kind)),
		zap.String("title", n.Title),
		zap.Strings("files", n.Files))
}

func batchFullNotification(limit int) models.Notification {
	return models.Notification{
		Kind:        models.NotificationBatchFull,
		Title:       "Too many files",
		Description: fmt.Sprintf("You can only upload a maximum of %d files at a time.", limit),
		CreatedAt:   time.Now(),
	}
}

func invalidTypeNotification(names []string) models.Notification {
	return models.Notification{
		Kind:        models.NotificationInvalidType,
		Title:       "Invalid file type",
		Description: fmt.Sprintf("Only JPEG and PNG images are supported: %s.", strings.Join(names, ", ")),
		Files:       names,
		CreatedAt:   time.Now(),
	}
}

func failureNotification(reason models.FailureReason, name string, maxFileSize int64) models.Notification {
	n := models.Notification{
		Kind:      models.NotificationKind(reason),
		Files:     []string{name},
		CreatedAt: time.Now(),
	}

	switch reason {
	case models.FailureTooLarge:
		n.Title = "Image Too Large"
		n.Description = fmt.Sprintf("Images cannot be larger than %.0fMB.", float64(maxFileSize)/1000000)
	case models.FailureUploadError:
		n.Title = "Internal Server Error"
		n.Description = "There was an error uploading your image."
	case models.FailureTimeout:
		n.Title = "Captioning timed out"
		n.Description = "The captioning service did not answer in time. Please try again later."
	case models.FailureInvalidType:
		n.Title = "Invalid file type"
		n.Description = "Only JPEG and PNG images are supported."
	default:
		n.Title = "Something went wrong."
		n.Description = "Please try again later."
	}

	return n
}
