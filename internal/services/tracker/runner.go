package tracker

import (
	"context"
	"errors"

	"github.com/phambaophuc/image-alt/internal/models"
	"github.com/phambaophuc/image-alt/internal/services/captioner"
	"github.com/phambaophuc/image-alt/pkg/utils"
	"go.uber.org/zap"
)

type Presigner interface {
	Presign(ctx context.Context, contentType string) (*models.UploadTarget, error)
	FileURL(ctx context.Context, key string) (string, error)
}

type Uploader interface {
	Upload(ctx context.Context, target *models.UploadTarget, name, contentType string, data []byte, progress func(loaded, total int64)) error
}

type Captioner interface {
	Caption(ctx context.Context, imageURL string) (string, error)
}

// CaptionCache remembers finished items by content identity. Lookups return
// nil on a miss.
type CaptionCache interface {
	LookupCaption(ctx context.Context, contentKey string) (*models.CachedCaption, error)
	StoreCaption(ctx context.Context, contentKey string, entry models.CachedCaption) error
}

type RunnerConfig struct {
	Presigner   Presigner
	Uploader    Uploader
	Captioner   Captioner
	Cache       CaptionCache
	MaxFileSize int64
	Logger      *zap.Logger
}

// Runner drives admitted items through upload and captioning, one goroutine
// per item.
type Runner struct {
	presigner   Presigner
	uploader    Uploader
	captioner   Captioner
	cache       CaptionCache
	maxFileSize int64
	logger      *zap.Logger
}

func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		presigner:   cfg.Presigner,
		uploader:    cfg.Uploader,
		captioner:   cfg.Captioner,
		cache:       cfg.Cache,
		maxFileSize: cfg.MaxFileSize,
		logger:      logger,
	}
}

// Submit offers candidates to t and starts a task for each admitted one.
func (r *Runner) Submit(t *Tracker, candidates []Candidate) (Admission, []int, error) {
	adm, indexes, err := t.Add(candidates)
	if err != nil {
		return adm, nil, err
	}

	for i, index := range indexes {
		c := adm.Accepted[i]
		t.Go(func(ctx context.Context) {
			r.Run(ctx, t, index, c)
		})
	}

	return adm, indexes, nil
}

// Run takes one item from pending to a terminal state. Every state change
// goes through t.Apply, which drops updates once t is closed.
func (r *Runner) Run(ctx context.Context, t *Tracker, index int, c Candidate) {
	logger := r.logger.With(
		zap.String("batch_id", t.ID()),
		zap.Int("index", index),
		zap.String("file", c.Name))

	if c.Size() > r.maxFileSize {
		logger.Info("File exceeds size limit", zap.Int64("size", c.Size()), zap.Int64("max", r.maxFileSize))
		r.fail(t, index, c, models.FailureTooLarge)
		return
	}

	contentKey := utils.ContentKey(c.Data)
	if cached := r.lookup(ctx, contentKey, logger); cached != nil {
		location, err := r.presigner.FileURL(ctx, cached.Key)
		if err == nil {
			logger.Info("Cache hit", zap.String("content_key", contentKey))
			t.Apply(index, UploadStarted())
			t.Apply(index, Uploaded(location))
			t.Apply(index, ProcessingStarted())
			t.Apply(index, Succeeded(cached.Caption))
			return
		}
		logger.Warn("Failed to sign cached object, uploading again", zap.Error(err))
	}

	t.Apply(index, UploadStarted())

	target, err := r.upload(ctx, t, index, c)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Warn("Upload failed", zap.Error(err))
		r.fail(t, index, c, models.FailureUploadError)
		return
	}

	if !t.Apply(index, Uploaded(target.GetURL)) || !t.Apply(index, ProcessingStarted()) {
		return
	}

	caption, err := r.captioner.Caption(ctx, target.GetURL)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		reason := models.FailureProcessingError
		if errors.Is(err, captioner.ErrTimeout) {
			reason = models.FailureTimeout
		}
		logger.Warn("Captioning failed", zap.Error(err), zap.String("reason", string(reason)))
		r.fail(t, index, c, reason)
		return
	}

	if !t.Apply(index, Succeeded(caption)) {
		return
	}
	logger.Info("Item captioned")

	if r.cache != nil && target.Key != "" {
		entry := models.CachedCaption{Key: target.Key, Caption: caption}
		if err := r.cache.StoreCaption(ctx, contentKey, entry); err != nil {
			logger.Warn("Failed to cache caption", zap.Error(err))
		}
	}
}

func (r *Runner) upload(ctx context.Context, t *Tracker, index int, c Candidate) (*models.UploadTarget, error) {
	target, err := r.presigner.Presign(ctx, c.ContentType)
	if err != nil {
		return nil, err
	}

	progress := func(loaded, total int64) {
		if total <= 0 {
			return
		}
		t.Apply(index, UploadProgress(int(loaded*100/total)))
	}

	if err := r.uploader.Upload(ctx, target, c.Name, c.ContentType, c.Data, progress); err != nil {
		return nil, err
	}
	return target, nil
}

func (r *Runner) lookup(ctx context.Context, key string, logger *zap.Logger) *models.CachedCaption {
	if r.cache == nil {
		return nil
	}
	cached, err := r.cache.LookupCaption(ctx, key)
	if err != nil {
		logger.Warn("Cache lookup failed", zap.Error(err))
		return nil
	}
	if cached == nil || cached.Caption == "" || cached.Key == "" {
		return nil
	}
	return cached
}

func (r *Runner) fail(t *Tracker, index int, c Candidate, reason models.FailureReason) {
	if t.Apply(index, Failed(reason)) {
		t.Notify(failureNotification(reason, c.Name, r.maxFileSize))
	}
}
