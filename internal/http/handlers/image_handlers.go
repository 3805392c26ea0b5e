package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-alt/internal/config"
	"github.com/phambaophuc/image-alt/internal/models"
	"github.com/phambaophuc/image-alt/internal/services/captioner"
	"github.com/phambaophuc/image-alt/internal/services/queue"
	"github.com/phambaophuc/image-alt/internal/services/storage"
	"go.uber.org/zap"
)

type ImageStorage interface {
	Presign(ctx context.Context, contentType string) (*models.UploadTarget, error)
	FileURL(ctx context.Context, key string) (string, error)
	GetJob(ctx context.Context, id string) (*models.CaptionJob, error)
	HealthCheck(ctx context.Context) map[string]string
}

type Captioner interface {
	Caption(ctx context.Context, imageURL string) (string, error)
}

type JobQueue interface {
	PublishJob(ctx context.Context, job *models.CaptionJob) error
	HealthCheck() string
}

type ImageHandler struct {
	storage   ImageStorage
	captioner Captioner
	queue     JobQueue
	logger    *zap.Logger
	config    *config.Config
}

// NewImageHandler builds the handler. queue may be nil, which disables the
// async endpoints.
func NewImageHandler(
	storage ImageStorage,
	captioner Captioner,
	queue JobQueue,
	logger *zap.Logger,
	config *config.Config,
) *ImageHandler {
	return &ImageHandler{
		storage:   storage,
		captioner: captioner,
		queue:     queue,
		logger:    logger,
		config:    config,
	}
}

// === MAIN API ENDPOINTS ===

func (h *ImageHandler) Presign(c *gin.Context) {
	var req models.PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FileType == "" {
		respondError(c, http.StatusBadRequest, "fileType is required")
		return
	}

	target, err := h.storage.Presign(c.Request.Context(), req.FileType)
	switch {
	case errors.Is(err, storage.ErrInvalidFileType):
		respondError(c, http.StatusUnsupportedMediaType, "Invalid file type: "+req.FileType)
		return
	case err != nil:
		h.logger.Error("Failed to presign upload", zap.String("file_type", req.FileType), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to create upload target")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    target,
	})
}

func (h *ImageHandler) FileURL(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		respondError(c, http.StatusBadRequest, "key is required")
		return
	}

	fileURL, err := h.storage.FileURL(c.Request.Context(), key)
	if err != nil {
		h.logger.Error("Failed to sign file url", zap.String("key", key), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to create file url")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    models.FileURLResponse{FileURL: fileURL},
	})
}

// Process captions an already uploaded image and waits for the result.
func (h *ImageHandler) Process(c *gin.Context) {
	var req models.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "imageUrl must be a valid url")
		return
	}

	alt, err := h.captioner.Caption(c.Request.Context(), req.ImageURL)
	if err != nil {
		status, message := captionErrorStatus(err)
		h.logger.Warn("Captioning failed", zap.String("image_url", req.ImageURL), zap.Error(err))
		c.JSON(status, models.APIResponse{
			Success: false,
			Data:    models.ImageResponseData{Success: false, Message: message},
			Error:   message,
		})
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data: models.ImageResponseData{
			Success: true,
			Alt:     alt,
			Message: "Alt text generated",
		},
	})
}

func (h *ImageHandler) ProcessAsync(c *gin.Context) {
	if h.queue == nil {
		respondError(c, http.StatusServiceUnavailable, "Async processing is not available")
		return
	}

	var req models.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "imageUrl must be a valid url")
		return
	}

	job := queue.NewCaptionJob(req.ImageURL)
	if err := h.queue.PublishJob(c.Request.Context(), job); err != nil {
		h.logger.Error("Failed to queue caption job", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to queue job")
		return
	}

	c.JSON(http.StatusAccepted, models.APIResponse{
		Success: true,
		Data:    job,
	})
}

func (h *ImageHandler) GetJob(c *gin.Context) {
	job, err := h.storage.GetJob(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, storage.ErrJobNotFound):
		respondError(c, http.StatusNotFound, "Job not found")
		return
	case err != nil:
		h.logger.Error("Failed to load job", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to load job")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    job,
	})
}

// HealthCheck
func (h *ImageHandler) HealthCheck(c *gin.Context) {
	services := h.storage.HealthCheck(c.Request.Context())
	if h.queue != nil {
		services["rabbitmq"] = h.queue.HealthCheck()
	} else {
		services["rabbitmq"] = "not configured"
	}
	overall := calculateOverallHealth(services)

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: time.Now(),
			Services:  services,
		},
	})
}

func captionErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, captioner.ErrTimeout):
		return http.StatusGatewayTimeout, "Captioning timed out"
	case errors.Is(err, context.Canceled):
		return 499, "Request cancelled"
	default:
		return http.StatusBadGateway, "Something went wrong."
	}
}
