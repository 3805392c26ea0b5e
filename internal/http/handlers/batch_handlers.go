package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-alt/internal/config"
	"github.com/phambaophuc/image-alt/internal/models"
	"github.com/phambaophuc/image-alt/internal/services/tracker"
	"go.uber.org/zap"
)

// BatchHandler exposes one tracker per session: create it, add files, read
// the projection and tear it down.
type BatchHandler struct {
	manager *tracker.Manager
	logger  *zap.Logger
	config  *config.Config
}

func NewBatchHandler(manager *tracker.Manager, logger *zap.Logger, config *config.Config) *BatchHandler {
	return &BatchHandler{
		manager: manager,
		logger:  logger,
		config:  config,
	}
}

func (h *BatchHandler) Create(c *gin.Context) {
	t := h.manager.Create()
	c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Data:    t.Snapshot(),
	})
}

func (h *BatchHandler) AddFiles(c *gin.Context) {
	files, err := h.parseMultipartFiles(c)
	if errors.Is(err, errBodyTooLarge) {
		respondError(c, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	candidates, err := readCandidates(files)
	if err != nil {
		h.logger.Error("Failed to read uploaded files", zap.Error(err))
		respondError(c, http.StatusBadRequest, "Failed to read files")
		return
	}

	t, adm, indexes, err := h.manager.Submit(c.Param("id"), candidates)
	if err != nil {
		h.respondSessionError(c, err)
		return
	}

	resp := admissionResponse(adm, indexes, t.Snapshot())
	if adm.BatchFull {
		c.JSON(http.StatusConflict, models.APIResponse{
			Success: false,
			Data:    resp,
			Error:   adm.Notifications[0].Description,
		})
		return
	}

	c.JSON(http.StatusAccepted, models.APIResponse{
		Success: true,
		Data:    resp,
	})
}

// Get returns the projection. With ?since=N it waits until the batch moves
// past version N or the wait elapses.
func (h *BatchHandler) Get(c *gin.Context) {
	t, err := h.manager.Get(c.Param("id"))
	if err != nil {
		h.respondSessionError(c, err)
		return
	}

	since, wait, err := parseSince(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	view := t.Snapshot()
	if wait {
		ctx, cancel := context.WithTimeout(c.Request.Context(), parseWait(c, h.config.Server.LongPollWait))
		defer cancel()
		view, _ = t.WaitForChange(ctx, since)
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    view,
	})
}

func (h *BatchHandler) Delete(c *gin.Context) {
	if err := h.manager.Close(c.Param("id")); err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.APIResponse{Success: true})
}

func (h *BatchHandler) respondSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tracker.ErrSessionNotFound):
		respondError(c, http.StatusNotFound, "Batch not found")
	case errors.Is(err, tracker.ErrTrackerClosed):
		respondError(c, http.StatusGone, "Batch is closed")
	default:
		h.logger.Error("Batch request failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
