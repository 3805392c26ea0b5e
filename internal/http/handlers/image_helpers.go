package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-alt/internal/models"
	"github.com/phambaophuc/image-alt/internal/services/tracker"
)

const imagesParamKey = "images"

var errBodyTooLarge = errors.New("request body too large")

// === REQUEST PARSING ===

func (h *BatchHandler) parseMultipartFiles(c *gin.Context) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, errBodyTooLarge
		}
		return nil, fmt.Errorf("failed to parse form data: %v", err)
	}

	files := form.File[imagesParamKey]
	if len(files) == 0 {
		return nil, fmt.Errorf("no images provided")
	}

	return files, nil
}

// readCandidates loads every uploaded file in form order. Nothing is
// filtered here; admission decides.
func readCandidates(files []*multipart.FileHeader) ([]tracker.Candidate, error) {
	candidates := make([]tracker.Candidate, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		candidates = append(candidates, tracker.Candidate{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return candidates, nil
}

// parseSince returns the client's last seen version, or false when the
// request is a plain read.
func parseSince(c *gin.Context) (uint64, bool, error) {
	raw, ok := c.GetQuery("since")
	if !ok {
		return 0, false, nil
	}
	since, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid since: must be a version number")
	}
	return since, true, nil
}

func parseWait(c *gin.Context, max time.Duration) time.Duration {
	raw := c.Query("wait")
	if raw == "" {
		return max
	}
	wait, err := time.ParseDuration(raw)
	if err != nil || wait <= 0 || wait > max {
		return max
	}
	return wait
}

// === RESPONSE HANDLING ===

func respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

func admissionResponse(adm tracker.Admission, indexes []int, view models.BatchView) models.AdmissionResponse {
	resp := models.AdmissionResponse{
		Admitted:      indexes,
		Notifications: adm.Notifications,
		Batch:         view,
	}
	if resp.Admitted == nil {
		resp.Admitted = []int{}
	}
	for _, c := range adm.Rejected {
		resp.Rejected = append(resp.Rejected, c.Name)
	}
	return resp
}

// === UTILITY METHODS ===

func calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != "healthy" && status != "not configured" {
			return "unhealthy"
		}
	}
	return "healthy"
}
