package models

import "time"

type ProcessRequest struct {
	ImageURL string `json:"imageUrl" binding:"required,url"`
}

// ImageResponseData is the response of the synchronous process endpoint.
type ImageResponseData struct {
	Success bool   `json:"success"`
	Alt     string `json:"alt"`
	Message string `json:"message"`
}

type CaptionJob struct {
	ID        string    `json:"id"`
	ImageURL  string    `json:"image_url"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Result    string    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
}

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// CachedCaption is a completed upload+caption remembered by content identity.
// Key is the stored object; read URLs are signed again on every hit.
type CachedCaption struct {
	Key     string `json:"key"`
	Caption string `json:"caption"`
}
