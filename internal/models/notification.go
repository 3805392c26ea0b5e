package models

import "time"

type NotificationKind string

const (
	NotificationBatchFull       NotificationKind = "batch-full"
	NotificationInvalidType     NotificationKind = "invalid-type"
	NotificationTooLarge        NotificationKind = "too-large"
	NotificationUploadError     NotificationKind = "upload-error"
	NotificationProcessingError NotificationKind = "processing-error"
	NotificationTimeout         NotificationKind = "timeout"
)

// Notification is the transient, user-facing message emitted alongside
// admission decisions and item failures. Seq increases per batch.
type Notification struct {
	Seq         uint64           `json:"seq"`
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	BatchID     string           `json:"batch_id,omitempty"`
	Files       []string         `json:"files,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
