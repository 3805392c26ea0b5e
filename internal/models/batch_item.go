package models

// ItemStatus is the lifecycle state of one tracked file.
type ItemStatus string

const (
	StatusPending    ItemStatus = "pending"
	StatusUploading  ItemStatus = "uploading"
	StatusProcessing ItemStatus = "processing"
	StatusSucceeded  ItemStatus = "succeeded"
	StatusFailed     ItemStatus = "failed"
)

// Terminal reports whether no further transitions can occur.
func (s ItemStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// FailureReason is the closed set of reasons an item can fail with.
type FailureReason string

const (
	FailureTooLarge        FailureReason = "too-large"
	FailureInvalidType     FailureReason = "invalid-type"
	FailureUploadError     FailureReason = "upload-error"
	FailureProcessingError FailureReason = "processing-error"
	FailureTimeout         FailureReason = "timeout"
)

func (r FailureReason) Valid() bool {
	switch r {
	case FailureTooLarge, FailureInvalidType, FailureUploadError, FailureProcessingError, FailureTimeout:
		return true
	}
	return false
}

type FileIdentity struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// SizeKB matches the table rendering of the web client (size/1000).
func (f FileIdentity) SizeKB() int64 {
	return (f.Size + 500) / 1000
}

type BatchItem struct {
	Index          int           `json:"index"`
	File           FileIdentity  `json:"file"`
	SizeKB         int64         `json:"size_kb"`
	Preview        string        `json:"preview,omitempty"`
	RemoteLocation string        `json:"remote_location,omitempty"`
	Progress       int           `json:"progress"`
	Status         ItemStatus    `json:"status"`
	Result         string        `json:"result,omitempty"`
	FailureReason  FailureReason `json:"failure_reason,omitempty"`
}
