package models

import "time"

type BatchView struct {
	ID            string         `json:"id"`
	Version       uint64         `json:"version"`
	MaxSize       int            `json:"max_size"`
	Items         []BatchItem    `json:"items"`
	Notifications []Notification `json:"notifications"`
	CreatedAt     time.Time      `json:"created_at"`
	Closed        bool           `json:"closed"`
}

type AdmissionResponse struct {
	Admitted      []int          `json:"admitted"`
	Rejected      []string       `json:"rejected,omitempty"`
	Notifications []Notification `json:"notifications,omitempty"`
	Batch         BatchView      `json:"batch"`
}
