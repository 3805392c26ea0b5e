package captioner

import (
	"encoding/json"
	"strings"
)

const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

type predictionRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

type predictionInput struct {
	Image string `json:"image"`
}

// Prediction is the provider's view of one inference run.
type Prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
	URLs   struct {
		Get    string `json:"get"`
		Cancel string `json:"cancel"`
	} `json:"urls"`
}

func (p *Prediction) Terminal() bool {
	switch p.Status {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

func (p *Prediction) ErrorMessage() string {
	if len(p.Error) == 0 || string(p.Error) == "null" {
		return p.Status
	}
	var msg string
	if err := json.Unmarshal(p.Error, &msg); err == nil {
		return msg
	}
	return string(p.Error)
}

// Caption extracts the caption text from Output, which is either a string
// or a list of string fragments.
func (p *Prediction) Caption() string {
	if len(p.Output) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(p.Output, &text); err != nil {
		var parts []string
		if err := json.Unmarshal(p.Output, &parts); err != nil {
			return ""
		}
		text = strings.Join(parts, "")
	}

	text = strings.TrimSpace(text)
	if len(text) >= len("caption:") && strings.EqualFold(text[:len("caption:")], "caption:") {
		text = strings.TrimSpace(text[len("caption:"):])
	}
	return text
}
