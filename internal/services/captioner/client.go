package captioner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrTimeout          = errors.New("captioning timed out")
	ErrPredictionFailed = errors.New("prediction failed")
)

type Config struct {
	APIURL       string
	Token        string
	ModelVersion string
	PollInterval time.Duration
	MaxWait      time.Duration
	HTTPClient   *http.Client
	Logger       *zap.Logger
}

// Client submits images to the captioning provider and polls the returned
// prediction until it reaches a terminal state.
type Client struct {
	baseURL      string
	token        string
	modelVersion string
	pollInterval time.Duration
	maxWait      time.Duration
	httpClient   *http.Client
	logger       *zap.Logger
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.APIURL, "/"),
		token:        cfg.Token,
		modelVersion: cfg.ModelVersion,
		pollInterval: pollInterval,
		maxWait:      cfg.MaxWait,
		httpClient:   httpClient,
		logger:       logger,
	}
}

// Caption returns the generated alt-text for the image at imageURL. Running
// past MaxWait yields an error wrapping ErrTimeout.
func (c *Client) Caption(ctx context.Context, imageURL string) (string, error) {
	waitCtx := ctx
	if c.maxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.maxWait)
		defer cancel()
	}

	pred, err := c.Submit(waitCtx, imageURL)
	if err == nil {
		pred, err = c.Poll(waitCtx, pred)
	}
	if err != nil {
		if ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, c.maxWait)
		}
		return "", err
	}

	caption := pred.Caption()
	if caption == "" {
		return "", fmt.Errorf("%w: empty output for prediction %s", ErrPredictionFailed, pred.ID)
	}
	return caption, nil
}

// Submit starts a prediction for imageURL.
func (c *Client) Submit(ctx context.Context, imageURL string) (*Prediction, error) {
	body, err := json.Marshal(predictionRequest{
		Version: c.modelVersion,
		Input:   predictionInput{Image: imageURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	pred, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to submit prediction: %w", err)
	}

	c.logger.Debug("Prediction submitted", zap.String("prediction_id", pred.ID), zap.String("status", pred.Status))
	return pred, nil
}

// Poll fetches pred every PollInterval until it is terminal. A succeeded
// prediction is returned as is; failed or canceled ones wrap
// ErrPredictionFailed.
func (c *Client) Poll(ctx context.Context, pred *Prediction) (*Prediction, error) {
	pollURL := pred.URLs.Get
	if pollURL == "" {
		if pred.ID == "" {
			return nil, fmt.Errorf("%w: submission returned no prediction handle", ErrPredictionFailed)
		}
		pollURL = c.baseURL + "/predictions/" + pred.ID
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for !pred.Terminal() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pollURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		next, err := c.do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to poll prediction: %w", err)
		}
		pred = next
	}

	if pred.Status != StatusSucceeded {
		return pred, fmt.Errorf("%w: %s", ErrPredictionFailed, pred.ErrorMessage())
	}
	return pred, nil
}

func (c *Client) do(req *http.Request) (*Prediction, error) {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var pred Prediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return nil, fmt.Errorf("failed to decode prediction: %w", err)
	}
	return &pred, nil
}
