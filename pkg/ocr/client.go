// Package ocr wraps the handwriting recognition service used to transcribe
// scanned submissions before grading.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Client talks to the OCR prediction endpoint. A zero URL disables the
// client entirely.
type Client struct {
	url    string
	httpc  *http.Client
	logger zerolog.Logger
}

// New constructs an OCR client for the given prediction URL.
func New(url string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		url:    url,
		httpc:  &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "ocr_client").Logger(),
	}
}

// Configured reports whether a prediction endpoint is set.
func (c *Client) Configured() bool {
	return c != nil && c.url != ""
}

type predictRequest struct {
	Image string `json:"image"`
}

type predictResponse struct {
	Pred string `json:"pred"`
}

// Predict submits a base64-encoded image and returns the recognized text.
func (c *Client) Predict(ctx context.Context, imageB64 string) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("ocr endpoint is not configured")
	}

	payload, err := json.Marshal(predictRequest{Image: imageB64})
	if err != nil {
		return "", fmt.Errorf("encode ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("ocr service returned status %d", resp.StatusCode)
	}

	var prediction predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return "", fmt.Errorf("decode ocr response: %w", err)
	}

	return prediction.Pred, nil
}
