package ai

import (
	"context"
	"errors"
	"fmt"
)

// PartType enumerates the kinds of content units sent to a grading model.
type PartType string

const (
	// PartTypeText is an inline plain-text unit.
	PartTypeText PartType = "text"
	// PartTypeImage is an inline binary unit, base64-encoded and tagged
	// with its media type.
	PartTypeImage PartType = "image"
)

// Part is one ordered unit of model input.
type Part struct {
	Type      PartType
	Text      string
	MediaType string
	Data      string
}

// TextPart wraps plain text as a content unit.
func TextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// ImagePart wraps a base64 payload and its media type as an inline image unit.
func ImagePart(mediaType, data string) Part {
	return Part{Type: PartTypeImage, MediaType: mediaType, Data: data}
}

// Grader submits an ordered sequence of content parts to a grading model as
// a single-turn request and returns the model's raw text reply.
type Grader interface {
	Grade(ctx context.Context, parts []Part) (string, error)
}

// ErrNotConfigured indicates the provider credentials or model name are
// missing. The check happens per call so an unconfigured deployment degrades
// per submission instead of failing at startup.
var ErrNotConfigured = errors.New("grading model is not configured")

// HTTPError reports a non-2xx response from the grading provider.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("grading api returned status %d: %s", e.StatusCode, e.Message)
}
