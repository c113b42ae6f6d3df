// Package grading holds the provider-agnostic pieces of the auto-grading
// pipeline: artifact encoding, prompt assembly and score extraction.
package grading

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/classly/classly-api/pkg/ai"
)

// MediaTypeDocx is the detected media type of Word documents, which are
// sent to the model as extracted text instead of raw bytes.
const MediaTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const mediaTypeFallback = "application/octet-stream"

// EncodeArtifact turns a stored file and its detected media type into a
// content unit. Word documents become extracted text, images become inline
// binary parts, and everything else is wrapped as labelled base64 text so
// any file type stays representable. Pure: no network, no mutation.
func EncodeArtifact(mediaType string, data []byte) (ai.Part, error) {
	if mediaType == "" {
		mediaType = mediaTypeFallback
	}

	switch {
	case mediaType == MediaTypeDocx:
		text, err := docxText(data)
		if err != nil {
			return ai.Part{}, fmt.Errorf("extract document text: %w", err)
		}
		return ai.TextPart(text), nil
	case strings.HasPrefix(mediaType, "image/"):
		return ai.ImagePart(mediaType, base64.StdEncoding.EncodeToString(data)), nil
	default:
		encoded := base64.StdEncoding.EncodeToString(data)
		return ai.TextPart(fmt.Sprintf("File (%s) provided as base64 content:\n%s", mediaType, encoded)), nil
	}
}
