package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// storeFormFile uploads a form file and returns its URL alongside the
// detected media type. Detection runs on content, not the client-supplied
// header, so the grading encoder can trust the persisted type.
func storeFormFile(ctx context.Context, store FileStore, file *multipart.FileHeader) (string, string, error) {
	src, err := file.Open()
	if err != nil {
		return "", "", fmt.Errorf("open form file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", "", fmt.Errorf("read form file: %w", err)
	}

	mediaType := mimetype.Detect(data).String()
	if idx := strings.IndexByte(mediaType, ';'); idx > 0 {
		mediaType = mediaType[:idx]
	}

	url, err := store.Upload(ctx, file.Filename, bytes.NewReader(data))
	if err != nil {
		return "", "", fmt.Errorf("upload file: %w", err)
	}

	return url, strings.TrimSpace(mediaType), nil
}
