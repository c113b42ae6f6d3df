package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiConfig defines configuration options for the Gemini grader.
type GeminiConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Logger    zerolog.Logger
}

// GeminiGrader implements Grader against the Google Generative AI API.
type GeminiGrader struct {
	cfg    GeminiConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewGeminiGrader builds a grader using the provided configuration. Missing
// credentials surface as ErrNotConfigured on the first Grade call.
func NewGeminiGrader(cfg GeminiConfig) *GeminiGrader {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 150
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}

	return &GeminiGrader{
		cfg:    cfg,
		tracer: otel.Tracer("github.com/classly/classly-api/pkg/ai/gemini"),
		logger: cfg.Logger.With().Str("component", "gemini_grader").Logger(),
	}
}

// Grade sends the content parts as a single generate-content request and
// returns the concatenated text parts of the first candidate.
func (g *GeminiGrader) Grade(parent context.Context, parts []Part) (string, error) {
	if g.cfg.APIKey == "" || g.cfg.Model == "" {
		return "", ErrNotConfigured
	}

	ctx, span := g.tracer.Start(parent, "gemini.grade", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.Int("parts", len(parts)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.cfg.APIKey))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.cfg.Model)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(int32(g.cfg.MaxTokens))

	content := make([]genai.Part, 0, len(parts))
	for _, part := range parts {
		if part.Type == PartTypeImage {
			raw, err := base64.StdEncoding.DecodeString(part.Data)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return "", fmt.Errorf("gemini grade: bad base64 payload: %w", err)
			}
			content = append(content, genai.Blob{MIMEType: part.MediaType, Data: raw})
			continue
		}
		content = append(content, genai.Text(part.Text))
	}

	start := time.Now()
	resp, err := model.GenerateContent(ctx, content...)
	gradeDuration.WithLabelValues("gemini", g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		gradeFailures.WithLabelValues("gemini", g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return "", &HTTPError{StatusCode: apiErr.Code, Message: apiErr.Message}
		}
		return "", fmt.Errorf("gemini grade: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		err := fmt.Errorf("no candidates returned from gemini")
		gradeFailures.WithLabelValues("gemini", g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text, ok := part.(genai.Text)
		if !ok {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString(" ")
		}
		builder.WriteString(string(text))
	}

	return strings.TrimSpace(builder.String()), nil
}
