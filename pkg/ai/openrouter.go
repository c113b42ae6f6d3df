package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	gradeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "classly",
		Subsystem: "grading",
		Name:      "model_request_duration_seconds",
		Help:      "Duration of grading model requests",
	}, []string{"provider", "model"})

	gradeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classly",
		Subsystem: "grading",
		Name:      "model_request_failures_total",
		Help:      "Number of failed grading model requests",
	}, []string{"provider", "model"})
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterConfig defines configuration options for the OpenRouter grader.
type OpenRouterConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
	Logger    zerolog.Logger
}

// OpenRouterGrader implements Grader against the OpenRouter chat completion
// API, which speaks the OpenAI wire protocol.
type OpenRouterGrader struct {
	client *openai.Client
	cfg    OpenRouterConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenRouterGrader builds a grader using the provided configuration.
// Missing credentials surface as ErrNotConfigured on the first Grade call.
func NewOpenRouterGrader(cfg OpenRouterConfig) *OpenRouterGrader {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenRouterBaseURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 150
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenRouterGrader{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/classly/classly-api/pkg/ai/openrouter"),
		logger: cfg.Logger.With().Str("component", "openrouter_grader").Logger(),
	}
}

// Grade sends the content parts as a single user message and returns the
// first choice's text.
func (g *OpenRouterGrader) Grade(parent context.Context, parts []Part) (string, error) {
	if g.cfg.APIKey == "" || g.cfg.Model == "" {
		return "", ErrNotConfigured
	}

	ctx, span := g.tracer.Start(parent, "openrouter.grade", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.Int("parts", len(parts)),
	))
	defer span.End()

	content := make([]openai.ChatMessagePart, 0, len(parts))
	for _, part := range parts {
		if part.Type == PartTypeImage {
			content = append(content, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", part.MediaType, part.Data),
				},
			})
			continue
		}
		content = append(content, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: part.Text,
		})
	}

	request := openai.ChatCompletionRequest{
		Model:     g.cfg.Model,
		MaxTokens: g.cfg.MaxTokens,
		// go-openai drops a zero temperature from the payload; the smallest
		// positive float32 still yields deterministic sampling.
		Temperature: math.SmallestNonzeroFloat32,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: content,
			},
		},
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, request)
	gradeDuration.WithLabelValues("openrouter", g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		gradeFailures.WithLabelValues("openrouter", g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
			return "", &HTTPError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
		}
		return "", fmt.Errorf("openrouter grade: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openrouter")
		gradeFailures.WithLabelValues("openrouter", g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
