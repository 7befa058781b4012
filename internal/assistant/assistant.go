// Package assistant talks to the generative-language provider behind the AI
// features: farming tips, chat replies, yield estimates and directions.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ubuhinzi360/server/internal/i18n"
	"ubuhinzi360/server/internal/metrics"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"golang.org/x/time/rate"
)

var (
	ErrNotConfigured     = errors.New("assistant is not configured")
	ErrEmptyResponse     = errors.New("assistant returned no content")
	ErrMalformedResponse = errors.New("assistant response has an unexpected shape")
)

// Config holds the provider settings
type Config struct {
	APIKey string
	Model  string
	RPS    float64
}

// Assistant wraps a langchaingo model. The zero value and nil are disabled.
type Assistant struct {
	llm     llms.Model
	model   string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates an assistant backed by Google AI. Without an API key the
// assistant is disabled and every call fails with ErrNotConfigured.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Assistant, error) {
	if cfg.APIKey == "" {
		if logger != nil {
			logger.Warn("assistant API key not set, AI features are disabled")
		}
		return &Assistant{logger: logger}, nil
	}

	model, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create googleai model: %w", err)
	}
	return NewWithModel(model, cfg.Model, cfg.RPS, logger), nil
}

// NewWithModel creates an assistant over any langchaingo model
func NewWithModel(model llms.Model, name string, rps float64, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Assistant{
		llm:     model,
		model:   name,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Enabled reports whether a provider is configured
func (a *Assistant) Enabled() bool {
	return a != nil && a.llm != nil
}

func (a *Assistant) generate(ctx context.Context, op string, messages []llms.MessageContent, opts ...llms.CallOption) (string, error) {
	if !a.Enabled() {
		return "", ErrNotConfigured
	}
	if err := a.limiter.Wait(ctx); err != nil {
		metrics.AssistantCalls.WithLabelValues(op, "throttled").Inc()
		return "", fmt.Errorf("%s: %w", op, err)
	}

	resp, err := a.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		metrics.AssistantCalls.WithLabelValues(op, "error").Inc()
		a.logger.Warn("assistant call failed", "operation", op, "model", a.model, "error", err)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if len(resp.Choices) == 0 {
		metrics.AssistantCalls.WithLabelValues(op, "empty").Inc()
		return "", fmt.Errorf("%s: %w", op, ErrEmptyResponse)
	}

	metrics.AssistantCalls.WithLabelValues(op, "ok").Inc()
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

func languageName(lang string) string {
	return i18n.For(lang).LanguageName
}
