// Package gemini wraps text generation against the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/torigami/kokoro/internal/config"
)

// ErrEmptyCompletion is returned when the model produced no usable text.
var ErrEmptyCompletion = errors.New("gemini: empty completion")

// Client generates text with a fixed model. A rate limiter keeps bursts of
// webhook traffic within the configured request budget.
type Client struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a Gemini client from config.
func NewClient(ctx context.Context, log *slog.Logger, cfg config.GeminiConfig) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = config.DefaultGeminiModel
	}
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = config.DefaultGeneratePerMin
	}

	return &Client{
		client:  client,
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		logger:  log.With(slog.String("service", "gemini")),
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Generate produces text for the given prompt. Callers are expected to
// substitute a fallback message on error; Generate itself never panics.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
