// Package haiku asks a small Claude model for a short digest of recovered
// session context.
package haiku

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ModelHaiku3 is the Claude Haiku 3 model ID.
const ModelHaiku3 = "claude-3-haiku-20240307"

// DigestPrompt is the system prompt for catchup digests.
const DigestPrompt = `You are reviewing the conversation of a coding agent that happened after its planning files (task plan, progress log, findings) were last updated.

Summarize what the planning files are missing:
- Work completed since the last planning update (files changed, commands run)
- Decisions made and their reasons
- Problems found and whether they were resolved
- What the agent was doing when the log ends

Use short markdown bullets grouped under those four headings. Stay under 250 words.
Do not repeat raw tool output. Do not invent work that is not in the log.`

// Config holds Haiku client configuration.
type Config struct {
	Model     string
	MaxTokens int

	MaxRetries     int
	RetryBaseDelay time.Duration

	// APIKey falls back to ANTHROPIC_API_KEY when empty.
	APIKey string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Model:          ModelHaiku3,
		MaxTokens:      500,
		MaxRetries:     2,
		RetryBaseDelay: time.Second,
	}
}

// Client wraps the Anthropic SDK for digest requests.
type Client struct {
	cfg    *Config
	client anthropic.Client
}

// New creates a client. It fails when no API key is available.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	apiKey, err := resolveAPIKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("haiku: %w", err)
	}

	// Retries are handled by Summarize so backoff honours the config.
	client := anthropic.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0))

	return &Client{
		cfg:    cfg,
		client: client,
	}, nil
}

// Digest summarizes a catchup transcript.
func (c *Client) Digest(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", errors.New("haiku: empty transcript")
	}
	return c.Summarize(ctx, DigestPrompt, transcript)
}

// Summarize sends a prompt and returns the text of the response, retrying
// rate limits and server errors with exponential backoff.
func (c *Client) Summarize(ctx context.Context, systemPrompt, userContent string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.cfg.RetryBaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := c.doRequest(ctx, systemPrompt, userContent)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !isRetryable(err) {
			return "", err
		}
	}

	return "", fmt.Errorf("haiku: max retries exceeded: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, systemPrompt, userContent string) (string, error) {
	model := c.cfg.Model
	if model == "" {
		model = ModelHaiku3
	}

	maxTokens := c.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userContent)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("haiku request: %w", err)
	}

	var result strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(result.String()), nil
}

func resolveAPIKey(cfg *Config) (string, error) {
	if cfg.APIKey != "" {
		return cfg.APIKey, nil
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key, nil
	}
	return "", errors.New("no API key: set ANTHROPIC_API_KEY or digest.api_key")
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "connection reset")
}
