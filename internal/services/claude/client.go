package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultModel      = "claude-sonnet-4-5-20250929"
	defaultMaxTokens  = 1024
	defaultMaxRetries = 2
)

// Config captures the runtime settings required to talk to Claude.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxTokens  int
	MaxRetries int
}

// Client issues Messages API requests.
type Client struct {
	cfg Config
	api anthropic.Client
}

// NewClient constructs a Claude client. Extra request options are appended
// after the ones derived from cfg.
func NewClient(cfg Config, opts ...option.RequestOption) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}

	base := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		base = append(base, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		cfg: cfg,
		api: anthropic.NewClient(append(base, opts...)...),
	}
}

// Complete sends the prompts and returns the first text block of the reply.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return "", errors.New("claude complete: user prompt required")
	}
	if c.cfg.APIKey == "" {
		return "", errors.New("claude complete: api key required")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: int64(c.cfg.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	started := time.Now()
	message, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude complete: %w (elapsed=%s)", err, time.Since(started).Round(time.Millisecond))
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			if text := strings.TrimSpace(block.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", fmt.Errorf("claude complete: no text content (stop_reason=%q)", message.StopReason)
}

// HealthCheck issues a minimal request to verify the key and model.
func (c *Client) HealthCheck(ctx context.Context) error {
	text, err := c.Complete(ctx, "You must respond with JSON only.", `Respond with {"ok":true}`)
	if err != nil {
		return err
	}
	if !strings.Contains(text, "ok") {
		return fmt.Errorf("claude health: unexpected response %q", text)
	}
	return nil
}

// Model reports the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}
