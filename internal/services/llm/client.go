package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"
	defaultTimeout  = 15 * time.Second

	probeSystemPrompt = "You sort files into folders. Reply with a JSON object containing a category field and nothing else."
	probeUserPrompt   = "File Name: readme.txt\nExtension: .txt"
)

// Config holds the OpenRouter settings for the classification oracle.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

func (c Config) normalized() Config {
	out := Config{
		APIKey:         strings.TrimSpace(c.APIKey),
		BaseURL:        strings.TrimSpace(c.BaseURL),
		Model:          strings.TrimSpace(c.Model),
		Referer:        strings.TrimSpace(c.Referer),
		Title:          strings.TrimSpace(c.Title),
		TimeoutSeconds: c.TimeoutSeconds,
	}
	if out.BaseURL == "" {
		out.BaseURL = defaultEndpoint
	}
	return out
}

func (c Config) timeout() time.Duration {
	if c.TimeoutSeconds > 0 {
		return time.Duration(c.TimeoutSeconds) * time.Second
	}
	return defaultTimeout
}

// Client sends classification prompts to an OpenAI-compatible chat endpoint
// and returns the model's JSON text.
type Client struct {
	cfg   Config
	http  *http.Client
	retry retryPolicy
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetryMaxAttempts sets how many requests a single call may issue.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) { c.retry.attempts = attempts }
}

// WithRetryBackoff sets the first retry delay and the ceiling for all delays.
func WithRetryBackoff(base, ceiling time.Duration) Option {
	return func(c *Client) {
		c.retry.base = base
		c.retry.ceiling = ceiling
	}
}

// WithSleeper replaces the wait between retries.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) { c.retry.sleep = sleep }
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg = cfg.normalized()
	client := &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.timeout()},
		retry: defaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Complete sends one classification prompt in JSON mode and returns the raw
// reply. Code fences and surrounding prose are left for the caller to strip.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	switch {
	case c.cfg.APIKey == "":
		return "", errors.New("classify: api key required")
	case systemPrompt == "":
		return "", errors.New("classify: system prompt required")
	case userPrompt == "":
		return "", errors.New("classify: file description required")
	}
	return c.exchange(ctx, "classify", c.newRequest(systemPrompt, userPrompt))
}

// HealthCheck classifies a probe file and expects a reply naming a category.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("oracle health: api key required")
	}
	raw, err := c.exchange(ctx, "oracle health", c.newRequest(probeSystemPrompt, probeUserPrompt))
	if err != nil {
		return err
	}
	var probe struct {
		Category string `json:"category"`
	}
	if err := DecodeLLMJSON(raw, &probe); err != nil {
		return fmt.Errorf("oracle health: %w", err)
	}
	if strings.TrimSpace(probe.Category) == "" {
		return fmt.Errorf("oracle health: reply has no category (%s)", snippet(raw))
	}
	return nil
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *Client) newRequest(system, user string) chatRequest {
	return chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	}
}

// exchange posts req until a reply with usable text arrives or the retry
// policy gives up.
func (c *Client) exchange(ctx context.Context, op string, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%s: encode request: %w", op, err)
	}

	attempt := 0
	for {
		attempt++
		text, err := c.post(ctx, op, body)
		if err == nil {
			return text, nil
		}
		delay, again := c.retry.next(ctx, err, attempt)
		if !again {
			if attempt > 1 {
				return "", fmt.Errorf("%s: gave up after %d attempts: %w", op, attempt, err)
			}
			return "", err
		}
		if err := c.retry.wait(ctx, delay); err != nil {
			return "", err
		}
	}
}

func (c *Client) post(ctx context.Context, op string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: request failed (timeout %s): %w", op, c.http.Timeout, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read reply: %w", op, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &StatusError{
			Op:         op,
			Code:       resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var reply chatReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", fmt.Errorf("%s: decode reply: %w", op, err)
	}
	if reply.Error != nil {
		return "", fmt.Errorf("%s: provider error: %s", op, strings.TrimSpace(reply.Error.Message))
	}
	if len(reply.Choices) == 0 {
		return "", fmt.Errorf("%s: reply has no choices", op)
	}
	if text := reply.text(); text != "" {
		return text, nil
	}
	return "", &emptyReplyError{
		op:      op,
		finish:  reply.finishReason(),
		refusal: reply.refusal(),
		snippet: snippet(string(raw)),
	}
}

// StatusError reports a non-2xx reply from the provider.
type StatusError struct {
	Op         string
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.Code, e.Body)
}

// Temporary reports whether the provider may succeed on a later attempt.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusRequestTimeout ||
		e.Code == http.StatusTooManyRequests ||
		e.Code >= http.StatusInternalServerError
}

type emptyReplyError struct {
	op      string
	finish  string
	refusal string
	snippet string
}

func (e *emptyReplyError) Error() string {
	return fmt.Sprintf("%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.op, e.finish, e.refusal, e.snippet)
}
