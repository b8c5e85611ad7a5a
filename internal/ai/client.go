// Package ai wraps an OpenAI-compatible chat endpoint behind the small
// completion interface the import pipeline consumes. Components that take
// a Completer treat nil as "assistance disabled".
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Completer is the capability the pipeline depends on. Implementations
// must honor ctx cancellation.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a client for the given endpoint. baseURL may point at any
// OpenAI-compatible server (Ollama, vLLM, the real thing).
func New(baseURL, apiKey, model string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		api:     openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
		logger:  slog.Default(),
	}
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: empty response")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.logger.Debug("ai completion", "model", c.model, "prompt_len", len(prompt), "reply_len", len(out))
	return out, nil
}

// ExtractJSONObject returns the first balanced {...} region of a model
// reply, tolerating prose or fences around it.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// ExtractJSONArray is the array-shaped counterpart of ExtractJSONObject.
func ExtractJSONArray(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
