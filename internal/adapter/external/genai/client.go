// Package genai is a minimal client for an OpenAI-compatible chat
// completions endpoint.
package genai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"orbitlend-backend/internal/adapter/external/httpx"
	"orbitlend-backend/internal/domain/apperr"
)

const (
	provider       = "genai"
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

var ErrNotConfigured = apperr.New(apperr.KindExternal, "genai provider is not configured")

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 400
	}
	return &Client{cfg: cfg, http: httpx.NewClient(cfg.Timeout)}
}

// Complete sends the system prompt and user text and returns the first choice.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}
	body := chatRequest{
		Model: c.cfg.Model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	req, err := httpx.NewJSONRequest(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", body)
	if err != nil {
		return "", apperr.External(provider, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	var out chatResponse
	if err := httpx.Do(c.http, req, &out); err != nil {
		return "", apperr.External(provider, err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", apperr.External(provider, errors.New("empty completion"))
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
