// Package openai provides an LLM adapter for OpenAI-compatible chat completion APIs.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"scangestor/internal/domain"
	"scangestor/internal/httpx"
	"scangestor/internal/llm"
)

var _ domain.LLM = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.3
)

// Config holds configuration for the chat completion client.
type Config struct {
	BaseURL           string
	APIKeyEnv         string
	Model             string
	Temperature       float64
	Timeout           time.Duration
	RequestsPerSecond float64
	Logger            *slog.Logger
}

// Client renders prompt templates and sends them as a single user message.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	http        *httpx.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient creates a chat completion client. A missing API key is a
// configuration error.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: env %s is not set", domain.ErrMissingCredential, cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      key,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		http: httpx.New(httpx.Config{
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			MaxRetries:        3,
			Logger:            cfg.Logger,
		}),
	}, nil
}

// Complete renders template with vars and returns the model reply.
func (c *Client) Complete(ctx context.Context, template string, vars map[string]string) (string, error) {
	data, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: llm.Render(template, vars)}},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	body, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("openai error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no response choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
