package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"scangestor/internal/domain"
	"scangestor/internal/httpx"
)

var _ domain.Embedder = (*Client)(nil)

// Client is an OpenAI-compatible embeddings client implementing the Embedder interface.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *httpx.Client

	mu        sync.RWMutex
	dimension int
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL           string
	APIKeyEnv         string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64
	Logger            *slog.Logger
}

// NewClient creates a new embeddings client using the provided configuration.
// A missing API key is a configuration error.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: env %s is not set", domain.ErrMissingCredential, cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  key,
		model:   cfg.Model,
		http: httpx.New(httpx.Config{
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			MaxRetries:        httpx.DefaultMaxRetries,
			Logger:            cfg.Logger,
		}),
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Dimension returns the dimensionality of the produced embedding vectors.
func (c *Client) Dimension() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dimension
}

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in one request, preserving input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}{Input: texts, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	payload, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}

	var out struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode embeddings: %w", err)
	}
	if len(out.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(out.Data), len(texts))
	}
	sort.SliceStable(out.Data, func(i, j int) bool { return out.Data[i].Index < out.Data[j].Index })
	vecs := make([][]float64, len(out.Data))
	for i, d := range out.Data {
		if len(d.Embedding) == 0 {
			return nil, errors.New("empty embedding")
		}
		vecs[i] = d.Embedding
	}
	c.mu.Lock()
	if c.dimension == 0 {
		c.dimension = len(vecs[0])
	}
	c.mu.Unlock()
	return vecs, nil
}
