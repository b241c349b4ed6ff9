package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"scangestor/internal/domain"
	"scangestor/internal/httpx"
	"scangestor/internal/vectorstore"
)

var _ vectorstore.Storage = (*Storage)(nil)

const scrollPageSize = 256

// Storage is a minimal REST client to Qdrant.
// It assumes cosine distance and creates the collection if missing.
type Storage struct {
	url        string
	apiKey     string
	collection string
	client     *httpx.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
	Logger     *slog.Logger
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client: httpx.New(httpx.Config{
			Timeout:    timeout,
			MaxRetries: 2,
			Logger:     cfg.Logger,
		}),
	}
}

// Init creates the collection when it does not exist yet. An existing
// collection must have the same vector size.
func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return domain.ErrInvalidDimension
	}
	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	err := s.call(ctx, http.MethodGet, s.collectionURL(""), nil, &info)
	switch {
	case err == nil:
		if size := info.Result.Config.Params.Vectors.Size; size != 0 && size != dimension {
			return fmt.Errorf("%w: collection %s has %d, got %d", domain.ErrDimensionMismatch, s.collection, size, dimension)
		}
		return nil
	case isNotFound(err):
	default:
		return fmt.Errorf("qdrant get collection: %w", err)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := s.call(ctx, http.MethodPut, s.collectionURL(""), body, nil); err != nil {
		return fmt.Errorf("qdrant create collection: %w", err)
	}
	return nil
}

func (s *Storage) Upsert(ctx context.Context, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]map[string]any, len(records))
	for i, r := range records {
		points[i] = map[string]any{
			"id":      r.Chunk.ID,
			"vector":  r.Vector,
			"payload": payloadOf(r.Chunk),
		}
	}
	body := map[string]any{"points": points}
	if err := s.call(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), body, nil); err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

type point struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

func (s *Storage) Search(ctx context.Context, vector []float64, topK int, filter domain.Filter) ([]vectorstore.Match, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if f := filterOf(filter); f != nil {
		req["filter"] = f
	}
	var resp struct {
		Result []point `json:"result"`
	}
	if err := s.call(ctx, http.MethodPost, s.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}
	matches := make([]vectorstore.Match, 0, len(resp.Result))
	for _, p := range resp.Result {
		matches = append(matches, vectorstore.Match{Chunk: chunkOf(p), Score: p.Score})
	}
	return matches, nil
}

// Get scrolls through matching points; Qdrant does not order by payload, so
// sorting happens client side. With limit > 0 scrolling stops after limit
// points and only those are sorted. A missing collection holds no chunks.
func (s *Storage) Get(ctx context.Context, filter domain.Filter, limit int) ([]domain.Chunk, error) {
	pageSize := scrollPageSize
	if limit > 0 {
		pageSize = min(limit, scrollPageSize)
	}
	var chunks []domain.Chunk
	var offset any
	for {
		req := map[string]any{
			"limit":        pageSize,
			"with_payload": true,
			"with_vector":  false,
		}
		if f := filterOf(filter); f != nil {
			req["filter"] = f
		}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points         []point `json:"points"`
				NextPageOffset any     `json:"next_page_offset"`
			} `json:"result"`
		}
		err := s.call(ctx, http.MethodPost, s.collectionURL("/points/scroll"), req, &resp)
		if isNotFound(err) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("qdrant scroll: %w", err)
		}
		for _, p := range resp.Result.Points {
			chunks = append(chunks, chunkOf(p))
		}
		if resp.Result.NextPageOffset == nil || (limit > 0 && len(chunks) >= limit) {
			break
		}
		offset = resp.Result.NextPageOffset
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].SourcePath != chunks[j].SourcePath {
			return chunks[i].SourcePath < chunks[j].SourcePath
		}
		return chunks[i].Index < chunks[j].Index
	})
	if limit > 0 && len(chunks) > limit {
		chunks = chunks[:limit]
	}
	return chunks, nil
}

func (s *Storage) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	body := map[string]any{"points": ids}
	err := s.call(ctx, http.MethodPost, s.collectionURL("/points/delete?wait=true"), body, nil)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("qdrant delete: %w", err)
	}
	return nil
}

func (s *Storage) Close() error { return nil }

func (s *Storage) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, url.PathEscape(s.collection), suffix)
}

func (s *Storage) call(ctx context.Context, method, target string, body, out any) error {
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return err
		}
	}
	raw, err := s.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		var rd io.Reader
		if data != nil {
			rd = bytes.NewReader(data)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, rd)
		if err != nil {
			return nil, err
		}
		if data != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if s.apiKey != "" {
			req.Header.Set("api-key", s.apiKey)
		}
		return req, nil
	})
	if err != nil {
		return err
	}
	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}

func isNotFound(err error) bool {
	var se *httpx.StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

func payloadOf(ch domain.Chunk) map[string]any {
	return map[string]any{
		"source_file": ch.SourcePath,
		"category":    ch.Category,
		"chunk_index": ch.Index,
		"text":        ch.Text,
	}
}

func chunkOf(p point) domain.Chunk {
	ch := domain.Chunk{ID: fmt.Sprint(p.ID)}
	if v, ok := p.Payload["source_file"].(string); ok {
		ch.SourcePath = v
	}
	if v, ok := p.Payload["category"].(string); ok {
		ch.Category = v
	}
	if v, ok := p.Payload["chunk_index"].(float64); ok {
		ch.Index = int(v)
	}
	if v, ok := p.Payload["text"].(string); ok {
		ch.Text = v
	}
	return ch
}

func filterOf(f domain.Filter) map[string]any {
	var must []map[string]any
	if f.SourceFile != "" {
		must = append(must, matchCond("source_file", f.SourceFile))
	}
	if f.Category != "" {
		must = append(must, matchCond("category", f.Category))
	}
	if len(must) == 0 {
		return nil
	}
	return map[string]any{"must": must}
}

func matchCond(key, value string) map[string]any {
	return map[string]any{"key": key, "match": map[string]any{"value": value}}
}
