// Package vectorstore turns a raw vector Storage into the text-level
// VectorIndex used by ingestion and semantic search.
package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"scangestor/internal/domain"
)

const defaultBatchSize = 64

var _ domain.VectorIndex = (*Index)(nil)

// Index embeds chunk text and queries with an Embedder before delegating to
// Storage. It is safe for concurrent use.
type Index struct {
	embedder  domain.Embedder
	storage   Storage
	batchSize int

	mu        sync.Mutex
	dimension int
}

// NewIndex builds an Index. batchSize <= 0 selects the default.
func NewIndex(embedder domain.Embedder, storage Storage, batchSize int) *Index {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Index{embedder: embedder, storage: storage, batchSize: batchSize}
}

// Upsert embeds and stores chunks. Vectors are computed before anything is
// written, so an embedding failure leaves the store untouched.
func (ix *Index) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	records := make([]Record, 0, len(chunks))
	for start := 0; start < len(chunks); start += ix.batchSize {
		end := min(start+ix.batchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, ch := range chunks[start:end] {
			texts = append(texts, ch.Text)
		}
		vecs, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks: %w", err)
		}
		if len(vecs) != len(texts) {
			return fmt.Errorf("embed chunks: got %d vectors for %d texts", len(vecs), len(texts))
		}
		for i, v := range vecs {
			records = append(records, Record{Chunk: chunks[start+i], Vector: v})
		}
	}
	if err := ix.ensureInit(ctx, len(records[0].Vector)); err != nil {
		return err
	}
	return ix.storage.Upsert(ctx, records)
}

// Query returns up to topK chunks most similar to text, best first.
func (ix *Index) Query(ctx context.Context, text string, topK int, filter domain.Filter) ([]domain.SemanticHit, error) {
	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if err := ix.ensureInit(ctx, len(vec)); err != nil {
		return nil, err
	}
	matches, err := ix.storage.Search(ctx, vec, topK, filter)
	if err != nil {
		return nil, err
	}
	hits := make([]domain.SemanticHit, len(matches))
	for i, m := range matches {
		hits[i] = domain.SemanticHit{
			Text:       m.Chunk.Text,
			SourcePath: m.Chunk.SourcePath,
			Category:   m.Chunk.Category,
			Rank:       i + 1,
			Score:      m.Score,
		}
	}
	return hits, nil
}

func (ix *Index) Get(ctx context.Context, filter domain.Filter, limit int) ([]domain.Chunk, error) {
	return ix.storage.Get(ctx, filter, limit)
}

func (ix *Index) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return ix.storage.Delete(ctx, ids)
}

// Close releases the underlying storage.
func (ix *Index) Close() error { return ix.storage.Close() }

func (ix *Index) ensureInit(ctx context.Context, dimension int) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.dimension == dimension {
		return nil
	}
	if ix.dimension != 0 {
		return fmt.Errorf("%w: index has %d, embedder returned %d", domain.ErrDimensionMismatch, ix.dimension, dimension)
	}
	if err := ix.storage.Init(ctx, dimension); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	ix.dimension = dimension
	return nil
}
