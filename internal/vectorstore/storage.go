package vectorstore

import (
	"context"
	"math"

	"scangestor/internal/domain"
)

// Record is a chunk together with its embedding.
type Record struct {
	Chunk  domain.Chunk
	Vector []float64
}

// Match is a chunk returned by a similarity search.
type Match struct {
	Chunk domain.Chunk
	Score float64
}

// Storage persists vectors with chunk metadata and supports filtered
// similarity search.
type Storage interface {
	// Init prepares the store for vectors of the given dimension. Calling it
	// again with the same dimension is a no-op; existing data is kept.
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, records []Record) error
	Search(ctx context.Context, vector []float64, topK int, filter domain.Filter) ([]Match, error)
	// Get lists chunks matching filter in (source, chunk index) order; limit <= 0 means all.
	Get(ctx context.Context, filter domain.Filter, limit int) ([]domain.Chunk, error)
	Delete(ctx context.Context, ids []string) error
	Close() error
}

// Cosine returns the cosine similarity of a and b, or 0 when either is zero.
func Cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
