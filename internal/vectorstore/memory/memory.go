package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"scangestor/internal/domain"
	"scangestor/internal/vectorstore"
)

var _ vectorstore.Storage = (*Storage)(nil)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	order     []string
	records   map[string]vectorstore.Record
}

func NewStorage() *Storage {
	return &Storage{records: make(map[string]vectorstore.Record)}
}

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return domain.ErrInvalidDimension
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != 0 && s.dimension != dimension {
		return fmt.Errorf("%w: store has %d, got %d", domain.ErrDimensionMismatch, s.dimension, dimension)
	}
	s.dimension = dimension
	return nil
}

func (s *Storage) Upsert(_ context.Context, records []vectorstore.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if len(r.Vector) != s.dimension {
			return domain.ErrDimensionMismatch
		}
	}
	for _, r := range records {
		if _, ok := s.records[r.Chunk.ID]; !ok {
			s.order = append(s.order, r.Chunk.ID)
		}
		s.records[r.Chunk.ID] = r
	}
	return nil
}

func (s *Storage) Search(_ context.Context, vector []float64, topK int, filter domain.Filter) ([]vectorstore.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	var matches []vectorstore.Match
	for _, id := range s.order {
		r := s.records[id]
		if !filter.Matches(r.Chunk.SourcePath, r.Chunk.Category) {
			continue
		}
		matches = append(matches, vectorstore.Match{Chunk: r.Chunk, Score: vectorstore.Cosine(r.Vector, vector)})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *Storage) Get(_ context.Context, filter domain.Filter, limit int) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Chunk
	for _, id := range s.order {
		ch := s.records[id].Chunk
		if filter.Matches(ch.SourcePath, ch.Category) {
			out = append(out, ch)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SourcePath != out[j].SourcePath {
			return out[i].SourcePath < out[j].SourcePath
		}
		return out[i].Index < out[j].Index
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Storage) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.records[id]; ok {
			drop[id] = struct{}{}
			delete(s.records, id)
		}
	}
	if len(drop) == 0 {
		return nil
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if _, gone := drop[id]; !gone {
			kept = append(kept, id)
		}
	}
	s.order = kept
	return nil
}

func (s *Storage) Close() error { return nil }
