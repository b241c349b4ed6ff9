// Package semantic retrieves the chunks most similar to a question,
// restricted to the question's category.
package semantic

import (
	"context"

	"scangestor/internal/domain"
)

const DefaultTopK = 3

type Searcher struct {
	index domain.VectorIndex
	topK  int
}

// NewSearcher builds a Searcher; topK <= 0 selects DefaultTopK.
func NewSearcher(index domain.VectorIndex, topK int) *Searcher {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Searcher{index: index, topK: topK}
}

// Search queries the index filtered by category. Unknown applies no filter.
// An empty result is not an error.
func (s *Searcher) Search(ctx context.Context, question string, category domain.Category) ([]domain.SemanticHit, error) {
	var filter domain.Filter
	if category.Known() {
		filter.Category = string(category)
	}
	return s.index.Query(ctx, question, s.topK, filter)
}
