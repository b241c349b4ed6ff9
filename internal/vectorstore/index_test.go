package vectorstore_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scangestor/internal/domain"
	"scangestor/internal/vectorstore"
	"scangestor/internal/vectorstore/memory"
)

// keywordEmbedder maps text onto a fixed keyword basis so similarity is
// predictable in tests.
type keywordEmbedder struct {
	words []string
	calls int
	fail  error
}

func (e *keywordEmbedder) Name() string   { return "keyword" }
func (e *keywordEmbedder) Dimension() int { return len(e.words) }

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *keywordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float64, error) {
	e.calls++
	if e.fail != nil {
		return nil, e.fail
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v := make([]float64, len(e.words))
		for j, w := range e.words {
			v[j] = float64(strings.Count(strings.ToLower(t), w))
		}
		out[i] = v
	}
	return out, nil
}

func TestIndex_UpsertAndQuery(t *testing.T) {
	emb := &keywordEmbedder{words: []string{"factura", "usuario", "plan"}}
	ix := vectorstore.NewIndex(emb, memory.NewStorage(), 2)
	ctx := context.Background()

	err := ix.Upsert(ctx, []domain.Chunk{
		{ID: "1", Text: "Subir una factura", SourcePath: "d/FUNCIONAL/f.md", Category: "FUNCIONAL"},
		{ID: "2", Text: "Alta de usuario", SourcePath: "d/TECNICA/u.md", Category: "TECNICA"},
		{ID: "3", Text: "Plan de proyecto", SourcePath: "d/GESTION/p.md", Category: "GESTION"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, emb.calls, "three chunks in batches of two")

	hits, err := ix.Query(ctx, "factura", 3, domain.Filter{})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "d/FUNCIONAL/f.md", hits[0].SourcePath)
	assert.Equal(t, 1, hits[0].Rank)

	hits, err = ix.Query(ctx, "factura", 3, domain.Filter{Category: "GESTION"})
	require.NoError(t, err)
	for _, h := range hits {
		assert.Equal(t, "GESTION", h.Category)
	}

	chunks, err := ix.Get(ctx, domain.Filter{SourceFile: "d/TECNICA/u.md"}, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.NoError(t, ix.Delete(ctx, []string{chunks[0].ID}))
	chunks, err = ix.Get(ctx, domain.Filter{SourceFile: "d/TECNICA/u.md"}, 0)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestIndex_EmbedFailureWritesNothing(t *testing.T) {
	emb := &keywordEmbedder{words: []string{"a"}, fail: errors.New("quota")}
	storage := memory.NewStorage()
	ix := vectorstore.NewIndex(emb, storage, 0)

	err := ix.Upsert(context.Background(), []domain.Chunk{{ID: "1", Text: "a"}})
	require.Error(t, err)
	chunks, err := storage.Get(context.Background(), domain.Filter{}, 0)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestIndex_DimensionChangeRejected(t *testing.T) {
	emb := &keywordEmbedder{words: []string{"a", "b"}}
	ix := vectorstore.NewIndex(emb, memory.NewStorage(), 0)
	ctx := context.Background()
	require.NoError(t, ix.Upsert(ctx, []domain.Chunk{{ID: "1", Text: "a"}}))

	emb.words = []string{"a", "b", "c"}
	_, err := ix.Query(ctx, "a", 1, domain.Filter{})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, vectorstore.Cosine([]float64{1, 1}, []float64{2, 2}), 1e-9)
	assert.InDelta(t, 0.0, vectorstore.Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Equal(t, 0.0, vectorstore.Cosine([]float64{0, 0}, []float64{1, 1}))
}
