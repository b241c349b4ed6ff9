package domain

import "context"

// Document is a markdown file discovered under the documents root.
type Document struct {
	Path     string
	Category string
	Content  string
}

// Chunk is a bounded span of a document stored in the vector index.
type Chunk struct {
	ID         string
	Text       string
	SourcePath string
	Category   string
	Index      int
}

// Filter restricts index operations by metadata. Empty fields match everything.
type Filter struct {
	SourceFile string
	Category   string
}

// IsZero reports whether the filter matches every chunk.
func (f Filter) IsZero() bool { return f.SourceFile == "" && f.Category == "" }

// Matches reports whether chunk metadata satisfies f.
func (f Filter) Matches(sourceFile, category string) bool {
	if f.SourceFile != "" && f.SourceFile != sourceFile {
		return false
	}
	if f.Category != "" && f.Category != category {
		return false
	}
	return true
}

// SemanticHit is a chunk returned by a similarity query, in relevance order.
type SemanticHit struct {
	Text       string
	SourcePath string
	Category   string
	Rank       int
	Score      float64
}

// LexicalHit is one line of a markdown file containing a search term.
type LexicalHit struct {
	File    string
	Line    int
	Term    string
	Context string
}

// Embedder converts free text into numeric vectors.
type Embedder interface {
	Name() string
	// Dimension is zero until the first successful embedding.
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Chunker splits raw document text into ordered chunk strings.
type Chunker interface {
	Chunk(text string) []string
}

// VectorIndex stores chunk embeddings with metadata and answers filtered queries.
// Implementations embed text themselves.
type VectorIndex interface {
	Upsert(ctx context.Context, chunks []Chunk) error
	Query(ctx context.Context, text string, topK int, filter Filter) ([]SemanticHit, error)
	// Get returns chunks matching filter; limit <= 0 means no limit.
	Get(ctx context.Context, filter Filter, limit int) ([]Chunk, error)
	Delete(ctx context.Context, ids []string) error
}

// LLM completes a prompt template rendered with the given variables.
type LLM interface {
	Complete(ctx context.Context, template string, vars map[string]string) (string, error)
}
