// Package agent implements the three domain answering agents. Each agent
// answers either with a lexical match report over its own category folder or
// with an LLM answer grounded in semantic search results.
package agent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"scangestor/internal/domain"
	"scangestor/internal/lexical"
)

const (
	NoTermsNotice     = "⚠️ Could not extract search terms from your question. Try again stating clearly the term you are looking for."
	NoDocumentsNotice = "⚠️ No relevant documents were found in the database to answer your question."
)

// Agent answers a question for one fixed category. Answer never fails:
// errors are rendered into the returned text.
type Agent interface {
	Category() domain.Category
	Answer(ctx context.Context, question string, category domain.Category, mode domain.SearchMode, showSources bool) string
}

// Searcher is the semantic retrieval an agent depends on.
type Searcher interface {
	Search(ctx context.Context, question string, category domain.Category) ([]domain.SemanticHit, error)
}

// Deps are the collaborators shared by all agents.
type Deps struct {
	Searcher Searcher
	LLM      domain.LLM
	// DocsRoot holds one subfolder per category, scanned by lexical search.
	DocsRoot string
	Logger   *slog.Logger
}

// base carries what differs between agents as data; the variants below only
// choose it.
type base struct {
	deps     Deps
	category domain.Category
	name     string
	template string
	extra    map[string]string
}

func newBase(deps Deps, category domain.Category, name, template string, extra map[string]string) base {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return base{deps: deps, category: category, name: name, template: template, extra: extra}
}

func (a *base) Category() domain.Category { return a.category }

func (a *base) Answer(ctx context.Context, question string, category domain.Category, mode domain.SearchMode, showSources bool) string {
	var (
		out string
		err error
	)
	if mode == domain.Lexical {
		out = a.lexicalAnswer(question, showSources)
	} else {
		out, err = a.semanticAnswer(ctx, question, category, mode, showSources)
	}
	if err != nil {
		a.deps.Logger.Warn("agent failed", "agent", a.name, "error", err)
		return fmt.Sprintf("❌ Error in the %s agent: %v", a.name, err)
	}
	return out
}

func (a *base) lexicalAnswer(question string, showSources bool) string {
	terms := lexical.Extract(question)
	if len(terms) == 0 {
		return NoTermsNotice
	}
	folder := filepath.Join(a.deps.DocsRoot, string(a.category))
	hits := lexical.Search(terms, folder)
	a.deps.Logger.Debug("lexical search", "agent", a.name, "terms", terms, "hits", len(hits))
	return lexical.Format(terms, hits, showSources)
}

func (a *base) semanticAnswer(ctx context.Context, question string, category domain.Category, mode domain.SearchMode, showSources bool) (string, error) {
	hits, err := a.deps.Searcher.Search(ctx, question, category)
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}
	if len(hits) == 0 {
		return NoDocumentsNotice, nil
	}
	vars := map[string]string{
		"category":    string(category),
		"search_mode": string(mode),
		"context":     BuildContext(hits),
		"question":    question,
	}
	for k, v := range a.extra {
		vars[k] = v
	}
	answer, err := a.deps.LLM.Complete(ctx, a.template, vars)
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}
	if showSources {
		answer += "\n\n📚 **Sources consulted:**\n" + formatSources(hits)
	}
	return answer, nil
}

// BuildContext concatenates hits as labeled documents for the prompt.
func BuildContext(hits []domain.SemanticHit) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = fmt.Sprintf("[Document %d - %s]\n%s", i+1, h.SourcePath, h.Text)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func formatSources(hits []domain.SemanticHit) string {
	seen := make(map[string]bool, len(hits))
	var lines []string
	for _, h := range hits {
		if seen[h.SourcePath] {
			continue
		}
		seen[h.SourcePath] = true
		lines = append(lines, "- "+h.SourcePath)
	}
	return strings.Join(lines, "\n")
}
