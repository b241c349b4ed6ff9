// Package classifier labels a question with a domain category and a search
// mode by asking the LLM and parsing its free-text reply.
package classifier

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"scangestor/internal/domain"
)

const promptTemplate = `You are an expert question classifier for the ScanGasto documentation. Classify the question along two axes.

CATEGORY (choose one):
1. FUNCIONAL: how something works, features, user behaviour, use cases, workflows.
2. TECNICA: implementation, code, architecture, technologies, APIs, databases, development.
3. GESTION: processes, organisation, documentation, planning, administration, procedures.

SEARCH MODE (choose one):
- SEMANTICA: conceptual questions that need meaning and context. Examples: "how does X work?", "what does Y do?", "what is Z for?"
- LEXICA: lookups of specific terms, exact field names, variables, strings or code locations. Examples: "where does field X appear?", "which file defines variable Y?", "search for the string Z"

Reply ONLY with this format:
Category: [FUNCIONAL/TECNICA/GESTION]
Search mode: [SEMANTICA/LEXICA]
Justification: [short explanation]

Question: {question}`

var (
	categoryRe      = regexp.MustCompile(`(?i)categor(?:y|ía|ia)\**\s*:\s*\**\s*(\p{L}+)`)
	searchModeRe    = regexp.MustCompile(`(?i)(?:search\s+mode|tipo\s+de\s+b[uú]squeda)\**\s*:\s*\**\s*(\p{L}+)`)
	justificationRe = regexp.MustCompile(`(?i)justificaci[oó]n|justification`)
)

// Classifier wraps the LLM call and the reply parsing.
type Classifier struct {
	llm    domain.LLM
	logger *slog.Logger
}

func New(llm domain.LLM, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Classifier{llm: llm, logger: logger}
}

// Classify asks the LLM to label question. On failure it returns the
// fallback classification (Unknown, Semantic) together with the error.
func (c *Classifier) Classify(ctx context.Context, question string) (domain.Classification, error) {
	reply, err := c.llm.Complete(ctx, promptTemplate, map[string]string{"question": question})
	if err != nil {
		fallback := domain.Classification{
			Category:      domain.Unknown,
			SearchMode:    domain.Semantic,
			Justification: "Error classifying the question: " + err.Error(),
		}
		return fallback, fmt.Errorf("classify question: %w", err)
	}
	cl := Parse(reply)
	c.logger.Debug("question classified", "category", cl.Category, "search_mode", cl.SearchMode)
	return cl, nil
}

// Parse extracts the labeled lines from a classifier reply. A missing or
// unrecognized category yields Unknown; a missing search mode yields Semantic.
func Parse(reply string) domain.Classification {
	cl := domain.Classification{Category: domain.Unknown, SearchMode: domain.Semantic}
	if m := categoryRe.FindStringSubmatch(reply); m != nil {
		cl.Category = domain.ParseCategory(m[1])
	}
	if m := searchModeRe.FindStringSubmatch(reply); m != nil {
		cl.SearchMode = domain.ParseSearchMode(m[1])
	}
	if loc := justificationRe.FindStringIndex(reply); loc != nil {
		rest := reply[loc[1]:]
		rest = strings.TrimLeft(rest, "*: \t")
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			rest = rest[:i]
		}
		cl.Justification = strings.TrimSpace(rest)
	}
	return cl
}
