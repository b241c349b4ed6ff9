// Package synth fuses the three agents' answers to a lexical question into a
// single response.
package synth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"scangestor/internal/agent"
	"scangestor/internal/domain"
	"scangestor/internal/lexical"
)

const promptTemplate = `You are an expert at consolidating information from several sources.

Analyse the answers of three specialised agents (Functional, Technical and Management) and write ONE coherent, well structured and complete answer for the user.

ORIGINAL QUESTION: {question}

---

**FUNCTIONAL AGENT ANSWER:**
{functional}

---

**TECHNICAL AGENT ANSWER:**
{technical}

---

**MANAGEMENT AGENT ANSWER:**
{management}

---

SYNTHESIS INSTRUCTIONS:
1. If an answer says "No matches found" or "No relevant documents", ignore it and focus on the ones with results.
2. If every answer says there are no results, state clearly that no information was found.
3. Organise the information by category (Functional, Technical, Management) ONLY if several categories have results.
4. Remove redundancy and duplicates.
5. Keep file and line references when available.
6. Write a fluent, natural answer; do not copy and paste literally.
7. If only one category has results, present that information directly without mentioning the other categories.

SYNTHESISED ANSWER:`

// NothingFound is returned when no agent produced results.
const NothingFound = "⚠️ No information matching your question was found in the functional, technical or management documentation."

// Answers are the three agent outputs to fuse.
type Answers struct {
	Functional string
	Technical  string
	Management string
}

type Synthesizer struct {
	llm    domain.LLM
	logger *slog.Logger
}

func New(llm domain.LLM, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Synthesizer{llm: llm, logger: logger}
}

// Synthesize merges answers with the LLM. Branches without results are
// dropped first; when at most one remains no LLM call is made. If the call
// fails every answer is returned verbatim under fixed headings with an error
// note.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, a Answers) string {
	var found []string
	for _, ans := range []string{a.Functional, a.Technical, a.Management} {
		if !IsEmptyResult(ans) {
			found = append(found, ans)
		}
	}
	switch len(found) {
	case 0:
		if a.Functional == a.Technical && a.Technical == a.Management {
			return a.Functional
		}
		return NothingFound
	case 1:
		return found[0]
	}

	out, err := s.llm.Complete(ctx, promptTemplate, map[string]string{
		"question":   question,
		"functional": a.Functional,
		"technical":  a.Technical,
		"management": a.Management,
	})
	if err != nil {
		s.logger.Warn("synthesis failed, concatenating answers", "error", err)
		return Fallback(a, err)
	}
	return out
}

// IsEmptyResult reports whether an agent answer carries no retrieved content.
func IsEmptyResult(answer string) bool {
	answer = strings.TrimSpace(answer)
	return answer == "" ||
		strings.HasPrefix(answer, lexical.NoMatchesPrefix) ||
		answer == agent.NoDocumentsNotice ||
		answer == agent.NoTermsNotice
}

// Fallback concatenates the answers under fixed headings.
func Fallback(a Answers, err error) string {
	return fmt.Sprintf(`## Lexical search results

### 📋 Functional area
%s

### 🔧 Technical area
%s

### 📊 Management area
%s

---
⚠️ Note: error synthesizing answers: %v`, a.Functional, a.Technical, a.Management, err)
}
