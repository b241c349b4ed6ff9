package lexical

import (
	"fmt"
	"strings"

	"scangestor/internal/domain"
)

const maxHitsPerFile = 3

// NoMatchesPrefix starts the report produced when no line matched.
const NoMatchesPrefix = "⚠️ No matches found for the search terms"

// Format renders hits grouped by file, at most three per file, followed by
// the consulted files when showSources is set.
func Format(terms []string, hits []domain.LexicalHit, showSources bool) string {
	joined := strings.Join(terms, ", ")
	if len(hits) == 0 {
		return fmt.Sprintf("%s: %s", NoMatchesPrefix, joined)
	}

	var files []string
	byFile := make(map[string][]domain.LexicalHit)
	for _, h := range hits {
		if _, ok := byFile[h.File]; !ok {
			files = append(files, h.File)
		}
		byFile[h.File] = append(byFile[h.File], h)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 **Lexical search for:** %s\n\n", joined)
	fmt.Fprintf(&b, "Found **%d matches** in **%d files**:\n\n", len(hits), len(files))
	for _, f := range files {
		fh := byFile[f]
		fmt.Fprintf(&b, "### 📄 %s\n", f)
		for _, h := range fh[:min(len(fh), maxHitsPerFile)] {
			fmt.Fprintf(&b, "\n**Line %d:**\n```\n%s\n```\n", h.Line, h.Context)
		}
		if extra := len(fh) - maxHitsPerFile; extra > 0 {
			fmt.Fprintf(&b, "\n_... and %d more matches in this file_\n", extra)
		}
		b.WriteString("\n")
	}
	if showSources {
		b.WriteString("\n📚 **Files consulted:**\n")
		for i, f := range files {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("- " + f)
		}
	}
	return b.String()
}
