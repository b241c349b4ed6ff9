package lexical

import (
	"os"
	"path/filepath"
	"strings"

	"scangestor/internal/domain"
)

const (
	contextBefore = 2
	contextAfter  = 1
)

// Search scans the markdown files directly under folder and records at most
// one hit per line, the first term that matches case-insensitively. Hits keep
// file and line order. Unreadable files and a missing folder yield no hits.
func Search(terms []string, folder string) []domain.LexicalHit {
	if len(terms) == 0 {
		return nil
	}
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil
	}
	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}

	var hits []domain.LexicalHit
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(folder, e.Name()))
		if err != nil {
			continue
		}
		hits = append(hits, searchLines(e.Name(), string(data), terms, lowered)...)
	}
	return hits
}

func searchLines(file, content string, terms, lowered []string) []domain.LexicalHit {
	lines := strings.Split(content, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	var hits []domain.LexicalHit
	for i, line := range lines {
		l := strings.ToLower(line)
		for j, term := range lowered {
			if !strings.Contains(l, term) {
				continue
			}
			from := max(0, i-contextBefore)
			to := min(len(lines), i+contextAfter+1)
			hits = append(hits, domain.LexicalHit{
				File:    file,
				Line:    i + 1,
				Term:    terms[j],
				Context: strings.Join(lines[from:to], "\n"),
			})
			break
		}
	}
	return hits
}
