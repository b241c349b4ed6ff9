// Package lexical finds literal occurrences of terms in the markdown files of
// a category folder.
package lexical

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	quotedRe = regexp.MustCompile(`"([^"]+)"|“([^”]+)”|‘([^’]+)’|(?:^|[^\p{L}\p{N}])'([^']+)'`)
	// Hyphenated identifiers stay whole so they can be preferred below.
	tokenRe = regexp.MustCompile(`[\p{L}\p{N}_]+(?:-[\p{L}\p{N}_]+)*`)
)

const minTermLen = 4

var stopwords = newStopwords(`
	el la los las un una de en y o que se donde dónde como cómo cual cuál este esta está es son
	aparece hay tiene busca encuentra campo variable string funcion función metodo método
	archivo documento codigo código documentación documentacion para sobre cuando
	the and for are was what where which who how does have has with from this that there
	field function method file document code appears find search show tell
	about into also
`)

// Extract derives literal search terms from a question. Quoted substrings win
// and are returned verbatim in order. Otherwise the single longest remaining
// token is returned, preferring identifier-like tokens (containing _ or -).
// An empty result means nothing can be searched.
func Extract(question string) []string {
	var terms []string
	for _, m := range quotedRe.FindAllStringSubmatch(question, -1) {
		for _, g := range m[1:] {
			if strings.TrimSpace(g) != "" {
				terms = append(terms, g)
				break
			}
		}
	}
	if len(terms) > 0 {
		return terms
	}

	var candidates, identifiers []string
	for _, tok := range tokenRe.FindAllString(strings.ToLower(question), -1) {
		if utf8.RuneCountInString(tok) < minTermLen {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		candidates = append(candidates, tok)
		if strings.ContainsAny(tok, "_-") {
			identifiers = append(identifiers, tok)
		}
	}
	if best := longest(identifiers); best != "" {
		return []string{best}
	}
	if best := longest(candidates); best != "" {
		return []string{best}
	}
	return nil
}

// longest returns the first token of maximal rune length.
func longest(tokens []string) string {
	best, bestLen := "", 0
	for _, t := range tokens {
		if n := utf8.RuneCountInString(t); n > bestLen {
			best, bestLen = t, n
		}
	}
	return best
}

func newStopwords(list string) map[string]struct{} {
	m := make(map[string]struct{})
	for _, w := range strings.Fields(list) {
		m[w] = struct{}{}
	}
	return m
}
