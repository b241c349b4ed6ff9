// Package llm holds the prompt templating shared by every completion backend.
package llm

import (
	"regexp"
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Render substitutes {name} placeholders with vars. Placeholders without a
// value are left untouched so literal braces in documents survive. Values
// are not re-scanned for placeholders.
func Render(template string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		if v, ok := vars[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}
