package domain

import "strings"

// Category is the domain partition a question belongs to. Known values double
// as the documents subfolder names and the index category metadata.
type Category string

const (
	Functional Category = "FUNCIONAL"
	Technical  Category = "TECNICA"
	Management Category = "GESTION"
	Unknown    Category = "DESCONOCIDA"
)

// Categories lists the known categories in dispatch order.
var Categories = []Category{Functional, Technical, Management}

// ParseCategory maps a classifier label (Spanish folder name or English word,
// any case, accents allowed) to a Category. Unrecognized labels yield Unknown.
func ParseCategory(label string) Category {
	switch normalizeLabel(label) {
	case "FUNCIONAL", "FUNCTIONAL":
		return Functional
	case "TECNICA", "TECHNICAL":
		return Technical
	case "GESTION", "MANAGEMENT":
		return Management
	}
	return Unknown
}

// Known reports whether c is one of the three answerable categories.
func (c Category) Known() bool {
	return c == Functional || c == Technical || c == Management
}

// SearchMode selects between vector retrieval and literal file scanning.
type SearchMode string

const (
	Semantic SearchMode = "SEMANTICA"
	Lexical  SearchMode = "LEXICA"
)

// ParseSearchMode maps a classifier label to a SearchMode, defaulting to Semantic.
func ParseSearchMode(label string) SearchMode {
	switch normalizeLabel(label) {
	case "LEXICA", "LEXICAL":
		return Lexical
	}
	return Semantic
}

// Classification is the two-axis label assigned to a question.
type Classification struct {
	Category      Category
	SearchMode    SearchMode
	Justification string
}

var accentFolder = strings.NewReplacer("Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U")

func normalizeLabel(s string) string {
	return accentFolder.Replace(strings.ToUpper(strings.TrimSpace(s)))
}
