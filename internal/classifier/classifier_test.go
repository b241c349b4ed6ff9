package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scangestor/internal/domain"
)

type stubLLM struct {
	reply string
	err   error
	vars  map[string]string
}

func (s *stubLLM) Complete(_ context.Context, _ string, vars map[string]string) (string, error) {
	s.vars = vars
	return s.reply, s.err
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		category domain.Category
		mode     domain.SearchMode
		why      string
	}{
		{
			name:     "english labels",
			reply:    "Category: TECNICA\nSearch mode: LEXICA\nJustification: asks for a field name",
			category: domain.Technical,
			mode:     domain.Lexical,
			why:      "asks for a field name",
		},
		{
			name:     "spanish labels with accents",
			reply:    "Categoría: gestión\nTipo de búsqueda: Léxica\nJustificación: procedimiento",
			category: domain.Management,
			mode:     domain.Lexical,
			why:      "procedimiento",
		},
		{
			name:     "markdown bold",
			reply:    "**Category:** FUNCIONAL\n**Search mode:** SEMANTICA",
			category: domain.Functional,
			mode:     domain.Semantic,
		},
		{
			name:     "missing search mode",
			reply:    "Category: FUNCIONAL\nJustification: user flow",
			category: domain.Functional,
			mode:     domain.Semantic,
			why:      "user flow",
		},
		{
			name:     "unrecognized category",
			reply:    "Category: MARKETING\nSearch mode: LEXICA",
			category: domain.Unknown,
			mode:     domain.Lexical,
		},
		{
			name:     "free text",
			reply:    "I cannot decide.",
			category: domain.Unknown,
			mode:     domain.Semantic,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl := Parse(tt.reply)
			assert.Equal(t, tt.category, cl.Category)
			assert.Equal(t, tt.mode, cl.SearchMode)
			assert.Equal(t, tt.why, cl.Justification)
		})
	}
}

func TestClassify(t *testing.T) {
	llm := &stubLLM{reply: "Category: GESTION\nSearch mode: SEMANTICA"}
	cl, err := New(llm, nil).Classify(context.Background(), "who leads the project?")
	require.NoError(t, err)
	assert.Equal(t, domain.Management, cl.Category)
	assert.Equal(t, "who leads the project?", llm.vars["question"])
}

func TestClassify_FailureFallsBack(t *testing.T) {
	llm := &stubLLM{err: errors.New("quota exceeded")}
	cl, err := New(llm, nil).Classify(context.Background(), "q")
	require.Error(t, err)
	assert.Equal(t, domain.Unknown, cl.Category)
	assert.Equal(t, domain.Semantic, cl.SearchMode)
	assert.Contains(t, cl.Justification, "quota exceeded")
}
