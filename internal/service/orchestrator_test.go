package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scangestor/internal/agent"
	"scangestor/internal/domain"
	"scangestor/internal/synth"
)

type stubClassifier struct {
	cl    domain.Classification
	err   error
	calls int
}

func (s *stubClassifier) Classify(context.Context, string) (domain.Classification, error) {
	s.calls++
	return s.cl, s.err
}

type call struct {
	category domain.Category
	mode     domain.SearchMode
	sources  bool
}

type fakeAgent struct {
	category domain.Category
	reply    string
	block    bool

	mu    sync.Mutex
	calls []call
}

func (f *fakeAgent) Category() domain.Category { return f.category }

func (f *fakeAgent) Answer(ctx context.Context, _ string, c domain.Category, m domain.SearchMode, sources bool) string {
	f.mu.Lock()
	f.calls = append(f.calls, call{c, m, sources})
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return "❌ Error in the " + string(f.category) + " agent: " + ctx.Err().Error()
	}
	return f.reply
}

func (f *fakeAgent) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingSynth struct {
	answers synth.Answers
	calls   int
}

func (r *recordingSynth) Synthesize(_ context.Context, _ string, a synth.Answers) string {
	r.calls++
	r.answers = a
	return "synthesized"
}

type fixture struct {
	classifier *stubClassifier
	functional *fakeAgent
	technical  *fakeAgent
	management *fakeAgent
	synth      *recordingSynth
}

func newFixture(cl domain.Classification) *fixture {
	return &fixture{
		classifier: &stubClassifier{cl: cl},
		functional: &fakeAgent{category: domain.Functional, reply: "functional answer"},
		technical:  &fakeAgent{category: domain.Technical, reply: "technical answer"},
		management: &fakeAgent{category: domain.Management, reply: "management answer"},
		synth:      &recordingSynth{},
	}
}

func (f *fixture) orchestrator(opts Options) *Orchestrator {
	set := agent.Set{Functional: f.functional, Technical: f.technical, Management: f.management}
	return NewOrchestrator(f.classifier, set, f.synth, opts)
}

func TestAnswer_SemanticDispatchesToOneAgent(t *testing.T) {
	f := newFixture(domain.Classification{Category: domain.Technical, SearchMode: domain.Semantic})
	o := f.orchestrator(Options{})

	out := o.Answer(context.Background(), "how is the API built?", false, true)
	assert.Equal(t, "technical answer", out)
	require.Len(t, f.technical.calls, 1)
	assert.Equal(t, call{domain.Technical, domain.Semantic, true}, f.technical.calls[0])
	assert.Zero(t, f.functional.callCount())
	assert.Zero(t, f.management.callCount())
	assert.Zero(t, f.synth.calls)

	out = o.Answer(context.Background(), "how is the API built?", true, false)
	assert.Equal(t, "🤖 **Search mode:** 📚 Semantic - TECNICA\n---\ntechnical answer", out)
}

func TestAnswer_UnknownCategoryGuidance(t *testing.T) {
	f := newFixture(domain.Classification{Category: domain.Unknown, SearchMode: domain.Semantic})
	o := f.orchestrator(Options{})

	assert.Equal(t, UnknownCategoryMessage, o.Answer(context.Background(), "hello?", false, false))
	out := o.Answer(context.Background(), "hello?", true, false)
	assert.Equal(t, "🤖 **Category identified:** DESCONOCIDA\n\n---\n\n"+UnknownCategoryMessage, out)
	for _, a := range []*fakeAgent{f.functional, f.technical, f.management} {
		assert.Zero(t, a.callCount())
	}
	for _, c := range []string{"FUNCTIONAL", "TECHNICAL", "MANAGEMENT"} {
		assert.Contains(t, UnknownCategoryMessage, c)
	}
}

func TestAnswer_ClassifierFailureTreatedAsUnknown(t *testing.T) {
	f := newFixture(domain.Classification{Category: domain.Technical, SearchMode: domain.Lexical})
	f.classifier.err = errors.New("network down")
	o := f.orchestrator(Options{})

	resp, err := o.Ask(context.Background(), "q", false)
	require.NoError(t, err)
	assert.Equal(t, domain.Unknown, resp.Classification.Category)
	assert.Equal(t, domain.Semantic, resp.Classification.SearchMode)
	assert.False(t, resp.Dispatched)
	assert.Equal(t, UnknownCategoryMessage, resp.Answer)
}

func TestAnswer_LexicalFansOutAndSynthesizes(t *testing.T) {
	for _, concurrent := range []bool{true, false} {
		f := newFixture(domain.Classification{Category: domain.Functional, SearchMode: domain.Lexical})
		o := f.orchestrator(Options{Concurrent: concurrent})

		out := o.Answer(context.Background(), `where is "payment_id"`, true, true)
		assert.Equal(t, "🤖 **Search mode:** 🔍 Lexical (search across all documents)\n---\nsynthesized", out)
		assert.Equal(t, synth.Answers{
			Functional: "functional answer",
			Technical:  "technical answer",
			Management: "management answer",
		}, f.synth.answers)
		for _, a := range []*fakeAgent{f.functional, f.technical, f.management} {
			require.Len(t, a.calls, 1)
			assert.Equal(t, call{a.category, domain.Lexical, true}, a.calls[0], "each agent searches its own category")
		}
	}
}

func TestAnswer_SlowAgentTimesOutAlone(t *testing.T) {
	f := newFixture(domain.Classification{Category: domain.Functional, SearchMode: domain.Lexical})
	f.technical.block = true
	o := f.orchestrator(Options{Concurrent: true, AgentTimeout: 20 * time.Millisecond})

	start := time.Now()
	resp, err := o.Ask(context.Background(), "q", false)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, "synthesized", resp.Answer)
	assert.Equal(t, "functional answer", f.synth.answers.Functional)
	assert.True(t, strings.HasPrefix(f.synth.answers.Technical, "❌ Error in the TECNICA agent"))
	assert.Equal(t, "management answer", f.synth.answers.Management)
}

func TestAnswer_CanceledWhileFanningOut(t *testing.T) {
	f := newFixture(domain.Classification{Category: domain.Functional, SearchMode: domain.Lexical})
	f.functional.block = true
	o := f.orchestrator(Options{Concurrent: true, AgentTimeout: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := o.Ask(ctx, "q", false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.synth.calls)
	assert.Equal(t, CanceledMessage, o.Answer(ctx, "q", false, false))
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	f := newFixture(domain.Classification{})
	o := f.orchestrator(Options{})
	assert.Equal(t, EmptyQuestionMessage, o.Answer(context.Background(), "   ", true, true))
	assert.Zero(t, f.classifier.calls)

	_, err := o.Ask(context.Background(), "", false)
	assert.ErrorIs(t, err, domain.ErrEmptyQuestion)
}

func TestAnswer_SynthesisDegeneratesToSingleAnswer(t *testing.T) {
	f := newFixture(domain.Classification{Category: domain.Technical, SearchMode: domain.Lexical})
	f.functional.reply = agent.NoDocumentsNotice
	f.management.reply = agent.NoDocumentsNotice
	f.technical.reply = "Found **1 matches** in **1 files**: api.md"

	set := agent.Set{Functional: f.functional, Technical: f.technical, Management: f.management}
	o := NewOrchestrator(f.classifier, set, synth.New(failingLLM{}, nil), Options{Concurrent: true})

	out := o.Answer(context.Background(), "q", false, false)
	assert.Equal(t, "Found **1 matches** in **1 files**: api.md", out)
	assert.NotContains(t, out, "Functional area")
}

type failingLLM struct{}

func (failingLLM) Complete(context.Context, string, map[string]string) (string, error) {
	return "", errors.New("must not be called")
}
