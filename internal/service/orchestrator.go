// Package service routes a question through classification, the domain
// agents and, for lexical questions, synthesis.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"scangestor/internal/agent"
	"scangestor/internal/domain"
	"scangestor/internal/synth"
)

const (
	EmptyQuestionMessage = "Please type a question."
	CanceledMessage      = "⚠️ The question was canceled before an answer was ready."

	DefaultAgentTimeout = 60 * time.Second
)

// UnknownCategoryMessage is returned when a semantic question could not be
// assigned to a category.
const UnknownCategoryMessage = `⚠️ Sorry, I could not classify your question.

Try again with a question about:
- **FUNCTIONAL**: features, user behaviour, use cases or workflows.
- **TECHNICAL**: implementation, code, architecture, technologies, APIs, databases or development.
- **MANAGEMENT**: processes, organisation, documentation, planning, administration or procedures.`

type Classifier interface {
	Classify(ctx context.Context, question string) (domain.Classification, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, question string, answers synth.Answers) string
}

// Options tunes the lexical fan-out.
type Options struct {
	// AgentTimeout bounds each agent during fan-out; <= 0 selects the default.
	AgentTimeout time.Duration
	// Concurrent runs the three agents in parallel instead of one after another.
	Concurrent bool
	Logger     *slog.Logger
}

// Response is the outcome of one question.
type Response struct {
	Classification domain.Classification
	// Dispatched is false when no agent ran because the category was unknown.
	Dispatched bool
	Answer     string
}

// Orchestrator answers questions. It holds no per-question state and is safe
// for concurrent use.
type Orchestrator struct {
	classifier  Classifier
	agents      agent.Set
	synthesizer Synthesizer
	opts        Options
	logger      *slog.Logger
}

func NewOrchestrator(classifier Classifier, agents agent.Set, synthesizer Synthesizer, opts Options) *Orchestrator {
	if opts.AgentTimeout <= 0 {
		opts.AgentTimeout = DefaultAgentTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Orchestrator{classifier: classifier, agents: agents, synthesizer: synthesizer, opts: opts, logger: logger}
}

// Ask classifies question and produces the answer without any header. It
// fails only for an empty question or a canceled context.
func (o *Orchestrator) Ask(ctx context.Context, question string, showSources bool) (Response, error) {
	if strings.TrimSpace(question) == "" {
		return Response{}, domain.ErrEmptyQuestion
	}
	start := time.Now()

	cl, err := o.classifier.Classify(ctx, question)
	if err != nil {
		o.logger.Warn("classification failed, using defaults", "error", err)
		cl.Category, cl.SearchMode = domain.Unknown, domain.Semantic
	}
	if err := ctx.Err(); err != nil {
		return Response{Classification: cl}, err
	}

	resp := Response{Classification: cl}
	if cl.SearchMode == domain.Lexical {
		answers, err := o.fanOut(ctx, question, showSources)
		if err != nil {
			return resp, err
		}
		resp.Dispatched = true
		resp.Answer = o.synthesizer.Synthesize(ctx, question, answers)
	} else if a, ok := o.agents.For(cl.Category); ok {
		resp.Dispatched = true
		resp.Answer = a.Answer(ctx, question, cl.Category, cl.SearchMode, showSources)
	} else {
		resp.Answer = UnknownCategoryMessage
	}

	o.logger.Info("question answered",
		"category", cl.Category, "search_mode", cl.SearchMode,
		"dispatched", resp.Dispatched, "duration", time.Since(start))
	return resp, ctx.Err()
}

// Answer is Ask rendered for display, optionally prefixed with the
// classification header. It always returns text.
func (o *Orchestrator) Answer(ctx context.Context, question string, showCategory, showSources bool) string {
	resp, err := o.Ask(ctx, question, showSources)
	switch {
	case errors.Is(err, domain.ErrEmptyQuestion):
		return EmptyQuestionMessage
	case err != nil:
		return CanceledMessage
	}
	if !showCategory {
		return resp.Answer
	}
	return Header(resp) + resp.Answer
}

// Header describes how the question was routed.
func Header(resp Response) string {
	cl := resp.Classification
	if !resp.Dispatched {
		return fmt.Sprintf("🤖 **Category identified:** %s\n\n---\n\n", cl.Category)
	}
	label := fmt.Sprintf("📚 Semantic - %s", cl.Category)
	if cl.SearchMode == domain.Lexical {
		label = "🔍 Lexical (search across all documents)"
	}
	return fmt.Sprintf("🤖 **Search mode:** %s\n---\n", label)
}

// fanOut asks every agent with its own category. A failing or slow agent
// never cancels the others; it contributes its error text instead.
func (o *Orchestrator) fanOut(ctx context.Context, question string, showSources bool) (synth.Answers, error) {
	agents := o.agents.All()
	results := make([]string, len(agents))
	ask := func(i int) {
		a := agents[i]
		if a == nil {
			return
		}
		actx, cancel := context.WithTimeout(ctx, o.opts.AgentTimeout)
		defer cancel()
		results[i] = a.Answer(actx, question, a.Category(), domain.Lexical, showSources)
	}

	if o.opts.Concurrent {
		var g errgroup.Group
		for i := range agents {
			i := i
			g.Go(func() error {
				ask(i)
				return nil
			})
		}
		done := make(chan struct{})
		go func() {
			_ = g.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			return synth.Answers{}, ctx.Err()
		}
	} else {
		for i := range agents {
			if err := ctx.Err(); err != nil {
				return synth.Answers{}, err
			}
			ask(i)
		}
	}
	if err := ctx.Err(); err != nil {
		return synth.Answers{}, err
	}
	return synth.Answers{Functional: results[0], Technical: results[1], Management: results[2]}, nil
}
