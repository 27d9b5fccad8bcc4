// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent runs a literature review: a bounded tool-calling search
// phase that collects papers, followed by a streamed synthesis of the
// review document. Progress is reported as events on an events.Emitter.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kataras/golog"

	"github.com/pdiddy/litreview/internal/cite"
	"github.com/pdiddy/litreview/internal/events"
	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/internal/search"
	"github.com/pdiddy/litreview/pkg/types"
)

// Defaults for the search-phase bounds and token budgets.
const (
	DefaultMaxIterations           = 8
	DefaultMinIterationsBeforeStop = 3
	DefaultTargetPapers            = 5
	DefaultSearchMaxTokens         = 4096
	DefaultSynthesisMaxTokens      = 8192
)

// Terminal error messages carried by the final error event.
const (
	msgCancelled = "cancelled by user"
	msgNoPapers  = "no papers found"
	msgNoTopic   = "topic is required"
)

var (
	// ErrCancelled reports that the run observed cancellation.
	ErrCancelled = errors.New(msgCancelled)

	// ErrNoPapers reports that the search phase collected nothing.
	ErrNoPapers = errors.New(msgNoPapers)

	// ErrNoTopic reports a blank topic.
	ErrNoTopic = errors.New(msgNoTopic)
)

// ToolExecutor runs one model-requested tool call against the shared
// collection. *tools.Executor implements it.
type ToolExecutor interface {
	Execute(ctx context.Context, call llm.ToolCall, papers *search.Collection, emit events.Emitter) (string, error)
}

// Reviewer orchestrates review runs. A Reviewer holds no per-run state and
// may serve concurrent runs.
type Reviewer struct {
	client   llm.Client
	executor ToolExecutor
	logger   *golog.Logger

	model                   string
	searchMaxTokens         int
	synthesisMaxTokens      int
	maxIterations           int
	minIterationsBeforeStop int
	targetPapers            int
}

// Option configures a Reviewer.
type Option func(*Reviewer)

// WithMaxIterations sets the hard ceiling on search-phase iterations.
func WithMaxIterations(n int) Option {
	return func(r *Reviewer) {
		if n > 0 {
			r.maxIterations = n
		}
	}
}

// WithMinIterationsBeforeStop sets the iteration from which a turn without
// tool calls ends the search phase.
func WithMinIterationsBeforeStop(n int) Option {
	return func(r *Reviewer) {
		if n > 0 {
			r.minIterationsBeforeStop = n
		}
	}
}

// WithTargetPapers sets the paper count the model is told is enough.
func WithTargetPapers(n int) Option {
	return func(r *Reviewer) {
		if n > 0 {
			r.targetPapers = n
		}
	}
}

// WithLogger sets the logger for iteration, tool and outcome logging. A nil
// logger keeps golog.Default.
func WithLogger(l *golog.Logger) Option {
	return func(r *Reviewer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithModel overrides the client's default model.
func WithModel(model string) Option {
	return func(r *Reviewer) { r.model = model }
}

// WithMaxTokens sets the completion budgets of the two phases. Non-positive
// values keep the defaults.
func WithMaxTokens(searchPhase, synthesisPhase int) Option {
	return func(r *Reviewer) {
		if searchPhase > 0 {
			r.searchMaxTokens = searchPhase
		}
		if synthesisPhase > 0 {
			r.synthesisMaxTokens = synthesisPhase
		}
	}
}

// NewReviewer returns a Reviewer using client for both phases and executor
// for tool calls.
func NewReviewer(client llm.Client, executor ToolExecutor, opts ...Option) *Reviewer {
	r := &Reviewer{
		client:                  client,
		executor:                executor,
		logger:                  golog.Default,
		searchMaxTokens:         DefaultSearchMaxTokens,
		synthesisMaxTokens:      DefaultSynthesisMaxTokens,
		maxIterations:           DefaultMaxIterations,
		minIterationsBeforeStop: DefaultMinIterationsBeforeStop,
		targetPapers:            DefaultTargetPapers,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Outcome summarizes a finished run.
type Outcome struct {
	Status types.ReviewStatus

	// Papers is the collected set in discovery order.
	Papers []types.Paper

	// Content is every review chunk emitted, concatenated. It is partial
	// when synthesis failed or was cancelled.
	Content string

	// Iterations is the number of search-phase iterations started.
	Iterations int

	// Err is nil for completed runs.
	Err error

	Duration time.Duration
}

// Run executes one review of topic. Every run ends with exactly one terminal
// event on emit: complete on success, error otherwise. Run never returns
// before that event has been emitted.
func (r *Reviewer) Run(ctx context.Context, topic string, emit events.Emitter) Outcome {
	start := time.Now()
	out := r.run(ctx, strings.TrimSpace(topic), emit)
	out.Duration = time.Since(start)

	if out.Err != nil {
		r.logger.Infof("review %q ended %s after %d iterations with %d papers: %v",
			topic, out.Status, out.Iterations, len(out.Papers), out.Err)
	} else {
		r.logger.Infof("review %q completed in %s: %d iterations, %d papers, %d chars",
			topic, out.Duration.Round(time.Millisecond), out.Iterations, len(out.Papers), len(out.Content))
	}
	return out
}

func (r *Reviewer) run(ctx context.Context, topic string, emit events.Emitter) Outcome {
	if topic == "" {
		return r.fail(emit, Outcome{}, ErrNoTopic)
	}
	if ctx.Err() != nil {
		return r.fail(emit, Outcome{}, ErrCancelled)
	}

	emit.Emit(events.Status("Starting literature review on: " + topic))

	papers := search.NewCollection()
	iterations, err := r.searchPhase(ctx, topic, papers, emit)
	out := Outcome{Iterations: iterations, Papers: papers.Papers()}
	if err == nil && ctx.Err() != nil {
		err = ErrCancelled
	}
	if err != nil {
		return r.fail(emit, out, err)
	}

	emit.Emit(events.Status(fmt.Sprintf("Search phase complete: %d papers collected", papers.Len())))
	if papers.Len() == 0 {
		return r.fail(emit, out, ErrNoPapers)
	}

	emit.Emit(events.Status(fmt.Sprintf("Synthesizing review from %d papers", papers.Len())))
	content, err := r.synthesize(ctx, topic, out.Papers, emit)
	out.Content = content
	if err != nil {
		return r.fail(emit, out, err)
	}

	emit.Emit(events.Complete(len(out.Papers)))
	out.Status = types.ReviewCompleted

	for _, w := range cite.CheckReview(content, len(out.Papers)).Warnings() {
		r.logger.Warnf("review %q: %s", topic, w)
	}
	return out
}

// fail emits the single terminal error event for err and fills in the
// outcome status.
func (r *Reviewer) fail(emit events.Emitter, out Outcome, err error) Outcome {
	out.Err = err
	if errors.Is(err, ErrCancelled) {
		out.Status = types.ReviewCancelled
		emit.Emit(events.Error(msgCancelled))
		return out
	}
	out.Status = types.ReviewFailed
	emit.Emit(events.Error(err.Error()))
	return out
}
