// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tools executes the tool calls the review agent's model requests:
// paced provider searches and detail lookups that feed the shared paper
// collection, plus an echo tool the model uses to note findings.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/kataras/golog"

	"github.com/pdiddy/litreview/internal/events"
	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/internal/search"
	"github.com/pdiddy/litreview/pkg/types"
)

const (
	// DefaultSearchDelay paces each provider search.
	DefaultSearchDelay = 800 * time.Millisecond

	// DefaultDetailDelay paces each detail lookup.
	DefaultDetailDelay = 500 * time.Millisecond

	// MaxAbstractChars bounds each abstract in a tool result.
	MaxAbstractChars = 500
)

// Executor dispatches tool calls. It is used from a single goroutine per run.
type Executor struct {
	providers    map[types.Source]search.Provider
	searchDelay  time.Duration
	detailDelay  time.Duration
	defaultLimit int
	logger       *golog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithDelays overrides the pacing delays. Zero disables a delay.
func WithDelays(searchDelay, detailDelay time.Duration) Option {
	return func(x *Executor) {
		x.searchDelay = searchDelay
		x.detailDelay = detailDelay
	}
}

// WithDefaultLimit sets the result count used when the model omits a limit.
func WithDefaultLimit(n int) Option {
	return func(x *Executor) { x.defaultLimit = n }
}

// WithLogger sets the executor logger.
func WithLogger(l *golog.Logger) Option {
	return func(x *Executor) { x.logger = l }
}

// NewExecutor returns an executor over the given providers, keyed by their
// Source.
func NewExecutor(providers []search.Provider, opts ...Option) *Executor {
	x := &Executor{
		providers:    make(map[types.Source]search.Provider, len(providers)),
		searchDelay:  DefaultSearchDelay,
		detailDelay:  DefaultDetailDelay,
		defaultLimit: search.DefaultLimit,
		logger:       golog.Default,
	}
	for _, p := range providers {
		x.providers[p.Source()] = p
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.logger == nil {
		x.logger = golog.Default
	}
	return x
}

// Execute runs one tool call and returns the result text fed back to the
// model. An unknown tool name yields a descriptive result, not an error.
// Invalid arguments and provider failures return an error the caller turns
// into an error result. Cancellation of ctx returns ctx.Err().
func (x *Executor) Execute(ctx context.Context, call llm.ToolCall, papers *search.Collection, emit events.Emitter) (string, error) {
	kind, ok := ParseKind(call.Name)
	if !ok {
		x.logger.Warnf("model requested unknown tool %q", call.Name)
		return fmt.Sprintf("Unknown tool: %s. Available tools: %s, %s, %s, %s.",
			call.Name, KindSearchSemanticScholar, KindSearchArxiv, KindPaperDetails, KindExtractFindings), nil
	}

	switch kind {
	case KindSearchSemanticScholar, KindSearchArxiv:
		var args SearchArgs
		if err := decodeArgs(call.Input, &args); err != nil {
			return "", err
		}
		src, _ := kind.source()
		return x.search(ctx, src, args, papers, emit)

	case KindPaperDetails:
		var args DetailArgs
		if err := decodeArgs(call.Input, &args); err != nil {
			return "", err
		}
		return x.detail(ctx, args, papers, emit)

	case KindExtractFindings:
		var args FindingsArgs
		if err := decodeArgs(call.Input, &args); err != nil {
			return "", err
		}
		return string(call.Input), nil
	}

	return "", fmt.Errorf("tool %s has no handler", kind)
}

func (x *Executor) search(ctx context.Context, src types.Source, args SearchArgs, papers *search.Collection, emit events.Emitter) (string, error) {
	p, err := x.provider(src)
	if err != nil {
		return "", err
	}

	emit.Emit(events.Status(fmt.Sprintf("Searching %s for: %s", sourceLabel(src), args.Query)))
	if err := sleep(ctx, x.searchDelay); err != nil {
		return "", err
	}

	limit := args.Limit
	if limit <= 0 {
		limit = x.defaultLimit
	}
	results, err := p.Search(ctx, args.Query, limit)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	added := x.collect(results, papers, emit)
	x.logger.Debugf("%s %q: %d results, %d new, %d collected", src, args.Query, len(results), added, papers.Len())

	out := searchResult{
		Source:         src,
		Query:          args.Query,
		Results:        make([]paperSummary, 0, len(results)),
		NewPapers:      added,
		TotalCollected: papers.Len(),
	}
	for _, r := range results {
		out.Results = append(out.Results, summarize(r))
	}
	return encode(out)
}

func (x *Executor) detail(ctx context.Context, args DetailArgs, papers *search.Collection, emit events.Emitter) (string, error) {
	p, err := x.provider(args.Source)
	if err != nil {
		return "", err
	}

	emit.Emit(events.Status(fmt.Sprintf("Fetching details for %s paper %s", sourceLabel(args.Source), args.PaperID)))
	if err := sleep(ctx, x.detailDelay); err != nil {
		return "", err
	}

	paper, found := p.Detail(ctx, args.PaperID)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !found {
		return fmt.Sprintf("Paper not found: %s (%s)", args.PaperID, args.Source), nil
	}

	x.collect([]types.Paper{paper}, papers, emit)
	return encode(summarize(paper))
}

// collect adds results to the collection, emitting paper_found for each
// new paper and then one papers_count with the collection size. Calls that
// add nothing emit no count. It returns the number added.
func (x *Executor) collect(results []types.Paper, papers *search.Collection, emit events.Emitter) int {
	added := 0
	for _, r := range results {
		if !papers.Add(r) {
			continue
		}
		added++
		emit.Emit(events.PaperFound(r))
	}
	if added > 0 {
		emit.Emit(events.PapersCount(papers.Len()))
	}
	return added
}

func (x *Executor) provider(src types.Source) (search.Provider, error) {
	p, ok := x.providers[src]
	if !ok {
		return nil, fmt.Errorf("provider %s is not configured", src)
	}
	return p, nil
}

func sourceLabel(src types.Source) string {
	switch src {
	case types.SourceSemanticScholar:
		return "Semantic Scholar"
	case types.SourceArxiv:
		return "arXiv"
	}
	return string(src)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type searchResult struct {
	Source         types.Source   `json:"source"`
	Query          string         `json:"query"`
	Results        []paperSummary `json:"results"`
	NewPapers      int            `json:"newPapers"`
	TotalCollected int            `json:"totalCollected"`
}

type paperSummary struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Authors       []string     `json:"authors"`
	Year          *int         `json:"year"`
	Abstract      string       `json:"abstract"`
	URL           string       `json:"url"`
	CitationCount *int         `json:"citationCount,omitempty"`
	Source        types.Source `json:"source"`
}

func summarize(p types.Paper) paperSummary {
	return paperSummary{
		ID:            p.ID,
		Title:         p.Title,
		Authors:       p.Authors,
		Year:          p.Year,
		Abstract:      TruncateAbstract(p.Abstract),
		URL:           p.URL,
		CitationCount: p.CitationCount,
		Source:        p.Source,
	}
}

// TruncateAbstract caps s at MaxAbstractChars characters. A cut abstract
// ends in "..." within that limit.
func TruncateAbstract(s string) string {
	if utf8.RuneCountInString(s) <= MaxAbstractChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxAbstractChars-len(ellipsis)]) + ellipsis
}

const ellipsis = "..."

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding tool result: %w", err)
	}
	return string(b), nil
}
