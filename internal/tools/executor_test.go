// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litreview/internal/events"
	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/internal/search"
	"github.com/pdiddy/litreview/pkg/types"
)

type fakeProvider struct {
	source  types.Source
	results []types.Paper
	err     error
	details map[string]types.Paper

	queries []string
	limits  []int
}

func (f *fakeProvider) Source() types.Source { return f.source }

func (f *fakeProvider) Search(_ context.Context, query string, limit int) ([]types.Paper, error) {
	f.queries = append(f.queries, query)
	f.limits = append(f.limits, limit)
	return f.results, f.err
}

func (f *fakeProvider) Detail(_ context.Context, id string) (types.Paper, bool) {
	p, ok := f.details[id]
	return p, ok
}

func call(name string, input string) llm.ToolCall {
	return llm.ToolCall{ID: "tu_" + name, Name: name, Input: json.RawMessage(input)}
}

func newTestExecutor(providers ...search.Provider) *Executor {
	return NewExecutor(providers, WithDelays(0, 0))
}

func TestExecuteSearchCollectsAndEmits(t *testing.T) {
	s2 := &fakeProvider{source: types.SourceSemanticScholar, results: []types.Paper{
		{ID: "a", Title: "Paper A", Source: types.SourceSemanticScholar, CitationCount: types.IntPtr(0)},
		{ID: "b", Title: "Paper B", Source: types.SourceSemanticScholar},
	}}
	x := newTestExecutor(s2)
	papers := search.NewCollection()
	var rec events.Recorder

	out, err := x.Execute(context.Background(), call("search_semantic_scholar", `{"query":"federated learning","limit":5}`), papers, &rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"federated learning"}, s2.queries)
	assert.Equal(t, []int{5}, s2.limits)
	assert.Equal(t, 2, papers.Len())

	assert.Equal(t, []events.Type{
		events.TypeStatus,
		events.TypePaperFound, events.TypePaperFound,
		events.TypePapersCount,
	}, rec.Types())
	assert.Equal(t, events.CountData{Count: 2}, rec.OfType(events.TypePapersCount)[0].Data)
	assert.Equal(t, "Searching Semantic Scholar for: federated learning", rec.Events()[0].Text())

	var res searchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.NewPapers)
	assert.Equal(t, 2, res.TotalCollected)
	require.Len(t, res.Results, 2)
	require.NotNil(t, res.Results[0].CitationCount)
	assert.Equal(t, 0, *res.Results[0].CitationCount)
}

func TestExecuteSearchDefaultLimit(t *testing.T) {
	ax := &fakeProvider{source: types.SourceArxiv}
	x := NewExecutor([]search.Provider{ax}, WithDelays(0, 0), WithDefaultLimit(7))

	_, err := x.Execute(context.Background(), call("search_arxiv", `{"query":"q"}`), search.NewCollection(), events.Discard)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, ax.limits)
}

// Semantic Scholar returns 3 papers, arXiv 2 with one duplicate title:
// papers_count goes 3 then 4 and the duplicate emits nothing.
func TestExecuteDeduplicatesAcrossProviders(t *testing.T) {
	s2 := &fakeProvider{source: types.SourceSemanticScholar, results: []types.Paper{
		{Title: "Differential Privacy for FL"},
		{Title: "Secure Aggregation"},
		{Title: "Local Differential Privacy"},
	}}
	ax := &fakeProvider{source: types.SourceArxiv, results: []types.Paper{
		{Title: "  secure aggregation "},
		{Title: "Gradient Leakage Attacks"},
	}}
	x := newTestExecutor(s2, ax)
	papers := search.NewCollection()
	var rec events.Recorder

	_, err := x.Execute(context.Background(), call("search_semantic_scholar", `{"query":"federated learning privacy"}`), papers, &rec)
	require.NoError(t, err)
	out, err := x.Execute(context.Background(), call("search_arxiv", `{"query":"federated learning privacy"}`), papers, &rec)
	require.NoError(t, err)

	assert.Equal(t, 4, papers.Len())

	var counts []int
	for _, e := range rec.OfType(events.TypePapersCount) {
		counts = append(counts, e.Data.(events.CountData).Count)
	}
	assert.Equal(t, []int{3, 4}, counts)
	assert.Len(t, rec.OfType(events.TypePaperFound), 4)

	var res searchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.NewPapers)
	assert.Len(t, res.Results, 2, "duplicates are still reported back to the model")
}

func TestExecuteOnlyDuplicatesEmitsNoCount(t *testing.T) {
	s2 := &fakeProvider{source: types.SourceSemanticScholar, results: []types.Paper{{Title: "Secure Aggregation"}}}
	x := newTestExecutor(s2)
	papers := search.NewCollection()
	papers.Add(types.Paper{Title: "secure aggregation"})
	var rec events.Recorder

	_, err := x.Execute(context.Background(), call("search_semantic_scholar", `{"query":"q"}`), papers, &rec)
	require.NoError(t, err)

	assert.Equal(t, []events.Type{events.TypeStatus}, rec.Types())
	assert.Equal(t, 1, papers.Len())
}

func TestExecuteTruncatesAbstracts(t *testing.T) {
	long := strings.Repeat("é", 800)
	s2 := &fakeProvider{source: types.SourceSemanticScholar, results: []types.Paper{{Title: "Long", Abstract: long}}}
	x := newTestExecutor(s2)

	out, err := x.Execute(context.Background(), call("search_semantic_scholar", `{"query":"q"}`), search.NewCollection(), events.Discard)
	require.NoError(t, err)

	var res searchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, strings.Repeat("é", 497)+"...", res.Results[0].Abstract)
	assert.Equal(t, MaxAbstractChars, utf8.RuneCountInString(res.Results[0].Abstract))
}

func TestExecuteProviderErrorReturned(t *testing.T) {
	perr := &search.ProviderError{Provider: types.SourceArxiv, StatusCode: 503, Err: errors.New("unavailable")}
	ax := &fakeProvider{source: types.SourceArxiv, err: perr}
	x := newTestExecutor(ax)
	var rec events.Recorder

	_, err := x.Execute(context.Background(), call("search_arxiv", `{"query":"q"}`), search.NewCollection(), &rec)
	var got *search.ProviderError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 503, got.StatusCode)
	assert.Equal(t, []events.Type{events.TypeStatus}, rec.Types())
}

func TestExecuteUnknownTool(t *testing.T) {
	x := newTestExecutor()
	var rec events.Recorder

	out, err := x.Execute(context.Background(), call("search_google", `{}`), search.NewCollection(), &rec)
	require.NoError(t, err)
	assert.Contains(t, out, "Unknown tool: search_google")
	assert.Empty(t, rec.Events())
}

func TestExecuteInvalidArguments(t *testing.T) {
	x := newTestExecutor(&fakeProvider{source: types.SourceArxiv}, &fakeProvider{source: types.SourceSemanticScholar})

	tests := []struct {
		name string
		call llm.ToolCall
	}{
		{"missing query", call("search_arxiv", `{}`)},
		{"malformed json", call("search_arxiv", `{"query":`)},
		{"bad source", call("get_paper_details", `{"paper_id":"x","source":"pubmed"}`)},
		{"missing paper id", call("get_paper_details", `{"source":"arxiv"}`)},
		{"findings without title", call("extract_key_findings", `{"findings":["a"]}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := x.Execute(context.Background(), tt.call, search.NewCollection(), events.Discard)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid arguments")
		})
	}
}

func TestExecuteMissingProvider(t *testing.T) {
	x := newTestExecutor()
	_, err := x.Execute(context.Background(), call("search_arxiv", `{"query":"q"}`), search.NewCollection(), events.Discard)
	assert.ErrorContains(t, err, "not configured")
}

func TestExecuteDetail(t *testing.T) {
	ax := &fakeProvider{source: types.SourceArxiv, details: map[string]types.Paper{
		"2301.07041": {ID: "2301.07041", Title: "Found Paper", Source: types.SourceArxiv},
	}}
	x := newTestExecutor(ax)
	papers := search.NewCollection()
	var rec events.Recorder

	out, err := x.Execute(context.Background(), call("get_paper_details", `{"paper_id":"2301.07041","source":"arxiv"}`), papers, &rec)
	require.NoError(t, err)
	assert.Contains(t, out, "Found Paper")
	assert.Equal(t, 1, papers.Len())
	assert.Equal(t, []events.Type{events.TypeStatus, events.TypePaperFound, events.TypePapersCount}, rec.Types())

	out, err = x.Execute(context.Background(), call("get_paper_details", `{"paper_id":"missing","source":"arxiv"}`), papers, events.Discard)
	require.NoError(t, err)
	assert.Contains(t, out, "Paper not found: missing")
}

func TestExecuteExtractFindingsEchoes(t *testing.T) {
	x := newTestExecutor()
	input := `{"paper_title":"Secure Aggregation","findings":["masks cancel","dropout tolerant"]}`

	out, err := x.Execute(context.Background(), call("extract_key_findings", input), search.NewCollection(), events.Discard)
	require.NoError(t, err)
	assert.JSONEq(t, input, out)
}

func TestExecuteCancelledDuringDelay(t *testing.T) {
	s2 := &fakeProvider{source: types.SourceSemanticScholar}
	x := NewExecutor([]search.Provider{s2}, WithDelays(DefaultSearchDelay, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := x.Execute(ctx, call("search_semantic_scholar", `{"query":"q"}`), search.NewCollection(), events.Discard)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, s2.queries, "provider is not called after cancellation")
}

func TestDefinitionsMatchKinds(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, len(Kinds))
	for i, d := range defs {
		assert.Equal(t, string(Kinds[i]), d.Name)
		k, ok := ParseKind(d.Name)
		assert.True(t, ok)
		assert.Equal(t, Kinds[i], k)
		assert.NotEmpty(t, d.Required)
	}
	_, ok := ParseKind("nope")
	assert.False(t, ok)
}

func TestTruncateAbstract(t *testing.T) {
	assert.Equal(t, "short", TruncateAbstract("short"))
	exact := strings.Repeat("a", MaxAbstractChars)
	assert.Equal(t, exact, TruncateAbstract(exact))

	long := strings.Repeat("é", MaxAbstractChars+40)
	got := TruncateAbstract(long)
	assert.Equal(t, MaxAbstractChars, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("é", MaxAbstractChars-3)+"...", got)
}
