// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kataras/golog"

	"github.com/pdiddy/litreview/pkg/types"
)

// arxivAPIBase is the arXiv query endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

const arxivAbsURL = "https://arxiv.org/abs/"

// Arxiv queries the arXiv Atom API.
type Arxiv struct {
	Client    *http.Client
	UserAgent string
	Logger    *golog.Logger
}

// NewArxiv builds the adapter from search configuration.
func NewArxiv(client *http.Client, cfg types.SearchConfig, logger *golog.Logger) *Arxiv {
	return &Arxiv{Client: client, UserAgent: cfg.UserAgent, Logger: logger}
}

// Source returns the provider tag.
func (a *Arxiv) Source() types.Source { return types.SourceArxiv }

// Search runs an all-fields query sorted by relevance.
func (a *Arxiv) Search(ctx context.Context, query string, limit int) ([]types.Paper, error) {
	q := buildArxivQuery(query)
	if q == "" {
		return nil, &ProviderError{Provider: a.Source(), Err: fmt.Errorf("empty query")}
	}

	params := url.Values{
		"search_query": {q},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(ClampLimit(limit))},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}

	feed, err := a.fetch(ctx, params)
	if err != nil {
		return nil, err
	}
	return feed.papers(), nil
}

// Detail looks up one entry through the id_list variant of the query endpoint.
func (a *Arxiv) Detail(ctx context.Context, id string) (types.Paper, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.Paper{}, false
	}

	feed, err := a.fetch(ctx, url.Values{"id_list": {id}, "max_results": {"1"}})
	if err != nil {
		a.logger().Debugf("arxiv detail %s: %v", id, err)
		return types.Paper{}, false
	}
	papers := feed.papers()
	if len(papers) == 0 {
		return types.Paper{}, false
	}
	return papers[0], true
}

func (a *Arxiv) fetch(ctx context.Context, params url.Values) (*arxivFeed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &ProviderError{Provider: a.Source(), Err: fmt.Errorf("creating request: %w", err)}
	}
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: a.Source(), Err: fmt.Errorf("request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &ProviderError{
			Provider:   a.Source(),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, &ProviderError{Provider: a.Source(), Err: fmt.Errorf("parsing feed: %w", err)}
	}
	return &feed, nil
}

func (a *Arxiv) logger() *golog.Logger {
	if a.Logger == nil {
		return golog.Default
	}
	return a.Logger
}

// buildArxivQuery turns free text into an all-fields conjunction,
// e.g. "federated learning" -> "all:federated AND all:learning".
func buildArxivQuery(query string) string {
	terms := strings.Fields(query)
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		parts = append(parts, "all:"+t)
	}
	return strings.Join(parts, " AND ")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

func (f *arxivFeed) papers() []types.Paper {
	papers := make([]types.Paper, 0, len(f.Entries))
	for _, e := range f.Entries {
		if p, ok := e.toPaper(); ok {
			papers = append(papers, p)
		}
	}
	return papers
}

// toPaper normalizes an Atom entry. Titles and abstracts arrive wrapped
// across lines, so internal whitespace is collapsed.
func (e arxivEntry) toPaper() (types.Paper, bool) {
	title := collapseSpace(e.Title)
	if title == "" {
		return types.Paper{}, false
	}

	id := extractArxivID(e.ID)
	p := types.Paper{
		ID:       id,
		Title:    title,
		Authors:  []string{},
		Abstract: collapseSpace(e.Summary),
		Year:     parseYear(e.Published),
		URL:      strings.TrimSpace(e.ID),
		Source:   types.SourceArxiv,
	}
	for _, a := range e.Authors {
		if name := collapseSpace(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	if p.URL == "" && id != "" {
		p.URL = arxivAbsURL + id
	}
	return p, true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// parseYear derives the year from an RFC 3339 published timestamp, falling
// back to a leading four-digit year.
func parseYear(published string) *int {
	published = strings.TrimSpace(published)
	if t, err := time.Parse(time.RFC3339, published); err == nil {
		return types.IntPtr(t.Year())
	}
	if len(published) >= 4 {
		if y, err := strconv.Atoi(published[:4]); err == nil {
			return types.IntPtr(y)
		}
	}
	return nil
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" -> "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return strings.TrimSpace(idURL)
	}
	id := strings.TrimSpace(idURL[idx+len(prefix):])

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
