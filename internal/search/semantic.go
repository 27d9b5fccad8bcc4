// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kataras/golog"

	"github.com/pdiddy/litreview/internal/httputil"
	"github.com/pdiddy/litreview/pkg/types"
)

// semanticAPIBase is the Semantic Scholar Graph API root. Declared as a var
// so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1"

const (
	semanticFields   = "paperId,title,authors,year,abstract,url,citationCount"
	semanticPaperURL = "https://www.semanticscholar.org/paper/"
)

// SemanticScholar queries the Semantic Scholar API. It is the only provider
// that reports citation counts.
type SemanticScholar struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
	Retry     httputil.Policy
	Logger    *golog.Logger
}

// NewSemanticScholar builds the adapter from search configuration.
func NewSemanticScholar(client *http.Client, cfg types.SearchConfig, logger *golog.Logger) *SemanticScholar {
	retry := httputil.DefaultPolicy
	if cfg.RetryMax > 0 {
		retry.MaxRetries = cfg.RetryMax
	}
	if cfg.RetryBaseDelay > 0 {
		retry.BaseDelay = cfg.RetryBaseDelay
	}
	return &SemanticScholar{
		Client:    client,
		APIKey:    cfg.SemanticScholarAPIKey,
		UserAgent: cfg.UserAgent,
		Retry:     retry,
		Logger:    logger,
	}
}

// Source returns the provider tag.
func (s *SemanticScholar) Source() types.Source { return types.SourceSemanticScholar }

// Search queries /paper/search and returns normalized papers.
func (s *SemanticScholar) Search(ctx context.Context, query string, limit int) ([]types.Paper, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ProviderError{Provider: s.Source(), Err: fmt.Errorf("empty query")}
	}

	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(ClampLimit(limit))},
		"fields": {semanticFields},
	}

	var sr semanticSearchResponse
	if err := s.get(ctx, semanticAPIBase+"/paper/search?"+params.Encode(), &sr); err != nil {
		return nil, err
	}

	papers := make([]types.Paper, 0, len(sr.Data))
	for _, sp := range sr.Data {
		if p, ok := sp.toPaper(); ok {
			papers = append(papers, p)
		}
	}
	return papers, nil
}

// Detail fetches /paper/{id}. Failures are logged and reported as not found.
func (s *SemanticScholar) Detail(ctx context.Context, id string) (types.Paper, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.Paper{}, false
	}

	reqURL := semanticAPIBase + "/paper/" + url.PathEscape(id) + "?" + url.Values{"fields": {semanticFields}}.Encode()

	var sp semanticPaper
	if err := s.get(ctx, reqURL, &sp); err != nil {
		s.logger().Debugf("semantic scholar detail %s: %v", id, err)
		return types.Paper{}, false
	}
	return sp.toPaper()
}

// get performs a GET with retry on throttling and decodes the JSON body into v.
func (s *SemanticScholar) get(ctx context.Context, reqURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &ProviderError{Provider: s.Source(), Err: fmt.Errorf("creating request: %w", err)}
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	if s.APIKey != "" {
		req.Header.Set("x-api-key", s.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, s.Retry)
	if err != nil {
		return &ProviderError{Provider: s.Source(), Err: fmt.Errorf("request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &ProviderError{
			Provider:   s.Source(),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &ProviderError{Provider: s.Source(), Err: fmt.Errorf("parsing response: %w", err)}
	}
	return nil
}

func (s *SemanticScholar) logger() *golog.Logger {
	if s.Logger == nil {
		return golog.Default
	}
	return s.Logger
}

// Semantic Scholar API JSON structures. Pointer fields distinguish null
// from zero.
type semanticSearchResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string           `json:"paperId"`
	Title         string           `json:"title"`
	Abstract      *string          `json:"abstract"`
	Year          *int             `json:"year"`
	URL           string           `json:"url"`
	CitationCount *int             `json:"citationCount"`
	Authors       []semanticAuthor `json:"authors"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

// toPaper normalizes a Semantic Scholar record. Records without a title are
// rejected.
func (sp semanticPaper) toPaper() (types.Paper, bool) {
	title := strings.TrimSpace(sp.Title)
	if title == "" {
		return types.Paper{}, false
	}

	p := types.Paper{
		ID:            sp.PaperID,
		Title:         title,
		Authors:       []string{},
		Year:          sp.Year,
		URL:           sp.URL,
		CitationCount: sp.CitationCount,
		Source:        types.SourceSemanticScholar,
	}
	if sp.Abstract != nil {
		p.Abstract = strings.TrimSpace(*sp.Abstract)
	}
	for _, a := range sp.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	if p.URL == "" && p.ID != "" {
		p.URL = semanticPaperURL + p.ID
	}
	return p, true
}
