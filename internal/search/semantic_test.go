// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/litreview/pkg/types"
)

// withSemanticServer points the adapter at an httptest server for the
// duration of the test.
func withSemanticServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(h)
	old := semanticAPIBase
	semanticAPIBase = ts.URL
	t.Cleanup(func() {
		semanticAPIBase = old
		ts.Close()
	})
	return ts
}

// --- Request construction (URL params, headers) ---

func TestSemanticSearchRequestParams(t *testing.T) {
	var capturedReq *http.Request
	ts := withSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
		capturedReq = r
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total":0,"offset":0,"data":[]}`)
	})

	s := &SemanticScholar{Client: ts.Client(), UserAgent: "test/0.1"}
	if _, err := s.Search(context.Background(), "federated learning privacy", 15); err != nil {
		t.Fatalf("Search: %v", err)
	}

	if capturedReq.URL.Path != "/paper/search" {
		t.Errorf("path = %q, want /paper/search", capturedReq.URL.Path)
	}
	q := capturedReq.URL.Query()
	if got := q.Get("query"); got != "federated learning privacy" {
		t.Errorf("query param = %q", got)
	}
	if got := q.Get("limit"); got != "15" {
		t.Errorf("limit param = %q, want 15", got)
	}
	fields := q.Get("fields")
	for _, f := range []string{"paperId", "title", "authors", "year", "abstract", "url", "citationCount"} {
		if !strings.Contains(fields, f) {
			t.Errorf("fields param %q missing %q", fields, f)
		}
	}
	if got := capturedReq.Header.Get("User-Agent"); got != "test/0.1" {
		t.Errorf("User-Agent = %q", got)
	}
}

func TestSemanticSearchLimitClamped(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  string
	}{
		{"above max", 50, "20"},
		{"zero uses default", 0, "10"},
		{"in range", 7, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			ts := withSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
				got = r.URL.Query().Get("limit")
				fmt.Fprint(w, `{"data":[]}`)
			})
			s := &SemanticScholar{Client: ts.Client()}
			if _, err := s.Search(context.Background(), "q", tt.limit); err != nil {
				t.Fatalf("Search: %v", err)
			}
			if got != tt.want {
				t.Errorf("limit = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSemanticSearchAPIKeyHeader(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
	}{
		{"with API key", "test-key-123"},
		{"without API key", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			ts := withSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("x-api-key")
				fmt.Fprint(w, `{"data":[]}`)
			})

			s := &SemanticScholar{Client: ts.Client(), APIKey: tt.apiKey}
			if _, err := s.Search(context.Background(), "test", 5); err != nil {
				t.Fatalf("Search: %v", err)
			}
			if got != tt.apiKey {
				t.Errorf("x-api-key header = %q, want %q", got, tt.apiKey)
			}
		})
	}
}

// --- Normalization ---

func TestSemanticSearchNormalizesRecords(t *testing.T) {
	ts := withSemanticServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"total":3,"offset":0,"data":[
			{"paperId":"abc","title":"  Differential Privacy in FL ","authors":[{"authorId":"1","name":"Ada"},{"authorId":"2","name":"Bob"}],
			 "year":2021,"abstract":"An abstract.","url":"https://example.org/abc","citationCount":42},
			{"paperId":"def","title":"No URL Paper","authors":[],"year":null,"abstract":null,"url":null,"citationCount":null},
			{"paperId":"ghi","title":null,"authors":[]}
		]}`)
	})

	s := &SemanticScholar{Client: ts.Client()}
	papers, err := s.Search(context.Background(), "privacy", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(papers) != 2 {
		t.Fatalf("len(papers) = %d, want 2 (untitled record dropped)", len(papers))
	}

	first := papers[0]
	if first.Title != "Differential Privacy in FL" {
		t.Errorf("Title = %q", first.Title)
	}
	if len(first.Authors) != 2 || first.Authors[0] != "Ada" {
		t.Errorf("Authors = %v", first.Authors)
	}
	if first.Year == nil || *first.Year != 2021 {
		t.Errorf("Year = %v, want 2021", first.Year)
	}
	if first.CitationCount == nil || *first.CitationCount != 42 {
		t.Errorf("CitationCount = %v, want 42", first.CitationCount)
	}
	if first.Source != types.SourceSemanticScholar {
		t.Errorf("Source = %q", first.Source)
	}

	second := papers[1]
	if second.Year != nil {
		t.Errorf("Year = %v, want nil", *second.Year)
	}
	if second.CitationCount != nil {
		t.Errorf("CitationCount = %v, want nil", *second.CitationCount)
	}
	if second.Abstract != "" {
		t.Errorf("Abstract = %q, want empty", second.Abstract)
	}
	if second.URL != "https://www.semanticscholar.org/paper/def" {
		t.Errorf("URL = %q, want constructed fallback", second.URL)
	}
	if second.Authors == nil {
		t.Error("Authors should be an empty slice, not nil")
	}
}

// --- Error cases ---

func TestSemanticSearchHTTPErrors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    string
	}{
		{"429 rate limit", http.StatusTooManyRequests, "HTTP 429"},
		{"500 server error", http.StatusInternalServerError, "HTTP 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := withSemanticServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			// Zero-value Retry disables backoff.
			s := &SemanticScholar{Client: ts.Client()}
			_, err := s.Search(context.Background(), "test", 5)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
			}
			var pe *ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not *ProviderError", err)
			}
			if pe.StatusCode != tt.statusCode || pe.Provider != types.SourceSemanticScholar {
				t.Errorf("ProviderError = %+v", pe)
			}
		})
	}
}

func TestSemanticSearchMalformedJSON(t *testing.T) {
	ts := withSemanticServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{invalid json`)
	})

	s := &SemanticScholar{Client: ts.Client()}
	_, err := s.Search(context.Background(), "test", 5)
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if !strings.Contains(err.Error(), "parsing") {
		t.Errorf("error = %q, want substring 'parsing'", err.Error())
	}
}

func TestSemanticSearchEmptyQuery(t *testing.T) {
	s := &SemanticScholar{Client: http.DefaultClient}
	_, err := s.Search(context.Background(), "   ", 5)
	if err == nil {
		t.Fatal("expected error for empty query")
	}
	if !strings.Contains(err.Error(), "empty") {
		t.Errorf("error = %q, want substring 'empty'", err.Error())
	}
}

// --- Detail ---

func TestSemanticDetail(t *testing.T) {
	var path string
	ts := withSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		fmt.Fprint(w, `{"paperId":"xyz","title":"Secure Aggregation","authors":[{"name":"Keith"}],"year":2017,"citationCount":0}`)
	})

	s := &SemanticScholar{Client: ts.Client()}
	p, ok := s.Detail(context.Background(), "xyz")
	if !ok {
		t.Fatal("Detail returned not found")
	}
	if path != "/paper/xyz" {
		t.Errorf("path = %q, want /paper/xyz", path)
	}
	if p.Title != "Secure Aggregation" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.CitationCount == nil || *p.CitationCount != 0 {
		t.Errorf("CitationCount = %v, want explicit zero", p.CitationCount)
	}
}

func TestSemanticDetailNotFound(t *testing.T) {
	ts := withSemanticServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"Paper not found"}`, http.StatusNotFound)
	})

	s := &SemanticScholar{Client: ts.Client()}
	if _, ok := s.Detail(context.Background(), "missing"); ok {
		t.Error("expected not found")
	}
	if _, ok := s.Detail(context.Background(), ""); ok {
		t.Error("expected not found for blank id")
	}
}

func TestNewSemanticScholarRetryFromConfig(t *testing.T) {
	cfg := types.SearchConfig{RetryMax: 5, SemanticScholarAPIKey: "k"}
	s := NewSemanticScholar(http.DefaultClient, cfg, nil)
	if s.Retry.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", s.Retry.MaxRetries)
	}
	if s.Retry.BaseDelay == 0 {
		t.Error("BaseDelay should fall back to the default policy")
	}
	if s.APIKey != "k" {
		t.Errorf("APIKey = %q", s.APIKey)
	}
}
