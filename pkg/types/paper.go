// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the litreview service:
// normalized papers, persisted reviews, and configuration.
package types

// Source identifies which academic search provider returned a paper.
type Source string

const (
	// SourceSemanticScholar is the JSON search API that reports citation counts.
	SourceSemanticScholar Source = "semantic_scholar"

	// SourceArxiv is the Atom feed search API.
	SourceArxiv Source = "arxiv"
)

// Valid reports whether s is one of the known providers.
func (s Source) Valid() bool {
	return s == SourceSemanticScholar || s == SourceArxiv
}

// Paper is a normalized academic record produced by a search provider.
// Papers are immutable once created.
type Paper struct {
	// ID is the provider-specific identifier (Semantic Scholar paperId or arXiv ID).
	ID string `json:"id" yaml:"id"`

	// Title is required; providers drop records without one.
	Title string `json:"title" yaml:"title"`

	// Authors lists display names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is nil when the publication year is unknown.
	Year *int `json:"year,omitempty" yaml:"year,omitempty"`

	// Abstract may be empty.
	Abstract string `json:"abstract" yaml:"abstract"`

	// URL is the canonical link, constructed from the ID when the provider omits it.
	URL string `json:"url" yaml:"url"`

	// CitationCount is only reported by Semantic Scholar. Nil means unknown,
	// which is distinct from zero citations.
	CitationCount *int `json:"citationCount,omitempty" yaml:"citation_count,omitempty"`

	// Source records provenance.
	Source Source `json:"source" yaml:"source"`
}

// IntPtr returns a pointer to v. Adapters use it for optional integer fields.
func IntPtr(v int) *int {
	return &v
}
