// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search adapts academic search APIs to a common Paper record and
// maintains the deduplicated set of papers collected during a review run.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/litreview/pkg/types"
)

const (
	// MaxLimit is the provider-agnostic ceiling applied to every search.
	MaxLimit = 20

	// DefaultLimit is used when the caller passes a non-positive limit.
	DefaultLimit = 10
)

// Provider searches a single academic API. Semantic Scholar and arXiv each
// implement it.
type Provider interface {
	// Source identifies the provider in tool arguments and paper provenance.
	Source() types.Source

	// Search returns normalized papers for query, with limit clamped to
	// MaxLimit. Transport failures and non-2xx responses return a
	// *ProviderError.
	Search(ctx context.Context, query string, limit int) ([]types.Paper, error)

	// Detail looks up one paper by provider ID. It never fails: any error
	// degrades to a not-found result.
	Detail(ctx context.Context, id string) (types.Paper, bool)
}

// ProviderError describes a failed provider call. StatusCode is zero for
// transport or decoding failures.
type ProviderError struct {
	Provider   types.Source
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ClampLimit bounds limit to (0, MaxLimit], substituting DefaultLimit for
// non-positive values.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// NormalizeTitle returns the deduplication key for a title: trimmed and
// lowercased.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// Collection is the set of papers collected during one review run, keyed by
// normalized title. Distinct papers that share a title collapse into the
// first one seen. Collection is owned by a single goroutine and is not safe
// for concurrent use.
type Collection struct {
	byTitle map[string]int
	papers  []types.Paper
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{byTitle: make(map[string]int)}
}

// Add inserts p unless a paper with the same normalized title is already
// present. It reports whether p was new. Papers with a blank title are
// rejected.
func (c *Collection) Add(p types.Paper) bool {
	key := NormalizeTitle(p.Title)
	if key == "" {
		return false
	}
	if _, ok := c.byTitle[key]; ok {
		return false
	}
	c.byTitle[key] = len(c.papers)
	c.papers = append(c.papers, p)
	return true
}

// Len returns the number of collected papers.
func (c *Collection) Len() int {
	return len(c.papers)
}

// Papers returns a copy of the collected papers in discovery order.
func (c *Collection) Papers() []types.Paper {
	out := make([]types.Paper, len(c.papers))
	copy(out, c.papers)
	return out
}
