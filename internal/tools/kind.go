// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/pkg/types"
)

// Kind is the closed set of tools offered to the model.
type Kind string

const (
	KindSearchSemanticScholar Kind = "search_semantic_scholar"
	KindSearchArxiv           Kind = "search_arxiv"
	KindPaperDetails          Kind = "get_paper_details"
	KindExtractFindings       Kind = "extract_key_findings"
)

// Kinds lists every tool in catalog order.
var Kinds = []Kind{KindSearchSemanticScholar, KindSearchArxiv, KindPaperDetails, KindExtractFindings}

// ParseKind maps a model-supplied tool name to a Kind.
func ParseKind(name string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == name {
			return k, true
		}
	}
	return "", false
}

// source returns the provider a search kind targets.
func (k Kind) source() (types.Source, bool) {
	switch k {
	case KindSearchSemanticScholar:
		return types.SourceSemanticScholar, true
	case KindSearchArxiv:
		return types.SourceArxiv, true
	}
	return "", false
}

// SearchArgs are the arguments of both search tools.
type SearchArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

func (a *SearchArgs) validate() error {
	a.Query = strings.TrimSpace(a.Query)
	if a.Query == "" {
		return fmt.Errorf("query is required")
	}
	return nil
}

// DetailArgs are the arguments of get_paper_details.
type DetailArgs struct {
	PaperID string       `json:"paper_id"`
	Source  types.Source `json:"source"`
}

func (a *DetailArgs) validate() error {
	a.PaperID = strings.TrimSpace(a.PaperID)
	if a.PaperID == "" {
		return fmt.Errorf("paper_id is required")
	}
	if !a.Source.Valid() {
		return fmt.Errorf("source must be %q or %q, got %q", types.SourceSemanticScholar, types.SourceArxiv, a.Source)
	}
	return nil
}

// FindingsArgs are the arguments of extract_key_findings. The tool only
// echoes them back for the model's own bookkeeping.
type FindingsArgs struct {
	PaperTitle string   `json:"paper_title"`
	Findings   []string `json:"findings"`
}

func (a *FindingsArgs) validate() error {
	if strings.TrimSpace(a.PaperTitle) == "" {
		return fmt.Errorf("paper_title is required")
	}
	return nil
}

// decodeArgs unmarshals raw tool input into v and validates it. Empty input
// decodes as an empty object.
func decodeArgs[T interface{ validate() error }](raw json.RawMessage, v T) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if err := v.validate(); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// Definitions returns the tool catalog offered to the model.
func Definitions() []llm.ToolDefinition {
	searchProps := func(provider string) map[string]any {
		return map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Keyword query for " + provider + ".",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum results to return (1-20, default 10).",
			},
		}
	}

	return []llm.ToolDefinition{
		{
			Name:        string(KindSearchSemanticScholar),
			Description: "Search Semantic Scholar for academic papers. Returns titles, authors, year, abstract, URL and citation counts.",
			Properties:  searchProps("Semantic Scholar"),
			Required:    []string{"query"},
		},
		{
			Name:        string(KindSearchArxiv),
			Description: "Search arXiv for preprints. Returns titles, authors, year, abstract and URL.",
			Properties:  searchProps("arXiv"),
			Required:    []string{"query"},
		},
		{
			Name:        string(KindPaperDetails),
			Description: "Fetch full details for one paper by its provider ID.",
			Properties: map[string]any{
				"paper_id": map[string]any{
					"type":        "string",
					"description": "Semantic Scholar paperId or arXiv ID.",
				},
				"source": map[string]any{
					"type":        "string",
					"enum":        []string{string(types.SourceSemanticScholar), string(types.SourceArxiv)},
					"description": "Provider that issued the ID.",
				},
			},
			Required: []string{"paper_id", "source"},
		},
		{
			Name:        string(KindExtractFindings),
			Description: "Record the key findings of a paper for later synthesis.",
			Properties: map[string]any{
				"paper_title": map[string]any{
					"type":        "string",
					"description": "Title of the paper.",
				},
				"findings": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Key findings, one per entry.",
				},
			},
			Required: []string{"paper_title", "findings"},
		},
	}
}
