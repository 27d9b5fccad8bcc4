// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package annotate asks the LLM to flag citation problems in a document:
// unsupported claims, citations missing from the bibliography, and
// citations that do not appear to support the sentence they close.
package annotate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kataras/golog"

	"github.com/pdiddy/litreview/internal/cite"
	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/pkg/types"
)

const (
	DefaultMaxDocumentChars = 60000
	DefaultMaxTokens        = 4096
)

// ErrEmptyDocument is returned when a document has no text to annotate.
var ErrEmptyDocument = errors.New("document is empty")

// Severity grades an annotation.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Document is the text of one uploaded file.
type Document struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Annotation flags one passage of the document.
type Annotation struct {
	Quote      string   `json:"quote"`
	Issue      string   `json:"issue"`
	Severity   Severity `json:"severity"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Result is the outcome of annotating one document.
type Result struct {
	Name         string          `json:"name"`
	Truncated    bool            `json:"truncated"`
	Citations    []cite.Citation `json:"citations"`
	Bibliography []cite.BibEntry `json:"bibliography"`
	Unresolved   []cite.Citation `json:"unresolved"`
	Annotations  []Annotation    `json:"annotations"`
}

// Annotator runs citation annotation against an LLM client.
type Annotator struct {
	client   llm.Client
	model    string
	maxChars int
	maxToks  int
	logger   *golog.Logger
}

// New returns an Annotator. Zero config values fall back to the package
// defaults and a nil logger uses golog.Default.
func New(client llm.Client, ai types.AIConfig, cfg types.AnnotateConfig, logger *golog.Logger) *Annotator {
	a := &Annotator{
		client:   client,
		model:    ai.Model,
		maxChars: cfg.MaxDocumentChars,
		maxToks:  cfg.MaxTokens,
		logger:   logger,
	}
	if a.maxChars <= 0 {
		a.maxChars = DefaultMaxDocumentChars
	}
	if a.maxToks <= 0 {
		a.maxToks = DefaultMaxTokens
	}
	if a.logger == nil {
		a.logger = golog.Default
	}
	return a
}

// Annotate parses the citations in doc, asks the model to review them, and
// returns the annotations it reports.
func (a *Annotator) Annotate(ctx context.Context, doc Document) (Result, error) {
	text := strings.TrimSpace(doc.Text)
	if text == "" {
		return Result{}, ErrEmptyDocument
	}

	res := Result{Name: doc.Name}
	text, res.Truncated = truncate(text, a.maxChars)

	res.Citations = nonNil(cite.ParseCitations(text))
	res.Bibliography = nonNil(cite.ParseBibliography(text))
	res.Unresolved = nonNil(cite.Unresolved(res.Citations, res.Bibliography))

	prompt, err := renderPrompt(promptData{
		Name:       doc.Name,
		Text:       text,
		Truncated:  res.Truncated,
		Citations:  res.Citations,
		Unresolved: res.Unresolved,
	})
	if err != nil {
		return Result{}, fmt.Errorf("rendering prompt: %w", err)
	}

	a.logger.Debugf("annotating %q: %d chars, %d citations, %d unresolved",
		doc.Name, utf8.RuneCountInString(text), len(res.Citations), len(res.Unresolved))

	resp, err := a.client.Complete(ctx, llm.Request{
		Model:     a.model,
		System:    systemPrompt,
		MaxTokens: a.maxToks,
		Messages:  []llm.Message{llm.UserText(prompt)},
	})
	if err != nil {
		return Result{}, fmt.Errorf("annotation request: %w", err)
	}

	anns, err := parseAnnotations(resp.Text())
	if err != nil {
		return Result{}, err
	}
	res.Annotations = anns
	return res, nil
}

func parseAnnotations(raw string) ([]Annotation, error) {
	var payload struct {
		Annotations []Annotation `json:"annotations"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		return nil, fmt.Errorf("parsing annotation JSON: %w", err)
	}

	out := make([]Annotation, 0, len(payload.Annotations))
	for _, an := range payload.Annotations {
		an.Quote = strings.TrimSpace(an.Quote)
		an.Issue = strings.TrimSpace(an.Issue)
		an.Suggestion = strings.TrimSpace(an.Suggestion)
		if an.Quote == "" || an.Issue == "" {
			continue
		}
		an.Severity = normalizeSeverity(an.Severity)
		out = append(out, an)
	}
	return out, nil
}

// extractJSON strips Markdown code fences and any prose around the
// outermost JSON object.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

func normalizeSeverity(s Severity) Severity {
	switch strings.ToLower(strings.TrimSpace(string(s))) {
	case "error", "high", "critical", "major":
		return SeverityError
	case "warning", "warn", "medium", "moderate":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

func truncate(s string, maxChars int) (string, bool) {
	if utf8.RuneCountInString(s) <= maxChars {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:maxChars]), true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
