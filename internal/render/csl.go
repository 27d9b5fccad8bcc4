// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litreview/pkg/types"
)

// CSLItem is a bibliographic entry in CSL (Citation Style Language) form.
// Field names follow the CSL-YAML schema so Pandoc and reference managers
// can read the output.
type CSLItem struct {
	ID       string    `yaml:"id"`
	Type     string    `yaml:"type"`
	Title    string    `yaml:"title"`
	Author   []CSLName `yaml:"author,omitempty"`
	Abstract string    `yaml:"abstract,omitempty"`
	Issued   *CSLDate  `yaml:"issued,omitempty"`
	URL      string    `yaml:"URL,omitempty"`
	Source   string    `yaml:"source,omitempty"`
	Note     string    `yaml:"note,omitempty"`
}

// CSLName is a person's name in CSL form.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate holds CSL date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// CSL writes papers as a CSL-YAML list in citation order, so entry i is
// the source of [i+1] in the review.
func CSL(w io.Writer, papers []types.Paper) error {
	items := make([]CSLItem, len(papers))
	for i, p := range papers {
		items[i] = toCSLItem(p)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

func toCSLItem(p types.Paper) CSLItem {
	item := CSLItem{
		ID:       p.ID,
		Type:     "article-journal",
		Title:    p.Title,
		Abstract: p.Abstract,
		URL:      p.URL,
	}
	switch p.Source {
	case types.SourceArxiv:
		item.Type = "article"
		item.Source = "arXiv"
		item.ID = "arxiv:" + p.ID
	case types.SourceSemanticScholar:
		item.Source = "Semantic Scholar"
	}

	for _, a := range p.Authors {
		item.Author = append(item.Author, parseAuthorName(a))
	}
	if p.Year != nil {
		item.Issued = &CSLDate{DateParts: [][]int{{*p.Year}}}
	}
	if p.CitationCount != nil {
		item.Note = fmt.Sprintf("cited by %d", *p.CitationCount)
	}
	return item
}

// parseAuthorName splits on the last space: everything before is given, the
// last token is family. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
