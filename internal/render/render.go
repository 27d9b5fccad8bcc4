// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns a finished Markdown review into sanitized HTML.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/pdiddy/litreview/pkg/types"
)

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// HTML converts Markdown to an HTML fragment. Raw HTML embedded in the
// Markdown is sanitized, so model output can be served directly.
func HTML(md string) []byte {
	// Parsers keep state between calls; each render needs its own.
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return policy.SanitizeBytes(markdown.Render(doc, renderer))
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Topic}}</title>
</head>
<body>
<header>
<h1>{{.Topic}}</h1>
<p>{{.Status}} &middot; {{.PaperCount}} papers{{if not .CreatedAt.IsZero}} &middot; {{.CreatedAt.Format "2006-01-02 15:04 MST"}}{{end}}</p>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
</header>
<main>
{{.Body}}
</main>
</body>
</html>
`))

// Page writes r as a standalone HTML document.
func Page(w io.Writer, r types.Review) error {
	data := struct {
		types.Review
		PaperCount int
		Body       template.HTML
	}{
		Review:     r,
		PaperCount: len(r.Papers),
		Body:       template.HTML(HTML(r.Content)), // sanitized by HTML
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
