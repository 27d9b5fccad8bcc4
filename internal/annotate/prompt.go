// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/litreview/internal/cite"
)

const systemPrompt = `You are an academic editor who checks how documents use citations. ` +
	`You respond with a single JSON object and nothing else.`

var promptTmpl = template.Must(template.New("annotate").Parse(`Review the citations in the document below.

Flag passages where:
- a factual claim has no citation
- a citation has no matching bibliography entry
- a citation does not appear to support the sentence it is attached to
- citation formatting is inconsistent

Respond with JSON of this shape:
{"annotations": [{"quote": "exact text from the document", "issue": "what is wrong", "severity": "info|warning|error", "suggestion": "how to fix it"}]}

Quote the document verbatim so the passage can be located. Return {"annotations": []} if there is nothing to flag.

Document: {{.Name}}{{if .Truncated}} (truncated){{end}}

Detected citations ({{len .Citations}}):
{{- range .Citations}}
- [{{.Key}}] {{.Context}}
{{- else}}
- none
{{- end}}

Citations with no bibliography entry ({{len .Unresolved}}):
{{- range .Unresolved}}
- [{{.Key}}]
{{- else}}
- none
{{- end}}

<document>
{{.Text}}
</document>
`))

type promptData struct {
	Name       string
	Text       string
	Truncated  bool
	Citations  []cite.Citation
	Unresolved []cite.Citation
}

func renderPrompt(d promptData) (string, error) {
	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
