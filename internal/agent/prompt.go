// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/litreview/pkg/types"
)

// SynthesisReady is the phrase the model emits to end the search phase.
const SynthesisReady = "SYNTHESIS_READY"

// maxPromptAuthors bounds the authors listed per paper in the synthesis prompt.
const maxPromptAuthors = 5

// searchSystemTmpl is the system prompt for every search-phase turn.
var searchSystemTmpl = template.Must(template.New("search-system").Parse(`You are a research assistant conducting a literature review. Use the available tools to find relevant academic papers on the user's topic.

Guidelines:
- Search both Semantic Scholar and arXiv with focused keyword queries. Vary the queries to cover different aspects of the topic.
- Use get_paper_details only when a search result is missing information you need.
- Use extract_key_findings to note what matters in a paper before moving on.
- Prefer recent, well-cited, directly relevant work.
- Stop searching once you have found about {{.TargetPapers}} relevant papers. Do not keep searching for marginal additions.

When you have collected enough papers, reply with the exact phrase {{.Sentinel}} and no further tool calls. The review itself is written in a later step; do not write it now.
`))

// searchUserTmpl opens the search-phase transcript.
var searchUserTmpl = template.Must(template.New("search-user").Parse(`Conduct a literature search on the following topic:

{{.Topic}}

Search for relevant papers using the available tools. Once you have found {{.TargetPapers}} or more relevant papers, reply with {{.Sentinel}}.`))

// nudgeText is appended when the model stops calling tools before it is
// allowed to finish.
var nudgeText = fmt.Sprintf("Continue searching if important aspects of the topic are not yet covered. If you have enough papers, reply %s.", SynthesisReady)

// synthesisSystemPrompt fixes the structure of the streamed review.
const synthesisSystemPrompt = `You are an expert academic writer. Write a structured literature review in Markdown from the papers provided. Use only these papers as evidence.

Use exactly these sections, in this order:

# <Review title>
## Executive Summary
## Key Findings
Organize findings into themed subsections (### per theme).
## Contradictions and Debates
## Research Gaps
## Conclusion
## References

Cite papers inline with bracketed numbers matching the paper index, e.g. [1] or [2, 3]. The References section must list every paper you cited, numbered by paper index, formatted as:
[n] Authors (Year). Title. URL

Do not invent papers, results, or citations.`

// synthesisUserTmpl serializes the collected papers as indexed blocks.
var synthesisUserTmpl = template.Must(template.New("synthesis-user").Funcs(template.FuncMap{
	"authors": promptAuthors,
	"year":    promptYear,
	"inc":     func(i int) int { return i + 1 },
}).Parse(`Topic: {{.Topic}}

Papers ({{len .Papers}}):
{{range $i, $p := .Papers}}
[{{inc $i}}] {{$p.Title}}
Authors: {{authors $p.Authors}}
Year: {{year $p.Year}}
Abstract: {{if $p.Abstract}}{{$p.Abstract}}{{else}}No abstract available.{{end}}
URL: {{if $p.URL}}{{$p.URL}}{{else}}N/A{{end}}
{{- if $p.CitationCount}}
Citations: {{$p.CitationCount}}{{end}}
{{end}}
Write the literature review now.`))

type searchPromptData struct {
	Topic        string
	TargetPapers int
	Sentinel     string
}

type synthesisPromptData struct {
	Topic  string
	Papers []types.Paper
}

func renderSearchSystem(targetPapers int) (string, error) {
	return render(searchSystemTmpl, searchPromptData{TargetPapers: targetPapers, Sentinel: SynthesisReady})
}

func renderSearchUser(topic string, targetPapers int) (string, error) {
	return render(searchUserTmpl, searchPromptData{Topic: topic, TargetPapers: targetPapers, Sentinel: SynthesisReady})
}

func renderSynthesisUser(topic string, papers []types.Paper) (string, error) {
	return render(synthesisUserTmpl, synthesisPromptData{Topic: topic, Papers: papers})
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func promptAuthors(authors []string) string {
	if len(authors) == 0 {
		return "Unknown"
	}
	if len(authors) > maxPromptAuthors {
		return strings.Join(authors[:maxPromptAuthors], ", ") + " et al."
	}
	return strings.Join(authors, ", ")
}

func promptYear(year *int) string {
	if year == nil {
		return "n.d."
	}
	return fmt.Sprintf("%d", *year)
}
