// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cite finds inline citations and bibliography entries in Markdown
// documents and checks that the two agree.
package cite

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Citation is one distinct inline citation key found in a document.
type Citation struct {
	// Key is the number for numeric citations ("3") or the author-year text
	// ("Smith et al., 2020").
	Key string `json:"key"`

	// Numeric is true for [n] style citations.
	Numeric bool `json:"numeric"`

	// Context is the text surrounding the first occurrence.
	Context string `json:"context"`
}

// BibEntry is one numbered entry of a References section.
type BibEntry struct {
	Key     string   `json:"key"`
	Authors []string `json:"authors,omitempty"`
	Title   string   `json:"title,omitempty"`
	Year    string   `json:"year,omitempty"`
	Raw     string   `json:"raw"`
}

var (
	// numericCiteRe matches [1], [2, 3], and ranges such as [4-6].
	numericCiteRe = regexp.MustCompile(`\[(\d+(?:\s*[,–-]\s*\d+)*)\]`)

	// authorYearCiteRe matches [Smith et al., 2020] or [Smith and Jones, 2019].
	authorYearCiteRe = regexp.MustCompile(`\[([A-Z][a-z]+(?:\s+(?:et\s+al\.|and\s+[A-Z][a-z]+))?(?:,\s*\d{4}))\]`)

	// bibEntryRe matches numbered bibliography entries: [1] Authors. Title.
	bibEntryRe = regexp.MustCompile(`(?m)^\s*(?:[-*]\s+)?\[(\d+)\]\s+(.+)$`)

	yearRe = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)

	// authorYearPrefixRe splits "Authors (2021). Title. URL".
	authorYearPrefixRe = regexp.MustCompile(`^(.+?)\s*\(((?:19|20)\d{2}|n\.d\.)\)\.?\s*(.*)$`)
)

// maxRangeSpan bounds how many keys a single [a-b] range expands to.
const maxRangeSpan = 50

// ParseCitations scans text for inline citations and returns each distinct
// key once, in order of first appearance. Lines of the References section
// are not citations and are skipped.
func ParseCitations(text string) []Citation {
	body, _ := splitReferences(text)

	seen := make(map[string]bool)
	var citations []Citation

	for _, m := range numericCiteRe.FindAllStringSubmatchIndex(body, -1) {
		for _, key := range expandNumeric(body[m[2]:m[3]]) {
			if seen[key] {
				continue
			}
			seen[key] = true
			citations = append(citations, Citation{
				Key:     key,
				Numeric: true,
				Context: extractContext(body, m[0], m[1]),
			})
		}
	}

	for _, m := range authorYearCiteRe.FindAllStringSubmatchIndex(body, -1) {
		key := body[m[2]:m[3]]
		if seen[key] {
			continue
		}
		seen[key] = true
		citations = append(citations, Citation{
			Key:     key,
			Context: extractContext(body, m[0], m[1]),
		})
	}

	return citations
}

// expandNumeric turns "2, 3" into [2 3] and "4-6" into [4 5 6].
func expandNumeric(group string) []string {
	var keys []string
	for _, part := range strings.Split(group, ",") {
		part = strings.TrimSpace(part)
		sep := strings.IndexAny(part, "-–")
		if sep < 0 {
			keys = append(keys, part)
			continue
		}
		lo, err1 := strconv.Atoi(strings.TrimSpace(part[:sep]))
		_, size := utf8.DecodeRuneInString(part[sep:])
		hi, err2 := strconv.Atoi(strings.TrimSpace(part[sep+size:]))
		if err1 != nil || err2 != nil || hi < lo || hi-lo > maxRangeSpan {
			keys = append(keys, part)
			continue
		}
		for n := lo; n <= hi; n++ {
			keys = append(keys, strconv.Itoa(n))
		}
	}
	return keys
}

// extractContext returns up to 40 characters either side of a match, trimmed
// to word boundaries.
func extractContext(text string, start, end int) string {
	const window = 40
	ctxStart := max(start-window, 0)
	ctxEnd := min(end+window, len(text))
	snippet := text[ctxStart:ctxEnd]
	if ctxStart > 0 {
		if i := strings.IndexByte(snippet, ' '); i >= 0 && i < window {
			snippet = snippet[i+1:]
		}
	}
	if ctxEnd < len(text) {
		if i := strings.LastIndexByte(snippet, ' '); i >= 0 && i > len(snippet)-window {
			snippet = snippet[:i]
		}
	}
	return strings.Join(strings.Fields(snippet), " ")
}

// ParseBibliography parses the numbered entries under a heading containing
// "references" or "bibliography".
func ParseBibliography(text string) []BibEntry {
	_, refs := splitReferences(text)
	if refs == "" {
		return nil
	}

	var entries []BibEntry
	for _, m := range bibEntryRe.FindAllStringSubmatch(refs, -1) {
		entries = append(entries, parseBibEntry(m[1], strings.TrimSpace(m[2])))
	}
	return entries
}

// parseBibEntry reads the "Authors (Year). Title. URL" layout the review
// prompt asks for, falling back to the first sentence as title.
func parseBibEntry(key, raw string) BibEntry {
	e := BibEntry{Key: key, Raw: raw, Year: extractYear(raw)}

	rest := raw
	if m := authorYearPrefixRe.FindStringSubmatch(raw); m != nil {
		e.Authors = splitAuthors(m[1])
		rest = m[3]
	}
	if parts := splitSentences(rest); len(parts) > 0 {
		e.Title = parts[0]
	}
	return e
}

func extractYear(text string) string {
	if m := yearRe.FindStringSubmatch(text); len(m) >= 2 {
		return m[1]
	}
	return ""
}

func splitAuthors(s string) []string {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "et al."))
	var authors []string
	for _, a := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '&' }) {
		a = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(a), "and "))
		if a != "" {
			authors = append(authors, a)
		}
	}
	return authors
}

// splitSentences splits on ". " while leaving "et al." and URLs intact.
func splitSentences(text string) []string {
	safe := strings.ReplaceAll(text, "et al.", "et al\x00")
	var out []string
	for _, p := range strings.Split(safe, ". ") {
		p = strings.TrimSpace(strings.TrimRight(strings.ReplaceAll(p, "\x00", "."), "."))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitReferences separates the document body from its References or
// Bibliography section. The section ends at the next heading of the same or
// higher level.
func splitReferences(text string) (body, refs string) {
	lines := strings.Split(text, "\n")
	start, level := -1, 0
	for i, line := range lines {
		l, heading := headingOf(line)
		if l == 0 {
			continue
		}
		if start < 0 {
			h := strings.ToLower(heading)
			if strings.Contains(h, "references") || strings.Contains(h, "bibliography") {
				start, level = i, l
			}
			continue
		}
		if l <= level {
			return strings.Join(append(lines[:start:start], lines[i:]...), "\n"),
				strings.Join(lines[start+1:i], "\n")
		}
	}
	if start < 0 {
		return text, ""
	}
	return strings.Join(lines[:start], "\n"), strings.Join(lines[start+1:], "\n")
}

// headingOf returns the ATX heading level of line and its text, or 0.
func headingOf(line string) (int, string) {
	trimmed := strings.TrimSpace(line)
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || (level < len(trimmed) && trimmed[level] != ' ') {
		return 0, ""
	}
	return level, strings.TrimSpace(trimmed[level:])
}

// Unresolved returns the citations that have no bibliography entry. Only
// numeric citations can be resolved against numbered entries, so
// author-year citations are matched by surname and year against the raw
// entry text.
func Unresolved(citations []Citation, bib []BibEntry) []Citation {
	keys := make(map[string]bool, len(bib))
	for _, b := range bib {
		keys[b.Key] = true
	}

	var out []Citation
	for _, c := range citations {
		if c.Numeric {
			if !keys[c.Key] {
				out = append(out, c)
			}
			continue
		}
		if !authorYearResolved(c.Key, bib) {
			out = append(out, c)
		}
	}
	return out
}

func authorYearResolved(key string, bib []BibEntry) bool {
	surname := strings.Fields(key)[0]
	surname = strings.TrimSuffix(surname, ",")
	year := extractYear(key)
	for _, b := range bib {
		if strings.Contains(b.Raw, surname) && (year == "" || strings.Contains(b.Raw, year)) {
			return true
		}
	}
	return false
}

// Report is the result of checking a generated review against the number
// of papers it was written from.
type Report struct {
	// Cited lists the paper indexes cited in the body, ascending.
	Cited []int

	// OutOfRange lists cited numbers outside 1..paperCount.
	OutOfRange []int

	// Uncited lists paper indexes never cited in the body.
	Uncited []int

	// MissingReferences lists cited numbers with no References entry.
	MissingReferences []int

	// ReferenceCount is the number of References entries.
	ReferenceCount int
}

// CheckReview compares a review's numeric citations with the papers it
// was given, indexed from 1.
func CheckReview(text string, paperCount int) Report {
	var r Report

	cited := make(map[int]bool)
	for _, c := range ParseCitations(text) {
		if !c.Numeric {
			continue
		}
		n, err := strconv.Atoi(c.Key)
		if err != nil {
			continue
		}
		cited[n] = true
	}

	bib := ParseBibliography(text)
	r.ReferenceCount = len(bib)
	listed := make(map[int]bool, len(bib))
	for _, b := range bib {
		if n, err := strconv.Atoi(b.Key); err == nil {
			listed[n] = true
		}
	}

	for n := range cited {
		r.Cited = append(r.Cited, n)
		if n < 1 || n > paperCount {
			r.OutOfRange = append(r.OutOfRange, n)
		}
		if len(bib) > 0 && !listed[n] {
			r.MissingReferences = append(r.MissingReferences, n)
		}
	}
	for n := 1; n <= paperCount; n++ {
		if !cited[n] {
			r.Uncited = append(r.Uncited, n)
		}
	}

	sort.Ints(r.Cited)
	sort.Ints(r.OutOfRange)
	sort.Ints(r.MissingReferences)
	return r
}

// Warnings renders the report's problems as log lines.
func (r Report) Warnings() []string {
	var w []string
	if len(r.OutOfRange) > 0 {
		w = append(w, "citations out of range: "+joinInts(r.OutOfRange))
	}
	if len(r.MissingReferences) > 0 {
		w = append(w, "cited but missing from references: "+joinInts(r.MissingReferences))
	}
	if len(r.Uncited) > 0 {
		w = append(w, "papers never cited: "+joinInts(r.Uncited))
	}
	return w
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
