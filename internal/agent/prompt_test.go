// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"strings"
	"testing"

	"github.com/pdiddy/litreview/pkg/types"
)

func TestRenderSynthesisUser(t *testing.T) {
	papers := []types.Paper{
		{
			Title:         "Differential Privacy in Federated Learning",
			Authors:       []string{"A", "B", "C", "D", "E", "F"},
			Year:          types.IntPtr(2021),
			Abstract:      "We add noise.",
			URL:           "https://example.org/1",
			CitationCount: types.IntPtr(0),
		},
		{Title: "Untitled Preprint"},
	}

	got, err := renderSynthesisUser("federated learning privacy", papers)
	if err != nil {
		t.Fatalf("renderSynthesisUser: %v", err)
	}

	for _, want := range []string{
		"Topic: federated learning privacy",
		"Papers (2):",
		"[1] Differential Privacy in Federated Learning",
		"Authors: A, B, C, D, E et al.",
		"Year: 2021",
		"Abstract: We add noise.",
		"URL: https://example.org/1",
		"Citations: 0",
		"[2] Untitled Preprint",
		"Authors: Unknown",
		"Year: n.d.",
		"Abstract: No abstract available.",
		"URL: N/A",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q\n%s", want, got)
		}
	}
	if strings.Count(got, "Citations:") != 1 {
		t.Errorf("citation count should only appear when known:\n%s", got)
	}
}

func TestRenderSearchPrompts(t *testing.T) {
	sys, err := renderSearchSystem(5)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sys, SynthesisReady) || !strings.Contains(sys, "about 5 relevant papers") {
		t.Errorf("system prompt:\n%s", sys)
	}

	user, err := renderSearchUser("graph neural networks", 5)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(user, "graph neural networks") || !strings.Contains(user, SynthesisReady) {
		t.Errorf("user prompt:\n%s", user)
	}
}

func TestPromptAuthors(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, "Unknown"},
		{[]string{"Ada"}, "Ada"},
		{[]string{"A", "B", "C", "D", "E"}, "A, B, C, D, E"},
		{[]string{"A", "B", "C", "D", "E", "F"}, "A, B, C, D, E et al."},
	}
	for _, tt := range tests {
		if got := promptAuthors(tt.in); got != tt.want {
			t.Errorf("promptAuthors(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
