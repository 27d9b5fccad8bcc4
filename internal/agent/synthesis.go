// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/litreview/internal/events"
	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/pkg/types"
)

// synthesize streams the review for papers, forwarding every fragment as a
// review_chunk as soon as it arrives. It returns the text emitted so far
// together with any error, so a failed or cancelled run keeps its partial
// document. The caller emits the terminal event.
func (r *Reviewer) synthesize(ctx context.Context, topic string, papers []types.Paper, emit events.Emitter) (string, error) {
	prompt, err := renderSynthesisUser(topic, papers)
	if err != nil {
		return "", err
	}

	emit.Emit(events.ReviewStart())

	stream, err := r.client.Stream(ctx, llm.Request{
		Model:     r.model,
		System:    synthesisSystemPrompt,
		MaxTokens: r.synthesisMaxTokens,
		Messages:  []llm.Message{llm.UserText(prompt)},
	})
	if ctx.Err() != nil {
		if stream != nil {
			stream.Close()
		}
		return "", ErrCancelled
	}
	if err != nil {
		return "", fmt.Errorf("synthesis: %w", err)
	}
	defer stream.Close()

	var doc strings.Builder
	for stream.Next() {
		if ctx.Err() != nil {
			return doc.String(), ErrCancelled
		}
		chunk := stream.Current()
		if chunk == "" {
			continue
		}
		doc.WriteString(chunk)
		emit.Emit(events.ReviewChunk(chunk))
	}

	if ctx.Err() != nil {
		return doc.String(), ErrCancelled
	}
	if err := stream.Err(); err != nil {
		return doc.String(), fmt.Errorf("synthesis: %w", err)
	}
	return doc.String(), nil
}
