// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/litreview/internal/events"
	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/internal/search"
	"github.com/pdiddy/litreview/internal/tools"
)

// searchPhase runs the tool-calling loop until the model signals it is
// done, stops calling tools late enough, ends its turn without tools, or the
// iteration ceiling is reached. It returns the number of iterations started.
//
// The error is ErrCancelled when ctx was cancelled at a check point, or the
// wrapped LLM failure. Tool failures never end the loop.
func (r *Reviewer) searchPhase(ctx context.Context, topic string, papers *search.Collection, emit events.Emitter) (int, error) {
	system, err := renderSearchSystem(r.targetPapers)
	if err != nil {
		return 0, err
	}
	opening, err := renderSearchUser(topic, r.targetPapers)
	if err != nil {
		return 0, err
	}

	transcript := []llm.Message{llm.UserText(opening)}
	catalog := tools.Definitions()

	for iter := 1; iter <= r.maxIterations; iter++ {
		if ctx.Err() != nil {
			return iter - 1, ErrCancelled
		}

		r.logger.Debugf("search iteration %d/%d, transcript %d messages, %d papers",
			iter, r.maxIterations, len(transcript), papers.Len())

		resp, err := r.client.Complete(ctx, llm.Request{
			Model:     r.model,
			System:    system,
			MaxTokens: r.searchMaxTokens,
			Messages:  transcript,
			Tools:     catalog,
		})
		if ctx.Err() != nil {
			return iter, ErrCancelled
		}
		if err != nil {
			return iter, fmt.Errorf("search phase: %w", err)
		}

		text := strings.TrimSpace(resp.Text())
		if text != "" {
			emit.Emit(events.Thinking(text))
		}

		calls := resp.ToolCalls()
		switch {
		case strings.Contains(text, SynthesisReady):
			r.logger.Debugf("search phase done at iteration %d: model signalled %s", iter, SynthesisReady)
			return iter, nil
		case len(calls) == 0 && iter >= r.minIterationsBeforeStop:
			r.logger.Debugf("search phase done at iteration %d: no tool calls", iter)
			return iter, nil
		case len(calls) == 0 && resp.StopReason == llm.StopEndTurn:
			r.logger.Debugf("search phase done at iteration %d: turn ended", iter)
			return iter, nil
		case len(calls) == 0:
			transcript = append(transcript, resp.AssistantMessage(), llm.UserText(nudgeText))
			continue
		}

		transcript = append(transcript, resp.AssistantMessage())
		results, err := r.dispatch(ctx, calls, papers, emit)
		if err != nil {
			return iter, err
		}
		transcript = append(transcript, llm.Message{Role: llm.RoleUser, Content: results})
	}

	r.logger.Debugf("search phase exhausted %d iterations with %d papers", r.maxIterations, papers.Len())
	return r.maxIterations, nil
}

// dispatch executes calls sequentially in request order. A failing call
// becomes an error result; only cancellation stops the batch.
func (r *Reviewer) dispatch(ctx context.Context, calls []llm.ToolCall, papers *search.Collection, emit events.Emitter) ([]llm.ContentBlock, error) {
	results := make([]llm.ContentBlock, 0, len(calls))
	for _, call := range calls {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}

		out, err := r.executor.Execute(ctx, call, papers, emit)

		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		if err != nil {
			r.logger.Warnf("tool %s failed: %v", call.Name, err)
			results = append(results, llm.ToolResultBlock(call.ID, "Error: "+err.Error(), true))
			continue
		}

		r.logger.Debugf("tool %s returned %d bytes", call.Name, len(out))
		results = append(results, llm.ToolResultBlock(call.ID, out, false))
	}
	return results, nil
}
