// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/pdiddy/litreview/pkg/types"
)

// DefaultModel is used when the configuration leaves ai.model empty.
const DefaultModel = "claude-sonnet-4-5"

// Anthropic implements Client on the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic builds a client from AI configuration. The SDK owns retry of
// transient API failures.
func NewAnthropic(cfg types.AIConfig) (*Anthropic, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("anthropic API key is not configured")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Anthropic{client: anthropic.NewClient(opts...), model: model}, nil
}

// Complete runs one blocking Messages call.
func (a *Anthropic) Complete(ctx context.Context, req Request) (Response, error) {
	msg, err := a.client.Messages.New(ctx, a.params(req))
	if err != nil {
		return Response{}, fmt.Errorf("anthropic messages: %w", err)
	}
	return fromAnthropicMessage(msg), nil
}

// Stream starts a streamed Messages call and yields text deltas.
func (a *Anthropic) Stream(ctx context.Context, req Request) (Stream, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := a.client.Messages.NewStreaming(ctx, a.params(req))
	if err := s.Err(); err != nil {
		cancel()
		s.Close()
		return nil, fmt.Errorf("anthropic stream: %w", err)
	}
	return &anthropicStream{stream: s, cancel: cancel}, nil
}

func (a *Anthropic) params(req Request) anthropic.MessageNewParams {
	model := req.Model
	if model == "" {
		model = a.model
	}
	p := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  toAnthropicMessages(req.Messages),
	}
	if req.System != "" {
		p.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		p.Tools = toAnthropicTools(req.Tools)
	}
	return p
}

// toAnthropicMessages converts a transcript. The API rejects empty text
// blocks and empty messages, so both are skipped.
func toAnthropicMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(m.Content))
		for _, c := range m.Content {
			switch c.Type {
			case BlockText:
				if strings.TrimSpace(c.Text) == "" {
					continue
				}
				blocks = append(blocks, anthropic.NewTextBlock(c.Text))
			case BlockToolUse:
				var input any = json.RawMessage("{}")
				if len(c.Input) > 0 {
					input = c.Input
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(c.ToolUseID, input, c.ToolName))
			case BlockToolResult:
				blocks = append(blocks, anthropic.NewToolResultBlock(c.ToolUseID, c.Text, c.IsError))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		if m.Role == RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

func toAnthropicTools(defs []ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		tool := anthropic.ToolParam{
			Name: d.Name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: d.Properties,
				Required:   d.Required,
			},
		}
		if d.Description != "" {
			tool.Description = anthropic.String(d.Description)
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return tools
}

func fromAnthropicMessage(msg *anthropic.Message) Response {
	resp := Response{StopReason: StopReason(msg.StopReason)}
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Content = append(resp.Content, TextBlock(b.Text))
		case anthropic.ToolUseBlock:
			resp.Content = append(resp.Content, ContentBlock{
				Type:      BlockToolUse,
				ToolUseID: b.ID,
				ToolName:  b.Name,
				Input:     b.Input,
			})
		}
	}
	return resp
}

// anthropicStream adapts the SDK event stream to Stream, surfacing only
// non-empty text deltas.
type anthropicStream struct {
	stream *ssestream.Stream[anthropic.MessageStreamEventUnion]
	cancel context.CancelFunc
	cur    string
}

func (s *anthropicStream) Next() bool {
	for s.stream.Next() {
		ev, ok := s.stream.Current().AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		if d, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && d.Text != "" {
			s.cur = d.Text
			return true
		}
	}
	return false
}

func (s *anthropicStream) Current() string { return s.cur }

func (s *anthropicStream) Err() error {
	if err := s.stream.Err(); err != nil {
		return fmt.Errorf("anthropic stream: %w", err)
	}
	return nil
}

func (s *anthropicStream) Close() error {
	s.cancel()
	return s.stream.Close()
}
