// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm defines the provider-neutral contract the review agent and the
// annotator use to talk to a language model: role-tagged transcripts of
// content blocks, tool definitions, a blocking completion call, and a
// pull-based text stream.
package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Role tags a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType discriminates ContentBlock.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// ContentBlock is one element of a message. Which fields are meaningful
// depends on Type:
//
//	text:        Text
//	tool_use:    ToolUseID, ToolName, Input
//	tool_result: ToolUseID, Text, IsError
type ContentBlock struct {
	Type      BlockType       `json:"type"`
	Text      string          `json:"text,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	ToolName  string          `json:"tool_name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

// TextBlock returns a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ToolResultBlock returns the result of the tool call identified by toolUseID.
func ToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolUseID: toolUseID, Text: content, IsError: isError}
}

// Message is one role-tagged turn of a transcript.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// UserText is shorthand for a user message with a single text block.
func UserText(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}}
}

// ToolDefinition declares a tool the model may call. Properties is a JSON
// schema "properties" object.
type ToolDefinition struct {
	Name        string
	Description string
	Properties  map[string]any
	Required    []string
}

// Request is one model invocation.
type Request struct {
	Model     string
	System    string
	MaxTokens int
	Messages  []Message
	Tools     []ToolDefinition
}

// StopReason is the provider-reported reason a turn ended.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
)

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// Response is a completed (non-streamed) model turn.
type Response struct {
	Content    []ContentBlock
	StopReason StopReason
}

// Text concatenates the text blocks of the response.
func (r Response) Text() string {
	var b strings.Builder
	for _, c := range r.Content {
		if c.Type == BlockText {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}

// ToolCalls returns the requested tool calls in the order the model emitted them.
func (r Response) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, c := range r.Content {
		if c.Type == BlockToolUse {
			calls = append(calls, ToolCall{ID: c.ToolUseID, Name: c.ToolName, Input: c.Input})
		}
	}
	return calls
}

// AssistantMessage returns the response as a transcript turn.
func (r Response) AssistantMessage() Message {
	return Message{Role: RoleAssistant, Content: r.Content}
}

// Stream yields text fragments of a streamed generation in order.
//
//	for s.Next() {
//		use(s.Current())
//	}
//	if err := s.Err(); err != nil { ... }
//
// Close aborts an in-flight generation and releases the connection; it is
// safe to call more than once.
type Stream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// Client is a language model provider.
type Client interface {
	// Complete runs one blocking turn. Tool definitions in req are offered
	// to the model.
	Complete(ctx context.Context, req Request) (Response, error)

	// Stream starts a text generation. Cancelling ctx aborts it.
	Stream(ctx context.Context, req Request) (Stream, error)
}
