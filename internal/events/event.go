// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package events defines the lifecycle events a review run emits, the
// Emitter sink the agent writes them to, and the transports that carry them
// to a consumer: a channel-backed Stream and Server-Sent Events framing.
package events

import (
	"encoding/json"

	"github.com/pdiddy/litreview/pkg/types"
)

// Type names an event on the wire.
type Type string

const (
	TypeStatus      Type = "status"
	TypePaperFound  Type = "paper_found"
	TypeThinking    Type = "thinking"
	TypeReviewStart Type = "review_start"
	TypeReviewChunk Type = "review_chunk"
	TypePapersCount Type = "papers_count"
	TypeComplete    Type = "complete"
	TypeError       Type = "error"
)

// MaxPaperFoundAuthors bounds the author list carried by paper_found.
const MaxPaperFoundAuthors = 3

// Event is one entry of a run's ordered event stream. Data is one of the
// payload structs below and is what appears on the SSE data line.
type Event struct {
	Type Type `json:"type"`
	Data any  `json:"data"`
}

// Payloads.
type (
	StatusData struct {
		Message string `json:"message"`
	}

	PaperFoundData struct {
		Title   string       `json:"title"`
		Authors []string     `json:"authors"`
		Year    *int         `json:"year"`
		Source  types.Source `json:"source"`
	}

	TextData struct {
		Text string `json:"text"`
	}

	CountData struct {
		Count int `json:"count"`
	}

	CompleteData struct {
		PaperCount int `json:"paperCount"`
	}

	ErrorData struct {
		Message string `json:"message"`
	}
)

func Status(message string) Event {
	return Event{Type: TypeStatus, Data: StatusData{Message: message}}
}

// PaperFound announces a newly collected paper with at most three authors.
func PaperFound(p types.Paper) Event {
	authors := p.Authors
	if len(authors) > MaxPaperFoundAuthors {
		authors = authors[:MaxPaperFoundAuthors]
	}
	out := make([]string, len(authors))
	copy(out, authors)
	return Event{Type: TypePaperFound, Data: PaperFoundData{
		Title:   p.Title,
		Authors: out,
		Year:    p.Year,
		Source:  p.Source,
	}}
}

func Thinking(text string) Event {
	return Event{Type: TypeThinking, Data: TextData{Text: text}}
}

func ReviewStart() Event {
	return Event{Type: TypeReviewStart, Data: struct{}{}}
}

func ReviewChunk(text string) Event {
	return Event{Type: TypeReviewChunk, Data: TextData{Text: text}}
}

func PapersCount(n int) Event {
	return Event{Type: TypePapersCount, Data: CountData{Count: n}}
}

func Complete(paperCount int) Event {
	return Event{Type: TypeComplete, Data: CompleteData{PaperCount: paperCount}}
}

func Error(message string) Event {
	return Event{Type: TypeError, Data: ErrorData{Message: message}}
}

// Terminal reports whether e ends a run.
func (e Event) Terminal() bool {
	return e.Type == TypeComplete || e.Type == TypeError
}

// Text returns the text carried by thinking and review_chunk events and the
// message of status and error events.
func (e Event) Text() string {
	switch d := e.Data.(type) {
	case TextData:
		return d.Text
	case StatusData:
		return d.Message
	case ErrorData:
		return d.Message
	}
	return ""
}

// Payload returns the JSON encoding of e.Data.
func (e Event) Payload() ([]byte, error) {
	if e.Data == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(e.Data)
}
