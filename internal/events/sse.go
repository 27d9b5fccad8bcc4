// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package events

import (
	"fmt"
	"io"
	"net/http"
)

// WriteSSE frames e as one Server-Sent Event:
//
//	event: <type>
//	data: <json>
//
// followed by a blank line.
func WriteSSE(w io.Writer, e Event) error {
	payload, err := e.Payload()
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", e.Type, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, payload)
	return err
}

// SSEWriter writes events to an HTTP response and flushes after each one.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter sets the event-stream headers on w. It fails when w cannot
// flush incrementally.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported by response writer")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	return &SSEWriter{w: w, flusher: flusher}, nil
}

// Write frames and flushes one event.
func (s *SSEWriter) Write(e Event) error {
	if err := WriteSSE(s.w, e); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
