// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package events

import "sync"

// Emitter receives the events of one run in causal order. Implementations
// must not reorder events.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event)

func (f EmitterFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Emitter = EmitterFunc(func(Event) {})

// Stream is a channel-backed Emitter. The producer emits and finally calls
// Close; the consumer ranges over Events and calls Detach if it stops
// reading early, which unblocks any pending Emit.
type Stream struct {
	ch         chan Event
	done       chan struct{}
	closeOnce  sync.Once
	detachOnce sync.Once
}

// NewStream returns a stream with the given channel buffer.
func NewStream(buffer int) *Stream {
	if buffer < 0 {
		buffer = 0
	}
	return &Stream{
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
}

// Emit blocks until the consumer accepts e or detaches. Events emitted after
// Detach are dropped.
func (s *Stream) Emit(e Event) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.ch <- e:
	case <-s.done:
	}
}

// Events is the consumer side of the stream. It is closed by Close.
func (s *Stream) Events() <-chan Event {
	return s.ch
}

// Close ends the stream. Only the producer calls it, after its last Emit.
func (s *Stream) Close() {
	s.closeOnce.Do(func() { close(s.ch) })
}

// Detach signals that the consumer has gone away.
func (s *Stream) Detach() {
	s.detachOnce.Do(func() { close(s.done) })
}

// Recorder collects events in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []Type {
	evs := r.Events()
	out := make([]Type, len(evs))
	for i, e := range evs {
		out[i] = e.Type
	}
	return out
}

// OfType returns the recorded events of type t in order.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
