// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"sync"
)

// registry tracks the cancel functions of in-flight runs by review ID.
type registry struct {
	mu   sync.Mutex
	runs map[string]context.CancelFunc
}

func newRegistry() *registry {
	return &registry{runs: make(map[string]context.CancelFunc)}
}

func (r *registry) add(id string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[id] = cancel
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, id)
}

// cancel reports whether a run with id was active.
func (r *registry) cancel(id string) bool {
	r.mu.Lock()
	cancel, ok := r.runs[id]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (r *registry) cancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cancel := range r.runs {
		cancel()
	}
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}
