// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ReviewStatus is the terminal state of a review run.
type ReviewStatus string

const (
	ReviewRunning   ReviewStatus = "running"
	ReviewCompleted ReviewStatus = "completed"
	ReviewFailed    ReviewStatus = "failed"
	ReviewCancelled ReviewStatus = "cancelled"
)

// Review is the persisted record of one review run.
type Review struct {
	// ID is a UUID assigned when the run starts.
	ID string `json:"id" yaml:"id"`

	// Topic is the research topic submitted by the caller.
	Topic string `json:"topic" yaml:"topic"`

	// Status is completed, failed, or cancelled once the run has ended.
	Status ReviewStatus `json:"status" yaml:"status"`

	// Content is the concatenation of every streamed review chunk. It may be
	// a truncated document when the run failed mid-stream.
	Content string `json:"content" yaml:"content"`

	// Papers holds the collected papers in discovery order.
	Papers []Paper `json:"papers" yaml:"papers"`

	// Error is the terminal error message for failed or cancelled runs.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
}

// PaperCount returns the number of collected papers.
func (r Review) PaperCount() int {
	return len(r.Papers)
}
