// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the search provider adapters.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Policy controls how DoWithRetry backs off when a provider throttles.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	// Zero disables retrying.
	MaxRetries int

	// BaseDelay is the first backoff interval; it doubles on each retry.
	BaseDelay time.Duration

	// MaxDelay caps both the computed backoff and any Retry-After value.
	// Zero means no cap.
	MaxDelay time.Duration
}

// DefaultPolicy is used by adapters whose configuration leaves retry unset.
var DefaultPolicy = Policy{MaxRetries: 3, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second}

// retryable reports whether status indicates a transient throttle.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// DoWithRetry executes req and retries on HTTP 429 and 503 responses.
//
// A Retry-After header expressed in seconds takes precedence over the
// exponential backoff. The response body is drained and closed before each
// wait. If ctx is cancelled during a wait the function returns ctx.Err().
// After exhausting retries the last throttled response is returned so the
// caller can report its status.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, p Policy) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= p.MaxRetries {
			return resp, nil
		}

		wait := p.backoff(attempt, resp.Header.Get("Retry-After"))
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// backoff returns the wait before retry number attempt+1.
func (p Policy) backoff(attempt int, retryAfter string) time.Duration {
	wait := p.BaseDelay << attempt
	if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && secs >= 0 {
		wait = time.Duration(secs) * time.Second
	}
	if p.MaxDelay > 0 && wait > p.MaxDelay {
		wait = p.MaxDelay
	}
	return wait
}
