// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes review runs over HTTP. A run streams its lifecycle
// events as Server-Sent Events; finished runs are persisted and served from
// the history endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kataras/golog"

	"github.com/pdiddy/litreview/internal/agent"
	"github.com/pdiddy/litreview/internal/annotate"
	"github.com/pdiddy/litreview/internal/container"
	"github.com/pdiddy/litreview/internal/events"
	"github.com/pdiddy/litreview/internal/store"
	"github.com/pdiddy/litreview/pkg/types"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxUploadBytes  = 10 << 20

	// maxTopicBody bounds the JSON body of a review request.
	maxTopicBody = 64 << 10

	// saveTimeout bounds persisting a finished run after the client left.
	saveTimeout = 10 * time.Second

	streamBuffer = 32
)

// Reviewer runs one review. *agent.Reviewer implements it.
type Reviewer interface {
	Run(ctx context.Context, topic string, emit events.Emitter) agent.Outcome
}

// Annotator annotates one document. *annotate.Annotator implements it.
type Annotator interface {
	Annotate(ctx context.Context, doc annotate.Document) (annotate.Result, error)
}

// Store persists finished reviews. *store.Store implements it.
type Store interface {
	Save(ctx context.Context, r types.Review) error
	Get(ctx context.Context, id string) (types.Review, error)
	List(ctx context.Context, opts store.ListOptions) ([]store.Summary, error)
	Delete(ctx context.Context, id string) error
	ExportYAML(ctx context.Context, id string, w io.Writer) error
	ExportJSON(ctx context.Context, id string, w io.Writer) error
}

// Server is the HTTP front end.
type Server struct {
	reviewer  Reviewer
	annotator Annotator
	store     Store
	runtime   container.Runtime
	logger    *golog.Logger

	addr            string
	shutdownTimeout time.Duration
	maxUploadBytes  int64

	runs  *registry
	newID func() string
	now   func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithStore enables persistence and the history endpoints.
func WithStore(st Store) Option {
	return func(s *Server) { s.store = st }
}

// WithAnnotator enables POST /api/annotate.
func WithAnnotator(a Annotator) Option {
	return func(s *Server) { s.annotator = a }
}

// WithRuntime sets the container runtime used to convert PDF and DOCX
// uploads.
func WithRuntime(rt container.Runtime) Option {
	return func(s *Server) { s.runtime = rt }
}

// WithLogger sets the logger for requests and run failures. A nil logger
// keeps the default.
func WithLogger(l *golog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Server for reviewer.
func New(cfg types.ServerConfig, reviewer Reviewer, opts ...Option) *Server {
	s := &Server{
		reviewer:        reviewer,
		logger:          golog.Default,
		addr:            cfg.Addr,
		shutdownTimeout: cfg.ShutdownTimeout,
		maxUploadBytes:  cfg.MaxUploadBytes,
		runs:            newRegistry(),
		newID:           uuid.NewString,
		now:             time.Now,
	}
	if s.addr == "" {
		s.addr = ":8080"
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = defaultShutdownTimeout
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = defaultMaxUploadBytes
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("POST /api/reviews", s.handleCreateReview)
	mux.HandleFunc("DELETE /api/reviews/{id}/run", s.handleCancelRun)

	mux.HandleFunc("GET /api/reviews", s.handleListReviews)
	mux.HandleFunc("GET /api/reviews/{id}", s.handleGetReview)
	mux.HandleFunc("GET /api/reviews/{id}/html", s.handleReviewHTML)
	mux.HandleFunc("GET /api/reviews/{id}/export", s.handleExportReview)
	mux.HandleFunc("DELETE /api/reviews/{id}", s.handleDeleteReview)

	mux.HandleFunc("POST /api/annotate", s.handleAnnotate)

	return s.logRequests(corsMiddleware(mux))
}

// ListenAndServe serves until ctx is cancelled, then cancels in-flight runs
// and shuts down within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("listening on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Infof("shutting down, cancelling %d active runs", s.runs.len())
	s.runs.cancelAll()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
