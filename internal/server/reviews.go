// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/litreview/internal/agent"
	"github.com/pdiddy/litreview/internal/events"
	"github.com/pdiddy/litreview/internal/render"
	"github.com/pdiddy/litreview/internal/store"
	"github.com/pdiddy/litreview/pkg/types"
)

const headerReviewID = "X-Review-ID"

type reviewRequest struct {
	Topic string `json:"topic"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreateReview runs a review and streams its events. The run is
// cancelled when the client disconnects, when DELETE /api/reviews/{id}/run
// is called, or when the server shuts down.
func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTopicBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	sse, err := events.NewSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	id := s.newID()
	created := s.now()
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	s.runs.add(id, cancel)
	defer s.runs.remove(id)

	w.Header().Set(headerReviewID, id)
	w.WriteHeader(http.StatusOK)

	stream := events.NewStream(streamBuffer)
	done := make(chan agent.Outcome, 1)
	go func() {
		defer stream.Close()
		done <- s.reviewer.Run(ctx, req.Topic, stream)
	}()

	for e := range stream.Events() {
		if err := sse.Write(e); err != nil {
			s.logger.Debugf("review %s: client gone: %v", id, err)
			cancel()
			stream.Detach()
			break
		}
	}
	outcome := <-done

	s.save(context.WithoutCancel(r.Context()), id, req.Topic, created, outcome)
}

func (s *Server) save(ctx context.Context, id, topic string, created time.Time, out agent.Outcome) {
	if s.store == nil || strings.TrimSpace(topic) == "" {
		return
	}
	rev := types.Review{
		ID:          id,
		Topic:       strings.TrimSpace(topic),
		Status:      out.Status,
		Content:     out.Content,
		Papers:      out.Papers,
		CreatedAt:   created,
		CompletedAt: s.now(),
	}
	if out.Err != nil {
		rev.Error = out.Err.Error()
	}

	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()
	if err := s.store.Save(ctx, rev); err != nil {
		s.logger.Warnf("review %s: saving: %v", id, err)
	}
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.runs.cancel(id) {
		writeError(w, http.StatusNotFound, "no active run "+id)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "cancelling"})
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "review history is disabled")
		return false
	}
	return true
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	q := r.URL.Query()
	opts := store.ListOptions{
		Query:  q.Get("q"),
		Status: types.ReviewStatus(q.Get("status")),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		opts.Limit = n
	}

	list, err := s.store.List(r.Context(), opts)
	if err != nil {
		s.logger.Errorf("listing reviews: %v", err)
		writeError(w, http.StatusInternalServerError, "listing reviews failed")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// lookup fetches the review named by the path and writes the error
// response when it cannot.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (types.Review, bool) {
	if !s.requireStore(w) {
		return types.Review{}, false
	}
	rev, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.storeError(w, err)
		return types.Review{}, false
	}
	return rev, true
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Errorf("store: %v", err)
	writeError(w, http.StatusInternalServerError, "storage error")
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	if rev, ok := s.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, rev)
	}
}

func (s *Server) handleReviewHTML(w http.ResponseWriter, r *http.Request) {
	rev, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.Page(w, rev); err != nil {
		s.logger.Errorf("rendering review %s: %v", rev.ID, err)
	}
}

func (s *Server) handleExportReview(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id := r.PathValue("id")

	var (
		buf         bytes.Buffer
		err         error
		contentType string
		ext         string
	)
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		err = s.store.ExportJSON(r.Context(), id, &buf)
		contentType, ext = "application/json", "json"
	case "yaml", "yml":
		err = s.store.ExportYAML(r.Context(), id, &buf)
		contentType, ext = "application/yaml", "yaml"
	case "csl":
		var rev types.Review
		if rev, err = s.store.Get(r.Context(), id); err == nil {
			err = render.CSL(&buf, rev.Papers)
		}
		contentType, ext = "application/yaml", "csl.yaml"
	default:
		writeError(w, http.StatusBadRequest, "format must be json, yaml, or csl")
		return
	}
	if err != nil {
		s.storeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="review-`+id+`.`+ext+`"`)
	buf.WriteTo(w)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
