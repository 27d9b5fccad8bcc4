// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/litreview/pkg/types"
)

// ListOptions filters the review history.
type ListOptions struct {
	// Query is a full-text search over topic and review content.
	Query string

	// Status restricts results to one terminal status.
	Status types.ReviewStatus

	// Limit caps the result count. Zero uses DefaultListLimit.
	Limit int
}

// Summary is a review without its content or papers.
type Summary struct {
	ID          string             `json:"id" yaml:"id"`
	Topic       string             `json:"topic" yaml:"topic"`
	Status      types.ReviewStatus `json:"status" yaml:"status"`
	PaperCount  int                `json:"paperCount" yaml:"paper_count"`
	Error       string             `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" yaml:"created_at"`
	CompletedAt time.Time          `json:"completedAt" yaml:"completed_at"`
}

// List returns review summaries. Full-text results are ordered by
// relevance, all others newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Summary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var (
		qb   strings.Builder
		args []any
	)

	query := strings.TrimSpace(opts.Query)
	useFTS := query != "" && s.fts

	qb.WriteString(`SELECT r.id, r.topic, r.status, r.paper_count, r.error, r.created_at, r.completed_at FROM reviews r`)
	if useFTS {
		qb.WriteString(` JOIN reviews_fts ON r.rowid = reviews_fts.rowid WHERE reviews_fts MATCH ?`)
		args = append(args, ftsQuery(query))
	} else {
		qb.WriteString(` WHERE 1=1`)
		if query != "" {
			qb.WriteString(` AND (r.topic LIKE ? OR r.content LIKE ?)`)
			like := "%" + query + "%"
			args = append(args, like, like)
		}
	}

	if opts.Status != "" {
		qb.WriteString(` AND r.status = ?`)
		args = append(args, string(opts.Status))
	}

	if useFTS {
		qb.WriteString(` ORDER BY reviews_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY r.created_at DESC, r.rowid DESC`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying reviews: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var (
			sum                Summary
			status             string
			created, completed string
		)
		if err := rows.Scan(&sum.ID, &sum.Topic, &status, &sum.PaperCount, &sum.Error, &created, &completed); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		sum.Status = types.ReviewStatus(status)
		sum.CreatedAt = parseTime(created)
		sum.CompletedAt = parseTime(completed)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// ftsQuery quotes each term so user input is matched literally rather than
// parsed as FTS5 syntax.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}
