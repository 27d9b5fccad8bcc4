// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists finished review runs in SQLite and searches their
// history.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kataras/golog"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/litreview/pkg/types"
)

const (
	dbFile = "reviews.db"

	// DefaultListLimit is used when ListOptions.Limit is not positive.
	DefaultListLimit = 20
)

// ErrNotFound is returned when no review has the requested ID.
var ErrNotFound = errors.New("review not found")

// Store manages the review history database.
type Store struct {
	db     *sql.DB
	fts    bool
	logger *golog.Logger
}

// Open opens or creates dir/reviews.db and its schema. Full-text search
// uses FTS5 when the SQLite build provides it and falls back to substring
// matching otherwise.
func Open(cfg types.StoreConfig, logger *golog.Logger) (*Store, error) {
	if logger == nil {
		logger = golog.Default
	}
	dir := cfg.Dir
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	return openDSN(filepath.Join(dir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", logger)
}

func openDSN(dsn string, logger *golog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS reviews (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			topic TEXT NOT NULL,
			status TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			paper_count INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			completed_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_created_at ON reviews(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_status ON reviews(status)`,
		`CREATE TABLE IF NOT EXISTS review_papers (
			review_id TEXT NOT NULL REFERENCES reviews(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			paper_id TEXT,
			title TEXT NOT NULL,
			authors TEXT,
			year INTEGER,
			abstract TEXT,
			url TEXT,
			citation_count INTEGER,
			source TEXT,
			PRIMARY KEY (review_id, position)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='reviews_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		s.fts = true
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE reviews_fts USING fts5(topic, content, content=reviews, content_rowid=rowid)`,
		`CREATE TRIGGER reviews_ai AFTER INSERT ON reviews BEGIN
			INSERT INTO reviews_fts(rowid, topic, content) VALUES (new.rowid, new.topic, new.content);
		END`,
		`CREATE TRIGGER reviews_ad AFTER DELETE ON reviews BEGIN
			INSERT INTO reviews_fts(reviews_fts, rowid, topic, content) VALUES('delete', old.rowid, old.topic, old.content);
		END`,
		`CREATE TRIGGER reviews_au AFTER UPDATE ON reviews BEGIN
			INSERT INTO reviews_fts(reviews_fts, rowid, topic, content) VALUES('delete', old.rowid, old.topic, old.content);
			INSERT INTO reviews_fts(rowid, topic, content) VALUES (new.rowid, new.topic, new.content);
		END`,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning FTS transaction: %w", err)
	}
	for _, stmt := range ftsStatements {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			if strings.Contains(err.Error(), "no such module") {
				s.logger.Warnf("sqlite built without fts5, history search falls back to substring matching")
				return nil
			}
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing FTS infrastructure: %w", err)
	}
	s.fts = true
	return nil
}

// Save inserts or replaces r and its papers in one transaction.
func (s *Store) Save(ctx context.Context, r types.Review) error {
	if r.ID == "" {
		return fmt.Errorf("review id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reviews (id, topic, status, content, paper_count, error, created_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			topic=excluded.topic, status=excluded.status, content=excluded.content,
			paper_count=excluded.paper_count, error=excluded.error,
			created_at=excluded.created_at, completed_at=excluded.completed_at`,
		r.ID, r.Topic, string(r.Status), r.Content, len(r.Papers), r.Error,
		formatTime(r.CreatedAt), formatTime(r.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting review: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM review_papers WHERE review_id = ?`, r.ID); err != nil {
		return fmt.Errorf("deleting old papers: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO review_papers (review_id, position, paper_id, title, authors, year, abstract, url, citation_count, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range r.Papers {
		authorsJSON, _ := json.Marshal(p.Authors)
		_, err := stmt.ExecContext(ctx,
			r.ID, i, p.ID, p.Title, string(authorsJSON), nullInt(p.Year),
			p.Abstract, p.URL, nullInt(p.CitationCount), string(p.Source),
		)
		if err != nil {
			return fmt.Errorf("inserting paper %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Get returns the review with id and its papers in discovery order.
func (s *Store) Get(ctx context.Context, id string) (types.Review, error) {
	var (
		r                  types.Review
		status             string
		created, completed string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, topic, status, content, error, created_at, completed_at FROM reviews WHERE id = ?`, id,
	).Scan(&r.ID, &r.Topic, &status, &r.Content, &r.Error, &created, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Review{}, ErrNotFound
	}
	if err != nil {
		return types.Review{}, fmt.Errorf("looking up review: %w", err)
	}
	r.Status = types.ReviewStatus(status)
	r.CreatedAt = parseTime(created)
	r.CompletedAt = parseTime(completed)

	papers, err := s.papers(ctx, id)
	if err != nil {
		return types.Review{}, err
	}
	r.Papers = papers
	return r, nil
}

func (s *Store) papers(ctx context.Context, reviewID string) ([]types.Paper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT paper_id, title, authors, year, abstract, url, citation_count, source
		 FROM review_papers WHERE review_id = ? ORDER BY position`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	papers := []types.Paper{}
	for rows.Next() {
		var (
			p                  types.Paper
			paperID, abstract  sql.NullString
			url, source        sql.NullString
			authorsJSON        sql.NullString
			year, citationsCnt sql.NullInt64
		)
		if err := rows.Scan(&paperID, &p.Title, &authorsJSON, &year, &abstract, &url, &citationsCnt, &source); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		p.ID = paperID.String
		p.Abstract = abstract.String
		p.URL = url.String
		p.Source = types.Source(source.String)
		p.Authors = []string{}
		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &p.Authors)
		}
		if year.Valid {
			p.Year = types.IntPtr(int(year.Int64))
		}
		if citationsCnt.Valid {
			p.CitationCount = types.IntPtr(int(citationsCnt.Int64))
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// Delete removes a review and its papers.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting review: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting review: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
