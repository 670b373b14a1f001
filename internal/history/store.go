// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records conversion runs in a local SQLite database so
// past conversions (settings, produced files, timings) can be listed and
// exported.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdfraster/pkg/types"
)

const dbFile = "history.db"

// timeFormat is fixed width so created_at sorts as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when a run ID is not in the database.
var ErrNotFound = errors.New("run not found")

// Status is the outcome of a recorded run.
type Status string

const (
	StatusConverted Status = "converted"
	StatusSkipped   Status = "skipped"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Run is one recorded document conversion.
type Run struct {
	ID        string        `json:"id" yaml:"id"`
	Source    string        `json:"source" yaml:"source"`
	Target    types.DocType `json:"target" yaml:"target"`
	Renderer  string        `json:"renderer" yaml:"renderer"`
	Encoder   string        `json:"encoder,omitempty" yaml:"encoder,omitempty"`
	DPI       int           `json:"dpi" yaml:"dpi"`
	Quality   int           `json:"quality" yaml:"quality"`
	Lossless  bool          `json:"lossless" yaml:"lossless"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Status    Status        `json:"status" yaml:"status"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	Files     []string      `json:"files" yaml:"files"`
}

// Store manages the history SQLite database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates dir/history.db and its schema.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, dir: dir, maxResults: maxResults}
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

// Dir returns the directory holding the database.
func (s *Store) Dir() string { return s.dir }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			target TEXT NOT NULL,
			renderer TEXT,
			encoder TEXT,
			dpi INTEGER,
			quality INTEGER,
			lossless INTEGER,
			duration_ns INTEGER,
			status TEXT NOT NULL,
			error TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_files (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			path TEXT NOT NULL,
			format TEXT,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores run and its files, assigning an ID and timestamp when
// missing. It returns the run ID.
func (s *Store) Record(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source, target, renderer, encoder, dpi, quality, lossless, duration_ns, status, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, string(run.Target), run.Renderer, run.Encoder,
		run.DPI, run.Quality, run.Lossless, int64(run.Duration),
		string(run.Status), run.Error, run.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_files (run_id, seq, path, format) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, f := range run.Files {
		format := ""
		if t, ok := types.ParseDocType(filepath.Ext(f)); ok {
			format = string(t)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, f, format); err != nil {
			return "", fmt.Errorf("inserting file %s: %w", f, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return run.ID, nil
}

// List returns the most recent runs, newest first. A limit of zero or less
// uses the configured maximum.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	return s.query(ctx, `SELECT id, source, target, renderer, encoder, dpi, quality, lossless, duration_ns, status, error, created_at
		FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
}

// All returns every recorded run, newest first.
func (s *Store) All(ctx context.Context) ([]Run, error) {
	return s.query(ctx, `SELECT id, source, target, renderer, encoder, dpi, quality, lossless, duration_ns, status, error, created_at
		FROM runs ORDER BY created_at DESC, rowid DESC`)
}

// Get returns the run with the given ID.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	runs, err := s.query(ctx, `SELECT id, source, target, renderer, encoder, dpi, quality, lossless, duration_ns, status, error, created_at
		FROM runs WHERE id = ?`, id)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return runs[0], nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			target     string
			status     string
			renderer   sql.NullString
			encoder    sql.NullString
			errMsg     sql.NullString
			durationNS int64
			createdAt  string
		)
		if err := rows.Scan(&r.ID, &r.Source, &target, &renderer, &encoder, &r.DPI, &r.Quality,
			&r.Lossless, &durationNS, &status, &errMsg, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Target = types.DocType(target)
		r.Status = Status(status)
		r.Renderer = renderer.String
		r.Encoder = encoder.String
		r.Error = errMsg.String
		r.Duration = time.Duration(durationNS)
		if t, err := time.Parse(timeFormat, createdAt); err == nil {
			r.CreatedAt = t
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	for i := range runs {
		files, err := s.files(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Files = files
	}
	return runs, nil
}

func (s *Store) files(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM run_files WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying files for %s: %w", runID, err)
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		files = append(files, p)
	}
	return files, rows.Err()
}
