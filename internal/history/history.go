// Package history persists conversion job records in SQLite so the daemon
// can answer "what happened to my book" after the fact.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Job is one recorded conversion attempt.
type Job struct {
	ID        string
	Input     string
	Output    string // path of the written KPF, empty on failure
	Outcome   string // success|failed|timeout|canceled
	ErrorMsg  string
	StartedAt time.Time
	Duration  time.Duration
}

// Store is a SQLite-backed job history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore opens (and initializes) the job history database.
// Use ":memory:" for an in-memory database, or a file path for persistence.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		input TEXT NOT NULL,
		output TEXT,
		outcome TEXT NOT NULL,
		error_msg TEXT,
		started INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_started ON jobs(started);
	CREATE INDEX IF NOT EXISTS idx_jobs_outcome ON jobs(outcome);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts one job record.
func (s *Store) Record(ctx context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO jobs (id, input, output, outcome, error_msg, started, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?)",
		job.ID, job.Input, job.Output, job.Outcome, job.ErrorMsg, job.StartedAt.Unix(), job.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Recent returns the newest job records, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, input, output, outcome, error_msg, started, duration_ms FROM jobs ORDER BY started DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// ByOutcome returns job records with a given outcome, most recent first.
func (s *Store) ByOutcome(ctx context.Context, outcome string, limit int) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, input, output, outcome, error_msg, started, duration_ms FROM jobs WHERE outcome = ? ORDER BY started DESC, id LIMIT ?",
		outcome, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

func scanJobs(rows *sql.Rows) ([]Job, error) {
	var jobs []Job
	for rows.Next() {
		var j Job
		var started, durationMS int64
		if err := rows.Scan(&j.ID, &j.Input, &j.Output, &j.Outcome, &j.ErrorMsg, &started, &durationMS); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.StartedAt = time.Unix(started, 0)
		j.Duration = time.Duration(durationMS) * time.Millisecond
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return jobs, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
