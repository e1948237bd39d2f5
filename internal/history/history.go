// package history persists terminal job outcomes to SQLite.
//
// History is an append-only audit log: live job state stays in memory and is
// lost on crash, so the store never participates in recovery. It backs the
// `history` CLI command.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/desertthunder/dlx/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	kind TEXT NOT NULL,
	selector TEXT NOT NULL,
	status TEXT NOT NULL,
	artifact TEXT NOT NULL DEFAULT '',
	size_bytes INTEGER NOT NULL DEFAULT 0,
	error TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_finished_at ON jobs(finished_at);
`

// Store wraps a SQLite connection holding the jobs table.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path and applies the
// schema. The path can be ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one terminal job record.
func (s *Store) Record(record models.JobRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO jobs (id, url, kind, selector, status, artifact, size_bytes, error, created_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.URL, record.Kind, record.Selector, record.Status,
		record.Artifact, record.SizeBytes, record.Error, record.CreatedAt, record.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job record: %w", err)
	}
	return nil
}

// List returns the most recent records, newest first, capped at limit.
// A non-positive limit defaults to 50.
func (s *Store) List(limit int) ([]models.JobRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT id, url, kind, selector, status, artifact, size_bytes, error, created_at, finished_at
		 FROM jobs ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query job history: %w", err)
	}
	defer rows.Close()

	var records []models.JobRecord
	for rows.Next() {
		var record models.JobRecord
		var createdAt, finishedAt time.Time
		if err := rows.Scan(
			&record.ID, &record.URL, &record.Kind, &record.Selector, &record.Status,
			&record.Artifact, &record.SizeBytes, &record.Error, &createdAt, &finishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job record: %w", err)
		}
		record.CreatedAt = createdAt
		record.FinishedAt = finishedAt
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read job history: %w", err)
	}

	return records, nil
}
