// Package history keeps a local SQLite log of processed applications so
// the CLI works without a PostgreSQL instance.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jonathan/credit-scorer/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS assessments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	application_id TEXT NOT NULL,
	borrower_id TEXT NOT NULL,
	credit_score REAL NOT NULL,
	traditional_score REAL NOT NULL,
	alternative_score REAL NOT NULL,
	decision TEXT NOT NULL,
	compliant INTEGER NOT NULL,
	created_at TEXT NOT NULL
)`

// Entry is one stored assessment row
type Entry struct {
	ID               int64     `json:"id"`
	ApplicationID    string    `json:"application_id"`
	BorrowerID       string    `json:"borrower_id"`
	CreditScore      float64   `json:"credit_score"`
	TraditionalScore float64   `json:"traditional_score"`
	AlternativeScore float64   `json:"alternative_score"`
	Decision         string    `json:"decision"`
	Compliant        bool      `json:"compliant"`
	CreatedAt        time.Time `json:"created_at"`
}

// Store is a local assessment history backed by a SQLite file
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordAssessment appends one processed application to the history.
// Satisfies integration.Recorder.
func (s *Store) RecordAssessment(ctx context.Context, result *types.ApplicationResult) error {
	if result == nil {
		return fmt.Errorf("assessment result is nil")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assessments (application_id, borrower_id, credit_score,
		                          traditional_score, alternative_score, decision, compliant, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ApplicationID, result.BorrowerID, result.EnhancedScore,
		result.TraditionalScore, result.AlternativeScore, result.Decision,
		result.Compliant, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record assessment: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, application_id, borrower_id, credit_score,
		        traditional_score, alternative_score, decision, compliant, created_at
		 FROM assessments ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.ApplicationID, &e.BorrowerID, &e.CreditScore,
			&e.TraditionalScore, &e.AlternativeScore, &e.Decision, &e.Compliant, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
