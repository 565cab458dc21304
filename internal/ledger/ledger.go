// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps a local SQLite record of completed ingest runs. The
// persisted Notion records are the system of record; the ledger only lets
// an analyst find what a past run created without searching the workspace.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rocknruds/powerflow-agents/pkg/types"
)

const dbFile = "runs.db"

// Run is one completed ingest run.
type Run struct {
	ID        string
	CreatedAt time.Time
	InputURL  string
	SourceID  string
	SourceURL string
	EventID   string
	EventURL  string
	Warnings  int
}

// Store manages the run ledger database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the ledger database at dir/runs.db, creating
// the schema if it does not exist.
func NewStore(cfg types.LedgerConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening ledger database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		input_url TEXT,
		source_id TEXT NOT NULL,
		source_url TEXT,
		event_id TEXT NOT NULL,
		event_url TEXT,
		warnings INTEGER NOT NULL DEFAULT 0
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Record appends a completed run. A missing ID or timestamp is assigned.
// Returns the run as stored.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, input_url, source_id, source_url, event_id, event_url, warnings)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.Format(time.RFC3339), run.InputURL,
		run.SourceID, run.SourceURL, run.EventID, run.EventURL, run.Warnings)
	if err != nil {
		return Run{}, fmt.Errorf("recording run: %w", err)
	}
	return run, nil
}

// Recent returns the most recent runs, newest first. A limit of 0 uses the
// configured default.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, input_url, source_id, source_url, event_id, event_url, warnings
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt string
		if err := rows.Scan(&run.ID, &createdAt, &run.InputURL,
			&run.SourceID, &run.SourceURL, &run.EventID, &run.EventURL, &run.Warnings); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing run timestamp: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
