// Package database persists a per-run log of every Operation the executor
// attempted, adapted from internal/database (DeletionDB ->
// HistoryDB). The storage shape (SQLite, WAL journal, schema_version
// table) follows the source verbatim; the schema itself is repointed from
// deletion-reason records at Operations keyed by a per-run UUID.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"archivist/internal/planmodel"
)

// HistoryDB manages the SQLite database of past Operations.
type HistoryDB struct {
	db *sql.DB
}

// Outcome is the terminal state of an attempted Operation.
type Outcome string

const (
	OutcomeDone  Outcome = "DONE"
	OutcomeSkip  Outcome = "SKIP"
	OutcomeError Outcome = "ERROR"
)

// Record represents one attempted Operation, as persisted to the history
// table.
type Record struct {
	ID           int64
	RunID        string
	Timestamp    time.Time
	Kind         string
	Path         string
	FileName     string
	MoveTo       string
	Outcome      Outcome
	Size         int64
	ErrorMessage string
	CreatedAt    time.Time
}

// NewHistoryDB creates a new database connection and initializes schema.
func NewHistoryDB(dbPath string) (*HistoryDB, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// file: prefix with _loc=auto enables automatic DATETIME parsing
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// Test connection by executing a simple query instead of Ping(); this
	// ensures the database file is created if it doesn't exist.
	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize database (check permissions on %s): %w", dbPath, err)
	}

	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	hdb := &HistoryDB{db: db}
	if err = hdb.initSchema(); err != nil {
		return nil, err
	}

	err = nil
	return hdb, nil
}

func (h *HistoryDB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS operations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		kind TEXT NOT NULL,
		path TEXT NOT NULL,
		file_name TEXT,
		move_to TEXT,
		outcome TEXT NOT NULL,
		size INTEGER NOT NULL,
		error_message TEXT,

		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_run_id ON operations(run_id);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON operations(timestamp);
	CREATE INDEX IF NOT EXISTS idx_kind ON operations(kind);
	CREATE INDEX IF NOT EXISTS idx_path ON operations(path);
	CREATE INDEX IF NOT EXISTS idx_outcome ON operations(outcome);
	CREATE INDEX IF NOT EXISTS idx_size ON operations(size);

	-- Metadata table for schema versioning
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := h.db.Exec(schema)
	return err
}

// RecordOperation inserts one attempted Operation into the history table.
func (h *HistoryDB) RecordOperation(runID string, op planmodel.Operation, outcome Outcome, size int64, errMsg string) error {
	query := `
	INSERT INTO operations (
		run_id, timestamp, kind, path, file_name, move_to, outcome, size, error_message
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := h.db.Exec(
		query,
		runID,
		time.Now(),
		op.Kind.String(),
		op.Path,
		filepath.Base(op.Path),
		op.MoveTo,
		string(outcome),
		size,
		errMsg,
	)
	return err
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Vacuum optimizes the database (run periodically).
func (h *HistoryDB) Vacuum() error {
	_, err := h.db.Exec("VACUUM")
	return err
}

// Stats returns database statistics.
func (h *HistoryDB) Stats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalRecords int64
	if err := h.db.QueryRow("SELECT COUNT(*) FROM operations").Scan(&totalRecords); err != nil {
		return nil, err
	}
	stats["total_records"] = totalRecords

	var pageCount, pageSize int64
	if err := h.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, err
	}
	if err := h.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, err
	}
	stats["database_size_bytes"] = pageCount * pageSize

	return stats, nil
}
