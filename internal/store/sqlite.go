// Package store provides SQLite-based persistence for the labelctl sidecar
// index. It tracks snapshot and batch manifests, the current snapshot
// pointer, and the merge overwrite audit log. On-disk artifact filenames
// stay human-browsable; metadata queries go through this index instead of
// filename parsing.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store represents the SQLite index store
type Store struct {
	db *sql.DB
}

// New creates a new store connection
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Initialize creates the database schema
func (s *Store) Initialize() error {
	schema := `
	-- Snapshot manifests
	CREATE TABLE IF NOT EXISTS snapshots (
		name TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		record_count INTEGER NOT NULL
	);

	-- Batch manifests
	CREATE TABLE IF NOT EXISTS batches (
		name TEXT PRIMARY KEY,
		strategy TEXT NOT NULL,
		created_at TEXT NOT NULL,
		example_count INTEGER NOT NULL,
		sample_size INTEGER NOT NULL,
		model TEXT NOT NULL,
		folded_at TEXT
	);

	-- Merge overwrite audit log (append-only)
	CREATE TABLE IF NOT EXISTS overwrites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		record_id TEXT NOT NULL,
		label TEXT NOT NULL,
		old_value INTEGER NOT NULL,
		new_value INTEGER NOT NULL,
		batch_name TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Config (current snapshot pointer, etc.)
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT
	);

	-- Indexes
	CREATE INDEX IF NOT EXISTS idx_batches_created ON batches(created_at);
	CREATE INDEX IF NOT EXISTS idx_overwrites_record ON overwrites(record_id);
	CREATE INDEX IF NOT EXISTS idx_overwrites_batch ON overwrites(batch_name);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// DB returns the underlying database connection for advanced queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// GetValue gets a value from the key-value store
func (s *Store) GetValue(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetValue sets a value in the key-value store
func (s *Store) SetValue(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = ?",
		key, value, value,
	)
	return err
}

// parseTimestamp parses a timestamp string from SQLite in various formats
func parseTimestamp(s string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999-07:00",
		"2006-01-02 15:04:05-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
