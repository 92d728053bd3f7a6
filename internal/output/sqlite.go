package output

import (
	"database/sql"
	"fmt"
	"time"

	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

const recordsSchema = `
CREATE TABLE IF NOT EXISTS records (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	source_url   TEXT NOT NULL,
	title        TEXT NOT NULL,
	content_type TEXT NOT NULL,
	content_text TEXT NOT NULL,
	created_at   DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_source_url ON records(source_url);
`

// SQLiteWriter appends records to a "records" table.
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLiteWriter opens (or creates) the database at dbPath.
func NewSQLiteWriter(dbPath string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection prevents lock conflicts
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(recordsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteWriter{db: db}, nil
}

// WriteRecords inserts records in a single transaction.
func (s *SQLiteWriter) WriteRecords(records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO records (source_url, title, content_type, content_text, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		if _, err := stmt.Exec(r.SourceURL, r.Title, r.ContentType, r.ContentText, now); err != nil {
			return fmt.Errorf("failed to insert record for %s: %w", r.SourceURL, err)
		}
	}

	return tx.Commit()
}

// Close closes the database connection.
func (s *SQLiteWriter) Close() error {
	return s.db.Close()
}
