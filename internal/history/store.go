// Package history records uploads and queries made through the CLI in a
// local SQLite database. It keeps ids and echoes only; the server remains
// the source of truth for all document and query state.
package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ecri0/sens-prism/internal/history/migrations"
)

// UploadRecord is one locally recorded upload.
type UploadRecord struct {
	DocumentID string
	Path       string
	Title      string
	Tags       []string
	UploadedAt time.Time
}

// QueryRecord is one locally recorded query.
type QueryRecord struct {
	QueryID    string
	Query      string
	Answer     string
	Confidence float64
	AskedAt    time.Time
}

// Store is the SQLite-backed history store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a history store at the specified data directory.
// If dataDir is empty, defaults to ~/.sens/data/history.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sens", "data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "history.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RecordUpload stores one upload. Re-recording the same document id
// replaces the previous row.
func (s *Store) RecordUpload(ctx context.Context, rec UploadRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO uploads (document_id, path, title, tags, uploaded_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.DocumentID, rec.Path, rec.Title, strings.Join(rec.Tags, ","), rec.UploadedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording upload: %w", err)
	}
	return nil
}

// RecordQuery stores one query.
func (s *Store) RecordQuery(ctx context.Context, rec QueryRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO queries (query_id, query, answer, confidence, asked_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.QueryID, rec.Query, rec.Answer, rec.Confidence, rec.AskedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording query: %w", err)
	}
	return nil
}

// Uploads returns the most recent uploads, newest first.
func (s *Store) Uploads(ctx context.Context, limit int) ([]UploadRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, path, title, tags, uploaded_at
		FROM uploads ORDER BY uploaded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing uploads: %w", err)
	}
	defer rows.Close()

	var records []UploadRecord
	for rows.Next() {
		var rec UploadRecord
		var tags string
		if err := rows.Scan(&rec.DocumentID, &rec.Path, &rec.Title, &tags, &rec.UploadedAt); err != nil {
			return nil, fmt.Errorf("scanning upload: %w", err)
		}
		if tags != "" {
			rec.Tags = strings.Split(tags, ",")
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Queries returns the most recent queries, newest first.
func (s *Store) Queries(ctx context.Context, limit int) ([]QueryRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT query_id, query, answer, confidence, asked_at
		FROM queries ORDER BY asked_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing queries: %w", err)
	}
	defer rows.Close()

	var records []QueryRecord
	for rows.Next() {
		var rec QueryRecord
		if err := rows.Scan(&rec.QueryID, &rec.Query, &rec.Answer, &rec.Confidence, &rec.AskedAt); err != nil {
			return nil, fmt.Errorf("scanning query: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// migrate applies any pending .up.sql migrations in version order.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		script, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(script)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
