package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/health-analytics-server/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite history store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// createSchema creates the history table and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS score_history (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		recorded_at INTEGER NOT NULL,
		algorithm_version TEXT NOT NULL,
		scores TEXT NOT NULL DEFAULT '{}'
	);

	CREATE INDEX IF NOT EXISTS idx_score_history_user_time ON score_history(user_id, recorded_at);
	`

	_, err := db.Exec(schema)
	return err
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanSQLiteRecord scans a row into a Record. Timestamps are stored as Unix
// nanoseconds.
func scanSQLiteRecord(s scanner) (*Record, error) {
	rec := &Record{}
	var recordedAt int64
	var scores string

	if err := s.Scan(&rec.ID, &rec.UserID, &recordedAt, &rec.AlgorithmVersion, &scores); err != nil {
		return nil, err
	}

	rec.Timestamp = time.Unix(0, recordedAt).UTC()
	if err := json.Unmarshal([]byte(scores), &rec.Scores); err != nil {
		return nil, fmt.Errorf("failed to decode scores: %w", err)
	}
	return rec, nil
}

// Append implements Store
func (s *SQLiteStore) Append(ctx context.Context, record *Record) error {
	_, err := s.insert(ctx, record, false)
	return err
}

// insert writes a record. With ignoreExisting a duplicate ID is skipped and
// reported as not inserted.
func (s *SQLiteStore) insert(ctx context.Context, record *Record, ignoreExisting bool) (bool, error) {
	if err := prepare(record); err != nil {
		return false, err
	}
	scores, err := json.Marshal(record.Scores)
	if err != nil {
		return false, fmt.Errorf("failed to encode scores: %w", err)
	}

	verb := "INSERT"
	if ignoreExisting {
		verb = "INSERT OR IGNORE"
	}
	result, err := s.db.ExecContext(ctx, verb+` INTO score_history (
			id, user_id, recorded_at, algorithm_version, scores
		) VALUES (?, ?, ?, ?, ?)`,
		record.ID,
		record.UserID,
		record.Timestamp.UnixNano(),
		record.AlgorithmVersion,
		string(scores),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// Latest implements Store
func (s *SQLiteStore) Latest(ctx context.Context, userID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, recorded_at, algorithm_version, scores
		FROM score_history
		WHERE user_id = ?
		ORDER BY recorded_at DESC
		LIMIT 1
	`, userID)

	rec, err := scanSQLiteRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return rec, nil
}

// maxListLimit caps unbounded listings and exports.
const maxListLimit = 1000000

// List implements Store
func (s *SQLiteStore) List(ctx context.Context, userID string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = maxListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, recorded_at, algorithm_version, scores
		FROM score_history
		WHERE user_id = ?
		ORDER BY recorded_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	return collect(rows, scanSQLiteRecord)
}

// Count implements Store
func (s *SQLiteStore) Count(ctx context.Context, userID string) (int64, error) {
	var count int64
	var err error
	if userID == "" {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM score_history").Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM score_history WHERE user_id = ?", userID).Scan(&count)
	}
	return count, err
}

// ExportJSON implements Store
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, recorded_at, algorithm_version, scores
		FROM score_history
		ORDER BY user_id, recorded_at
	`)
	if err != nil {
		return fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	all, err := collect(rows, scanSQLiteRecord)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	return EncodeLog(writer, all)
}

// ImportJSON implements Store
func (s *SQLiteStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	records, err := DecodeLog(reader)
	if err != nil {
		return 0, 0, err
	}

	for _, r := range records {
		inserted, err := s.insert(ctx, r, true)
		if err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		if inserted {
			imported++
		} else {
			skipped++
		}
	}
	return imported, skipped, nil
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// collect drains rows with scan.
func collect(rows *sql.Rows, scan func(scanner) (*Record, error)) ([]*Record, error) {
	result := []*Record{}
	for rows.Next() {
		rec, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}
