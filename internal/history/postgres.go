package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/health-analytics-server/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL.
// It expects the score_history table to exist (created via migrations).
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL history store.
func NewPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func scanPostgresRecord(s scanner) (*Record, error) {
	rec := &Record{}
	var scores []byte

	if err := s.Scan(&rec.ID, &rec.UserID, &rec.Timestamp, &rec.AlgorithmVersion, &scores); err != nil {
		return nil, err
	}

	rec.Timestamp = rec.Timestamp.UTC()
	if err := json.Unmarshal(scores, &rec.Scores); err != nil {
		return nil, fmt.Errorf("failed to decode scores: %w", err)
	}
	return rec, nil
}

// Append implements Store
func (s *PostgresStore) Append(ctx context.Context, record *Record) error {
	if _, err := s.insert(ctx, record); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (s *PostgresStore) insert(ctx context.Context, record *Record) (bool, error) {
	if err := prepare(record); err != nil {
		return false, err
	}
	scores, err := json.Marshal(record.Scores)
	if err != nil {
		return false, fmt.Errorf("failed to encode scores: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO score_history (id, user_id, recorded_at, algorithm_version, scores)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`,
		record.ID,
		record.UserID,
		record.Timestamp,
		record.AlgorithmVersion,
		scores,
	)
	if err != nil {
		return false, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Latest implements Store
func (s *PostgresStore) Latest(ctx context.Context, userID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, recorded_at, algorithm_version, scores
		FROM score_history
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`, userID)

	rec, err := scanPostgresRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest history: %w", err)
	}
	return rec, nil
}

// List implements Store
func (s *PostgresStore) List(ctx context.Context, userID string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = maxListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, recorded_at, algorithm_version, scores
		FROM score_history
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	return collect(rows, scanPostgresRecord)
}

// Count implements Store
func (s *PostgresStore) Count(ctx context.Context, userID string) (int64, error) {
	var count int64
	var err error
	if userID == "" {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM score_history").Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM score_history WHERE user_id = $1", userID).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return count, nil
}

// ExportJSON implements Store
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, recorded_at, algorithm_version, scores
		FROM score_history
		ORDER BY user_id, recorded_at
	`)
	if err != nil {
		return fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	all, err := collect(rows, scanPostgresRecord)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	return EncodeLog(writer, all)
}

// ImportJSON implements Store
func (s *PostgresStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	records, err := DecodeLog(reader)
	if err != nil {
		return 0, 0, err
	}

	for _, r := range records {
		inserted, err := s.insert(ctx, r)
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
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
