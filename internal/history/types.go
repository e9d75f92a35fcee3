// Package history provides the per-user append-only score history.
// A record is archived whenever any evaluator's output differs from the
// previously stored snapshot for that user.
package history

import (
	"context"
	"io"
	"time"
)

// Score keys used in snapshots.
const (
	ScoreCredit         = "credit_score"
	ScoreCardiovascular = "cardiovascular_risk"
	ScoreType2Diabetes  = "type2_diabetes_risk"
	ScoreMental         = "mental_score"
	ScoreLifestyle      = "lifestyle_score"
)

// Record is one archived snapshot of a user's scores.
type Record struct {
	ID               string             `json:"id"`
	UserID           string             `json:"user_id"`
	Timestamp        time.Time          `json:"timestamp"`
	AlgorithmVersion string             `json:"algorithm_version"`
	Scores           map[string]float64 `json:"scores"`
}

// Store defines the interface for score history storage.
type Store interface {
	// Append adds a record. ID and Timestamp are assigned when empty.
	Append(ctx context.Context, record *Record) error

	// Latest returns the newest record for a user, or domain.ErrNotFound.
	Latest(ctx context.Context, userID string) (*Record, error)

	// List returns a user's records newest first. A non-positive limit
	// returns everything.
	List(ctx context.Context, userID string, limit int) ([]*Record, error)

	// Count returns the number of records for a user, or for all users when
	// userID is empty.
	Count(ctx context.Context, userID string) (int64, error)

	// ExportJSON writes every record as a versioned log.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON appends records from a log, skipping IDs already stored.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close releases resources.
	Close() error
}

// Changed reports whether any score in next is new or differs from prev.
// Scores absent from next are not compared. A nil prev always counts as
// changed.
func Changed(prev *Record, next map[string]float64) bool {
	if prev == nil {
		return true
	}
	for k, v := range next {
		old, ok := prev.Scores[k]
		if !ok || old != v {
			return true
		}
	}
	return false
}

// Merge overlays next onto the scores of prev so that a partial snapshot
// still carries the user's other current scores. prev may be nil.
func Merge(prev *Record, next map[string]float64) map[string]float64 {
	merged := make(map[string]float64, len(next))
	if prev != nil {
		for k, v := range prev.Scores {
			merged[k] = v
		}
	}
	for k, v := range next {
		merged[k] = v
	}
	return merged
}
