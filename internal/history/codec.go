package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// LogVersion is the current export envelope version.
const LogVersion = "1.0"

// Log is the JSON export format.
type Log struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
	Records    []*Record `json:"records"`
}

// EncodeLog writes records as an indented, versioned log.
func EncodeLog(w io.Writer, records []*Record) error {
	if records == nil {
		records = []*Record{}
	}
	log := &Log{
		Version:    LogVersion,
		ExportedAt: time.Now().UTC(),
		Count:      len(records),
		Records:    records,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(log)
}

// DecodeLog reads a versioned log. Records missing a user or timestamp are
// rejected.
func DecodeLog(r io.Reader) ([]*Record, error) {
	var log Log
	if err := json.NewDecoder(r).Decode(&log); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if log.Version != LogVersion {
		return nil, fmt.Errorf("unsupported history log version %q", log.Version)
	}

	for i, rec := range log.Records {
		if rec == nil || rec.UserID == "" || rec.Timestamp.IsZero() {
			return nil, fmt.Errorf("record %d is missing user_id or timestamp", i)
		}
		if rec.Scores == nil {
			rec.Scores = map[string]float64{}
		}
	}
	return log.Records, nil
}

// legacyEntry is one element of the old string-encoded history.
type legacyEntry struct {
	Timestamp        time.Time          `json:"timestamp"`
	AlgorithmVersion string             `json:"algorithmVersion"`
	Scores           map[string]float64 `json:"scores"`
	Score            *float64           `json:"score"`
}

// DecodeLegacyBlob converts a history column that was stored as a JSON string
// holding a JSON array. Entries with only a single "score" become a credit
// score snapshot. Records are returned oldest first. IDs are derived from the
// user, timestamp and position so decoding the same blob twice yields the
// same records.
func DecodeLegacyBlob(userID string, data []byte) ([]*Record, error) {
	var inner string
	if err := json.Unmarshal(data, &inner); err != nil {
		return nil, fmt.Errorf("legacy history is not a JSON string: %w", err)
	}
	if inner == "" {
		return []*Record{}, nil
	}

	var entries []legacyEntry
	if err := json.Unmarshal([]byte(inner), &entries); err != nil {
		return nil, fmt.Errorf("legacy history is not a JSON array: %w", err)
	}

	records := make([]*Record, 0, len(entries))
	for i, e := range entries {
		scores := e.Scores
		if scores == nil {
			scores = map[string]float64{}
		}
		if e.Score != nil {
			if _, ok := scores[ScoreCredit]; !ok {
				scores[ScoreCredit] = *e.Score
			}
		}
		version := e.AlgorithmVersion
		if version == "" {
			version = "legacy"
		}
		records = append(records, &Record{
			ID:               legacyID(userID, e.Timestamp, i),
			UserID:           userID,
			Timestamp:        e.Timestamp.UTC(),
			AlgorithmVersion: version,
			Scores:           scores,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records, nil
}

func legacyID(userID string, ts time.Time, index int) string {
	name := "legacy-history/" + userID + "/" + ts.UTC().Format(time.RFC3339Nano) + "/" + strconv.Itoa(index)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// ImportLegacy decodes a legacy blob for userID and imports it into store.
// Entries without a timestamp are rejected.
func ImportLegacy(ctx context.Context, store Store, userID string, data []byte) (imported int, skipped int, err error) {
	if userID == "" {
		return 0, 0, fmt.Errorf("user_id is required for legacy history")
	}
	records, err := DecodeLegacyBlob(userID, data)
	if err != nil {
		return 0, 0, err
	}

	var buf bytes.Buffer
	if err := EncodeLog(&buf, records); err != nil {
		return 0, 0, fmt.Errorf("failed to encode legacy history: %w", err)
	}
	return store.ImportJSON(ctx, &buf)
}

// prepare fills the ID and timestamp of a record about to be appended.
func prepare(record *Record) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	if record.UserID == "" {
		return fmt.Errorf("record user_id is required")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	if record.Scores == nil {
		record.Scores = map[string]float64{}
	}
	return nil
}
