package history

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/health-analytics-server/internal/domain"
)

// MemoryStore keeps history in process memory. It is used in tests and when
// no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]*Record // per user, oldest first
	ids     map[string]struct{}
	max     int
}

// NewMemoryStore creates an empty store. When maxPerUser is positive the
// oldest records of a user are dropped beyond that size.
func NewMemoryStore(maxPerUser int) *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]*Record),
		ids:     make(map[string]struct{}),
		max:     maxPerUser,
	}
}

// Append implements Store
func (s *MemoryStore) Append(_ context.Context, record *Record) error {
	if err := prepare(record); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(record)
	return nil
}

func (s *MemoryStore) appendLocked(record *Record) {
	cp := copyRecord(record)
	list := append(s.records[record.UserID], cp)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Timestamp.Before(list[j].Timestamp)
	})
	if s.max > 0 && len(list) > s.max {
		for _, dropped := range list[:len(list)-s.max] {
			delete(s.ids, dropped.ID)
		}
		list = list[len(list)-s.max:]
	}
	s.records[record.UserID] = list
	s.ids[record.ID] = struct{}{}
}

// Latest implements Store
func (s *MemoryStore) Latest(_ context.Context, userID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.records[userID]
	if len(list) == 0 {
		return nil, domain.ErrNotFound
	}
	return copyRecord(list[len(list)-1]), nil
}

// List implements Store
func (s *MemoryStore) List(_ context.Context, userID string, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.records[userID]
	result := make([]*Record, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		result = append(result, copyRecord(list[i]))
	}
	return result, nil
}

// Count implements Store
func (s *MemoryStore) Count(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if userID != "" {
		return int64(len(s.records[userID])), nil
	}
	return int64(len(s.ids)), nil
}

// ExportJSON implements Store
func (s *MemoryStore) ExportJSON(_ context.Context, writer io.Writer) error {
	s.mu.RLock()
	users := make([]string, 0, len(s.records))
	for u := range s.records {
		users = append(users, u)
	}
	sort.Strings(users)

	var all []*Record
	for _, u := range users {
		for _, r := range s.records[u] {
			all = append(all, copyRecord(r))
		}
	}
	s.mu.RUnlock()

	return EncodeLog(writer, all)
}

// ImportJSON implements Store
func (s *MemoryStore) ImportJSON(_ context.Context, reader io.Reader) (imported int, skipped int, err error) {
	records, err := DecodeLog(reader)
	if err != nil {
		return 0, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if r.ID != "" {
			if _, exists := s.ids[r.ID]; exists {
				skipped++
				continue
			}
		}
		if err := prepare(r); err != nil {
			return imported, skipped, err
		}
		s.appendLocked(r)
		imported++
	}
	return imported, skipped, nil
}

// Close implements Store
func (s *MemoryStore) Close() error {
	return nil
}

func copyRecord(r *Record) *Record {
	cp := *r
	cp.Scores = make(map[string]float64, len(r.Scores))
	for k, v := range r.Scores {
		cp.Scores[k] = v
	}
	return &cp
}
