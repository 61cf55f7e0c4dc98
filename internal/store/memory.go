package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/i474232898/station-health/internal/health"
)

var (
	// ErrNotFound is returned when no record matches a query.
	ErrNotFound = errors.New("no health records")
)

// MemoryStore is a concurrency-safe in-memory archive table.
type MemoryStore struct {
	mu sync.RWMutex

	// ordered by DateTime, unique
	records []health.Record

	maxHistory int // max number of records kept (0 = unlimited)
}

// NewMemoryStore creates a new MemoryStore.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
	}
}

// Columns returns the schema column names; the in-memory table always
// matches.
func (s *MemoryStore) Columns(context.Context) ([]string, error) {
	return health.ColumnNames(), nil
}

// AddRecord inserts rec in dateTime order. dateTime is the primary key.
func (s *MemoryStore) AddRecord(_ context.Context, rec health.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := sort.Search(len(s.records), func(i int) bool {
		return s.records[i].DateTime >= rec.DateTime
	})
	if i < len(s.records) && s.records[i].DateTime == rec.DateTime {
		return fmt.Errorf("duplicate dateTime %d", rec.DateTime)
	}

	s.records = append(s.records, health.Record{})
	copy(s.records[i+1:], s.records[i:])
	s.records[i] = rec

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.records) > s.maxHistory {
		over := len(s.records) - s.maxHistory
		s.records = append([]health.Record(nil), s.records[over:]...)
	}
	return nil
}

// DeleteBefore removes every record with DateTime < cutoff.
func (s *MemoryStore) DeleteBefore(_ context.Context, cutoff int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := sort.Search(len(s.records), func(i int) bool {
		return s.records[i].DateTime >= cutoff
	})
	if i == 0 {
		return 0, nil
	}
	s.records = append([]health.Record(nil), s.records[i:]...)
	return int64(i), nil
}

// Latest returns the most recent record.
func (s *MemoryStore) Latest(context.Context) (health.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return health.Record{}, ErrNotFound
	}
	return s.records[len(s.records)-1], nil
}

// Range returns all records between from and to (inclusive).
func (s *MemoryStore) Range(_ context.Context, from, to int64) ([]health.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []health.Record
	for _, rec := range s.records {
		if rec.DateTime >= from && rec.DateTime <= to {
			result = append(result, rec)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Close() error { return nil }
