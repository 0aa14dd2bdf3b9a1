package storage

import (
	"context"
	"slices"
	"strings"
	"sync"

	"bastion-hq/bastion/pkg/history"
)

// MemoryStorage implements history.Storage in memory. Records are lost on
// exit; it backs tests and the "memory" backend.
type MemoryStorage struct {
	records map[string]*history.Record
	mu      sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*history.Record),
	}
}

// Store saves a copy of record.
func (s *MemoryStorage) Store(ctx context.Context, record *history.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = copyRecord(record)
	return nil
}

// Query returns copies of matching records ordered by recording time.
func (s *MemoryStorage) Query(ctx context.Context, query *history.Query) ([]*history.Record, error) {
	s.mu.RLock()
	results := []*history.Record{}
	for _, record := range s.records {
		if matchesQuery(record, query) {
			results = append(results, copyRecord(record))
		}
	}
	s.mu.RUnlock()

	desc := query == nil || !strings.EqualFold(query.SortOrder, "asc")
	slices.SortFunc(results, func(a, b *history.Record) int {
		c := a.RecordedAt.Compare(b.RecordedAt)
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if desc {
			return -c
		}
		return c
	})

	limit, offset := history.DefaultQueryLimit, 0
	if query != nil {
		if query.Limit > 0 {
			limit = query.Limit
		}
		offset = query.Offset
	}

	if offset >= len(results) {
		return []*history.Record{}, nil
	}
	end := min(offset+limit, len(results))
	return results[offset:end], nil
}

// Count returns the number of matching records.
func (s *MemoryStorage) Count(ctx context.Context, query *history.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			count++
		}
	}
	return count, nil
}

// Delete removes matching records.
func (s *MemoryStorage) Delete(ctx context.Context, query *history.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if matchesQuery(record, query) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close drops every record.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*history.Record)
	return nil
}

// Size returns the number of stored records.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

func matchesQuery(record *history.Record, query *history.Query) bool {
	if query == nil {
		return true
	}
	if len(query.IDs) > 0 && !slices.Contains(query.IDs, record.ID) {
		return false
	}
	if query.SchemaName != "" && record.SchemaName != query.SchemaName {
		return false
	}
	if query.Valid != nil && record.Valid != *query.Valid {
		return false
	}
	if query.Source != "" && record.Source != query.Source {
		return false
	}
	if query.StartTime != nil && record.RecordedAt.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.RecordedAt.After(*query.EndTime) {
		return false
	}
	return true
}

func copyRecord(r *history.Record) *history.Record {
	c := *r
	c.Errors = slices.Clone(r.Errors)
	return &c
}
