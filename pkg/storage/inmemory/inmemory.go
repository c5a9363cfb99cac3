// Package inmemory provides a map-backed call ledger for tests and
// single-process runs.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/papercomputeco/toolbox/pkg/storage"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu guards records
	mu sync.RWMutex

	// records is keyed by call record ID
	records map[string]*storage.CallRecord
}

// NewDriver creates a new in-memory ledger.
func NewDriver() *Driver {
	return &Driver{
		records: make(map[string]*storage.CallRecord),
	}
}

// Put stores a copy of rec.
func (s *Driver) Put(_ context.Context, rec *storage.CallRecord) error {
	if rec == nil {
		return storage.ErrNilRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *rec
	s.records[rec.ID] = &stored
	return nil
}

// Get retrieves a record by ID.
func (s *Driver) Get(_ context.Context, id string) (*storage.CallRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}

	out := *rec
	return &out, nil
}

// List returns up to limit records, newest first.
func (s *Driver) List(_ context.Context, limit int) ([]*storage.CallRecord, error) {
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	s.mu.RLock()
	records := make([]*storage.CallRecord, 0, len(s.records))
	for _, rec := range s.records {
		out := *rec
		records = append(records, &out)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if records[i].StartedAt.Equal(records[j].StartedAt) {
			return records[i].ID > records[j].ID
		}
		return records[i].StartedAt.After(records[j].StartedAt)
	})

	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Close is a no-op.
func (s *Driver) Close() error {
	return nil
}
