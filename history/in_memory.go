package history

import (
	"sync"

	"github.com/hupe1980/dbgmesh/core"
)

// InMemoryStore is a volatile HistoryStore implementation keeping the command
// transcript in a process local slice. It is safe for concurrent access and
// best suited for tests or interactive sessions. List returns a copy so
// callers cannot mutate internal state.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []core.Record
}

// NewInMemoryStore constructs an empty in-memory transcript store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append adds a record to the transcript.
func (s *InMemoryStore) Append(r core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

// List returns all records in append order.
func (s *InMemoryStore) List() ([]core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Len reports the number of stored records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
