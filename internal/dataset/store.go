package dataset

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a dataset handle does not resolve to a stored
// table. An unknown handle is the only externally visible failure in the
// store; it is never silently recreated.
var ErrNotFound = errors.New("dataset not found")

// Store maps opaque dataset handles to normalized tables. Implementations
// must be safe for concurrent use; tables are immutable after Put.
type Store interface {
	Put(ctx context.Context, t *Table) (string, error)
	Get(ctx context.Context, handle string) (*Table, error)
	Delete(ctx context.Context, handle string) error
}

// MemoryStore keeps tables in process memory for the process lifetime.
// This is the default store.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]*Table)}
}

// Put stores a table under a fresh handle.
func (s *MemoryStore) Put(_ context.Context, t *Table) (string, error) {
	handle := uuid.New().String()
	s.mu.Lock()
	s.tables[handle] = t
	s.mu.Unlock()
	return handle, nil
}

// Get resolves a handle to its table, or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, handle string) (*Table, error) {
	s.mu.RLock()
	t, ok := s.tables[handle]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

// Delete removes a handle. Deleting an unknown handle is a no-op.
func (s *MemoryStore) Delete(_ context.Context, handle string) error {
	s.mu.Lock()
	delete(s.tables, handle)
	s.mu.Unlock()
	return nil
}
