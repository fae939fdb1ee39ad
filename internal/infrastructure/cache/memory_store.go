package cache

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in process memory. It does not share state
// across instances and loses everything on restart; use it for tests and
// single-instance development.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

// Get implements Store
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set implements Store
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	s.mu.Lock()
	s.entries[key] = v
	s.mu.Unlock()
	return nil
}

// Delete implements Store
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Name implements Store
func (s *MemoryStore) Name() string {
	return "memory"
}

// Len returns the number of entries (for tests and monitoring)
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ Store = (*MemoryStore)(nil)
