package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemStore is an in-memory RecordStore for tests and local development.
// Safe for concurrent use.
type MemStore struct {
	mu      sync.RWMutex
	records map[Kind]map[string][]byte
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[Kind]map[string][]byte)}
}

// Get returns a copy of the record for (kind, key), or ErrNotFound.
func (s *MemStore) Get(_ context.Context, kind Kind, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.records[kind][key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, kind, key)
	}
	return append([]byte(nil), data...), nil
}

// Put stores a copy of data under (kind, key).
func (s *MemStore) Put(_ context.Context, kind Kind, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(kind, key, data)
	return nil
}

// PutAll stores every record in one locked pass.
func (s *MemStore) PutAll(_ context.Context, kind Kind, records map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, data := range records {
		s.put(kind, key, data)
	}
	return nil
}

// GetAll returns copies of every record of the kind.
func (s *MemStore) GetAll(_ context.Context, kind Kind) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(s.records[kind]))
	for key, data := range s.records[kind] {
		out[key] = append([]byte(nil), data...)
	}
	return out, nil
}

// Delete removes the record; missing records are a no-op.
func (s *MemStore) Delete(_ context.Context, kind Kind, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records[kind], key)
	return nil
}

// put stores a defensive copy. Caller must hold mu.
func (s *MemStore) put(kind Kind, key string, data []byte) {
	if s.records[kind] == nil {
		s.records[kind] = make(map[string][]byte)
	}
	s.records[kind][key] = append([]byte(nil), data...)
}
