package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrObjectNotFound is returned when a key does not exist
var ErrObjectNotFound = errors.New("object not found")

// MemoryObjectStore keeps objects in process memory. It serves local runs
// without object storage and tests.
type MemoryObjectStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryObjectStore creates an empty store
func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{objects: make(map[string][]byte)}
}

// Put stores a copy of data under key
func (m *MemoryObjectStore) Put(_ context.Context, key string, data []byte, _ string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	m.mu.Lock()
	m.objects[key] = append([]byte(nil), data...)
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the object under key
func (m *MemoryObjectStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, ErrObjectNotFound)
	}
	return append([]byte(nil), data...), nil
}

// Keys lists stored keys in order
func (m *MemoryObjectStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ ObjectStore = (*MemoryObjectStore)(nil)
