// Package memory provides an in-memory implementation of the settings store.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/ExpressedAi/Sidechain/pkg/storage"
)

// MemoryStore implements storage.Store using an in-process map. Intended for
// tests and development.
type MemoryStore struct {
	mu       sync.RWMutex
	settings map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		settings: make(map[string][]byte),
	}
}

// GetSetting returns a copy of the stored payload.
func (m *MemoryStore) GetSetting(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.settings[key]
	if !ok {
		return nil, &storage.NotFoundError{Key: key}
	}

	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, nil
}

// SaveSetting stores a copy of the payload.
func (m *MemoryStore) SaveSetting(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]byte, len(value))
	copy(copied, value)
	m.settings[key] = copied
	return nil
}

// RemoveSetting deletes the key if present.
func (m *MemoryStore) RemoveSetting(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.settings, key)
	return nil
}

// Keys lists stored keys with the given prefix.
func (m *MemoryStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.settings))
	for k := range m.settings {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
