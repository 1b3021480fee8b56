// Package store provides the key-value slots task snapshots are persisted in.
package store

import (
	"errors"
	"sync"
)

// ErrEmptyKey is returned when a slot operation is called without a key.
var ErrEmptyKey = errors.New("key must not be empty")

// Slot is a synchronous key-value store holding whole serialized values.
// Get reports ok=false for a missing key; that is not an error.
type Slot interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Quarantiner is implemented by slots that can set a corrupt value aside
// for later inspection instead of silently overwriting it.
type Quarantiner interface {
	Quarantine(key string) (location string, err error)
}

// MemoryStore keeps values in a map. Values are copied in and out.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

// NewMemoryStore returns an empty in-memory slot.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (m *MemoryStore) Get(key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStore) Set(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
