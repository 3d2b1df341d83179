package session

import (
	"context"
	"errors"
	"sync"
)

// ErrKeyNotFound is returned by a Backend when the key holds no value.
var ErrKeyNotFound = errors.New("key not found")

// Backend is a persistence medium for opaque session blobs.
//
// Implementations must be safe for concurrent use and must treat Delete of a
// missing key as success or return ErrKeyNotFound.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Watcher is implemented by backends shared between processes. fn is called
// with the changed key whenever another writer touches it.
type Watcher interface {
	Watch(ctx context.Context, fn func(key string)) error
}

// MemoryBackend keeps blobs in process memory only. Nothing survives a
// restart, which makes it the choice for hosts that must not write tokens
// to disk.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryBackend) Save(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.data[key] = append([]byte(nil), value...)
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}
