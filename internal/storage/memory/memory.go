package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/utafrali/storefront/internal/storage"
)

// KV implements storage.KV with an in-process map. Values do not survive a
// restart.
type KV struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// New creates an empty in-memory store.
func New() *KV {
	return &KV{values: make(map[string][]byte)}
}

// Get returns a copy of the value stored at key.
func (s *KV) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, storage.NotFound(key)
	}
	return bytes.Clone(v), nil
}

// Set stores a copy of value at key.
func (s *KV) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = bytes.Clone(value)
	return nil
}

// Ping always succeeds.
func (s *KV) Ping(context.Context) error { return nil }

// Len returns the number of stored keys.
func (s *KV) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
