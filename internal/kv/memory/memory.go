// Package memory provides an in-memory kv.Store for tests and local runs
// without Redis.
package memory

import (
	"context"
	"sync"

	"github.com/polychat/chat-backend/internal/kv"
)

// Store is a map-backed key-value store, safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ kv.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{data: make(map[string]string)}
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[key]
	if !ok {
		return "", kv.ErrNotFound
	}
	return val, nil
}

// Set stores a value.
func (s *Store) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Delete removes a key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
