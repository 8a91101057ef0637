package memory

import (
	"context"
	"sync"

	"github.com/wolfeidau/shiftdesk/internal/store"
)

var _ store.BlobStore = (*BlobStore)(nil)

// BlobStore implements store.BlobStore using in-memory storage.
// This implementation is for testing only - data is lost on restart.
type BlobStore struct {
	mu sync.RWMutex

	values map[string][]byte // key -> value
}

// NewBlobStore creates a new in-memory blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{
		values: make(map[string][]byte),
	}
}

// Get retrieves the value stored under key.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.values[key]
	if !exists {
		return nil, store.ErrKeyNotFound
	}

	// Clone to avoid external modifications
	return append([]byte(nil), value...), nil
}

// Put stores value under key.
func (s *BlobStore) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append([]byte(nil), value...)

	return nil
}

// Delete removes key.
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)

	return nil
}

// Len returns the number of stored keys.
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.values)
}
