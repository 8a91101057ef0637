package storetest

import (
	"context"
	"errors"
	"sync"

	"github.com/wolfeidau/shiftdesk/internal/store"
)

// ErrInjected is returned by FlakyBlobStore for a failed call.
var ErrInjected = errors.New("injected store failure")

// FlakyBlobStore wraps a BlobStore and fails a configurable number of writes
// before passing them through. A negative FailWrites fails every write.
// Writes to a key registered with FailKey always fail.
type FlakyBlobStore struct {
	store.BlobStore

	mu         sync.Mutex
	FailWrites int
	FailReads  bool
	Writes     int
	failKeys   map[string]bool
}

// NewFlakyBlobStore wraps inner, failing the first failWrites writes.
func NewFlakyBlobStore(inner store.BlobStore, failWrites int) *FlakyBlobStore {
	return &FlakyBlobStore{BlobStore: inner, FailWrites: failWrites}
}

// SetFailWrites changes how many upcoming writes fail.
func (f *FlakyBlobStore) SetFailWrites(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailWrites = n
}

// FailKey makes every write to key fail until ClearFailKeys is called.
func (f *FlakyBlobStore) FailKey(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKeys == nil {
		f.failKeys = make(map[string]bool)
	}
	f.failKeys[key] = true
}

// ClearFailKeys stops failing writes registered with FailKey.
func (f *FlakyBlobStore) ClearFailKeys() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failKeys = nil
}

// WriteCount returns the number of write attempts seen, failed ones included.
func (f *FlakyBlobStore) WriteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Writes
}

func (f *FlakyBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	fail := f.FailReads
	f.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return f.BlobStore.Get(ctx, key)
}

func (f *FlakyBlobStore) Put(ctx context.Context, key string, value []byte) error {
	if f.failWrite(key) {
		return ErrInjected
	}
	return f.BlobStore.Put(ctx, key, value)
}

func (f *FlakyBlobStore) Delete(ctx context.Context, key string) error {
	if f.failWrite(key) {
		return ErrInjected
	}
	return f.BlobStore.Delete(ctx, key)
}

func (f *FlakyBlobStore) failWrite(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Writes++
	if f.failKeys[key] {
		return true
	}
	if f.FailWrites == 0 {
		return false
	}
	if f.FailWrites > 0 {
		f.FailWrites--
	}
	return true
}
