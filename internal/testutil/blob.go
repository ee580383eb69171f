package testutil

import (
	"context"
	"errors"
	"io"
	"sync"

	"folio/internal/blob"
	"folio/internal/folio"
)

// ErrInjected is the failure returned by FailingBlobStore.
var ErrInjected = errors.New("injected failure")

// FailingBlobStore wraps an in-memory blob store and fails selected
// operations on demand.
type FailingBlobStore struct {
	*blob.MemoryStore

	mu         sync.Mutex
	failPut    bool
	failDelete bool
	deletesOK  int // successful deletes left before failing; -1 disables
}

// NewTestBlobStore creates an in-memory blob store that can be told to fail.
func NewTestBlobStore() *FailingBlobStore {
	return &FailingBlobStore{MemoryStore: blob.NewMemoryStore(), deletesOK: -1}
}

// FailPut makes Put return ErrInjected while on is true.
func (f *FailingBlobStore) FailPut(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPut = on
}

// FailDelete makes Delete return ErrInjected while on is true.
func (f *FailingBlobStore) FailDelete(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failDelete = on
}

// FailDeleteAfter lets the next n deletes succeed and fails every one after.
func (f *FailingBlobStore) FailDeleteAfter(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletesOK = n
}

func (f *FailingBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	f.mu.Lock()
	fail := f.failPut
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.MemoryStore.Put(ctx, key, r, size)
}

func (f *FailingBlobStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	fail := f.failDelete || f.deletesOK == 0
	if f.deletesOK > 0 {
		f.deletesOK--
	}
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.MemoryStore.Delete(ctx, key)
}

// Has reports whether a blob exists under key.
func (f *FailingBlobStore) Has(key string) bool {
	for _, k := range f.Keys() {
		if k == key {
			return true
		}
	}
	return false
}

var _ folio.BlobStore = (*FailingBlobStore)(nil)
