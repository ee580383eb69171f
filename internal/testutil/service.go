package testutil

import (
	"testing"
	"time"

	"folio/internal/database"
	"folio/internal/folio"
	"folio/internal/mail"
)

// Harness bundles a FolioService with the in-memory collaborators it was
// built from, so tests can inspect side effects.
type Harness struct {
	Store      *database.Store
	Blobs      *FailingBlobStore
	Mailer     *mail.MemoryMailer
	Clock      *StubClock
	IDs        *StubIDGenerator
	Service    *folio.FolioService
	Dispatcher *folio.Dispatcher
}

// NewHarness creates a service over a migrated in-memory store.
func NewHarness(t *testing.T, opts ...folio.Option) *Harness {
	t.Helper()
	return NewHarnessWithStore(t, NewTestStore(t), opts...)
}

// NewHarnessWithStore creates a service over store, which may wrap the
// returned Harness.Store to inject failures.
func NewHarnessWithStore(t *testing.T, store folio.Store, opts ...folio.Option) *Harness {
	t.Helper()
	h := &Harness{
		Blobs:  NewTestBlobStore(),
		Mailer: mail.NewMemoryMailer(),
		Clock:  NewSteppingClock(Epoch, time.Second),
		IDs:    NewStubIDGenerator(),
	}
	if s, ok := store.(*database.Store); ok {
		h.Store = s
	}
	opts = append([]folio.Option{folio.WithInviteBaseURL("https://folio.test")}, opts...)
	h.Service = folio.NewFolioService(store, h.Blobs, h.Mailer, folio.NewNopLogger(), h.Clock, h.IDs, opts...)
	h.Dispatcher = folio.NewDispatcher(h.Service, folio.NewNopLogger())
	return h
}
