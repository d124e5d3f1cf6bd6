package graph

import (
	"context"
	"errors"
	"sync"
	"testing"

	pebblestore "github.com/raksha-git/icecp-module-storage/internal/storage/pebble"
)

func newTestDB(t *testing.T) *pebblestore.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestEnsureCreatesAllObjects(t *testing.T) {
	db := newTestDB(t)
	r := NewRegistrar(db, nil)
	if r.Initialized() {
		t.Fatalf("should not be initialized before Ensure")
	}
	if err := r.Ensure(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !r.Initialized() {
		t.Fatalf("should be initialized after Ensure")
	}
	for _, class := range append(VertexClasses(), EdgeClasses()...) {
		ok, err := db.Has(KeyClassMarker(class))
		if err != nil || !ok {
			t.Fatalf("class %s marker missing: ok=%v err=%v", class, ok, err)
		}
	}
	ok, err := db.Has(KeySequence(SequenceIDs))
	if err != nil || !ok {
		t.Fatalf("sequence missing: ok=%v err=%v", ok, err)
	}
	ok, err = db.Has(KeyIndexMarker(TagNameIndexName))
	if err != nil || !ok {
		t.Fatalf("tag index marker missing: ok=%v err=%v", ok, err)
	}
}

func TestEnsureIdempotent(t *testing.T) {
	db := newTestDB(t)
	r := NewRegistrar(db, nil)
	for i := 0; i < 3; i++ {
		if err := r.Ensure(context.Background()); err != nil {
			t.Fatalf("ensure %d: %v", i, err)
		}
	}
	// The sequence value must not have been reset by repeated calls.
	seq, err := OpenSequence(db, SequenceIDs)
	if err != nil {
		t.Fatalf("open sequence: %v", err)
	}
	if _, err := seq.Issue(func(next uint64, k, v []byte) error { return db.Set(k, v) }); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := r.Ensure(context.Background()); err != nil {
		t.Fatalf("re-ensure: %v", err)
	}
	seq2, err := OpenSequence(db, SequenceIDs)
	if err != nil {
		t.Fatalf("reopen sequence: %v", err)
	}
	if got := seq2.Current(); got != 1 {
		t.Fatalf("sequence reset by re-ensure: got %d", got)
	}
}

func TestEnsureConcurrent(t *testing.T) {
	db := newTestDB(t)
	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := NewRegistrar(db, nil)
			errs[i] = r.Ensure(context.Background())
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("ensure %d: %v", i, err)
		}
	}
	// Exactly one sequence record at value zero.
	raw, err := db.Get(KeySequence(SequenceIDs))
	if err != nil {
		t.Fatalf("get sequence: %v", err)
	}
	for _, b := range raw {
		if b != 0 {
			t.Fatalf("sequence should still be zero: %v", raw)
		}
	}
}

func TestEnsureNilDB(t *testing.T) {
	r := NewRegistrar(nil, nil)
	err := r.Ensure(context.Background())
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRequireInitialized(t *testing.T) {
	db := newTestDB(t)
	r := NewRegistrar(db, nil)
	if err := r.RequireInitialized(); !errors.Is(err, ErrSchemaNotInitialized) {
		t.Fatalf("expected ErrSchemaNotInitialized, got %v", err)
	}
	if err := r.Ensure(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := r.RequireInitialized(); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	r.Reset()
	if err := r.RequireInitialized(); !errors.Is(err, ErrSchemaNotInitialized) {
		t.Fatalf("expected ErrSchemaNotInitialized after reset, got %v", err)
	}
}
