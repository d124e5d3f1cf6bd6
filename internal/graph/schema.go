package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"

	pebblestore "github.com/raksha-git/icecp-module-storage/internal/storage/pebble"
	logpkg "github.com/raksha-git/icecp-module-storage/pkg/log"
)

// setupMu serializes schema creation attempts across the whole process.
// Ensure is otherwise idempotent, so concurrent initializers converge.
var setupMu sync.Mutex

// Registrar ensures the backing store carries the required classes, the
// identifier sequence, and the tag-name uniqueness index. Initialization
// state is explicit: it is owned by whoever constructs the Registrar and
// can be reset, rather than living in a hidden package singleton.
type Registrar struct {
	db     *pebblestore.DB
	logger logpkg.Logger

	mu          sync.Mutex
	initialized bool
}

// NewRegistrar builds a Registrar for the given store.
func NewRegistrar(db *pebblestore.DB, logger logpkg.Logger) *Registrar {
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	return &Registrar{db: db, logger: logger.WithComponent("schema")}
}

// Ensure idempotently creates every required class marker, the IDs sequence,
// and the tag-name index marker. It is safe to invoke repeatedly and from
// concurrent callers; only the first successful call mutates the store.
func (r *Registrar) Ensure(ctx context.Context) error {
	if r.db == nil {
		return fmt.Errorf("ensure schema: %w: nil db", ErrInvalidArgument)
	}

	setupMu.Lock()
	defer setupMu.Unlock()

	b := r.db.NewBatch()
	defer b.Close()
	created := 0

	add := func(key, value []byte) error {
		ok, err := r.db.Has(key)
		if err != nil {
			return fmt.Errorf("ensure schema: %w: %v", ErrStorageUnavailable, err)
		}
		if ok {
			return nil
		}
		if err := b.Set(key, value, nil); err != nil {
			return fmt.Errorf("ensure schema: %w: %v", ErrStorageUnavailable, err)
		}
		created++
		return nil
	}

	for _, class := range VertexClasses() {
		if err := add(KeyClassMarker(class), nil); err != nil {
			return err
		}
	}
	for _, class := range EdgeClasses() {
		if err := add(KeyClassMarker(class), nil); err != nil {
			return err
		}
	}
	// The sequence starts at zero; the first issued identifier is one.
	if err := add(KeySequence(SequenceIDs), make([]byte, 8)); err != nil {
		return err
	}
	if err := add(KeyIndexMarker(TagNameIndexName), nil); err != nil {
		return err
	}

	if created > 0 {
		if err := r.db.CommitBatch(ctx, b); err != nil {
			return fmt.Errorf("ensure schema: %w: %v", ErrStorageUnavailable, err)
		}
		r.logger.Info("schema created", logpkg.Int("objects", created))
	}

	r.mu.Lock()
	r.initialized = true
	r.mu.Unlock()
	return nil
}

// Initialized reports whether Ensure has succeeded at least once for this
// Registrar.
func (r *Registrar) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

// Reset clears the in-memory initialization state. Persisted schema objects
// are untouched; the next Ensure re-verifies them.
func (r *Registrar) Reset() {
	r.mu.Lock()
	r.initialized = false
	r.mu.Unlock()
}

// RequireInitialized returns ErrSchemaNotInitialized unless Ensure has run.
func (r *Registrar) RequireInitialized() error {
	if !r.Initialized() {
		return ErrSchemaNotInitialized
	}
	return nil
}

// IsNotFound reports whether err denotes a missing key rather than a
// backend failure.
func IsNotFound(err error) bool {
	return errors.Is(err, pebblestore.ErrNotFound)
}
