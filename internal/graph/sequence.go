package graph

import (
	"encoding/binary"
	"fmt"
	"sync"

	pebblestore "github.com/raksha-git/icecp-module-storage/internal/storage/pebble"
)

// Sequence is a durable, process-serialized monotonic counter. The current
// value lives under schema/seq/{name}; issuance reserves the next value
// under a mutex and commits it inside the caller's batch, so identifiers
// are strictly increasing, never reused, and gapless: a failed commit
// surrenders the reservation instead of consuming it.
type Sequence struct {
	db   *pebblestore.DB
	name string

	mu   sync.Mutex
	last uint64
}

// OpenSequence loads the sequence's current value. The sequence must have
// been created by the registrar; a missing record means the schema has not
// been ensured.
func OpenSequence(db *pebblestore.DB, name string) (*Sequence, error) {
	if db == nil {
		return nil, fmt.Errorf("open sequence %s: %w: nil db", name, ErrInvalidArgument)
	}
	raw, err := db.Get(KeySequence(name))
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("open sequence %s: %w", name, ErrSchemaNotInitialized)
		}
		return nil, fmt.Errorf("open sequence %s: %w: %v", name, ErrStorageUnavailable, err)
	}
	if len(raw) < 8 {
		return nil, fmt.Errorf("open sequence %s: %w: short record", name, ErrStorageUnavailable)
	}
	return &Sequence{db: db, name: name, last: binary.BigEndian.Uint64(raw[:8])}, nil
}

// Issue reserves the next identifier and invokes commit with it plus the
// key/value pair that must be written in the same atomic batch as the
// caller's own mutations. The identifier counts as issued only when commit
// returns nil; errors leave the sequence unchanged. The mutex is held for
// the duration, serializing issuance through durability.
func (s *Sequence) Issue(commit func(next uint64, seqKey, seqValue []byte) error) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.last + 1
	var val [8]byte
	binary.BigEndian.PutUint64(val[:], next)
	if err := commit(next, KeySequence(s.name), val[:]); err != nil {
		return 0, err
	}
	s.last = next
	return next, nil
}

// Current returns the most recently issued identifier (zero before any).
func (s *Sequence) Current() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
