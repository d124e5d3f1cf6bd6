package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/raksha-git/icecp-module-storage/internal/graph"
	pebblestore "github.com/raksha-git/icecp-module-storage/internal/storage/pebble"
	logpkg "github.com/raksha-git/icecp-module-storage/pkg/log"
)

// nowMs is the store clock; overridable in tests.
var nowMs = func() int64 { return time.Now().UnixMilli() }

// Message is a persisted message together with its assigned identifier and
// the tag names it was stored under.
type Message struct {
	ID        uint64
	Timestamp int64 // milliseconds
	Content   []byte
	Tags      []string
}

// Store persists messages and resolves predicate queries against them.
type Store struct {
	db     *pebblestore.DB
	reg    *graph.Registrar
	logger logpkg.Logger

	mu  sync.Mutex
	seq *graph.Sequence
}

// New builds a Store over an ensured schema.
func New(db *pebblestore.DB, reg *graph.Registrar, logger logpkg.Logger) (*Store, error) {
	if db == nil || reg == nil {
		return nil, fmt.Errorf("new store: %w: nil db or registrar", graph.ErrInvalidArgument)
	}
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	return &Store{db: db, reg: reg, logger: logger.WithComponent("store")}, nil
}

// sequence lazily opens the IDs sequence. Deferring the open lets a Store be
// constructed before the registrar has run.
func (s *Store) sequence() (*graph.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq != nil {
		return s.seq, nil
	}
	seq, err := graph.OpenSequence(s.db, graph.SequenceIDs)
	if err != nil {
		return nil, err
	}
	s.seq = seq
	return seq, nil
}

// normalizeTags rejects empty names and drops duplicates, preserving first
// occurrence order.
func normalizeTags(tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			return nil, fmt.Errorf("persist: %w: empty tag name", graph.ErrInvalidArgument)
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

// Persist stores a message under the given tags at the given timestamp and
// returns it with its freshly issued identifier. The message vertex, its tag
// vertices and edges, the timestamp index entry, and the identifier bump are
// committed in one atomic batch: either the whole message exists or none of
// it does.
func (s *Store) Persist(ctx context.Context, content []byte, tsMs int64, tags []string) (Message, error) {
	if err := s.reg.RequireInitialized(); err != nil {
		return Message{}, fmt.Errorf("persist: %w", err)
	}
	if tsMs < 0 {
		return Message{}, fmt.Errorf("persist: %w: negative timestamp %d", graph.ErrInvalidArgument, tsMs)
	}
	norm, err := normalizeTags(tags)
	if err != nil {
		return Message{}, err
	}

	seq, err := s.sequence()
	if err != nil {
		return Message{}, fmt.Errorf("persist: %w", err)
	}

	record := EncodeMessageRecord(tsMs, norm, content)

	mid, err := seq.Issue(func(next uint64, seqKey, seqValue []byte) error {
		b := s.db.NewBatch()
		defer b.Close()

		if err := b.Set(graph.KeyMessage(next), record, nil); err != nil {
			return err
		}
		if err := b.Set(graph.KeyTimestampIndex(tsMs, next), nil, nil); err != nil {
			return err
		}
		for _, tag := range norm {
			// Writing the tag vertex unconditionally is idempotent; the key
			// is the unique name, the value carries nothing.
			if err := b.Set(graph.KeyTag(tag), nil, nil); err != nil {
				return err
			}
			if err := b.Set(graph.KeyTaggedBy(next, tag), nil, nil); err != nil {
				return err
			}
			if err := b.Set(graph.KeyTagMessages(tag, next), nil, nil); err != nil {
				return err
			}
		}
		if err := b.Set(seqKey, seqValue, nil); err != nil {
			return err
		}
		return s.db.CommitBatch(ctx, b)
	})
	if err != nil {
		return Message{}, fmt.Errorf("persist: %w: %v", graph.ErrStorageUnavailable, err)
	}

	s.logger.Debug("message persisted",
		logpkg.Uint64("mid", mid),
		logpkg.Int64("ts_ms", tsMs),
		logpkg.Int("tags", len(norm)))

	return Message{ID: mid, Timestamp: tsMs, Content: content, Tags: norm}, nil
}

// Get loads one message by identifier.
func (s *Store) Get(mid uint64) (Message, error) {
	if err := s.reg.RequireInitialized(); err != nil {
		return Message{}, fmt.Errorf("get message: %w", err)
	}
	raw, err := s.db.Get(graph.KeyMessage(mid))
	if err != nil {
		if graph.IsNotFound(err) {
			return Message{}, fmt.Errorf("get message %d: %w", mid, pebblestore.ErrNotFound)
		}
		return Message{}, fmt.Errorf("get message %d: %w: %v", mid, graph.ErrStorageUnavailable, err)
	}
	tsMs, tags, payload, ok := DecodeMessageRecord(raw)
	if !ok {
		return Message{}, fmt.Errorf("get message %d: %w: corrupt record", mid, graph.ErrStorageUnavailable)
	}
	return Message{ID: mid, Timestamp: tsMs, Content: payload, Tags: tags}, nil
}

// Tags lists every tag vertex in lexicographic order.
func (s *Store) Tags() ([]string, error) {
	if err := s.reg.RequireInitialized(); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	prefix := graph.KeyTag("")
	it, err := s.db.NewIter(nil)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w: %v", graph.ErrStorageUnavailable, err)
	}
	defer it.Close()

	var names []string
	for ok := it.SeekGE(prefix); ok; ok = it.Next() {
		k := it.Key()
		if len(k) < len(prefix) || string(k[:len(prefix)]) != string(prefix) {
			break
		}
		names = append(names, string(k[len(prefix):]))
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("list tags: %w: %v", graph.ErrStorageUnavailable, err)
	}
	sort.Strings(names)
	return names, nil
}
