package session

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/raksha-git/icecp-module-storage/internal/graph"
	pebblestore "github.com/raksha-git/icecp-module-storage/internal/storage/pebble"
	"github.com/raksha-git/icecp-module-storage/pkg/id"
	logpkg "github.com/raksha-git/icecp-module-storage/pkg/log"
)

// Manager opens sessions, tracks the live ones, and resolves per-channel
// session chains from disk.
type Manager struct {
	db     *pebblestore.DB
	reg    *graph.Registrar
	ids    *id.Generator
	logger logpkg.Logger

	mu     sync.Mutex
	active map[id.ID]*Session
}

// NewManager builds a Manager over an ensured schema.
func NewManager(db *pebblestore.DB, reg *graph.Registrar, logger logpkg.Logger) (*Manager, error) {
	if db == nil || reg == nil {
		return nil, fmt.Errorf("new session manager: %w: nil db or registrar", graph.ErrInvalidArgument)
	}
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	return &Manager{
		db:     db,
		reg:    reg,
		ids:    id.NewGenerator(),
		logger: logger.WithComponent("session"),
		active: make(map[id.ID]*Session),
	}, nil
}

// Open starts a new session on the channel with the given buffer period and
// schedules its expiry. The session vertex, the link to the channel's
// previous session, and the channel's latest pointer are committed in one
// batch.
func (m *Manager) Open(ctx context.Context, channel string, maxBufferPeriodInSec int64) (*Session, error) {
	if err := m.reg.RequireInitialized(); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	if channel == "" {
		return nil, fmt.Errorf("open session: %w: empty channel name", graph.ErrInvalidArgument)
	}
	if maxBufferPeriodInSec <= 0 {
		return nil, fmt.Errorf("open session on %s: %w: buffer period %d must be positive", channel, graph.ErrInvalidArgument, maxBufferPeriodInSec)
	}

	predecessor, err := m.latest(channel)
	if err != nil {
		return nil, fmt.Errorf("open session on %s: %w", channel, err)
	}

	s := &Session{
		mgr:         m,
		id:          m.ids.Next(),
		channel:     channel,
		period:      maxBufferPeriodInSec,
		predecessor: predecessor,
	}

	rec, err := json.Marshal(s.record(StateOpen, 0))
	if err != nil {
		return nil, fmt.Errorf("open session on %s: %w", channel, err)
	}

	b := m.db.NewBatch()
	defer b.Close()
	if err := b.Set(graph.KeySession(s.id.Bytes()), rec, nil); err != nil {
		return nil, fmt.Errorf("open session on %s: %w: %v", channel, graph.ErrStorageUnavailable, err)
	}
	if !predecessor.IsZero() {
		if err := b.Set(graph.KeySessionLink(s.id.Bytes(), predecessor.Bytes()), nil, nil); err != nil {
			return nil, fmt.Errorf("open session on %s: %w: %v", channel, graph.ErrStorageUnavailable, err)
		}
	}
	if err := b.Set(graph.KeyChannelLatest(channel), s.id.Bytes(), nil); err != nil {
		return nil, fmt.Errorf("open session on %s: %w: %v", channel, graph.ErrStorageUnavailable, err)
	}
	if err := m.db.CommitBatch(ctx, b); err != nil {
		return nil, fmt.Errorf("open session on %s: %w: %v", channel, graph.ErrStorageUnavailable, err)
	}

	s.timer = time.AfterFunc(time.Duration(maxBufferPeriodInSec)*bufferPeriodUnit, func() {
		if err := s.Close(context.Background()); err != nil {
			m.logger.Warn("buffer period close failed",
				logpkg.Str("session", s.id.String()),
				logpkg.Err(err))
		}
	})

	m.mu.Lock()
	m.active[s.id] = s
	m.mu.Unlock()

	m.logger.Info("session opened",
		logpkg.Str("session", s.id.String()),
		logpkg.Str("channel", channel),
		logpkg.Int64("buffer_period_sec", maxBufferPeriodInSec))
	return s, nil
}

// Active returns the live session with the given identifier, if any.
func (m *Manager) Active(sid id.ID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.active[sid]
	return s, ok
}

func (m *Manager) forget(sid id.ID) {
	m.mu.Lock()
	delete(m.active, sid)
	m.mu.Unlock()
}

// latest resolves the channel's most recent session identifier; zero when
// the channel has no sessions yet.
func (m *Manager) latest(channel string) (id.ID, error) {
	raw, err := m.db.Get(graph.KeyChannelLatest(channel))
	if err != nil {
		if graph.IsNotFound(err) {
			return id.ID{}, nil
		}
		return id.ID{}, fmt.Errorf("%w: %v", graph.ErrStorageUnavailable, err)
	}
	return id.FromBytes(raw)
}

// Get loads a session record from disk by identifier.
func (m *Manager) Get(sid id.ID) (Record, error) {
	if err := m.reg.RequireInitialized(); err != nil {
		return Record{}, fmt.Errorf("get session: %w", err)
	}
	raw, err := m.db.Get(graph.KeySession(sid.Bytes()))
	if err != nil {
		if graph.IsNotFound(err) {
			return Record{}, fmt.Errorf("get session %s: %w", sid, pebblestore.ErrNotFound)
		}
		return Record{}, fmt.Errorf("get session %s: %w: %v", sid, graph.ErrStorageUnavailable, err)
	}
	var r Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return Record{}, fmt.Errorf("get session %s: %w: %v", sid, graph.ErrStorageUnavailable, err)
	}
	return r, nil
}

// Chain returns a channel's sessions from newest to oldest by following
// predecessor links from the latest pointer.
func (m *Manager) Chain(channel string) ([]Record, error) {
	if err := m.reg.RequireInitialized(); err != nil {
		return nil, fmt.Errorf("session chain: %w", err)
	}
	sid, err := m.latest(channel)
	if err != nil {
		return nil, fmt.Errorf("session chain for %s: %w", channel, err)
	}
	var chain []Record
	for !sid.IsZero() {
		r, err := m.Get(sid)
		if err != nil {
			return nil, fmt.Errorf("session chain for %s: %w", channel, err)
		}
		chain = append(chain, r)
		if r.Predecessor == "" {
			break
		}
		sid, err = id.Parse(r.Predecessor)
		if err != nil {
			return nil, fmt.Errorf("session chain for %s: %w: %v", channel, graph.ErrStorageUnavailable, err)
		}
	}
	return chain, nil
}

// CollectedIDs lists the message identifiers a session has collected, in
// position order.
func (m *Manager) CollectedIDs(sid id.ID) ([]uint64, error) {
	if err := m.reg.RequireInitialized(); err != nil {
		return nil, fmt.Errorf("collected messages: %w", err)
	}
	prefix := graph.CollectsPrefix(sid.Bytes())
	it, err := m.db.NewIter(nil)
	if err != nil {
		return nil, fmt.Errorf("collected messages for %s: %w: %v", sid, graph.ErrStorageUnavailable, err)
	}
	defer it.Close()

	var ids []uint64
	for ok := it.SeekGE(prefix); ok; ok = it.Next() {
		k := it.Key()
		if len(k) < len(prefix) || string(k[:len(prefix)]) != string(prefix) {
			break
		}
		v := it.Value()
		if len(v) != 8 {
			return nil, fmt.Errorf("collected messages for %s: %w: malformed edge value", sid, graph.ErrStorageUnavailable)
		}
		ids = append(ids, binary.BigEndian.Uint64(v))
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("collected messages for %s: %w: %v", sid, graph.ErrStorageUnavailable, err)
	}
	return ids, nil
}

// CloseAll closes every live session, used on shutdown.
func (m *Manager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	live := make([]*Session, 0, len(m.active))
	for _, s := range m.active {
		live = append(live, s)
	}
	m.mu.Unlock()

	var first error
	for _, s := range live {
		if err := s.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
