package session

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/raksha-git/icecp-module-storage/internal/graph"
	"github.com/raksha-git/icecp-module-storage/internal/store"
	"github.com/raksha-git/icecp-module-storage/pkg/id"
)

// ErrSessionClosed is returned by Append once a session has closed, whether
// explicitly or by buffer-period expiry.
var ErrSessionClosed = errors.New("session closed")

// States persisted in the session record.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// bufferPeriodUnit scales maxBufferPeriodInSec into a timer duration;
// overridable in tests.
var bufferPeriodUnit = time.Second

// Record is the durable form of a session vertex. Field names mirror the
// schema property names.
type Record struct {
	SessionID            string `json:"sessionId"`
	ChannelName          string `json:"channelName"`
	NextIndex            uint64 `json:"nextIndex"`
	MaxBufferPeriodInSec int64  `json:"maxBufferPeriodInSec"`
	State                string `json:"state"`
	Predecessor          string `json:"predecessor,omitempty"`
}

// Session is an open collection window on a channel. Positions are assigned
// consecutively from zero; the in-memory counter advances only after the
// collects edge is durably committed.
type Session struct {
	mgr         *Manager
	id          id.ID
	channel     string
	period      int64
	predecessor id.ID
	timer       *time.Timer

	mu     sync.Mutex
	closed bool
	next   uint64
}

// ID returns the session identifier.
func (s *Session) ID() id.ID { return s.id }

// Channel returns the channel the session collects for.
func (s *Session) Channel() string { return s.channel }

// Closed reports whether the session has stopped accepting messages.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// record builds the durable form under the caller's lock.
func (s *Session) record(state string, next uint64) Record {
	r := Record{
		SessionID:            s.id.String(),
		ChannelName:          s.channel,
		NextIndex:            next,
		MaxBufferPeriodInSec: s.period,
		State:                state,
	}
	if !s.predecessor.IsZero() {
		r.Predecessor = s.predecessor.String()
	}
	return r
}

// Append collects a persisted message at the session's next position and
// returns that position. The collects edge and the advanced session record
// are committed in one batch; the position counter moves only on success,
// so positions stay consecutive even when commits fail.
func (s *Session) Append(ctx context.Context, msg store.Message) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, fmt.Errorf("append to session %s: %w", s.id, ErrSessionClosed)
	}

	pos := s.next
	rec, err := json.Marshal(s.record(StateOpen, pos+1))
	if err != nil {
		return 0, fmt.Errorf("append to session %s: %w", s.id, err)
	}

	var mid [8]byte
	binary.BigEndian.PutUint64(mid[:], msg.ID)

	b := s.mgr.db.NewBatch()
	defer b.Close()
	if err := b.Set(graph.KeyCollects(s.id.Bytes(), pos), mid[:], nil); err != nil {
		return 0, fmt.Errorf("append to session %s: %w: %v", s.id, graph.ErrStorageUnavailable, err)
	}
	if err := b.Set(graph.KeySession(s.id.Bytes()), rec, nil); err != nil {
		return 0, fmt.Errorf("append to session %s: %w: %v", s.id, graph.ErrStorageUnavailable, err)
	}
	if err := s.mgr.db.CommitBatch(ctx, b); err != nil {
		return 0, fmt.Errorf("append to session %s: %w: %v", s.id, graph.ErrStorageUnavailable, err)
	}

	s.next = pos + 1
	return pos, nil
}

// Close ends the session. It is idempotent; only the first call persists the
// closed state. The session stays closed in memory even if persisting fails,
// so no message can slip in after expiry.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mgr.forget(s.id)

	rec, err := json.Marshal(s.record(StateClosed, s.next))
	if err != nil {
		return fmt.Errorf("close session %s: %w", s.id, err)
	}
	b := s.mgr.db.NewBatch()
	defer b.Close()
	if err := b.Set(graph.KeySession(s.id.Bytes()), rec, nil); err != nil {
		return fmt.Errorf("close session %s: %w: %v", s.id, graph.ErrStorageUnavailable, err)
	}
	if err := s.mgr.db.CommitBatch(ctx, b); err != nil {
		return fmt.Errorf("close session %s: %w: %v", s.id, graph.ErrStorageUnavailable, err)
	}
	return nil
}

// Collected returns the message identifiers the session has stored, in
// position order.
func (s *Session) Collected() ([]uint64, error) {
	return s.mgr.CollectedIDs(s.id)
}
