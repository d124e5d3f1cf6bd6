package storesvc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/raksha-git/icecp-module-storage/internal/graph"
	"github.com/raksha-git/icecp-module-storage/internal/metrics"
	"github.com/raksha-git/icecp-module-storage/internal/runtime"
	"github.com/raksha-git/icecp-module-storage/internal/session"
	"github.com/raksha-git/icecp-module-storage/internal/store"
	"github.com/raksha-git/icecp-module-storage/pkg/id"
)

// Service exposes the module's operations over the runtime facades.
// Metrics may be nil.
type Service struct {
	rt *runtime.Runtime
	m  *metrics.Metrics

	mu      sync.Mutex
	current map[string]*session.Session
}

// New builds a Service.
func New(rt *runtime.Runtime, m *metrics.Metrics) *Service {
	return &Service{rt: rt, m: m, current: make(map[string]*session.Session)}
}

func (s *Service) validateMessage(content []byte, tags []string) error {
	cfg := s.rt.Config()
	if cfg.PayloadMaxBytes > 0 && len(content) > cfg.PayloadMaxBytes {
		return fmt.Errorf("payload of %d bytes exceeds limit %d: %w", len(content), cfg.PayloadMaxBytes, graph.ErrInvalidArgument)
	}
	if cfg.TagNameMaxLen > 0 {
		for _, t := range tags {
			if len(t) > cfg.TagNameMaxLen {
				return fmt.Errorf("tag name of %d bytes exceeds limit %d: %w", len(t), cfg.TagNameMaxLen, graph.ErrInvalidArgument)
			}
		}
	}
	return nil
}

// Persist stores a message without routing it into a session. A zero
// timestamp means now.
func (s *Service) Persist(ctx context.Context, content []byte, tsMs int64, tags []string) (store.Message, error) {
	if err := s.validateMessage(content, tags); err != nil {
		return store.Message{}, err
	}
	if tsMs == 0 {
		tsMs = time.Now().UnixMilli()
	}
	msg, err := s.rt.Store().Persist(ctx, content, tsMs, tags)
	if err != nil {
		return store.Message{}, err
	}
	if s.m != nil {
		s.m.MessagesPersisted.Inc()
	}
	return msg, nil
}

// channelSession returns the channel's tracked open session, opening a new
// one when there is none or the tracked one has closed.
func (s *Service) channelSession(ctx context.Context, channel string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.current[channel]; ok && !sess.Closed() {
		return sess, nil
	}
	sess, err := s.rt.Sessions().Open(ctx, channel, s.rt.Config().DefaultBufferPeriodSec)
	if err != nil {
		return nil, err
	}
	if s.m != nil {
		s.m.SessionsOpened.Inc()
	}
	s.current[channel] = sess
	return sess, nil
}

// Ingest persists a message and collects it into the channel's current
// session. A session that closed between lookup and append is replaced with
// a fresh linked session and the append retried once.
func (s *Service) Ingest(ctx context.Context, channel string, content []byte, tags []string) (IngestResult, error) {
	if channel == "" {
		return IngestResult{}, fmt.Errorf("ingest: %w: empty channel name", graph.ErrInvalidArgument)
	}
	msg, err := s.Persist(ctx, content, 0, tags)
	if err != nil {
		return IngestResult{}, err
	}

	for attempt := 0; ; attempt++ {
		sess, err := s.channelSession(ctx, channel)
		if err != nil {
			return IngestResult{}, fmt.Errorf("ingest into %s: %w", channel, err)
		}
		pos, err := sess.Append(ctx, msg)
		if err == nil {
			return IngestResult{Message: msg, SessionID: sess.ID().String(), Position: pos}, nil
		}
		if !errors.Is(err, session.ErrSessionClosed) || attempt > 0 {
			return IngestResult{}, fmt.Errorf("ingest into %s: %w", channel, err)
		}
		// The tracked session expired under us; drop it and retry on a
		// fresh one.
		s.mu.Lock()
		if s.current[channel] == sess {
			delete(s.current, channel)
		}
		s.mu.Unlock()
	}
}

// Search executes a predicate query, applies the optional CEL filter, and
// returns at most the configured or requested limit.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]store.Message, error) {
	pred, err := req.Predicate.Build()
	if err != nil {
		return nil, err
	}
	filter, err := newCELFilter(req.Filter)
	if err != nil {
		return nil, fmt.Errorf("search filter: %w: %v", graph.ErrInvalidArgument, err)
	}

	limit := s.rt.Config().QueryMaxResults
	if req.Limit > 0 && (limit <= 0 || req.Limit < limit) {
		limit = req.Limit
	}

	it, err := s.rt.Store().Query(pred)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	if s.m != nil {
		s.m.QueriesExecuted.Inc()
	}

	var out []store.Message
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m := it.Message()
		if !filter.Eval(m) {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, it.Err()
}

// GetMessage loads one message by identifier.
func (s *Service) GetMessage(mid uint64) (store.Message, error) {
	return s.rt.Store().Get(mid)
}

// Tags lists every known tag name.
func (s *Service) Tags() ([]string, error) {
	return s.rt.Store().Tags()
}

// OpenSession opens an explicit session on a channel. A non-positive period
// means the configured default.
func (s *Service) OpenSession(ctx context.Context, channel string, periodSec int64) (session.Record, error) {
	if periodSec <= 0 {
		periodSec = s.rt.Config().DefaultBufferPeriodSec
	}
	sess, err := s.rt.Sessions().Open(ctx, channel, periodSec)
	if err != nil {
		return session.Record{}, err
	}
	if s.m != nil {
		s.m.SessionsOpened.Inc()
	}
	s.mu.Lock()
	s.current[channel] = sess
	s.mu.Unlock()
	return s.rt.Sessions().Get(sess.ID())
}

// CloseSession closes a live session by identifier. Closing an already
// closed session is a no-op.
func (s *Service) CloseSession(ctx context.Context, sid string) error {
	parsed, err := id.Parse(sid)
	if err != nil {
		return fmt.Errorf("close session: %w: %v", graph.ErrInvalidArgument, err)
	}
	if sess, ok := s.rt.Sessions().Active(parsed); ok {
		if err := sess.Close(ctx); err != nil {
			return err
		}
		if s.m != nil {
			s.m.SessionsClosed.Inc()
		}
		return nil
	}
	// Not live: succeed if it exists on disk, surface not-found otherwise.
	rec, err := s.rt.Sessions().Get(parsed)
	if err != nil {
		return err
	}
	if rec.State != session.StateClosed {
		return fmt.Errorf("close session %s: %w: session record open but not tracked", sid, graph.ErrStorageUnavailable)
	}
	return nil
}

// GetSession loads a session record by identifier.
func (s *Service) GetSession(sid string) (session.Record, error) {
	parsed, err := id.Parse(sid)
	if err != nil {
		return session.Record{}, fmt.Errorf("get session: %w: %v", graph.ErrInvalidArgument, err)
	}
	return s.rt.Sessions().Get(parsed)
}

// Chain lists a channel's sessions from newest to oldest.
func (s *Service) Chain(channel string) ([]session.Record, error) {
	return s.rt.Sessions().Chain(channel)
}

// SessionMessages resolves a session's collected messages in position order.
func (s *Service) SessionMessages(sid string) ([]store.Message, error) {
	parsed, err := id.Parse(sid)
	if err != nil {
		return nil, fmt.Errorf("session messages: %w: %v", graph.ErrInvalidArgument, err)
	}
	mids, err := s.rt.Sessions().CollectedIDs(parsed)
	if err != nil {
		return nil, err
	}
	out := make([]store.Message, 0, len(mids))
	for _, mid := range mids {
		m, err := s.rt.Store().Get(mid)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
