package store

import (
	"fmt"
	"math"

	"github.com/cockroachdb/pebble"

	"github.com/raksha-git/icecp-module-storage/internal/graph"
	"github.com/raksha-git/icecp-module-storage/internal/query"
)

// Iterator walks query results lazily in ascending timestamp order, then
// identifier order within a timestamp. Rows are resolved one at a time from
// the timestamp index; nothing is materialized up front.
type Iterator struct {
	store *Store
	inner *pebble.Iterator
	match query.Match

	started bool
	msg     Message
	err     error
}

// Query evaluates the predicate at the current time and returns a lazy
// iterator over matching messages. The same predicate queried again later
// evaluates against the moved window.
func (s *Store) Query(p query.Predicate) (*Iterator, error) {
	if err := s.reg.RequireInitialized(); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	w, match, err := query.Evaluate(p, nowMs())
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if w.Empty() || w.MaxMs < 0 {
		return &Iterator{store: s, match: match}, nil
	}
	// Stored timestamps never exceed MaxInt64; uint64 key order is safe.
	hi := w.MaxMs
	if hi > math.MaxInt64-1 {
		hi = math.MaxInt64 - 1
	}
	low, high := graph.TimestampIndexBounds(w.MinMs, hi)
	inner, err := s.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: high})
	if err != nil {
		return nil, fmt.Errorf("query: %w: %v", graph.ErrStorageUnavailable, err)
	}
	return &Iterator{store: s, inner: inner, match: match}, nil
}

// Next advances to the next matching message. It returns false when the
// results are exhausted or a failure occurred; check Err afterwards.
func (it *Iterator) Next() bool {
	if it.err != nil || it.inner == nil {
		return false
	}
	var ok bool
	if !it.started {
		it.started = true
		ok = it.inner.First()
	} else {
		ok = it.inner.Next()
	}
	for ; ok; ok = it.inner.Next() {
		mid := graph.MidFromTimestampIndexKey(it.inner.Key())
		msg, err := it.store.Get(mid)
		if err != nil {
			it.err = err
			return false
		}
		if it.match != nil && !it.match(msg.Timestamp, msg.Tags) {
			continue
		}
		it.msg = msg
		return true
	}
	if err := it.inner.Error(); err != nil {
		it.err = fmt.Errorf("query: %w: %v", graph.ErrStorageUnavailable, err)
	}
	return false
}

// Message returns the row positioned by the last successful Next.
func (it *Iterator) Message() Message { return it.msg }

// Err returns the first failure encountered while iterating.
func (it *Iterator) Err() error { return it.err }

// Close releases the underlying storage iterator.
func (it *Iterator) Close() error {
	if it.inner == nil {
		return nil
	}
	return it.inner.Close()
}

// Collect drains the iterator into a slice, closing it. Intended for callers
// that want bounded result sets; limit <= 0 means no limit.
func (it *Iterator) Collect(limit int) ([]Message, error) {
	defer it.Close()
	var out []Message
	for it.Next() {
		out = append(out, it.Message())
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, it.Err()
}
