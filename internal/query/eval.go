package query

import (
	"fmt"
	"math"

	"github.com/raksha-git/icecp-module-storage/internal/graph"
)

// Window is an inclusive absolute time range in milliseconds, computed from
// a predicate at evaluation time.
type Window struct {
	MinMs int64
	MaxMs int64
}

// Empty reports whether no timestamp can fall inside the window.
func (w Window) Empty() bool { return w.MaxMs < w.MinMs }

// Match refines a window with a per-message check. A nil Match accepts
// every message inside the window.
type Match func(tsMs int64, tags []string) bool

// evaluator turns one predicate kind into an absolute window plus an
// optional per-message match at a given execution time.
type evaluator func(p Predicate, nowMs int64) (Window, Match)

// evaluators is the explicit dispatch table: predicate kind to evaluator.
// Extending the predicate family means adding a row here.
var evaluators = map[Kind]evaluator{
	KindBefore: func(p Predicate, nowMs int64) (Window, Match) {
		cutoff := nowMs - p.(Before).Value()*1000
		return Window{MinMs: 0, MaxMs: cutoff}, nil
	},
	KindAfter: func(p Predicate, nowMs int64) (Window, Match) {
		cutoff := nowMs - p.(After).Value()*1000
		return Window{MinMs: cutoff + 1, MaxMs: math.MaxInt64}, nil
	},
	KindBetween: func(p Predicate, nowMs int64) (Window, Match) {
		span := p.(Between).Value()
		return Window{
			MinMs: nowMs - span.OlderSeconds*1000,
			MaxMs: nowMs - span.NewerSeconds*1000,
		}, nil
	},
	KindTagged: func(p Predicate, nowMs int64) (Window, Match) {
		name := p.(Tagged).Value()
		return Window{MinMs: 0, MaxMs: math.MaxInt64}, func(_ int64, tags []string) bool {
			for _, t := range tags {
				if t == name {
					return true
				}
			}
			return false
		}
	},
}

// Evaluate computes the absolute window and per-message match for a
// predicate at the given execution time. Negative window bounds are clamped
// to zero; stored timestamps are non-negative.
func Evaluate(p Predicate, nowMs int64) (Window, Match, error) {
	if p == nil {
		return Window{}, nil, fmt.Errorf("evaluate: %w: nil predicate", graph.ErrInvalidArgument)
	}
	eval, ok := evaluators[p.Kind()]
	if !ok {
		return Window{}, nil, fmt.Errorf("evaluate: %w: unknown predicate kind %q", graph.ErrInvalidArgument, p.Kind())
	}
	w, match := eval(p, nowMs)
	if w.MinMs < 0 {
		w.MinMs = 0
	}
	return w, match, nil
}
