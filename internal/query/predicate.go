// Package query defines the closed family of relative-time predicates used
// to retrieve persisted messages.
//
// Each predicate carries one typed parameter, reachable unchanged through
// its Value accessor. Predicates store relative offsets, never absolute
// bounds: the absolute time window is computed at evaluation time, so a
// saved predicate re-executed later matches against a moving bound.
package query

import (
	"fmt"

	"github.com/raksha-git/icecp-module-storage/internal/graph"
)

// Kind names a predicate variant.
type Kind string

const (
	KindBefore  Kind = "before"
	KindAfter   Kind = "after"
	KindBetween Kind = "between"
	KindTagged  Kind = "tagged"
)

// Predicate is a typed, named, execution-time-evaluated query condition.
type Predicate interface {
	Kind() Kind
}

// Before matches messages timestamped at or before (execution time - the
// given number of seconds). Before(0) matches everything up to now.
type Before struct {
	seconds int64
}

// NewBefore validates the relative offset and builds the predicate.
func NewBefore(seconds int64) (Before, error) {
	if seconds < 0 {
		return Before{}, fmt.Errorf("before(%d): %w: seconds must be non-negative", seconds, graph.ErrInvalidArgument)
	}
	return Before{seconds: seconds}, nil
}

func (p Before) Kind() Kind { return KindBefore }

// Value returns the relative offset in seconds, unchanged.
func (p Before) Value() int64 { return p.seconds }

// After matches messages timestamped strictly after (execution time - the
// given number of seconds).
type After struct {
	seconds int64
}

// NewAfter validates the relative offset and builds the predicate.
func NewAfter(seconds int64) (After, error) {
	if seconds < 0 {
		return After{}, fmt.Errorf("after(%d): %w: seconds must be non-negative", seconds, graph.ErrInvalidArgument)
	}
	return After{seconds: seconds}, nil
}

func (p After) Kind() Kind { return KindAfter }

// Value returns the relative offset in seconds, unchanged.
func (p After) Value() int64 { return p.seconds }

// Span is the typed parameter of Between: both offsets are relative to
// execution time, with Older further in the past than Newer.
type Span struct {
	OlderSeconds int64
	NewerSeconds int64
}

// Between matches messages whose timestamp lies in
// [execution time - OlderSeconds, execution time - NewerSeconds].
type Between struct {
	span Span
}

// NewBetween validates the span and builds the predicate.
func NewBetween(olderSeconds, newerSeconds int64) (Between, error) {
	if olderSeconds < 0 || newerSeconds < 0 {
		return Between{}, fmt.Errorf("between(%d,%d): %w: seconds must be non-negative", olderSeconds, newerSeconds, graph.ErrInvalidArgument)
	}
	if olderSeconds < newerSeconds {
		return Between{}, fmt.Errorf("between(%d,%d): %w: older bound precedes newer bound", olderSeconds, newerSeconds, graph.ErrInvalidArgument)
	}
	return Between{span: Span{OlderSeconds: olderSeconds, NewerSeconds: newerSeconds}}, nil
}

func (p Between) Kind() Kind { return KindBetween }

// Value returns the relative span, unchanged.
func (p Between) Value() Span { return p.span }

// Tagged matches messages carrying the named tag, regardless of timestamp.
type Tagged struct {
	name string
}

// NewTagged validates the tag name and builds the predicate.
func NewTagged(name string) (Tagged, error) {
	if name == "" {
		return Tagged{}, fmt.Errorf("tagged: %w: empty tag name", graph.ErrInvalidArgument)
	}
	return Tagged{name: name}, nil
}

func (p Tagged) Kind() Kind { return KindTagged }

// Value returns the tag name, unchanged.
func (p Tagged) Value() string { return p.name }
