package storesvc

import (
	"fmt"

	"github.com/raksha-git/icecp-module-storage/internal/graph"
	"github.com/raksha-git/icecp-module-storage/internal/query"
	"github.com/raksha-git/icecp-module-storage/internal/store"
)

// PredicateSpec is the wire form of a query predicate. Exactly one kind is
// set; seconds fields are relative offsets evaluated at execution time.
type PredicateSpec struct {
	Kind         string `json:"kind"`
	Seconds      int64  `json:"seconds,omitempty"`
	OlderSeconds int64  `json:"olderSeconds,omitempty"`
	NewerSeconds int64  `json:"newerSeconds,omitempty"`
	Tag          string `json:"tag,omitempty"`
}

// Build validates the spec and constructs the typed predicate.
func (p PredicateSpec) Build() (query.Predicate, error) {
	switch query.Kind(p.Kind) {
	case query.KindBefore:
		return query.NewBefore(p.Seconds)
	case query.KindAfter:
		return query.NewAfter(p.Seconds)
	case query.KindBetween:
		return query.NewBetween(p.OlderSeconds, p.NewerSeconds)
	case query.KindTagged:
		return query.NewTagged(p.Tag)
	default:
		return nil, fmt.Errorf("predicate: %w: unknown kind %q", graph.ErrInvalidArgument, p.Kind)
	}
}

// SearchRequest selects messages by predicate, optionally refined by a CEL
// filter expression and capped at Limit results.
type SearchRequest struct {
	Predicate PredicateSpec `json:"predicate"`
	Filter    string        `json:"filter,omitempty"`
	Limit     int           `json:"limit,omitempty"`
}

// IngestResult reports where an ingested message landed.
type IngestResult struct {
	Message   store.Message
	SessionID string
	Position  uint64
}
