package query

import (
	"errors"
	"math"
	"testing"

	"github.com/raksha-git/icecp-module-storage/internal/graph"
)

func TestBeforeValueAccessor(t *testing.T) {
	p, err := NewBefore(60)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if p.Value() != 60 {
		t.Fatalf("value: %d", p.Value())
	}
	if p.Kind() != KindBefore {
		t.Fatalf("kind: %s", p.Kind())
	}
}

func TestNegativeSecondsRejected(t *testing.T) {
	if _, err := NewBefore(-1); !errors.Is(err, graph.ErrInvalidArgument) {
		t.Fatalf("before: %v", err)
	}
	if _, err := NewAfter(-1); !errors.Is(err, graph.ErrInvalidArgument) {
		t.Fatalf("after: %v", err)
	}
	if _, err := NewBetween(-1, 0); !errors.Is(err, graph.ErrInvalidArgument) {
		t.Fatalf("between: %v", err)
	}
	if _, err := NewBetween(10, 20); !errors.Is(err, graph.ErrInvalidArgument) {
		t.Fatalf("inverted between: %v", err)
	}
	if _, err := NewTagged(""); !errors.Is(err, graph.ErrInvalidArgument) {
		t.Fatalf("tagged: %v", err)
	}
}

func TestBeforeWindowMovesWithExecutionTime(t *testing.T) {
	p, _ := NewBefore(50)
	w1, _, err := Evaluate(p, 260_000)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if w1.MaxMs != 210_000 {
		t.Fatalf("cutoff at t=260s: %d", w1.MaxMs)
	}
	// Same predicate object, later execution: the bound moves.
	w2, _, err := Evaluate(p, 400_000)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if w2.MaxMs != 350_000 {
		t.Fatalf("cutoff at t=400s: %d", w2.MaxMs)
	}
}

func TestAfterWindowExclusive(t *testing.T) {
	p, _ := NewAfter(10)
	w, _, err := Evaluate(p, 100_000)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if w.MinMs != 90_001 {
		t.Fatalf("min: %d", w.MinMs)
	}
	if w.MaxMs != math.MaxInt64 {
		t.Fatalf("max: %d", w.MaxMs)
	}
}

func TestBetweenWindow(t *testing.T) {
	p, err := NewBetween(100, 40)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	w, _, err := Evaluate(p, 500_000)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if w.MinMs != 400_000 || w.MaxMs != 460_000 {
		t.Fatalf("window: [%d, %d]", w.MinMs, w.MaxMs)
	}
}

func TestTaggedMatch(t *testing.T) {
	p, _ := NewTagged("alerts")
	_, match, err := Evaluate(p, 0)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if match == nil {
		t.Fatalf("expected match function")
	}
	if !match(0, []string{"metrics", "alerts"}) {
		t.Fatalf("should match tagged message")
	}
	if match(0, []string{"metrics"}) {
		t.Fatalf("should not match untagged message")
	}
}

func TestWindowClampsNegativeBounds(t *testing.T) {
	p, _ := NewBefore(10)
	w, _, err := Evaluate(p, 2_000)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	// Cutoff would be -8000ms; the window is simply empty of stored
	// timestamps but must not wrap.
	if w.MinMs != 0 {
		t.Fatalf("min: %d", w.MinMs)
	}
	if !w.Empty() && w.MaxMs >= 0 {
		// MaxMs of -8000 makes the window empty for non-negative ts.
		t.Fatalf("window should be empty or negative-bounded: [%d, %d]", w.MinMs, w.MaxMs)
	}
}

func TestEvaluateNilPredicate(t *testing.T) {
	if _, _, err := Evaluate(nil, 0); !errors.Is(err, graph.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
