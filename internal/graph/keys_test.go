package graph

import (
	"bytes"
	"testing"
)

func TestTimestampIndexOrdering(t *testing.T) {
	a := KeyTimestampIndex(100, 5)
	b := KeyTimestampIndex(100, 6)
	c := KeyTimestampIndex(200, 1)
	if !(bytes.Compare(a, b) < 0 && bytes.Compare(b, c) < 0) {
		t.Fatalf("keys not ordered: %x %x %x", a, b, c)
	}
	if got := MidFromTimestampIndexKey(b); got != 6 {
		t.Fatalf("mid: %d", got)
	}
}

func TestTimestampIndexBoundsInclusive(t *testing.T) {
	low, high := TimestampIndexBounds(100, 200)
	in := [][]byte{
		KeyTimestampIndex(100, 0),
		KeyTimestampIndex(200, ^uint64(0)),
	}
	out := [][]byte{
		KeyTimestampIndex(99, ^uint64(0)),
		KeyTimestampIndex(201, 0),
	}
	for _, k := range in {
		if bytes.Compare(k, low) < 0 || bytes.Compare(k, high) >= 0 {
			t.Fatalf("key %x should be inside [%x, %x)", k, low, high)
		}
	}
	for _, k := range out {
		if bytes.Compare(k, low) >= 0 && bytes.Compare(k, high) < 0 {
			t.Fatalf("key %x should be outside [%x, %x)", k, low, high)
		}
	}
}

func TestCollectsPrefixCoversOnlyOwnSession(t *testing.T) {
	sid := []byte("0123456789abcdef")
	other := []byte("0123456789abcdeg")
	k := KeyCollects(sid, 3)
	if !bytes.HasPrefix(k, CollectsPrefix(sid)) {
		t.Fatalf("collects key outside own prefix")
	}
	if bytes.HasPrefix(k, CollectsPrefix(other)) {
		t.Fatalf("collects key inside foreign prefix")
	}
}

func TestPrefixUpperBound(t *testing.T) {
	p := []byte("g/e/collects/abc/")
	ub := PrefixUpperBound(p)
	if bytes.Compare(p, ub) >= 0 {
		t.Fatalf("upper bound not greater than prefix")
	}
	k := append(append([]byte(nil), p...), 0xFF, 0xFF)
	if bytes.Compare(k, ub) >= 0 {
		t.Fatalf("member key above upper bound")
	}
}
