package store

import (
	"bytes"
	"testing"
)

func TestRecordRoundTrip(t *testing.T) {
	payload := []byte("sensor reading 42")
	tags := []string{"sensors", "building-7"}
	rec := EncodeMessageRecord(1_700_000_000_123, tags, payload)

	ts, gotTags, gotPayload, ok := DecodeMessageRecord(rec)
	if !ok {
		t.Fatalf("decode failed")
	}
	if ts != 1_700_000_000_123 {
		t.Fatalf("ts: %d", ts)
	}
	if len(gotTags) != 2 || gotTags[0] != "sensors" || gotTags[1] != "building-7" {
		t.Fatalf("tags: %v", gotTags)
	}
	if !bytes.Equal(gotPayload, payload) {
		t.Fatalf("payload: %q", gotPayload)
	}
}

func TestRecordNoTagsEmptyPayload(t *testing.T) {
	rec := EncodeMessageRecord(0, nil, nil)
	ts, tags, payload, ok := DecodeMessageRecord(rec)
	if !ok || ts != 0 || len(tags) != 0 || len(payload) != 0 {
		t.Fatalf("ok=%v ts=%d tags=%v payload=%v", ok, ts, tags, payload)
	}
}

func TestRecordRejectsCorruption(t *testing.T) {
	rec := EncodeMessageRecord(123, []string{"a"}, []byte("x"))
	rec[3] ^= 0x01
	if _, _, _, ok := DecodeMessageRecord(rec); ok {
		t.Fatalf("corrupt record should not decode")
	}
	if _, _, _, ok := DecodeMessageRecord(rec[:5]); ok {
		t.Fatalf("truncated record should not decode")
	}
}
