package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	cfgpkg "github.com/raksha-git/icecp-module-storage/internal/config"
	"github.com/raksha-git/icecp-module-storage/internal/metrics"
	"github.com/raksha-git/icecp-module-storage/internal/runtime"
	pebblestore "github.com/raksha-git/icecp-module-storage/internal/storage/pebble"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	return New(rt, metrics.New())
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rr := doJSON(t, s.Handler(), http.MethodGet, "/v1/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: %d", rr.Code)
	}
}

func TestPersistAndGet(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rr := doJSON(t, h, http.MethodPost, "/v1/messages", map[string]any{
		"content": []byte("hello"),
		"tags":    []string{"greetings"},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("persist status: %d body=%s", rr.Code, rr.Body)
	}
	var created messageView
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == 0 || string(created.Content) != "hello" {
		t.Fatalf("created: %+v", created)
	}

	rr = doJSON(t, h, http.MethodGet, fmt.Sprintf("/v1/messages/get?id=%d", created.ID), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status: %d", rr.Code)
	}
	var got messageView
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != created.ID || len(got.Tags) != 1 || got.Tags[0] != "greetings" {
		t.Fatalf("got: %+v", got)
	}
}

func TestGetMissingMessage(t *testing.T) {
	s := newTestServer(t)
	rr := doJSON(t, s.Handler(), http.MethodGet, "/v1/messages/get?id=999", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: %d", rr.Code)
	}
}

func TestIngestSearchAndChain(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	for i := 0; i < 2; i++ {
		rr := doJSON(t, h, http.MethodPost, "/v1/messages/ingest", map[string]any{
			"channel": "telemetry",
			"content": []byte(fmt.Sprintf(`{"n":%d}`, i)),
			"tags":    []string{"sensors"},
		})
		if rr.Code != http.StatusCreated {
			t.Fatalf("ingest %d: %d body=%s", i, rr.Code, rr.Body)
		}
	}

	rr := doJSON(t, h, http.MethodPost, "/v1/messages/search", map[string]any{
		"predicate": map[string]any{"kind": "tagged", "tag": "sensors"},
		"filter":    `json.n == 1`,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("search: %d body=%s", rr.Code, rr.Body)
	}
	var res struct {
		Messages []messageView `json:"messages"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Messages) != 1 || string(res.Messages[0].Content) != `{"n":1}` {
		t.Fatalf("search result: %+v", res.Messages)
	}

	rr = doJSON(t, h, http.MethodGet, "/v1/channels/chain?channel=telemetry", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("chain: %d", rr.Code)
	}
	var chain struct {
		Sessions []map[string]any `json:"sessions"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &chain); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(chain.Sessions) != 1 {
		t.Fatalf("chain length: %d", len(chain.Sessions))
	}
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rr := doJSON(t, h, http.MethodPost, "/v1/sessions/open", map[string]any{"channel": "c"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("open: %d body=%s", rr.Code, rr.Body)
	}
	var rec struct {
		SessionID string `json:"sessionId"`
		State     string `json:"state"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.State != "open" {
		t.Fatalf("state: %s", rec.State)
	}

	rr = doJSON(t, h, http.MethodPost, "/v1/sessions/close", map[string]any{"sessionId": rec.SessionID})
	if rr.Code != http.StatusNoContent {
		t.Fatalf("close: %d body=%s", rr.Code, rr.Body)
	}

	rr = doJSON(t, h, http.MethodGet, "/v1/sessions/get?id="+rec.SessionID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get: %d", rr.Code)
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.State != "closed" {
		t.Fatalf("state after close: %s", rec.State)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rr := doJSON(t, h, http.MethodPost, "/v1/sessions/open", map[string]any{"channel": ""})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid argument: %d", rr.Code)
	}
	rr = doJSON(t, h, http.MethodGet, "/v1/sessions/get?id=00000000000000000000000000000000", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing session: %d", rr.Code)
	}
	rr = doJSON(t, h, http.MethodPost, "/v1/messages/search", map[string]any{
		"predicate": map[string]any{"kind": "before", "seconds": -1},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad predicate: %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	rr := doJSON(t, s.Handler(), http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rr.Code)
	}
}
