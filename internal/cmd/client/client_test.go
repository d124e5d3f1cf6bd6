package client

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	cfgpkg "github.com/raksha-git/icecp-module-storage/internal/config"
	"github.com/raksha-git/icecp-module-storage/internal/runtime"
	httpserver "github.com/raksha-git/icecp-module-storage/internal/server/http"
	pebblestore "github.com/raksha-git/icecp-module-storage/internal/storage/pebble"
)

func startTestAPI(t *testing.T) BaseURLFunc {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })

	srv := httptest.NewServer(httpserver.New(rt, nil).Handler())
	t.Cleanup(srv.Close)
	return func() string { return srv.URL }
}

func run(t *testing.T, cmdArgs []string, baseURL BaseURLFunc, group string) string {
	t.Helper()
	cmd := NewRoot(baseURL)
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{group}, cmdArgs...))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v", cmdArgs, err)
	}
	return buf.String()
}

func TestPersistAndSearchCLI(t *testing.T) {
	baseURL := startTestAPI(t)

	out := run(t, []string{"persist", "--data", `{"hello":"world"}`, "--tag", "greetings"}, baseURL, "message")
	if !strings.Contains(out, `"payload_json"`) || !strings.Contains(out, "greetings") {
		t.Fatalf("persist output: %s", out)
	}

	out = run(t, []string{"search", "--tag", "greetings"}, baseURL, "message")
	if !strings.Contains(out, "world") {
		t.Fatalf("search output: %s", out)
	}

	out = run(t, []string{"tags"}, baseURL, "message")
	if !strings.Contains(out, "greetings") {
		t.Fatalf("tags output: %s", out)
	}
}

func TestSessionLifecycleCLI(t *testing.T) {
	baseURL := startTestAPI(t)

	out := run(t, []string{"ingest", "--channel", "telemetry", "--data", "reading"}, baseURL, "message")
	if !strings.Contains(out, `"session_id"`) {
		t.Fatalf("ingest output: %s", out)
	}

	out = run(t, []string{"chain", "--channel", "telemetry"}, baseURL, "session")
	if !strings.Contains(out, `"state":"open"`) {
		t.Fatalf("chain output: %s", out)
	}
}
