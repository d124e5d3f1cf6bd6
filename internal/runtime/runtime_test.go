package runtime

import (
	"context"
	"testing"

	cfgpkg "github.com/raksha-git/icecp-module-storage/internal/config"
	pebblestore "github.com/raksha-git/icecp-module-storage/internal/storage/pebble"
)

func TestOpenCloseHealth(t *testing.T) {
	rt, err := Open(Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	defer rt.Close()
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestFacadesUsable(t *testing.T) {
	rt, err := Open(Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()

	ctx := context.Background()
	msg, err := rt.Store().Persist(ctx, []byte("hello"), 1_000, []string{"greetings"})
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	s, err := rt.Sessions().Open(ctx, "greetings", 60)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	defer s.Close(ctx)
	if pos, err := s.Append(ctx, msg); err != nil || pos != 0 {
		t.Fatalf("append: pos=%d err=%v", pos, err)
	}
}

func TestSchemaSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	m1, err := rt.Store().Persist(context.Background(), []byte("a"), 1_000, nil)
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rt, err = Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer rt.Close()
	m2, err := rt.Store().Persist(context.Background(), []byte("b"), 2_000, nil)
	if err != nil {
		t.Fatalf("persist after reopen: %v", err)
	}
	if m2.ID != m1.ID+1 {
		t.Fatalf("identifier sequence reset across reopen: %d then %d", m1.ID, m2.ID)
	}
}
