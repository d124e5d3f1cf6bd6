package serverrun

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	cfgpkg "github.com/raksha-git/icecp-module-storage/internal/config"
	pebblestore "github.com/raksha-git/icecp-module-storage/internal/storage/pebble"
)

func TestGetenvDefault(t *testing.T) {
	t.Setenv("TEST_VAR", "env_value")
	if got := getenvDefault("TEST_VAR", "default"); got != "env_value" {
		t.Fatalf("set var: %s", got)
	}
	if got := getenvDefault("TEST_VAR_NOT_SET", "default"); got != "default" {
		t.Fatalf("unset var: %s", got)
	}
}

func TestRunStartsAndStops(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping server startup in short mode")
	}
	opts := Options{
		DataDir:  filepath.Join(t.TempDir(), "node"),
		HTTPAddr: ":0",
		Fsync:    pebblestore.FsyncModeNever,
		Config:   cfgpkg.Default(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := Run(ctx, opts); err != nil {
		t.Fatalf("run: %v", err)
	}
}
