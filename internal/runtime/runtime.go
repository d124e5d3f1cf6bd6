package runtime

import (
	"context"
	"errors"
	"time"

	cfgpkg "github.com/raksha-git/icecp-module-storage/internal/config"
	"github.com/raksha-git/icecp-module-storage/internal/graph"
	"github.com/raksha-git/icecp-module-storage/internal/session"
	pebblestore "github.com/raksha-git/icecp-module-storage/internal/storage/pebble"
	"github.com/raksha-git/icecp-module-storage/internal/store"
	logpkg "github.com/raksha-git/icecp-module-storage/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	Logger        logpkg.Logger
	Metrics       pebblestore.MetricsHook
}

// Runtime wires storage, schema, config, and facades for a single-node
// instance. Opening a Runtime ensures the schema; the instance is unusable
// if that fails.
type Runtime struct {
	db       *pebblestore.DB
	reg      *graph.Registrar
	store    *store.Store
	sessions *session.Manager
	config   cfgpkg.Config
	logger   logpkg.Logger
}

// Open initializes the underlying storage, ensures the schema, and returns
// a Runtime.
func Open(opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}

	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Metrics:       opts.Metrics,
	})
	if err != nil {
		return nil, err
	}

	reg := graph.NewRegistrar(db, logger)
	if err := reg.Ensure(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	st, err := store.New(db, reg, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	mgr, err := session.NewManager(db, reg, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Runtime{
		db:       db,
		reg:      reg,
		store:    st,
		sessions: mgr,
		config:   opts.Config,
		logger:   logger,
	}, nil
}

// Close closes live sessions and the underlying storage.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	if err := r.sessions.CloseAll(context.Background()); err != nil {
		r.logger.Warn("closing sessions on shutdown", logpkg.Err(err))
	}
	return r.db.Close()
}

// CheckHealth performs a simple storage health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	if err := r.reg.RequireInitialized(); err != nil {
		return err
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// Store returns the message store facade.
func (r *Runtime) Store() *store.Store { return r.store }

// Sessions returns the session manager facade.
func (r *Runtime) Sessions() *session.Manager { return r.sessions }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
