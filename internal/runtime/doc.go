// Package runtime wires storage, schema, config, and facades into a
// single-node storage instance. It exposes Open/Close, basic health checks,
// and the message store and session manager used by higher-level services.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	msg, _ := rt.Store().Persist(context.Background(), []byte("hello"), time.Now().UnixMilli(), []string{"greetings"})
//	_ = msg
package runtime
