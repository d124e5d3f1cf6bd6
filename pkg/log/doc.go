// Package log provides the storage module's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Entries flow through a
// Formatter (text or JSON) and one or more Outputs, so every component of
// the module logs with a consistent shape.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("store"))
//	l.Info("message persisted", log.Uint64("mid", 42))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config, supporting
// text or JSON formatting. To capture stdlib log output (e.g. from Pebble),
// use RedirectStdLog.
package log
