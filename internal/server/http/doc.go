// Package httpserver exposes the storage module over a JSON HTTP API:
// message persistence and ingest, predicate search, session administration,
// channel chains, health, and Prometheus metrics.
package httpserver
