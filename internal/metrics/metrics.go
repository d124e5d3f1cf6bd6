// Package metrics exposes Prometheus instrumentation for the storage module
// and adapts it to the storage layer's observation hook.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the module registers. It implements the
// storage layer's MetricsHook.
type Metrics struct {
	registry *prometheus.Registry

	MessagesPersisted prometheus.Counter
	QueriesExecuted   prometheus.Counter
	SessionsOpened    prometheus.Counter
	SessionsClosed    prometheus.Counter

	storageWrites  prometheus.Histogram
	storageReads   prometheus.Histogram
	storageCommits prometheus.Histogram
	commitOps      prometheus.Histogram
}

// New builds a Metrics with its own registry, including the standard Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		MessagesPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "icecp_storage_messages_persisted_total",
			Help: "Messages durably persisted.",
		}),
		QueriesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "icecp_storage_queries_total",
			Help: "Predicate queries executed.",
		}),
		SessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "icecp_storage_sessions_opened_total",
			Help: "Sessions opened.",
		}),
		SessionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "icecp_storage_sessions_closed_total",
			Help: "Sessions closed, explicitly or by buffer-period expiry.",
		}),
		storageWrites: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "icecp_storage_write_seconds",
			Help:    "Single-key write latency.",
			Buckets: prometheus.DefBuckets,
		}),
		storageReads: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "icecp_storage_read_seconds",
			Help:    "Single-key read latency.",
			Buckets: prometheus.DefBuckets,
		}),
		storageCommits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "icecp_storage_batch_commit_seconds",
			Help:    "Batch commit latency.",
			Buckets: prometheus.DefBuckets,
		}),
		commitOps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "icecp_storage_batch_commit_ops",
			Help:    "Operations per committed batch.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.MessagesPersisted,
		m.QueriesExecuted,
		m.SessionsOpened,
		m.SessionsClosed,
		m.storageWrites,
		m.storageReads,
		m.storageCommits,
		m.commitOps,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveWrite implements the storage observation hook.
func (m *Metrics) ObserveWrite(elapsed time.Duration, _ int) {
	m.storageWrites.Observe(elapsed.Seconds())
}

// ObserveRead implements the storage observation hook.
func (m *Metrics) ObserveRead(elapsed time.Duration, _ int) {
	m.storageReads.Observe(elapsed.Seconds())
}

// ObserveBatchCommit implements the storage observation hook.
func (m *Metrics) ObserveBatchCommit(elapsed time.Duration, numOps int, _ int) {
	m.storageCommits.Observe(elapsed.Seconds())
	m.commitOps.Observe(float64(numOps))
}
