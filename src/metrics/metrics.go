// Package metrics holds the Prometheus collectors of the service. Every method
// is safe on a nil *Metrics so components can run without instrumentation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quote_observer"

// Poll cycle outcomes.
const (
	CycleCompleted = "completed"
	CycleSkipped   = "skipped"
	CycleTimedOut  = "timed_out"
)

type Metrics struct {
	Registry *prometheus.Registry

	QuotesUpserted    prometheus.Counter
	SnapshotsInserted prometheus.Counter
	SnapshotsPruned   prometheus.Counter
	SaveFailures      prometheus.Counter
	PollCycles        *prometheus.CounterVec
	PollDuration      prometheus.Histogram
	UpstreamFailures  *prometheus.CounterVec
	CacheLookups      *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	WSClients         prometheus.Gauge
}

// -----------------------------------------------------------------------------

// New creates the collectors and registers them, with the Go runtime and
// process collectors, on a private registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		QuotesUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_upserted_total",
			Help:      "Quotes written to the quote table",
		}),
		SnapshotsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_inserted_total",
			Help:      "Snapshots appended to the series",
		}),
		SnapshotsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_pruned_total",
			Help:      "Snapshots removed by the retention sweep",
		}),
		SaveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_save_failures_total",
			Help:      "Failed durability writes",
		}),
		PollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Poll cycles by outcome",
		}, []string{"result"}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_cycle_duration_seconds",
			Help:      "Wall time of completed poll cycles",
			Buckets:   prometheus.DefBuckets,
		}),
		UpstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_failures_total",
			Help:      "Failed upstream fetches by symbol",
		}, []string{"symbol"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candle_cache_lookups_total",
			Help:      "Candle cache lookups by result",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket clients",
		}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.QuotesUpserted,
		m.SnapshotsInserted,
		m.SnapshotsPruned,
		m.SaveFailures,
		m.PollCycles,
		m.PollDuration,
		m.UpstreamFailures,
		m.CacheLookups,
		m.HTTPRequests,
		m.HTTPDuration,
		m.WSClients,
	)
	return m
}

// -----------------------------------------------------------------------------

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// -----------------------------------------------------------------------------

func (m *Metrics) RecordUpsert() {
	if m != nil {
		m.QuotesUpserted.Inc()
	}
}

func (m *Metrics) RecordSnapshot() {
	if m != nil {
		m.SnapshotsInserted.Inc()
	}
}

func (m *Metrics) RecordPruned(n int) {
	if m != nil && n > 0 {
		m.SnapshotsPruned.Add(float64(n))
	}
}

func (m *Metrics) RecordSaveFailure(error) {
	if m != nil {
		m.SaveFailures.Inc()
	}
}

func (m *Metrics) RecordCycle(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.PollCycles.WithLabelValues(result).Inc()
	if result != CycleSkipped {
		m.PollDuration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) RecordUpstreamFailure(symbol string) {
	if m != nil {
		m.UpstreamFailures.WithLabelValues(symbol).Inc()
	}
}

func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) SetWSClients(n int) {
	if m != nil {
		m.WSClients.Set(float64(n))
	}
}
