package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the ingestion
// pipeline and the read-through proxy.
type Metrics struct {
	IncidentsFetched *prometheus.CounterVec // labels: source
	IncidentsNew     prometheus.Counter
	IncidentsUpdated prometheus.Counter
	IncidentsSkipped prometheus.Counter

	IngestRuns     *prometheus.CounterVec // labels: source, outcome={success,error}
	IngestDuration prometheus.Histogram

	ProxyRequests *prometheus.CounterVec // labels: outcome={success,timeout,upstream_error}
	ProxyDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.IncidentsFetched,
		m.IncidentsNew,
		m.IncidentsUpdated,
		m.IncidentsSkipped,
		m.IngestRuns,
		m.IngestDuration,
		m.ProxyRequests,
		m.ProxyDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests
// can construct as many instances as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		IncidentsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trafficwiz",
			Name:      "incidents_fetched_total",
			Help:      "Raw incidents returned by upstream providers.",
		}, []string{"source"}),
		IncidentsNew: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trafficwiz",
			Name:      "incidents_new_total",
			Help:      "Incidents inserted as new records.",
		}),
		IncidentsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trafficwiz",
			Name:      "incidents_updated_total",
			Help:      "Incidents reconciled onto existing records.",
		}),
		IncidentsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trafficwiz",
			Name:      "incidents_skipped_total",
			Help:      "Incidents skipped after losing an insert race.",
		}),
		IngestRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trafficwiz",
			Name:      "ingest_runs_total",
			Help:      "Ingestion passes by source and outcome.",
		}, []string{"source", "outcome"}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trafficwiz",
			Name:      "ingest_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-reconcile pass.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ProxyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trafficwiz",
			Name:      "proxy_requests_total",
			Help:      "Read-through proxy requests by outcome.",
		}, []string{"outcome"}),
		ProxyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trafficwiz",
			Name:      "proxy_duration_seconds",
			Help:      "Read-through proxy request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}
