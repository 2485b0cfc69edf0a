// Package metrics provides Prometheus metrics for the forsinka application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Feed refresh metrics
	RefreshCyclesTotal *prometheus.CounterVec
	RefreshDuration    prometheus.Histogram
	JourneysTracked    prometheus.Gauge
	JourneysExpired    prometheus.Counter
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forsinka_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forsinka_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	refreshCyclesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forsinka_refresh_cycles_total",
			Help: "Feed refresh attempts by outcome",
		},
		[]string{"result"},
	)

	refreshDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "forsinka_refresh_duration_seconds",
		Help:    "Duration of one fetch+build+swap refresh cycle",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	journeysTracked := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "forsinka_journeys_tracked",
		Help: "Number of journeys in the shared index after the last swap",
	})

	journeysExpired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "forsinka_journeys_expired_total",
		Help: "Journeys removed from the index by retention expiry",
	})

	registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		refreshCyclesTotal,
		refreshDuration,
		journeysTracked,
		journeysExpired,
	)

	return &Metrics{
		Registry:            registry,
		HTTPRequestsTotal:   httpRequestsTotal,
		HTTPRequestDuration: httpRequestDuration,
		RefreshCyclesTotal:  refreshCyclesTotal,
		RefreshDuration:     refreshDuration,
		JourneysTracked:     journeysTracked,
		JourneysExpired:     journeysExpired,
	}
}

// ObserveRefresh records the outcome of one refresh cycle.
// Result should be "success" or "failure".
func (m *Metrics) ObserveRefresh(result string, seconds float64) {
	if m == nil {
		return
	}
	m.RefreshCyclesTotal.WithLabelValues(result).Inc()
	m.RefreshDuration.Observe(seconds)
}
