// Package metrics provides Prometheus metrics instrumentation for Sidechain.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager manages all Prometheus metrics for Sidechain.
type Manager struct {
	registry *prometheus.Registry
	enabled  bool

	// Selection metrics
	selections          *prometheus.CounterVec
	selectionDuration   *prometheus.HistogramVec
	selectionCandidates prometheus.Histogram
	selectionResults    prometheus.Histogram

	// Learning metrics
	feedbackEvents      *prometheus.CounterVec
	interactionsTrimmed prometheus.Counter

	// HTTP metrics
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpConnections prometheus.Gauge
}

// Config holds metrics configuration.
type Config struct {
	Enabled bool
	Port    int
	Path    string

	// Histogram bucket configurations
	SelectionDurationBuckets []float64
	HTTPDurationBuckets      []float64
}

// DefaultConfig returns default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:                  true,
		Port:                     9091,
		Path:                     "/metrics",
		SelectionDurationBuckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		HTTPDurationBuckets:      []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}
}

// NewManager creates a new metrics manager.
func NewManager(cfg Config) *Manager {
	if !cfg.Enabled {
		return &Manager{enabled: false}
	}

	registry := prometheus.NewRegistry()

	// Register Go runtime metrics
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Manager{
		registry: registry,
		enabled:  true,
	}

	m.selections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sidechain_selections_total",
		Help: "Total memory selections performed, by profile.",
	}, []string{"profile"})

	m.selectionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sidechain_selection_duration_seconds",
		Help:    "Duration of memory selection calls.",
		Buckets: cfg.SelectionDurationBuckets,
	}, []string{"profile"})

	m.selectionCandidates = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sidechain_selection_candidates",
		Help:    "Stored chunk count per selection, before tag pre-filtering.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	m.selectionResults = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sidechain_selection_results",
		Help:    "Result count per selection.",
		Buckets: prometheus.LinearBuckets(0, 5, 9),
	})

	m.feedbackEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sidechain_feedback_events_total",
		Help: "Feedback events applied, by reward sign.",
	}, []string{"reward"})

	// No Manager method increments interactionsTrimmed; it is exported at zero.
	m.interactionsTrimmed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sidechain_interactions_trimmed_total",
		Help: "Interaction records dropped by the retention cap.",
	})

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sidechain_http_requests_total",
		Help: "HTTP requests served.",
	}, []string{"method", "path", "status"})

	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sidechain_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: cfg.HTTPDurationBuckets,
	}, []string{"method", "path"})

	m.httpConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sidechain_http_active_connections",
		Help: "Currently active HTTP connections.",
	})

	registry.MustRegister(
		m.selections,
		m.selectionDuration,
		m.selectionCandidates,
		m.selectionResults,
		m.feedbackEvents,
		m.interactionsTrimmed,
		m.httpRequests,
		m.httpDuration,
		m.httpConnections,
	)

	return m
}

// Enabled returns whether metrics collection is enabled.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// RecordSelection records one selection call.
func (m *Manager) RecordSelection(profile string, candidates, results int, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.selections.WithLabelValues(profile).Inc()
	m.selectionDuration.WithLabelValues(profile).Observe(duration.Seconds())
	m.selectionCandidates.Observe(float64(candidates))
	m.selectionResults.Observe(float64(results))
}

// RecordFeedback records applied feedback events by reward sign.
func (m *Manager) RecordFeedback(reward int) {
	if !m.enabled {
		return
	}
	label := "zero"
	switch {
	case reward > 0:
		label = "positive"
	case reward < 0:
		label = "negative"
	}
	m.feedbackEvents.WithLabelValues(label).Inc()
}

// RecordHTTPRequest records one served HTTP request.
func (m *Manager) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncActiveConnections increments the active connection gauge.
func (m *Manager) IncActiveConnections() {
	if !m.enabled {
		return
	}
	m.httpConnections.Inc()
}

// DecActiveConnections decrements the active connection gauge.
func (m *Manager) DecActiveConnections() {
	if !m.enabled {
		return
	}
	m.httpConnections.Dec()
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Manager) Handler() http.Handler {
	if !m.enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer starts the metrics HTTP server on the configured port. The
// server stops when ctx is cancelled.
func (m *Manager) StartServer(ctx context.Context, port int, path string) error {
	if !m.enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}
