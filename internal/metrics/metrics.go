// Package metrics exposes engine counters via Prometheus. All receivers are
// nil-safe so the engine can run without a registry wired in.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry       *prometheus.Registry
	tileFetches    *prometheus.CounterVec
	cacheDecisions *prometheus.CounterVec
	queueDepth     *prometheus.GaugeVec
}

// New creates a fresh registry with the tile engine metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	tileFetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapedit",
		Name:      "tile_fetches_total",
		Help:      "Tile fetch attempts by source and result",
	}, []string{"source", "result"})

	cacheDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapedit",
		Name:      "tile_cache_decisions_total",
		Help:      "Cache decisions by source and outcome (fresh or fetch)",
	}, []string{"source", "decision"})

	queueDepth := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mapedit",
		Name:      "tile_fetch_queue_depth",
		Help:      "Jobs currently waiting in the fetch queue",
	}, []string{"source"})

	registry.MustRegister(tileFetches, cacheDecisions, queueDepth)

	return &Metrics{
		registry:       registry,
		tileFetches:    tileFetches,
		cacheDecisions: cacheDecisions,
		queueDepth:     queueDepth,
	}
}

// IncTileFetch records one fetch attempt. result is "ok" or "error".
func (m *Metrics) IncTileFetch(source, result string) {
	if m == nil {
		return
	}
	m.tileFetches.WithLabelValues(source, result).Inc()
}

// IncCacheDecision records one Decide outcome.
func (m *Metrics) IncCacheDecision(source, decision string) {
	if m == nil {
		return
	}
	m.cacheDecisions.WithLabelValues(source, decision).Inc()
}

// SetQueueDepth records the current fetch queue length.
func (m *Metrics) SetQueueDepth(source string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(source).Set(float64(depth))
}

// Handler exposes the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
