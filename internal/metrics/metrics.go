// Package metrics exposes game and HTTP counters to Prometheus.
//
// Every method is safe on a nil *Metrics, so services and tests that don't
// care about metrics can simply pass nil.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/heardle/internal/model"
)

const namespace = "heardle"

// Metrics owns a private registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	guesses       *prometheus.CounterVec
	rounds        *prometheus.CounterVec
	statsFailures prometheus.Counter
	httpDuration  *prometheus.HistogramVec
}

// New builds the collectors on a fresh registry, together with the standard
// Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		guesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guesses_total",
			Help:      "Guesses accepted, by outcome and player type.",
		}, []string{"outcome", "player"}),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_finished_total",
			Help:      "Rounds that reached a terminal state, by puzzle kind and result.",
		}, []string{"kind", "result"}),
		statsFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_record_failures_total",
			Help:      "Statistics updates that failed and were dropped.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.guesses,
		m.rounds,
		m.statsFailures,
		m.httpDuration,
	)

	return m
}

// Registry returns the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) GuessSubmitted(outcome model.Outcome, guest bool) {
	if m == nil {
		return
	}
	player := "user"
	if guest {
		player = "guest"
	}
	m.guesses.WithLabelValues(string(outcome), player).Inc()
}

// RoundFinished counts a round that just became WON or LOST.
func (m *Metrics) RoundFinished(kind model.PuzzleKind, result string) {
	if m == nil {
		return
	}
	m.rounds.WithLabelValues(string(kind), result).Inc()
}

func (m *Metrics) StatsFailed() {
	if m == nil {
		return
	}
	m.statsFailures.Inc()
}

// ObserveHTTP records one request. route should be the router pattern, not
// the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
