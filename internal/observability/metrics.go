package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riskibarqy/matchstats/internal/usecase"
)

// Metrics exposes collection counters on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	fixtures        *prometheus.CounterVec
	upstreamErrors  *prometheus.CounterVec
	leagueDuration  *prometheus.HistogramVec
	runs            *prometheus.CounterVec
	lastRunFinished prometheus.Gauge
}

var _ usecase.CollectionRecorder = (*Metrics)(nil)

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fixtures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchstats_fixtures_processed_total",
			Help: "Fixtures handled by the collector, by league and outcome.",
		}, []string{"league", "outcome"}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchstats_upstream_errors_total",
			Help: "Failed API-Sports calls, by operation.",
		}, []string{"op", "rate_limited"}),
		leagueDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "matchstats_league_collection_seconds",
			Help:    "Wall time spent collecting one league.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"league"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "matchstats_collection_runs_total",
			Help: "Completed collection runs, by result.",
		}, []string{"result"}),
		lastRunFinished: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matchstats_last_run_finished_timestamp_seconds",
			Help: "Unix time of the last completed collection run.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.fixtures,
		m.upstreamErrors,
		m.leagueDuration,
		m.runs,
		m.lastRunFinished,
	)
	return m
}

func (m *Metrics) FixtureProcessed(league string, outcome usecase.FixtureOutcome) {
	m.fixtures.WithLabelValues(league, string(outcome)).Inc()
}

func (m *Metrics) UpstreamError(op string, rateLimited bool) {
	label := "false"
	if rateLimited {
		label = "true"
	}
	m.upstreamErrors.WithLabelValues(op, label).Inc()
}

func (m *Metrics) LeagueCollected(league string, elapsed time.Duration) {
	m.leagueDuration.WithLabelValues(league).Observe(elapsed.Seconds())
}

func (m *Metrics) RunFinished(result string) {
	m.runs.WithLabelValues(result).Inc()
	m.lastRunFinished.SetToCurrentTime()
}

// Registry is exposed for tests and for callers adding their own collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
