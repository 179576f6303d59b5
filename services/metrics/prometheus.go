package metricsvc

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/habitrank/core"
)

const namespace = "habitrank"

type PrometheusMetrics struct {
	registry     *prometheus.Registry
	checkIns     *prometheus.CounterVec
	retries      prometheus.Counter
	leaderboards *prometheus.HistogramVec
}

var _ core.Metrics = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics registers the engine metrics, plus go & process collectors, on a fresh registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	m := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
		checkIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkins_total",
			Help:      "Check-ins by result.",
		}, []string{"result"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracking_conflict_retries_total",
			Help:      "Daily record writes retried after a concurrent update.",
		}),
		leaderboards: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "leaderboard_duration_seconds",
			Help:      "Time to serve a leaderboard.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"scope", "cached"}),
	}
	m.registry.MustRegister(
		m.checkIns,
		m.retries,
		m.leaderboards,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *PrometheusMetrics) CheckIn(result string) {
	m.checkIns.WithLabelValues(result).Inc()
}

func (m *PrometheusMetrics) ConflictRetry() {
	m.retries.Inc()
}

func (m *PrometheusMetrics) LeaderboardBuilt(scope string, cached bool, elapsed time.Duration) {
	m.leaderboards.WithLabelValues(scope, strconv.FormatBool(cached)).Observe(elapsed.Seconds())
}

func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
