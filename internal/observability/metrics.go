package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riskibarqy/typer-league/internal/platform/resilience"
	"github.com/riskibarqy/typer-league/internal/usecase"
)

const metricsNamespace = "typer_league"

// Metrics owns a private registry so tests and multiple app instances do not
// collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	recomputeDuration *prometheus.HistogramVec
	recomputes        *prometheus.CounterVec
	users             prometheus.Gauge

	feedSyncs              *prometheus.CounterVec
	feedResultsRecorded    prometheus.Counter
	feedSubmissionsCreated prometheus.Counter
	feedSkipped            *prometheus.CounterVec
	feedCircuitState       *prometheus.GaugeVec
	feedCircuitTransitions *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	auto := promauto.With(registry)

	m := &Metrics{registry: registry}
	m.recomputeDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "leaderboard",
		Name:      "recompute_duration_seconds",
		Help:      "Duration of leaderboard refreshes.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"changed"})
	m.recomputes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "leaderboard",
		Name:      "refresh_total",
		Help:      "Leaderboard refreshes by whether a new snapshot was produced.",
	}, []string{"changed"})
	m.users = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "leaderboard",
		Name:      "users",
		Help:      "Users in the latest leaderboard refresh.",
	})

	m.feedSyncs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "feed",
		Name:      "sync_total",
		Help:      "Feed sync runs by status.",
	}, []string{"status"})
	m.feedResultsRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "feed",
		Name:      "results_recorded_total",
		Help:      "Match results recorded from the feed.",
	})
	m.feedSubmissionsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "feed",
		Name:      "submissions_created_total",
		Help:      "Submissions imported from the feed.",
	})
	m.feedSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "feed",
		Name:      "skipped_total",
		Help:      "Feed items skipped by kind.",
	}, []string{"kind"})
	m.feedCircuitState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "feed",
		Name:      "circuit_state",
		Help:      "1 for the current circuit breaker state of the feed client.",
	}, []string{"state"})
	m.feedCircuitTransitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "feed",
		Name:      "circuit_transitions_total",
		Help:      "Circuit breaker transitions of the feed client.",
	}, []string{"from", "to"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	m.setCircuitState(resilience.CircuitStateClosed)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRecompute(duration time.Duration, users int, changed bool) {
	label := strconv.FormatBool(changed)
	m.recomputeDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.recomputes.WithLabelValues(label).Inc()
	m.users.Set(float64(users))
}

func (m *Metrics) ObserveFeedSync(result usecase.FeedSyncResult, err error) {
	if err != nil {
		m.feedSyncs.WithLabelValues("error").Inc()
		return
	}
	m.feedSyncs.WithLabelValues("ok").Inc()
	m.feedResultsRecorded.Add(float64(result.ResultsRecorded))
	m.feedSubmissionsCreated.Add(float64(result.SubmissionsCreated))
	m.feedSkipped.WithLabelValues("result").Add(float64(result.ResultsSkipped))
	m.feedSkipped.WithLabelValues("submission").Add(float64(result.SubmissionsSkipped))
}

// ObserveCircuitTransition matches resilience.StateListener.
func (m *Metrics) ObserveCircuitTransition(from, to resilience.CircuitState) {
	m.feedCircuitTransitions.WithLabelValues(string(from), string(to)).Inc()
	m.setCircuitState(to)
}

func (m *Metrics) ObserveHTTPRequest(route, method string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

func (m *Metrics) setCircuitState(current resilience.CircuitState) {
	for _, state := range []resilience.CircuitState{
		resilience.CircuitStateClosed,
		resilience.CircuitStateOpen,
		resilience.CircuitStateHalfOpen,
	} {
		value := 0.0
		if state == current {
			value = 1
		}
		m.feedCircuitState.WithLabelValues(string(state)).Set(value)
	}
}
