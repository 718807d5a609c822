// Package telemetry holds the prometheus collectors for backtest runs,
// market data access and the HTTP surface.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a set of collectors registered on a private registry so that
// several instances can coexist in one process (tests, embedded servers).
type Metrics struct {
	registry *prometheus.Registry

	RunDuration    *prometheus.HistogramVec
	Runs           *prometheus.CounterVec
	PartialResults prometheus.Counter
	Assessments    *prometheus.CounterVec

	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	ProviderErrors *prometheus.CounterVec
	BreakerState   prometheus.Gauge

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "riskbench_run_duration_seconds",
				Help:    "Wall time of a single backtest run",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"backend", "status"},
		),
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskbench_runs_total",
				Help: "Backtest runs by backend and status",
			},
			[]string{"backend", "status"},
		),
		PartialResults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riskbench_partial_results_total",
			Help: "Backtest results flagged partial",
		}),
		Assessments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskbench_assessments_total",
				Help: "Risk assessments by risk level",
			},
			[]string{"level"},
		),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riskbench_bar_cache_hits_total",
			Help: "Bar cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riskbench_bar_cache_misses_total",
			Help: "Bar cache misses",
		}),
		ProviderErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskbench_provider_errors_total",
				Help: "Market data provider failures by kind",
			},
			[]string{"kind"},
		),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "riskbench_provider_breaker_state",
			Help: "Provider circuit breaker state (0=closed, 1=half-open, 2=open)",
		}),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskbench_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "method", "code"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "riskbench_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}

	m.registry.MustRegister(
		m.RunDuration,
		m.Runs,
		m.PartialResults,
		m.Assessments,
		m.CacheHits,
		m.CacheMisses,
		m.ProviderErrors,
		m.BreakerState,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// ObserveRun records one finished run. A nil receiver is a no-op so callers
// can leave telemetry unset.
func (m *Metrics) ObserveRun(backend string, partial bool, d time.Duration) {
	if m == nil {
		return
	}
	status := "complete"
	if partial {
		status = "partial"
		m.PartialResults.Inc()
	}
	m.Runs.WithLabelValues(backend, status).Inc()
	m.RunDuration.WithLabelValues(backend, status).Observe(d.Seconds())
}

func (m *Metrics) ObserveAssessment(level string) {
	if m == nil {
		return
	}
	m.Assessments.WithLabelValues(level).Inc()
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

func (m *Metrics) ProviderError(kind string) {
	if m != nil {
		m.ProviderErrors.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) SetBreakerState(state int) {
	if m != nil {
		m.BreakerState.Set(float64(state))
	}
}

func (m *Metrics) ObserveHTTP(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
