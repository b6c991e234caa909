package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	SearchesTotal    *prometheus.CounterVec
	SearchDuration   *prometheus.HistogramVec
	SearchesInFlight prometheus.Gauge

	AttemptsTotal     prometheus.Counter
	TransitionsTotal  *prometheus.CounterVec
	ValidatedProducts prometheus.Counter

	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec

	WebSearchRequestsTotal   *prometheus.CounterVec
	WebSearchRequestDuration *prometheus.HistogramVec

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		SearchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "product_search_runs_total",
				Help: "Total number of search runs completed",
			},
			[]string{"status"},
		),
		SearchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "product_search_run_duration_seconds",
				Help:    "Search run duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{},
		),
		SearchesInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "product_search_runs_in_flight",
				Help: "Number of search runs currently executing",
			},
		),

		AttemptsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "product_search_attempts_total",
				Help: "Total number of extraction attempts across all runs",
			},
		),
		TransitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "product_search_transitions_total",
				Help: "Router decisions by transition",
			},
			[]string{"transition"},
		),
		ValidatedProducts: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "product_search_validated_products_total",
				Help: "Total number of products accepted by validation",
			},
		),

		LLMRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "product_search_llm_requests_total",
				Help: "Total number of LLM API requests",
			},
			[]string{"provider", "status"},
		),
		LLMRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "product_search_llm_request_duration_seconds",
				Help:    "LLM request duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),

		WebSearchRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "product_search_web_requests_total",
				Help: "Total number of web search API requests",
			},
			[]string{"status"},
		),
		WebSearchRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "product_search_web_request_duration_seconds",
				Help:    "Web search request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{},
		),

		CacheHitsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "product_search_cache_hits_total",
				Help: "Total number of cache hits",
			},
		),
		CacheMissesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "product_search_cache_misses_total",
				Help: "Total number of cache misses",
			},
		),
	}

	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) RecordSearch(status string, duration time.Duration) {
	m.SearchesTotal.WithLabelValues(status).Inc()
	m.SearchDuration.WithLabelValues().Observe(duration.Seconds())
}

func (m *Metrics) RecordAttempt() {
	m.AttemptsTotal.Inc()
}

func (m *Metrics) RecordTransition(transition string) {
	m.TransitionsTotal.WithLabelValues(transition).Inc()
}

func (m *Metrics) RecordValidatedProducts(count int) {
	m.ValidatedProducts.Add(float64(count))
}

func (m *Metrics) RecordLLMRequest(provider, status string, duration time.Duration) {
	m.LLMRequestsTotal.WithLabelValues(provider, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Metrics) RecordSearchRequest(status string, duration time.Duration) {
	m.WebSearchRequestsTotal.WithLabelValues(status).Inc()
	m.WebSearchRequestDuration.WithLabelValues().Observe(duration.Seconds())
}

func (m *Metrics) RecordCacheHit() {
	m.CacheHitsTotal.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	m.CacheMissesTotal.Inc()
}

func (m *Metrics) IncSearchesInFlight() {
	m.SearchesInFlight.Inc()
}

func (m *Metrics) DecSearchesInFlight() {
	m.SearchesInFlight.Dec()
}
