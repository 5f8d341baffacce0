// Package metrics exposes lendscore Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opensource-finance/lendscore/internal/domain"
)

// Metrics holds the collectors of one service instance on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	assessments     *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	loanAmount      prometheus.Histogram
	rateLimited     prometheus.Counter
}

// New creates and registers all collectors, plus the Go and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lendscore",
				Name:      "http_requests_total",
				Help:      "HTTP requests by route, method and status code.",
			},
			[]string{"route", "method", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "lendscore",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		assessments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lendscore",
				Name:      "assessments_total",
				Help:      "Completed assessments by recommendation tier and source.",
			},
			[]string{"tier", "source"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lendscore",
				Name:      "assessments_rejected_total",
				Help:      "Scoring requests rejected by validation, by source.",
			},
			[]string{"source"},
		),
		loanAmount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "lendscore",
				Name:      "final_loan_amount",
				Help:      "Final loan amount offered, in currency units.",
				Buckets:   []float64{1000, 5000, 10000, 25000, 50000, 75000, 100000},
			},
		),
		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lendscore",
				Name:      "http_rate_limited_total",
				Help:      "Requests rejected by the rate limiter.",
			},
		),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.assessments,
		m.rejections,
		m.loanAmount,
		m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, method string, code int, d time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// ObserveAssessment records a completed assessment.
func (m *Metrics) ObserveAssessment(a *domain.Assessment) {
	m.assessments.WithLabelValues(a.Result.Tier, a.Metadata.Source).Inc()
	m.loanAmount.Observe(float64(a.Analysis.LoanCapacity))
}

// ObserveRejection records a request rejected by validation.
func (m *Metrics) ObserveRejection(source string) {
	m.rejections.WithLabelValues(source).Inc()
}

// ObserveRateLimited records a request refused by the rate limiter.
func (m *Metrics) ObserveRateLimited() {
	m.rateLimited.Inc()
}
