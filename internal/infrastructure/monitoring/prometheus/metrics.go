// Package prometheus exposes application metrics for the API server and
// analysis workers.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	analysisDurationBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}
)

// Metrics holds every metric the application records.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	AnalysesTotal         *prometheus.CounterVec
	AnalysisStageDuration *prometheus.HistogramVec
	AnalysisRiskScore     prometheus.Histogram

	ProviderCallsTotal   *prometheus.CounterVec
	ProviderCallDuration *prometheus.HistogramVec

	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	QueuePublishedTotal *prometheus.CounterVec
	QueueConsumedTotal  *prometheus.CounterVec
}

// NewMetrics registers all metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clauselens_http_requests_total",
			Help: "Total HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clauselens_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "route"}),

		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clauselens_analyses_total",
			Help: "Completed analyses by document type and outcome.",
		}, []string{"document_type", "outcome"}),
		AnalysisStageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clauselens_analysis_stage_duration_seconds",
			Help:    "Duration of each analysis pipeline stage.",
			Buckets: analysisDurationBuckets,
		}, []string{"stage"}),
		AnalysisRiskScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "clauselens_analysis_risk_score",
			Help:    "Distribution of overall risk scores.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),

		ProviderCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clauselens_provider_calls_total",
			Help: "NLP provider calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		ProviderCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clauselens_provider_call_duration_seconds",
			Help:    "NLP provider call latency.",
			Buckets: httpDurationBuckets,
		}, []string{"operation"}),

		CacheHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clauselens_cache_hits_total",
			Help: "Cache hits by cache name.",
		}, []string{"cache"}),
		CacheMissesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clauselens_cache_misses_total",
			Help: "Cache misses by cache name.",
		}, []string{"cache"}),

		QueuePublishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clauselens_queue_published_total",
			Help: "Messages published by topic.",
		}, []string{"topic"}),
		QueueConsumedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clauselens_queue_consumed_total",
			Help: "Messages consumed by topic and outcome.",
		}, []string{"topic", "outcome"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AnalysesTotal,
		m.AnalysisStageDuration,
		m.AnalysisRiskScore,
		m.ProviderCallsTotal,
		m.ProviderCallDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.QueuePublishedTotal,
		m.QueueConsumedTotal,
	)
	return m
}

// Registry returns the registry backing the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveAnalysisStage implements the pipeline stage observer.
func (m *Metrics) ObserveAnalysisStage(stage string, elapsed time.Duration) {
	m.AnalysisStageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// RecordAnalysis records a completed analysis.
func (m *Metrics) RecordAnalysis(documentType string, riskScore float64, succeeded bool) {
	outcome := "success"
	if !succeeded {
		outcome = "failure"
	}
	if documentType == "" {
		documentType = "unknown"
	}
	m.AnalysesTotal.WithLabelValues(documentType, outcome).Inc()
	if succeeded {
		m.AnalysisRiskScore.Observe(riskScore)
	}
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
