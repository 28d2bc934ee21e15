// Package observability provides Prometheus metrics and tracing for the
// verification pipeline.
//
// A nil *Metrics is valid and records nothing, so collaborators and tests
// can run without a registry.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const metricsNamespace = "claimtrace"

// Stage labels
const (
	StageExtract  = "extract"
	StageCache    = "cache"
	StageQuality  = "quality"
	StageReason   = "reason"
	StageSubClaim = "subclaim"
	StageTrust    = "trust"
	StageExplain  = "explain"
)

// Tracer returns the pipeline tracer. Without a configured provider the
// global no-op tracer is used.
func Tracer() trace.Tracer {
	return otel.Tracer("claimtrace/pipeline")
}

// Metrics holds the pipeline's Prometheus collectors
type Metrics struct {
	// ClaimsTotal counts finished claims by status
	ClaimsTotal *prometheus.CounterVec

	// StageFailuresTotal counts collaborator failures by stage and error kind
	StageFailuresTotal *prometheus.CounterVec

	// StageDurationSeconds measures collaborator latency by stage
	StageDurationSeconds *prometheus.HistogramVec

	// SubClaimExpansionsTotal counts claims whose sub-claims were verified
	SubClaimExpansionsTotal prometheus.Counter

	// BatchesTotal counts batches by outcome
	BatchesTotal *prometheus.CounterVec

	// HTTPRequestsTotal counts API requests by route and status code
	HTTPRequestsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ClaimsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "claims_total",
			Help:      "Verified claims by final status",
		}, []string{"status"}),

		StageFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "stage_failures_total",
			Help:      "Collaborator failures by stage and error kind",
		}, []string{"stage", "kind"}),

		StageDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "stage_duration_seconds",
			Help:      "Collaborator call latency by stage",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),

		SubClaimExpansionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "subclaim_expansions_total",
			Help:      "Claims that were decomposed into sub-claims",
		}),

		BatchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "batches_total",
			Help:      "Batches by outcome",
		}, []string{"outcome"}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "API requests by route and status code",
		}, []string{"route", "code"}),
	}
}

// RecordClaim counts a finished claim
func (m *Metrics) RecordClaim(status string) {
	if m == nil {
		return
	}
	m.ClaimsTotal.WithLabelValues(status).Inc()
}

// RecordStage observes one collaborator call. kind is empty on success.
func (m *Metrics) RecordStage(stage string, d time.Duration, kind string) {
	if m == nil {
		return
	}
	m.StageDurationSeconds.WithLabelValues(stage).Observe(d.Seconds())
	if kind != "" {
		m.StageFailuresTotal.WithLabelValues(stage, kind).Inc()
	}
}

// RecordExpansion counts a sub-claim expansion
func (m *Metrics) RecordExpansion() {
	if m == nil {
		return
	}
	m.SubClaimExpansionsTotal.Inc()
}

// RecordBatch counts a finished batch
func (m *Metrics) RecordBatch(outcome string) {
	if m == nil {
		return
	}
	m.BatchesTotal.WithLabelValues(outcome).Inc()
}

// RecordHTTP counts an API request
func (m *Metrics) RecordHTTP(route string, code string) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, code).Inc()
}
