package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	apiRequestsTotal    *prometheus.CounterVec
	apiLatencySeconds   *prometheus.HistogramVec
	apiErrorsTotal      *prometheus.CounterVec
	auditRecordsTotal   *prometheus.CounterVec
	sequenceAssignments *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API and the audit trail.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		auditRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_records_total",
			Help: "Audit record write attempts by entity kind, action and outcome.",
		}, []string{"entity_kind", "action", "outcome"})

		sequenceAssignments = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sequence_assignments_total",
			Help: "Identifiers handed out per sequence kind and backend.",
		}, []string{"kind", "backend"})

		prometheus.MustRegister(apiRequestsTotal, apiLatencySeconds, apiErrorsTotal, auditRecordsTotal, sequenceAssignments)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// AuditRecords exposes the counter for audit record writes.
func AuditRecords() *prometheus.CounterVec {
	RegisterMetrics()
	return auditRecordsTotal
}

// SequenceAssignments exposes the counter for issued identifiers.
func SequenceAssignments() *prometheus.CounterVec {
	RegisterMetrics()
	return sequenceAssignments
}
