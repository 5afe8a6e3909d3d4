// Package observability exposes Prometheus collectors for the HTTP surface
// and for ingestion outcomes.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks total number of HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	// ActiveRequests tracks currently active requests
	ActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ingest_http_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"path"},
	)

	// MappingSuggestionsTotal counts suggested column mappings by confidence
	MappingSuggestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_mapping_suggestions_total",
			Help: "Total number of suggested column mappings by confidence bucket",
		},
		[]string{"confidence"},
	)

	// RowsNormalizedTotal counts rows successfully normalized
	RowsNormalizedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_rows_normalized_total",
			Help: "Total number of rows successfully normalized",
		},
	)

	// RowsFlaggedTotal counts rows flagged for review
	RowsFlaggedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_rows_flagged_total",
			Help: "Total number of rows flagged during normalization",
		},
	)

	// TransferPairsTotal counts suggested transfer pairs
	TransferPairsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_transfer_pairs_total",
			Help: "Total number of transfer pair candidates detected",
		},
	)
)

// RecordMappingSuggestion counts one suggested mapping by confidence bucket.
func RecordMappingSuggestion(confidence string) {
	MappingSuggestionsTotal.WithLabelValues(confidence).Inc()
}

// RecordNormalizedRows counts the outcome of one normalization run.
func RecordNormalizedRows(normalized, flagged int) {
	RowsNormalizedTotal.Add(float64(normalized))
	RowsFlaggedTotal.Add(float64(flagged))
}

// RecordTransferPairs counts detected transfer pair candidates.
func RecordTransferPairs(pairs int) {
	TransferPairsTotal.Add(float64(pairs))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// NewMetricsMiddleware wraps a handler and collects Prometheus metrics for
// every request it serves.
func NewMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		ActiveRequests.WithLabelValues(path).Inc()
		defer ActiveRequests.WithLabelValues(path).Dec()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		RequestDuration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(rec.status)).Inc()
	})
}
