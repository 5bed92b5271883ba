// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AdvisoryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisory_requests_total",
			Help: "Total number of advisory requests by function",
		},
		[]string{"function", "status"},
	)

	AdvisoryRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "advisory_request_duration_seconds",
			Help: "Duration of advisory request handling in seconds",
		},
		[]string{"function"},
	)

	CacheReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisory_cache_reads_total",
			Help: "Cache read outcomes by function",
		},
		[]string{"function", "outcome"},
	)

	ModelInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisory_model_invocations_total",
			Help: "Total number of generative model invocations",
		},
		[]string{"function", "status"},
	)

	NormalizerFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisory_normalizer_fallbacks_total",
			Help: "Completions that could not be parsed and fell back to raw text",
		},
		[]string{"function"},
	)

	SchemaMismatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisory_schema_mismatches_total",
			Help: "Normalized payloads that did not match the expected shape",
		},
		[]string{"function"},
	)
)
