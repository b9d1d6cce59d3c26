// Package metrics defines the Prometheus collectors exported by rfmapper.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Submission outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Registry holds every rfmapper collector plus the Go and process collectors.
var Registry = prometheus.NewRegistry()

var (
	// TicksTotal counts aggregation loop iterations.
	TicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rfmapper_ticks_total",
			Help: "Total number of aggregation loop iterations.",
		},
	)

	// SubmissionsTotal counts submissions by outcome (success/failure).
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfmapper_submissions_total",
			Help: "Total number of payload submissions by outcome.",
		},
		[]string{"outcome"},
	)

	// SubmissionLatency records how long one submission call took.
	SubmissionLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rfmapper_submission_latency_seconds",
			Help:    "Latency of a single payload submission.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// PayloadIndex is the index the next payload will carry.
	PayloadIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rfmapper_payload_index",
			Help: "Index carried by the next payload.",
		},
	)

	// SourceReady reports per source kind whether the last tick read data (1) or not (0).
	SourceReady = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rfmapper_source_ready",
			Help: "Whether the source delivered a sample on the last tick (1=ready, 0=not ready).",
		},
		[]string{"source"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		TicksTotal,
		SubmissionsTotal,
		SubmissionLatency,
		PayloadIndex,
		SourceReady,
	)
}
