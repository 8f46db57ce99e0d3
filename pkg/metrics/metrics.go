package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ScreeningsTotal counts completed screenings by terminal recommendation.
var ScreeningsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tradegate_screenings_total",
		Help: "Total entity screenings by recommendation",
	},
	[]string{"recommendation"},
)

// ScreeningLatency records latency distribution for single-entity screening.
var ScreeningLatency = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "tradegate_screening_latency_seconds",
		Help:    "Latency in seconds to screen a single entity",
		Buckets: prometheus.DefBuckets,
	},
)

// ScoringsTotal counts completed risk scorings by category.
var ScoringsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tradegate_scorings_total",
		Help: "Total entity risk scorings by category",
	},
	[]string{"category"},
)

// SanctionsMatches counts sanctions hits by match type.
var SanctionsMatches = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tradegate_sanctions_matches_total",
		Help: "Total sanctions matches by match type",
	},
	[]string{"match_type"},
)

// Batch pipeline metrics
var (
	BatchEntities = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradegate_batch_entities_total",
			Help: "Entities processed by batch pipelines, by outcome",
		},
		[]string{"outcome"},
	)

	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tradegate_batch_duration_seconds",
			Help:    "Wall-clock duration of batch runs",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	StoreRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tradegate_store_retries_total",
			Help: "Store queries retried on a fresh session after a connectivity failure",
		},
	)
)

func init() {
	prometheus.MustRegister(ScreeningsTotal, ScreeningLatency)
	prometheus.MustRegister(ScoringsTotal, SanctionsMatches)
	prometheus.MustRegister(BatchEntities, BatchDuration, StoreRetries)
}
