package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesIngested counts per-message pipeline outcomes by channel (sms|mail) and outcome (stored|duplicate|failed).
	MessagesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_messages_ingested_total",
			Help: "Total number of messages processed by the ingestion pipeline",
		},
		[]string{"channel", "outcome"},
	)

	// ClassifierFallbacks counts classifications that returned the neutral default.
	ClassifierFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_classifier_fallbacks_total",
			Help: "Total number of classifier calls that fell back to the neutral result",
		},
		[]string{"reason"},
	)

	// ClassifierLatency measures round trips to the scoring service.
	ClassifierLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aegis_classifier_latency_seconds",
			Help:    "Risk classifier call latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 25},
		},
	)

	// PushDeliveries counts per-token push results (success|failure).
	PushDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_push_deliveries_total",
			Help: "Total number of per-token push delivery results",
		},
		[]string{"result"},
	)

	// NotificationsSuppressed counts alerts skipped by the user's preference.
	NotificationsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aegis_notifications_suppressed_total",
			Help: "Total number of notifications suppressed by preference",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aegis_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
