package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransactionsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraud_pipeline",
			Name:      "transactions_scored_total",
			Help:      "Scored transactions by risk level and scoring path",
		},
		[]string{"risk_level", "path"},
	)

	ModelFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraud_pipeline",
			Name:      "model_fallbacks_total",
			Help:      "Remote model calls recovered by the rule engine, by reason",
		},
		[]string{"reason"},
	)

	AlertsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fraud_pipeline",
			Name:      "alerts_emitted_total",
			Help:      "Fraud alerts created, by severity",
		},
		[]string{"severity"},
	)

	BehaviorUpdateFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fraud_pipeline",
			Name:      "behavior_update_failures_total",
			Help:      "Behavior profile updates that failed and were discarded",
		},
	)

	ScoringLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fraud_pipeline",
			Name:      "scoring_duration_seconds",
			Help:      "End-to-end latency of a transaction submission",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
