package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crimelense_analysis_submits_total",
		Help: "Analysis submissions by workflow and validation result.",
	}, []string{"workflow", "result"})

	outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crimelense_analysis_outcomes_total",
		Help: "Applied analysis results by workflow and terminal phase.",
	}, []string{"workflow", "phase"})

	staleDiscardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crimelense_analysis_stale_discarded_total",
		Help: "Responses dropped because a newer submission or reset superseded them.",
	}, []string{"workflow"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crimelense_analysis_request_duration_seconds",
		Help:    "Time from dispatch to resolution of analysis service calls.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
	}, []string{"workflow"})
)
