package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crimelense_session_operations_total",
		Help: "Session store mutations by operation and result.",
	}, []string{"op", "result"})

	corruptionRecoveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crimelense_session_corruption_recovered_total",
		Help: "Corrupt durable session records purged at startup.",
	})
)
