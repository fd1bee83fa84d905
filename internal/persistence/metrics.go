package persistence

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	outcomeOK      = "ok"
	outcomeAbsent  = "absent"
	outcomeCorrupt = "corrupt"
	outcomeError   = "error"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_persistence_operations_total",
			Help: "Slot loads and saves by outcome",
		},
		[]string{"slot", "op", "outcome"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_persistence_duration_seconds",
			Help:    "Slot load and save latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)
