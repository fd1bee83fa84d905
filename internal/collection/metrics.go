package collection

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeApplied  = "applied"
	outcomeRejected = "rejected"
	outcomeNoop     = "noop"
)

var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_collection_mutations_total",
			Help: "Collection mutations by operation and outcome",
		},
		[]string{"collection", "op", "outcome"},
	)

	collectionSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_collection_size",
			Help:    "Number of entries in a collection after an applied mutation",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
		[]string{"collection"},
	)

	persistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_collection_write_through_failures_total",
			Help: "Write-through saves that failed; in-memory state was kept",
		},
		[]string{"collection"},
	)
)
