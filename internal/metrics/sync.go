package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Index sync and search Prometheus metrics.
var (
	IndexSyncTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_sync_total",
			Help:      "Vector index sync operations by op and status",
		},
		[]string{"op", "status"}, // op: upsert/remove, status: ok/error
	)

	IndexSyncDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_sync_duration_seconds",
			Help:      "Vector index sync duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_total",
			Help:      "Answered searches by the path that produced the results",
		},
		[]string{"method"}, // vector/text
	)

	SearchFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_fallback_total",
			Help:      "Searches that fell back to lexical matching, by reason",
		},
		[]string{"reason"},
	)

	ReindexStylesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reindex_styles_total",
			Help:      "Styles processed by bulk reindex runs",
		},
		[]string{"status"},
	)
)

var registerSyncOnce sync.Once

// RegisterSyncMetrics registers index sync, search and reindex metrics. Safe to call more than once.
func RegisterSyncMetrics() {
	registerSyncOnce.Do(func() {
		prometheus.MustRegister(
			IndexSyncTotal,
			IndexSyncDuration,
			SearchTotal,
			SearchFallbackTotal,
			ReindexStylesTotal,
		)
	})
}
