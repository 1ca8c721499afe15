package graph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passnet",
		Subsystem: "graph",
		Name:      "imports_total",
		Help:      "Match imports by outcome.",
	}, []string{"status"})

	importedPasses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "passnet",
		Subsystem: "graph",
		Name:      "imported_passes_total",
		Help:      "Pass edges written by successful imports.",
	})

	importedTeams = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "passnet",
		Subsystem: "graph",
		Name:      "imported_teams_total",
		Help:      "Teams linked by successful imports.",
	})

	importDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "passnet",
		Subsystem: "graph",
		Name:      "import_duration_seconds",
		Help:      "Full materialization transaction time.",
		Buckets:   prometheus.DefBuckets,
	})

	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "passnet",
		Subsystem: "graph",
		Name:      "query_duration_seconds",
		Help:      "Aggregation query time by query name.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"query"})

	queryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passnet",
		Subsystem: "graph",
		Name:      "query_errors_total",
		Help:      "Aggregation query failures by query name.",
	}, []string{"query"})
)

// observeQuery records latency and failure for one read operation.
func observeQuery(name string, start time.Time, err error) {
	queryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		queryErrors.WithLabelValues(name).Inc()
	}
}
