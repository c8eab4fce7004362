package metrics

import "github.com/prometheus/client_golang/prometheus"

// Scatter-gather search metrics.
var (
	ShardQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campusrag",
			Name:      "shard_queries_total",
			Help:      "Per-shard query outcomes",
		},
		[]string{"status"}, // "ok" / "timeout" / "error"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "campusrag",
			Name:      "search_duration_seconds",
			Help:      "End-to-end scatter-gather search duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
		[]string{},
	)

	SearchHitsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "campusrag",
			Name:      "search_hits_returned",
			Help:      "Ranked hits returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	DirectoryRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campusrag",
			Name:      "directory_refresh_total",
			Help:      "Shard directory refresh outcomes",
		},
		[]string{"status"}, // "ok" / "partial" / "fallback"
	)

	DirectoryShards = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "campusrag",
			Name:      "directory_shards",
			Help:      "Number of shards in the directory cache",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search metrics. Called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(ShardQueriesTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchHitsReturned)
	prometheus.MustRegister(DirectoryRefreshTotal)
	prometheus.MustRegister(DirectoryShards)
	searchMetricsRegistered = true
}
