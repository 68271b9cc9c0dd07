// Package metrics defines the Prometheus metrics exported by the host.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search and activation metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qsmath",
			Name:      "searches_total",
			Help:      "Total number of plugin searches",
		},
		[]string{"plugin", "outcome"}, // "results" / "empty"
	)

	SearchResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qsmath",
			Name:      "search_results_total",
			Help:      "Total number of results returned by plugins",
		},
		[]string{"plugin"},
	)

	ExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qsmath",
			Name:      "executions_total",
			Help:      "Total number of result activations",
		},
		[]string{"plugin"},
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qsmath",
			Name:      "cache_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

func init() {
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchResultsTotal)
	prometheus.MustRegister(ExecutionsTotal)
	prometheus.MustRegister(CacheTotal)
}
