package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Directory Prometheus metrics.
var (
	DirectoryRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "partnerdex",
			Name:      "directory_refresh_total",
			Help:      "Total number of directory refreshes by the source that was published",
		},
		[]string{"source"}, // "primary" / "fallback" / "none"
	)

	DirectoryFetchErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "partnerdex",
			Name:      "directory_fetch_errors_total",
			Help:      "Total primary collection fetch failures",
		},
	)

	DirectorySkippedRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "partnerdex",
			Name:      "directory_skipped_rows_total",
			Help:      "Total malformed primary rows dropped at the fetch boundary",
		},
	)

	DirectoryEntities = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "partnerdex",
			Name:      "directory_entities",
			Help:      "Number of entities in the published snapshot",
		},
	)

	DirectoryLastRefresh = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "partnerdex",
			Name:      "directory_last_refresh_timestamp_seconds",
			Help:      "Unix time of the last published snapshot",
		},
	)

	DirectoryRefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "partnerdex",
			Name:      "directory_refresh_duration_seconds",
			Help:      "Directory refresh duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	SearchFilterDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "partnerdex",
			Name:      "search_filter_duration_seconds",
			Help:      "Search pipeline evaluation duration in seconds",
			Buckets:   []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)
)

var registerDirectoryOnce sync.Once

// RegisterDirectoryMetrics registers Prometheus directory metrics on the default registry.
// Safe to call more than once and from several goroutines.
func RegisterDirectoryMetrics() {
	registerDirectoryOnce.Do(func() {
		prometheus.MustRegister(
			DirectoryRefreshTotal,
			DirectoryFetchErrorsTotal,
			DirectorySkippedRowsTotal,
			DirectoryEntities,
			DirectoryLastRefresh,
			DirectoryRefreshDuration,
			SearchFilterDuration,
		)
	})
}
