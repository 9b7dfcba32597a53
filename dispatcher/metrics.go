package dispatcher

import "github.com/prometheus/client_golang/prometheus"

var (
	dispatchedJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eedl_jobs_dispatched_total",
			Help: "Total number of dispatched jobs, by mode and status",
		},
		[]string{"mode", "status"},
	)

	exportedJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eedl_exports_done_total",
			Help: "Total number of asynchronous exports done, by final state",
		},
		[]string{"state"},
	)

	downloadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eedl_download_duration_seconds",
			Help:    "Duration of the raster downloads",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(dispatchedJobs, exportedJobs, downloadDuration)
}
