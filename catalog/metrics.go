package catalog

import "github.com/prometheus/client_golang/prometheus"

var (
	plannedJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eedl_jobs_planned_total",
			Help: "Total number of planned jobs, by mode",
		},
		[]string{"mode"},
	)

	skippedSamples = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "eedl_samples_skipped_total",
			Help: "Total number of mosaic samples without any image",
		},
	)
)

func init() {
	prometheus.MustRegister(plannedJobs, skippedSamples)
}
