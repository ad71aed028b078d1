package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RowsLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherpipe_rows_loaded_total",
			Help: "Total observation rows read from raw input files",
		},
	)

	RowsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherpipe_rows_dropped_total",
			Help: "Total rows dropped during load due to unparseable dates",
		},
	)

	ValuesFilled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherpipe_values_filled_total",
			Help: "Total absent cells filled by the cleaner",
		},
		[]string{"column"},
	)

	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherpipe_runs_total",
			Help: "Pipeline runs by outcome",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "weatherpipe_run_duration_seconds",
			Help:    "End-to-end pipeline run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ChartsRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherpipe_charts_rendered_total",
			Help: "Chart artifacts rendered by kind",
		},
		[]string{"chart"},
	)

	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherpipe_fetches_total",
			Help: "Raw dataset fetches by scheme and status",
		},
		[]string{"scheme", "status"},
	)
)
