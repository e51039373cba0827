package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysisRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "effort_analysis_requests_total",
			Help: "Analysis operations by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "effort_analysis_duration_seconds",
			Help:    "Duration of analysis operations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"operation"},
	)

	MatchedWords = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "effort_alignment_matched_words",
			Help:    "Query words matched to the reference corpus per request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200, 400},
		},
		[]string{"operation", "path"},
	)

	DatasetLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "effort_dataset_loads_total",
			Help: "Reference dataset load attempts by outcome",
		},
		[]string{"source", "status"},
	)

	DatasetRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "effort_dataset_rows",
			Help: "Rows in the loaded reference dataset",
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "effort_cache_lookups_total",
			Help: "Result cache lookups by namespace and result",
		},
		[]string{"namespace", "result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "effort_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)
