package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
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

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

var (
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Total number of search requests by operation",
		},
		[]string{"operation"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_duration_seconds",
			Help:    "Search latency by operation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	SearchResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_results_count",
			Help:    "Number of repairers returned per search",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
		[]string{"operation"},
	)

	SearchFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "search_fallback_total",
			Help: "Searches whose parsed intent was below the confidence threshold",
		},
	)

	SearchDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_degraded_total",
			Help: "Searches answered with an empty result because the directory failed",
		},
		[]string{"operation"},
	)

	DirectoryStoreErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "directory_store_errors_total",
			Help: "Directory store query failures",
		},
	)

	QueryLogWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_log_writes_total",
			Help: "Query log write attempts by outcome (ok, error, dropped)",
		},
		[]string{"outcome"},
	)

	LevelCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "level_cache_lookups_total",
			Help: "Repairer level cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)
