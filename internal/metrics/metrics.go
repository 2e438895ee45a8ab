package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttemptsTotal counts every submission attempt, first tries included
	AttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "txsubmit_attempts_total",
			Help: "Total number of submission attempts",
		},
	)

	// VerdictsTotal counts failure classifications by verdict
	VerdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txsubmit_verdicts_total",
			Help: "Total number of classified submission failures",
		},
		[]string{"verdict"},
	)

	// SubmissionsTotal counts finished Submit calls by outcome
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txsubmit_submissions_total",
			Help: "Total number of finished submissions",
		},
		[]string{"outcome"},
	)

	// SubmissionDuration tracks wall time of a Submit call
	SubmissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "txsubmit_submission_duration_seconds",
			Help:    "Submission wall time in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"outcome"},
	)

	// AttemptsPerSubmission tracks how many attempts a submission needed
	AttemptsPerSubmission = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "txsubmit_attempts_per_submission",
			Help:    "Number of attempts used per submission",
			Buckets: []float64{1, 2, 3, 4, 5, 8},
		},
	)

	// BackoffSeconds tracks applied retry delays
	BackoffSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "txsubmit_backoff_seconds",
			Help:    "Backoff delay applied before a retry in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RPCCallsTotal tracks ledger RPC calls per provider and method
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txsubmit_rpc_calls_total",
			Help: "Total number of ledger RPC calls",
		},
		[]string{"provider", "method"},
	)

	// RPCErrorsTotal tracks ledger RPC errors per provider
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "txsubmit_rpc_errors_total",
			Help: "Total number of ledger RPC errors",
		},
		[]string{"provider", "method"},
	)

	// RPCLatency tracks ledger RPC latency
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "txsubmit_rpc_latency_seconds",
			Help:    "Ledger RPC call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "method"},
	)
)

// DBConnectionPoolUsage tracks the share of open database connections
var DBConnectionPoolUsage = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "txsubmit_db_connection_pool_usage_percent",
		Help: "Open database connections as a percentage of the pool limit",
	},
)

// FailedQueueSize tracks submissions waiting for operator review
var FailedQueueSize = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "txsubmit_failed_queue_size",
		Help: "Number of failed submissions awaiting review",
	},
)
