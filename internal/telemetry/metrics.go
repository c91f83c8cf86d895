package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTPRequestDuration tracks HTTP request latency across identity,
// registry, and jobs-coordinator modes.
var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "xpkg",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "path", "status"},
)

// UploadsSubmittedTotal counts accepted upload pre-checks (spec.md §4.4),
// before the worker pipeline runs.
var UploadsSubmittedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "xpkg",
		Subsystem: "uploads",
		Name:      "submitted_total",
		Help:      "Total number of uploads that passed pre-checks and were staged.",
	},
)

// VersionStatusTotal counts version terminal states written by the worker
// pipeline, labeled by the resulting status (spec.md §3's state machine).
var VersionStatusTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "xpkg",
		Subsystem: "versions",
		Name:      "status_total",
		Help:      "Total number of versions reaching each terminal status.",
	},
	[]string{"status"},
)

// WorkerPipelineDuration tracks how long a worker pipeline run takes end to
// end, labeled by outcome (processed, aborted, failed).
var WorkerPipelineDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "xpkg",
		Subsystem: "worker",
		Name:      "pipeline_duration_seconds",
		Help:      "Worker pipeline run duration in seconds.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
	},
	[]string{"outcome"},
)

// JobsAbortedTotal counts jobs the coordinator aborted for exceeding their
// timeout (spec.md §4.5).
var JobsAbortedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "xpkg",
		Subsystem: "jobs",
		Name:      "aborted_total",
		Help:      "Total number of jobs aborted by the coordinator for exceeding their timeout.",
	},
)

// JobsActive tracks how many jobs the coordinator currently has in flight.
var JobsActive = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "xpkg",
		Subsystem: "jobs",
		Name:      "active",
		Help:      "Number of jobs currently tracked by the coordinator.",
	},
)

// CatalogRebuildDuration tracks how long a catalog snapshot rebuild takes
// (spec.md §4.4's periodic task).
var CatalogRebuildDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "xpkg",
		Subsystem: "catalog",
		Name:      "rebuild_duration_seconds",
		Help:      "Catalog snapshot rebuild duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
)

// CatalogRebuildFailuresTotal counts failed catalog rebuild attempts.
var CatalogRebuildFailuresTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "xpkg",
		Subsystem: "catalog",
		Name:      "rebuild_failures_total",
		Help:      "Total number of catalog rebuild attempts that failed.",
	},
)

// All returns every X-Pkg-specific collector for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		HTTPRequestDuration,
		UploadsSubmittedTotal,
		VersionStatusTotal,
		WorkerPipelineDuration,
		JobsAbortedTotal,
		JobsActive,
		CatalogRebuildDuration,
		CatalogRebuildFailuresTotal,
	}
}

// NewMetricsRegistry creates a Prometheus registry with Go/process
// collectors and every X-Pkg-specific metric registered.
func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	for _, c := range All() {
		reg.MustRegister(c)
	}
	return reg
}
