package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run subsystem metrics, following an initX/registerX pair per
// subsystem, invoked once from Init.
var (
	// ScanDuration tracks how long a root's scan phase takes.
	ScanDuration prometheus.Histogram

	// AnalyzeDuration tracks how long a root's analyzer phase takes
	// (duplicate/orphan/reorganize/permissions/ownership combined).
	AnalyzeDuration prometheus.Histogram

	// ExecuteDuration tracks how long a root's executor phase takes.
	ExecuteDuration prometheus.Histogram

	// BytesMovedTotal tracks total bytes moved across all roots.
	BytesMovedTotal prometheus.Counter

	// OperationsAppliedTotal tracks applied Operations, labeled by kind.
	OperationsAppliedTotal *prometheus.CounterVec

	// OperationsSkippedTotal tracks skipped/declined Operations, labeled by kind.
	OperationsSkippedTotal *prometheus.CounterVec

	// OperationErrorsTotal tracks Operations that failed to apply, labeled by kind.
	OperationErrorsTotal *prometheus.CounterVec

	// LastRunTimestamp records the Unix timestamp of the last completed run.
	LastRunTimestamp prometheus.Gauge

	// RootBytesMovedTotal tracks bytes moved per scan root.
	RootBytesMovedTotal *prometheus.CounterVec
)

func initRunMetrics() {
	ScanDuration = NewDurationHistogram(
		"archivist_scan_duration_seconds",
		"Duration of the scan phase per root, in seconds.",
	)
	AnalyzeDuration = NewDurationHistogram(
		"archivist_analyze_duration_seconds",
		"Duration of the analyzer phase per root, in seconds.",
	)
	ExecuteDuration = NewDurationHistogram(
		"archivist_execute_duration_seconds",
		"Duration of the executor phase per root, in seconds.",
	)
	BytesMovedTotal = NewBytesCounter(
		"archivist_bytes_moved_total",
		"Total bytes moved by archivist across all roots.",
	)
	OperationsAppliedTotal = NewCounterVec(
		"archivist_operations_applied_total",
		"Total Operations applied, labeled by kind.",
		[]string{"kind"},
	)
	OperationsSkippedTotal = NewCounterVec(
		"archivist_operations_skipped_total",
		"Total Operations skipped or declined, labeled by kind.",
		[]string{"kind"},
	)
	OperationErrorsTotal = NewCounterVec(
		"archivist_operation_errors_total",
		"Total Operations that failed to apply, labeled by kind.",
		[]string{"kind"},
	)
	LastRunTimestamp = NewGauge(
		"archivist_last_run_timestamp",
		"Timestamp of the last completed run (Unix epoch seconds).",
	)
	RootBytesMovedTotal = NewCounterVec(
		"archivist_root_bytes_moved_total",
		"Total bytes moved per scan root.",
		[]string{"root"},
	)
}

func registerRunMetrics() {
	prometheus.MustRegister(ScanDuration)
	prometheus.MustRegister(AnalyzeDuration)
	prometheus.MustRegister(ExecuteDuration)
	prometheus.MustRegister(BytesMovedTotal)
	prometheus.MustRegister(OperationsAppliedTotal)
	prometheus.MustRegister(OperationsSkippedTotal)
	prometheus.MustRegister(OperationErrorsTotal)
	prometheus.MustRegister(LastRunTimestamp)
	prometheus.MustRegister(RootBytesMovedTotal)
}

// RecordRunComplete updates the last-run timestamp to now.
func RecordRunComplete() {
	LastRunTimestamp.Set(float64(time.Now().Unix()))
}

// RecordRootBytesMoved adds bytes to both the global and per-root counters.
func RecordRootBytesMoved(root string, bytes int64) {
	BytesMovedTotal.Add(float64(bytes))
	RootBytesMovedTotal.WithLabelValues(root).Add(float64(bytes))
}
