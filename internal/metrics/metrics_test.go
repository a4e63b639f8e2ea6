package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestMetricsInit verifies that Init() is idempotent and registers metrics.
func TestMetricsInit(t *testing.T) {
	Init()
	Init()
	Init()

	if ScanDuration == nil {
		t.Error("ScanDuration should be initialized")
	}
	if AnalyzeDuration == nil {
		t.Error("AnalyzeDuration should be initialized")
	}
	if ExecuteDuration == nil {
		t.Error("ExecuteDuration should be initialized")
	}
	if BytesMovedTotal == nil {
		t.Error("BytesMovedTotal should be initialized")
	}
	if OperationsAppliedTotal == nil {
		t.Error("OperationsAppliedTotal should be initialized")
	}
	if OperationsSkippedTotal == nil {
		t.Error("OperationsSkippedTotal should be initialized")
	}
	if OperationErrorsTotal == nil {
		t.Error("OperationErrorsTotal should be initialized")
	}
	if LastRunTimestamp == nil {
		t.Error("LastRunTimestamp should be initialized")
	}
	if RootBytesMovedTotal == nil {
		t.Error("RootBytesMovedTotal should be initialized")
	}

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	if len(mfs) == 0 {
		t.Error("expected at least one registered metric family")
	}
}

func TestRecordRootBytesMoved(t *testing.T) {
	Init()

	before := testutil.ToFloat64(BytesMovedTotal)
	RecordRootBytesMoved("/data/photos", 4096)
	after := testutil.ToFloat64(BytesMovedTotal)

	if after-before != 4096 {
		t.Errorf("BytesMovedTotal increased by %v, want 4096", after-before)
	}
}
