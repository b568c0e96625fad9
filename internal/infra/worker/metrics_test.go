package worker

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestJanitorMetrics_Initialized(t *testing.T) {
	metrics := janitorMetricsForTest()

	if metrics.ConfigMetrics == nil {
		t.Error("ConfigMetrics not initialized")
	}
	if metrics.SweepRunsTotal == nil {
		t.Error("SweepRunsTotal not initialized")
	}
	if metrics.SweepDurationSeconds == nil {
		t.Error("SweepDurationSeconds not initialized")
	}
	if metrics.SweepEntriesPrunedTotal == nil {
		t.Error("SweepEntriesPrunedTotal not initialized")
	}
	if metrics.SweepLastSuccessTimestamp == nil {
		t.Error("SweepLastSuccessTimestamp not initialized")
	}
}

func TestJanitorMetrics_RecordSweepRun(t *testing.T) {
	metrics := janitorMetricsForTest()

	before := testutil.ToFloat64(metrics.SweepRunsTotal.WithLabelValues("success"))
	metrics.RecordSweepRun("success")
	after := testutil.ToFloat64(metrics.SweepRunsTotal.WithLabelValues("success"))

	if after != before+1 {
		t.Errorf("expected success counter to increase by 1, got %v -> %v", before, after)
	}
}

func TestJanitorMetrics_RecordEntriesPruned(t *testing.T) {
	metrics := janitorMetricsForTest()

	before := testutil.ToFloat64(metrics.SweepEntriesPrunedTotal)
	metrics.RecordEntriesPruned(12)
	after := testutil.ToFloat64(metrics.SweepEntriesPrunedTotal)

	if after != before+12 {
		t.Errorf("expected pruned counter to increase by 12, got %v -> %v", before, after)
	}
}

func TestJanitorMetrics_RecordLastSuccess(t *testing.T) {
	metrics := janitorMetricsForTest()

	metrics.RecordLastSuccess()
	if testutil.ToFloat64(metrics.SweepLastSuccessTimestamp) == 0 {
		t.Error("expected last success timestamp to be set")
	}
}
