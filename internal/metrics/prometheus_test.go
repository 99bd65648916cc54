// ABOUTME: Tests for the Prometheus metrics collector
// ABOUTME: Verifies counters register once and record labelled values
package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/harper/tierworks/internal/models"
)

func TestPrometheusCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheus(reg, "test")

	c.RecordMove(models.Pool, models.TierS, true)
	c.RecordMove(models.Pool, models.TierS, true)
	c.RecordMove(models.TierS, models.TierS, false)
	c.RecordAssign(models.TierA)
	c.RecordSkip()
	c.RecordClear(models.TierB, 3)
	c.RecordSnapshotWrite(false)
	c.RecordSyncFailure("save_snapshot")
	c.RecordPosterLookup(PosterFound)

	if got := testutil.ToFloat64(c.moves.WithLabelValues("pool", "S", "true")); got != 2 {
		t.Errorf("moves pool->S = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.moves.WithLabelValues("S", "S", "false")); got != 1 {
		t.Errorf("no-op moves = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.clearedItems.WithLabelValues("B")); got != 3 {
		t.Errorf("cleared B = %v, want 3", got)
	}
	if got := testutil.ToFloat64(c.skips); got != 1 {
		t.Errorf("skips = %v, want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) != 7 {
		t.Errorf("registered families = %d, want 7", len(families))
	}
}

func TestNop_ImplementsCollector(t *testing.T) {
	var c Collector = NewNop()
	c.RecordMove(models.Pool, models.TierS, true)
	c.RecordSnapshotWrite(true)
}
