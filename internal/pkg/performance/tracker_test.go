package performance

import (
	"testing"
	"time"
)

func TestTracker_GetMetrics(t *testing.T) {
	tr := NewTracker()
	at := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)

	tr.RecordSkippedCycle(at)
	tr.RecordCycle(at, CycleResult{Pending: 3, Candidates: 40, Resolved: 1, Scan: 3 * time.Second, Evaluate: time.Second, Total: 4 * time.Second})
	tr.RecordCycle(at.Add(15*time.Minute), CycleResult{Pending: 2, Candidates: 20, Expired: 1, Faults: 1, Scan: time.Second, Evaluate: time.Second, Total: 2 * time.Second})
	tr.RecordImmediate(time.Second, true)
	tr.RecordImmediate(3*time.Second, false)

	m := tr.GetMetrics()
	if m.Cycles.Total != 2 || m.Cycles.Skipped != 1 {
		t.Errorf("cycles = %d/%d, want 2/1", m.Cycles.Total, m.Cycles.Skipped)
	}
	if m.Cycles.Evaluated != 5 || m.Cycles.Resolved != 1 || m.Cycles.Expired != 1 || m.Cycles.Faults != 1 {
		t.Errorf("cycle counters = %+v", m.Cycles)
	}
	if m.Cycles.AvgCandidates != 30 {
		t.Errorf("avg candidates = %v, want 30", m.Cycles.AvgCandidates)
	}
	if m.Cycles.LastCandidates != 20 || m.Cycles.LastCycleAt != "2026-10-14T08:15:00Z" {
		t.Errorf("last cycle = %d at %s", m.Cycles.LastCandidates, m.Cycles.LastCycleAt)
	}
	if m.Timing.AvgScan != "2s" || m.Timing.AvgTotal != "3s" {
		t.Errorf("timing = %+v", m.Timing)
	}
	if m.Immediate.Total != 2 || m.Immediate.HitRate != 50 || m.Immediate.AvgLookup != "2s" {
		t.Errorf("immediate = %+v", m.Immediate)
	}
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()
	tr.RecordCycle(time.Now(), CycleResult{Pending: 1})
	tr.Reset()
	if m := tr.GetMetrics(); m.Cycles.Total != 0 || m.Timing.AvgScan != "" {
		t.Errorf("after reset = %+v", m)
	}
}
