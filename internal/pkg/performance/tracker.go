package performance

import (
	"log/slog"
	"sync"
	"time"
)

// Tracker tracks worker cycle and search metrics
type Tracker struct {
	mu sync.RWMutex

	// Cycle metrics
	TotalCycles      int
	SkippedCycles    int
	TotalCandidates  int
	TotalEvaluated   int
	TotalResolved    int
	TotalExpired     int
	TotalFaults      int
	LastCycleAt      time.Time
	LastCycleResult  CycleResult
	ScanDuration     time.Duration
	EvaluateDuration time.Duration
	TotalDuration    time.Duration

	// Immediate searches
	ImmediateSearches int
	ImmediateFound    int
	ImmediateDuration time.Duration
}

// CycleResult describes a single worker cycle
type CycleResult struct {
	Pending    int
	Candidates int
	Resolved   int
	Expired    int
	Faults     int
	Scan       time.Duration
	Evaluate   time.Duration
	Total      time.Duration
}

// NewTracker returns an empty tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

var globalTracker = NewTracker()

// GetTracker returns the process-wide tracker
func GetTracker() *Tracker {
	return globalTracker
}

// Reset resets all metrics
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.TotalCycles = 0
	t.SkippedCycles = 0
	t.TotalCandidates = 0
	t.TotalEvaluated = 0
	t.TotalResolved = 0
	t.TotalExpired = 0
	t.TotalFaults = 0
	t.LastCycleAt = time.Time{}
	t.LastCycleResult = CycleResult{}
	t.ScanDuration = 0
	t.EvaluateDuration = 0
	t.TotalDuration = 0
	t.ImmediateSearches = 0
	t.ImmediateFound = 0
	t.ImmediateDuration = 0
}

// RecordSkippedCycle records a tick that found the queue empty
func (t *Tracker) RecordSkippedCycle(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.SkippedCycles++
	t.LastCycleAt = at
}

// RecordCycle records a completed worker cycle
func (t *Tracker) RecordCycle(at time.Time, r CycleResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.TotalCycles++
	t.TotalCandidates += r.Candidates
	t.TotalEvaluated += r.Pending
	t.TotalResolved += r.Resolved
	t.TotalExpired += r.Expired
	t.TotalFaults += r.Faults
	t.ScanDuration += r.Scan
	t.EvaluateDuration += r.Evaluate
	t.TotalDuration += r.Total
	t.LastCycleAt = at
	t.LastCycleResult = r
}

// RecordImmediate records an immediate search
func (t *Tracker) RecordImmediate(d time.Duration, found bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ImmediateSearches++
	t.ImmediateDuration += d
	if found {
		t.ImmediateFound++
	}
}

// PrintSummary logs a performance summary
func (t *Tracker) PrintSummary() {
	m := t.GetMetrics()
	if m.Cycles.Total == 0 && m.Immediate.Total == 0 {
		slog.Info("No performance data collected yet")
		return
	}

	slog.Info("PERFORMANCE SUMMARY",
		"cycles", m.Cycles.Total,
		"skipped_cycles", m.Cycles.Skipped,
		"resolved", m.Cycles.Resolved,
		"expired", m.Cycles.Expired,
		"faults", m.Cycles.Faults,
		"avg_scan", m.Timing.AvgScan,
		"avg_evaluate", m.Timing.AvgEvaluate,
		"immediate_searches", m.Immediate.Total,
		"immediate_found", m.Immediate.Found)
}

// MetricsResponse represents the JSON response structure for /metrics endpoint
type MetricsResponse struct {
	Cycles struct {
		Total           int     `json:"total"`
		Skipped         int     `json:"skipped"`
		Evaluated       int     `json:"evaluated"`
		Resolved        int     `json:"resolved"`
		Expired         int     `json:"expired"`
		Faults          int     `json:"faults"`
		AvgCandidates   float64 `json:"avg_candidates"`
		LastCycleAt     string  `json:"last_cycle_at,omitempty"`
		LastPending     int     `json:"last_pending"`
		LastCandidates  int     `json:"last_candidates"`
		LastResolved    int     `json:"last_resolved"`
		LastExpired     int     `json:"last_expired"`
		LastCycleFaults int     `json:"last_faults"`
	} `json:"cycles"`

	Timing struct {
		AvgScan     string  `json:"avg_scan"`
		AvgEvaluate string  `json:"avg_evaluate"`
		AvgTotal    string  `json:"avg_total"`
		ScanPercent float64 `json:"scan_percent"`
	} `json:"timing"`

	Immediate struct {
		Total     int     `json:"total"`
		Found     int     `json:"found"`
		HitRate   float64 `json:"hit_rate"`
		AvgLookup string  `json:"avg_lookup"`
	} `json:"immediate"`
}

// GetMetrics returns structured metrics for JSON API
func (t *Tracker) GetMetrics() MetricsResponse {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var resp MetricsResponse

	resp.Cycles.Total = t.TotalCycles
	resp.Cycles.Skipped = t.SkippedCycles
	resp.Cycles.Evaluated = t.TotalEvaluated
	resp.Cycles.Resolved = t.TotalResolved
	resp.Cycles.Expired = t.TotalExpired
	resp.Cycles.Faults = t.TotalFaults
	if !t.LastCycleAt.IsZero() {
		resp.Cycles.LastCycleAt = t.LastCycleAt.UTC().Format(time.RFC3339)
	}
	resp.Cycles.LastPending = t.LastCycleResult.Pending
	resp.Cycles.LastCandidates = t.LastCycleResult.Candidates
	resp.Cycles.LastResolved = t.LastCycleResult.Resolved
	resp.Cycles.LastExpired = t.LastCycleResult.Expired
	resp.Cycles.LastCycleFaults = t.LastCycleResult.Faults

	if t.TotalCycles > 0 {
		n := time.Duration(t.TotalCycles)
		resp.Cycles.AvgCandidates = float64(t.TotalCandidates) / float64(t.TotalCycles)
		resp.Timing.AvgScan = (t.ScanDuration / n).String()
		resp.Timing.AvgEvaluate = (t.EvaluateDuration / n).String()
		resp.Timing.AvgTotal = (t.TotalDuration / n).String()
		if t.TotalDuration > 0 {
			resp.Timing.ScanPercent = float64(t.ScanDuration) / float64(t.TotalDuration) * 100
		}
	}

	resp.Immediate.Total = t.ImmediateSearches
	resp.Immediate.Found = t.ImmediateFound
	if t.ImmediateSearches > 0 {
		resp.Immediate.HitRate = float64(t.ImmediateFound) / float64(t.ImmediateSearches) * 100
		resp.Immediate.AvgLookup = (t.ImmediateDuration / time.Duration(t.ImmediateSearches)).String()
	}

	return resp
}
