package bonusbet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vodeneev/bonusbet/internal/pkg/models"
	"github.com/Vodeneev/bonusbet/internal/pkg/performance"
)

const (
	DefaultInterval    = 15 * time.Minute
	DefaultMaxAttempts = 96
)

type WorkerConfig struct {
	Interval       time.Duration
	MaxAttempts    int
	QuickThreshold float64
}

type selectFunc func(candidates []models.Candidate, bookmaker string, stake float64, mode Mode, threshold float64) *Recommendation

// Worker re-evaluates queued searches against a fresh scan every interval.
type Worker struct {
	queue    *Queue
	scanner  *Scanner
	notifier Notifier
	tracker  *performance.Tracker
	cfg      WorkerConfig
	selector selectFunc
	now      func() time.Time
}

func NewWorker(cfg WorkerConfig, queue *Queue, scanner *Scanner, notifier Notifier, tracker *performance.Tracker) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.QuickThreshold <= 0 {
		cfg.QuickThreshold = DefaultQuickThreshold
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if tracker == nil {
		tracker = performance.GetTracker()
	}
	return &Worker{
		queue:    queue,
		scanner:  scanner,
		notifier: notifier,
		tracker:  tracker,
		cfg:      cfg,
		selector: Select,
		now:      time.Now,
	}
}

// Run processes the queue immediately and then on every tick until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	slog.Info("Search worker started", "interval", w.cfg.Interval, "max_attempts", w.cfg.MaxAttempts)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Search worker stopping")
			return
		case <-ticker.C:
			w.RunCycle(ctx)
		}
	}
}

// RunCycle performs one pass over the requests queued at its start.
func (w *Worker) RunCycle(ctx context.Context) (res performance.CycleResult) {
	start := w.now()
	defer func() {
		if r := recover(); r != nil {
			res.Faults++
			slog.Error("Search worker cycle panicked", "panic", r)
			w.tracker.RecordCycle(start, res)
		}
	}()

	pending := w.queue.snapshot()
	if len(pending) == 0 {
		slog.Debug("Search queue empty, skipping cycle")
		w.tracker.RecordSkippedCycle(start)
		return res
	}
	res.Pending = len(pending)
	slog.Info("Processing queued searches", "pending", len(pending))

	candidates := w.scanner.Scan(ctx)
	res.Candidates = len(candidates)
	res.Scan = w.now().Sub(start)
	if ctx.Err() != nil {
		// Partial scans never decide a request.
		slog.Info("Search cycle interrupted, requests left pending", "pending", res.Pending, "candidates", res.Candidates)
		return res
	}

	evalStart := w.now()
	var out []Notification
	func() {
		w.queue.mu.Lock()
		defer w.queue.mu.Unlock()

		done := make(map[*SearchRequest]bool)
		for _, req := range pending {
			n, err := w.evaluate(req, candidates)
			if err != nil {
				res.Faults++
				slog.Error("Failed to evaluate queued search", "request_id", req.ID, "user_id", req.UserID, "error", err)
				continue
			}
			if n == nil {
				continue
			}
			done[req] = true
			out = append(out, *n)
			if n.Expired {
				res.Expired++
			} else {
				res.Resolved++
			}
		}
		w.queue.removeLocked(done)
	}()
	res.Evaluate = w.now().Sub(evalStart)

	// Decided requests are off the queue; delivery ignores shutdown.
	notifyCtx := context.WithoutCancel(ctx)
	for _, n := range out {
		w.deliver(notifyCtx, n)
	}
	res.Total = w.now().Sub(start)

	w.tracker.RecordCycle(start, res)
	slog.Info("Search cycle complete",
		"pending", res.Pending,
		"candidates", res.Candidates,
		"resolved", res.Resolved,
		"expired", res.Expired,
		"faults", res.Faults,
		"remaining", w.queue.Len(),
		"duration", res.Total)
	return res
}

// evaluate bumps the attempt counter and decides the request's fate. A nil notification
// means it stays pending. Callers hold the queue lock.
func (w *Worker) evaluate(req *SearchRequest, candidates []models.Candidate) (n *Notification, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	req.Attempts++
	if rec := w.selector(candidates, req.Bookmaker, req.Stake, req.Mode, w.cfg.QuickThreshold); rec != nil {
		return &Notification{Request: *req, Recommendation: rec}, nil
	}
	if req.Attempts >= w.cfg.MaxAttempts {
		return &Notification{Request: *req, Expired: true}, nil
	}
	slog.Debug("No opportunity yet", "request_id", req.ID, "user_id", req.UserID, "attempts", req.Attempts)
	return nil, nil
}

func (w *Worker) deliver(ctx context.Context, n Notification) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Notifier panicked", "request_id", n.Request.ID, "panic", r)
		}
	}()
	if err := w.notifier.Notify(ctx, n); err != nil {
		slog.Error("Failed to notify user", "request_id", n.Request.ID, "user_id", n.Request.UserID, "state", n.State(), "error", err)
	}
}
