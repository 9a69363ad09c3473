package bonusbet

import (
	"context"
	"log/slog"
	"time"

	"github.com/Vodeneev/bonusbet/internal/pkg/performance"
)

// Engine is the search surface the chat layer talks to.
type Engine struct {
	scanner   *Scanner
	queue     *Queue
	books     *Bookmakers
	tracker   *performance.Tracker
	threshold float64
}

func NewEngine(scanner *Scanner, queue *Queue, books *Bookmakers, tracker *performance.Tracker, quickThreshold float64) *Engine {
	if quickThreshold <= 0 {
		quickThreshold = DefaultQuickThreshold
	}
	if tracker == nil {
		tracker = performance.GetTracker()
	}
	return &Engine{
		scanner:   scanner,
		queue:     queue,
		books:     books,
		tracker:   tracker,
		threshold: quickThreshold,
	}
}

// SubmitResult is either a recommendation or the request queued in its place.
type SubmitResult struct {
	Recommendation *Recommendation
	Queued         *SearchRequest
}

func (e *Engine) validate(bookmaker string, stake float64, mode Mode) (string, Mode, error) {
	key, err := e.books.Validate(bookmaker)
	if err != nil {
		return "", "", err
	}
	if err := ValidateStake(stake); err != nil {
		return "", "", err
	}
	m, err := ParseMode(string(mode))
	if err != nil {
		return "", "", err
	}
	return key, m, nil
}

// FindImmediate scans the catalog now. A nil recommendation with a nil error means nothing
// qualifies; errors are returned only for invalid input.
func (e *Engine) FindImmediate(ctx context.Context, bookmaker string, stake float64, mode Mode) (*Recommendation, error) {
	key, mode, err := e.validate(bookmaker, stake, mode)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	candidates := e.scanner.Scan(ctx)
	rec := Select(candidates, key, stake, mode, e.threshold)
	e.tracker.RecordImmediate(time.Since(start), rec != nil)

	if rec == nil {
		slog.Info("No immediate opportunity", "bookmaker", key, "stake", stake, "mode", mode, "candidates", len(candidates))
		return nil, nil
	}
	slog.Info("Found immediate opportunity", "bookmaker", key, "match", rec.MatchName(), "return_pct", rec.Summary.ReturnPct.StringFixed(1))
	return rec, nil
}

// Enqueue adds a search for the worker to retry.
func (e *Engine) Enqueue(_ context.Context, userID int64, bookmaker string, stake float64, mode Mode) (SearchRequest, error) {
	key, mode, err := e.validate(bookmaker, stake, mode)
	if err != nil {
		return SearchRequest{}, err
	}
	req := e.queue.Enqueue(SearchRequest{UserID: userID, Stake: stake, Bookmaker: key, Mode: mode})
	slog.Info("Search queued", "request_id", req.ID, "user_id", userID, "bookmaker", key, "queue_length", e.queue.Len())
	return req, nil
}

// Submit tries FindImmediate and queues the search when nothing qualifies.
func (e *Engine) Submit(ctx context.Context, userID int64, bookmaker string, stake float64, mode Mode) (SubmitResult, error) {
	rec, err := e.FindImmediate(ctx, bookmaker, stake, mode)
	if err != nil {
		return SubmitResult{}, err
	}
	if rec != nil {
		return SubmitResult{Recommendation: rec}, nil
	}
	req, err := e.Enqueue(ctx, userID, bookmaker, stake, mode)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Queued: &req}, nil
}

func (e *Engine) QueueLen() int { return e.queue.Len() }

func (e *Engine) Pending() []SearchRequest { return e.queue.Pending() }

func (e *Engine) PendingForUser(userID int64) []SearchRequest { return e.queue.ForUser(userID) }

func (e *Engine) Bookmakers() *Bookmakers { return e.books }
