package bonusbet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Vodeneev/bonusbet/internal/pkg/models"
	"github.com/Vodeneev/bonusbet/internal/pkg/performance"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
	err  error
	ch   chan Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	r.sent = append(r.sent, n)
	ch := r.ch
	r.mu.Unlock()
	if ch != nil {
		ch <- n
	}
	return r.err
}

func (r *recordingNotifier) notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

func newTestWorker(cat Catalog, cfg WorkerConfig) (*Worker, *Queue, *recordingNotifier, *performance.Tracker) {
	q := NewQueue()
	n := &recordingNotifier{}
	tr := performance.NewTracker()
	s := NewScanner(cat, WithClock(func() time.Time { return testNow }))
	return NewWorker(cfg, q, s, n, tr), q, n, tr
}

func TestWorker_EmptyQueueSkipsFetch(t *testing.T) {
	cat := newFakeCatalog()
	w, _, n, tr := newTestWorker(cat, WorkerConfig{})

	w.RunCycle(t.Context())

	if cat.callCount() != 0 {
		t.Errorf("catalog called %d times for an empty queue", cat.callCount())
	}
	if len(n.notifications()) != 0 {
		t.Errorf("unexpected notifications")
	}
	if m := tr.GetMetrics(); m.Cycles.Skipped != 1 || m.Cycles.Total != 0 {
		t.Errorf("metrics = %+v", m.Cycles)
	}
}

func TestWorker_ResolvesAndKeepsPending(t *testing.T) {
	cat := newFakeCatalog()
	w, q, n, _ := newTestWorker(cat, WorkerConfig{})

	found := q.Enqueue(SearchRequest{UserID: 1, Bookmaker: "sportsbet", Stake: 100, Mode: ModeBest})
	q.Enqueue(SearchRequest{UserID: 2, Bookmaker: "unibet", Stake: 50, Mode: ModeQuick})
	q.Enqueue(SearchRequest{UserID: 3, Bookmaker: "tab", Stake: 20, Mode: ModeQuick})

	res := w.RunCycle(t.Context())

	if res.Pending != 3 || res.Resolved != 2 || res.Expired != 0 {
		t.Errorf("cycle = %+v", res)
	}
	// One sports call plus one odds call per sport, shared by every request.
	if cat.callCount() != 3 {
		t.Errorf("catalog calls = %d, want 3", cat.callCount())
	}

	sent := n.notifications()
	if len(sent) != 2 {
		t.Fatalf("notifications = %d, want 2", len(sent))
	}
	first := sent[0]
	if first.Request.ID != found.ID || first.Expired || first.Recommendation == nil {
		t.Fatalf("first notification = %+v", first)
	}
	if first.Request.Attempts != 1 || first.Recommendation.BonusBookmaker != "sportsbet" {
		t.Errorf("first = attempts %d, bonus %s", first.Request.Attempts, first.Recommendation.BonusBookmaker)
	}

	left := q.Pending()
	if len(left) != 1 || left[0].UserID != 2 || left[0].Attempts != 1 {
		t.Errorf("pending = %+v", left)
	}
}

func TestWorker_ExpiresAfterMaxAttempts(t *testing.T) {
	cat := newFakeCatalog()
	w, q, n, tr := newTestWorker(cat, WorkerConfig{MaxAttempts: 2})
	q.Enqueue(SearchRequest{UserID: 7, Bookmaker: "unibet", Stake: 50, Mode: ModeBest})

	w.RunCycle(t.Context())
	if q.Len() != 1 || len(n.notifications()) != 0 {
		t.Fatalf("after first cycle: len %d, notifications %d", q.Len(), len(n.notifications()))
	}

	w.RunCycle(t.Context())
	sent := n.notifications()
	if len(sent) != 1 {
		t.Fatalf("notifications = %d, want 1", len(sent))
	}
	if !sent[0].Expired || sent[0].Recommendation != nil || sent[0].State() != StateExpired {
		t.Errorf("notification = %+v, want expiry only", sent[0])
	}
	if sent[0].Request.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", sent[0].Request.Attempts)
	}
	if q.Len() != 0 {
		t.Errorf("queue len = %d, want 0", q.Len())
	}
	if m := tr.GetMetrics(); m.Cycles.Expired != 1 || m.Cycles.Total != 2 {
		t.Errorf("metrics = %+v", m.Cycles)
	}
}

func TestWorker_ResolvedOnLastAttemptIsNotExpired(t *testing.T) {
	cat := newFakeCatalog()
	w, q, n, _ := newTestWorker(cat, WorkerConfig{MaxAttempts: 1})
	q.Enqueue(SearchRequest{UserID: 1, Bookmaker: "neds", Stake: 100, Mode: ModeBest})

	w.RunCycle(t.Context())

	sent := n.notifications()
	if len(sent) != 1 || sent[0].Expired || sent[0].Recommendation == nil {
		t.Fatalf("notifications = %+v, want one resolution", sent)
	}
}

func TestWorker_IsolatesPanickingRequest(t *testing.T) {
	cat := newFakeCatalog()
	w, q, n, _ := newTestWorker(cat, WorkerConfig{})
	w.selector = func(c []models.Candidate, bookmaker string, stake float64, mode Mode, threshold float64) *Recommendation {
		if bookmaker == "tab" {
			panic("boom")
		}
		return Select(c, bookmaker, stake, mode, threshold)
	}

	q.Enqueue(SearchRequest{UserID: 1, Bookmaker: "tab", Stake: 10, Mode: ModeBest})
	q.Enqueue(SearchRequest{UserID: 2, Bookmaker: "sportsbet", Stake: 10, Mode: ModeBest})

	res := w.RunCycle(t.Context())

	if res.Faults != 1 || res.Resolved != 1 {
		t.Errorf("cycle = %+v", res)
	}
	if sent := n.notifications(); len(sent) != 1 || sent[0].Request.UserID != 2 {
		t.Errorf("notifications = %+v", sent)
	}
	if left := q.Pending(); len(left) != 1 || left[0].UserID != 1 {
		t.Errorf("pending = %+v", left)
	}
}

// enqueueingCatalog adds a request while the worker is fetching.
type enqueueingCatalog struct {
	*fakeCatalog
	queue *Queue
	once  sync.Once
}

func (c *enqueueingCatalog) GetSports(ctx context.Context) []models.Sport {
	c.once.Do(func() {
		c.queue.Enqueue(SearchRequest{UserID: 99, Bookmaker: "sportsbet", Stake: 10, Mode: ModeBest})
	})
	return c.fakeCatalog.GetSports(ctx)
}

func TestWorker_RequestAddedDuringFetchWaitsForNextCycle(t *testing.T) {
	cat := &enqueueingCatalog{fakeCatalog: newFakeCatalog()}
	w, q, n, _ := newTestWorker(cat, WorkerConfig{})
	cat.queue = q
	q.Enqueue(SearchRequest{UserID: 1, Bookmaker: "unibet", Stake: 10, Mode: ModeBest})

	w.RunCycle(t.Context())

	if len(n.notifications()) != 0 {
		t.Fatalf("late request was evaluated in the same cycle")
	}
	late := q.ForUser(99)
	if len(late) != 1 || late[0].Attempts != 0 {
		t.Fatalf("late request = %+v", late)
	}

	w.RunCycle(t.Context())
	if sent := n.notifications(); len(sent) != 1 || sent[0].Request.UserID != 99 {
		t.Errorf("notifications = %+v", sent)
	}
}

func TestWorker_NotifierErrorDoesNotRequeue(t *testing.T) {
	cat := newFakeCatalog()
	w, q, n, _ := newTestWorker(cat, WorkerConfig{})
	n.err = errors.New("chat unreachable")
	q.Enqueue(SearchRequest{UserID: 1, Bookmaker: "sportsbet", Stake: 10, Mode: ModeQuick})

	w.RunCycle(t.Context())

	if q.Len() != 0 {
		t.Errorf("queue len = %d, want 0", q.Len())
	}
}

type panickingCatalog struct{}

func (panickingCatalog) GetSports(context.Context) []models.Sport { panic("provider exploded") }
func (panickingCatalog) GetOdds(context.Context, string, string) []models.Event {
	return nil
}

func TestWorker_CyclePanicIsRecovered(t *testing.T) {
	w, q, _, tr := newTestWorker(panickingCatalog{}, WorkerConfig{})
	q.Enqueue(SearchRequest{UserID: 1, Bookmaker: "sportsbet", Stake: 10, Mode: ModeQuick})

	res := w.RunCycle(t.Context())

	if res.Faults != 1 {
		t.Errorf("faults = %d, want 1", res.Faults)
	}
	if q.Len() != 1 {
		t.Errorf("queue len = %d, want 1", q.Len())
	}
	if m := tr.GetMetrics(); m.Cycles.Faults != 1 {
		t.Errorf("metrics faults = %d", m.Cycles.Faults)
	}
}

func TestWorker_RunProcessesImmediately(t *testing.T) {
	cat := newFakeCatalog()
	w, q, n, _ := newTestWorker(cat, WorkerConfig{Interval: time.Hour})
	n.ch = make(chan Notification, 1)
	q.Enqueue(SearchRequest{UserID: 5, Bookmaker: "sportsbet", Stake: 10, Mode: ModeBest})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case got := <-n.ch:
		if got.Request.UserID != 5 {
			t.Errorf("notified user %d, want 5", got.Request.UserID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no notification from the first cycle")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

// cancellingCatalog cancels the cycle's context while sports are being fetched.
type cancellingCatalog struct {
	*fakeCatalog
	cancel context.CancelFunc
}

func (c *cancellingCatalog) GetSports(ctx context.Context) []models.Sport {
	c.cancel()
	return c.fakeCatalog.GetSports(ctx)
}

func TestWorker_InterruptedScanLeavesRequestsPending(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cat := &cancellingCatalog{fakeCatalog: newFakeCatalog(), cancel: cancel}
	w, q, n, _ := newTestWorker(cat, WorkerConfig{MaxAttempts: 1})
	q.Enqueue(SearchRequest{UserID: 1, Bookmaker: "sportsbet", Stake: 100, Mode: ModeBest})
	q.Enqueue(SearchRequest{UserID: 2, Bookmaker: "unibet", Stake: 100, Mode: ModeBest})

	res := w.RunCycle(ctx)

	if res.Resolved != 0 || res.Expired != 0 {
		t.Errorf("cycle = %+v, want nothing decided", res)
	}
	if len(n.notifications()) != 0 {
		t.Errorf("notifications sent from a partial scan")
	}
	for _, r := range q.Pending() {
		if r.Attempts != 0 {
			t.Errorf("request %d attempts = %d, want 0", r.UserID, r.Attempts)
		}
	}
	if q.Len() != 2 {
		t.Errorf("queue len = %d, want 2", q.Len())
	}
}

type ctxRecordingNotifier struct {
	mu   sync.Mutex
	errs []error
}

func (c *ctxRecordingNotifier) Notify(ctx context.Context, _ Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, ctx.Err())
	return ctx.Err()
}

func TestWorker_DeliversAfterShutdownStarts(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	q := NewQueue()
	notifier := &ctxRecordingNotifier{}
	s := NewScanner(newFakeCatalog(), WithClock(func() time.Time { return testNow }))
	w := NewWorker(WorkerConfig{}, q, s, notifier, performance.NewTracker())
	// Shutdown arrives after the scan, while requests are being evaluated.
	w.selector = func(c []models.Candidate, bookmaker string, stake float64, mode Mode, threshold float64) *Recommendation {
		cancel()
		return Select(c, bookmaker, stake, mode, threshold)
	}
	q.Enqueue(SearchRequest{UserID: 1, Bookmaker: "sportsbet", Stake: 100, Mode: ModeBest})

	res := w.RunCycle(ctx)

	if res.Resolved != 1 {
		t.Fatalf("cycle = %+v, want one resolution", res)
	}
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.errs) != 1 || notifier.errs[0] != nil {
		t.Errorf("notify ctx errors = %v, want one live context", notifier.errs)
	}
}
