package bonusbet

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Queue holds pending searches in submission order. Duplicate requests are kept.
type Queue struct {
	mu    sync.Mutex
	items []*SearchRequest
	now   func() time.Time
}

func NewQueue() *Queue {
	return &Queue{now: time.Now}
}

// Enqueue appends req, assigning an id and creation time when missing.
func (q *Queue) Enqueue(req SearchRequest) SearchRequest {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = q.now()
	}
	req.Attempts = 0

	q.mu.Lock()
	defer q.mu.Unlock()
	stored := req
	q.items = append(q.items, &stored)
	return req
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pending returns a copy of every queued request.
func (q *Queue) Pending() []SearchRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]SearchRequest, 0, len(q.items))
	for _, r := range q.items {
		out = append(out, *r)
	}
	return out
}

// ForUser returns a copy of the requests queued by userID.
func (q *Queue) ForUser(userID int64) []SearchRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []SearchRequest
	for _, r := range q.items {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out
}

// snapshot returns the entries present now. Pointers stay owned by the queue and may only
// be mutated while holding q.mu.
func (q *Queue) snapshot() []*SearchRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*SearchRequest, len(q.items))
	copy(out, q.items)
	return out
}

// removeLocked drops the given entries. Callers hold q.mu.
func (q *Queue) removeLocked(done map[*SearchRequest]bool) {
	if len(done) == 0 {
		return
	}
	kept := q.items[:0]
	for _, r := range q.items {
		if !done[r] {
			kept = append(kept, r)
		}
	}
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = nil
	}
	q.items = kept
}
