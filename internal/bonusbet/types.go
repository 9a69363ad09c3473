package bonusbet

import (
	"time"

	"github.com/Vodeneev/bonusbet/internal/pkg/models"
)

// Recommendation is a selected candidate priced for a given stake.
type Recommendation struct {
	models.Candidate
	Mode    Mode         `json:"mode"`
	Stake   float64      `json:"stake"`
	Hedge   Hedge        `json:"-"`
	Summary HedgeSummary `json:"summary"`
}

// SearchRequest is a queued search that found nothing on submission.
type SearchRequest struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Stake     float64   `json:"stake"`
	Bookmaker string    `json:"bookmaker"`
	Mode      Mode      `json:"mode"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

// RequestState is the lifecycle of a SearchRequest: pending, then resolved or expired.
type RequestState string

const (
	StatePending  RequestState = "pending"
	StateResolved RequestState = "resolved"
	StateExpired  RequestState = "expired"
)

// Notification is handed to the Notifier when a queued request leaves the queue.
// Recommendation is set when resolved; Expired is set otherwise.
type Notification struct {
	Request        SearchRequest
	Recommendation *Recommendation
	Expired        bool
}

func (n Notification) State() RequestState {
	if n.Expired {
		return StateExpired
	}
	return StateResolved
}
