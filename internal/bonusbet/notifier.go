package bonusbet

import (
	"context"
	"log/slog"
)

// Notifier delivers the outcome of a queued search to its user.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier only logs notifications. Used when no chat transport is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	args := []any{
		"request_id", n.Request.ID,
		"user_id", n.Request.UserID,
		"bookmaker", n.Request.Bookmaker,
		"attempts", n.Request.Attempts,
		"state", n.State(),
	}
	if rec := n.Recommendation; rec != nil {
		args = append(args,
			"match", rec.MatchName(),
			"market", rec.MarketDisplay,
			"guaranteed_return", rec.Summary.GuaranteedReturn.StringFixed(2),
			"return_pct", rec.Summary.ReturnPct.StringFixed(1))
	}
	slog.Info("Search notification", args...)
	return nil
}
