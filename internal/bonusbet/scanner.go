package bonusbet

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Vodeneev/bonusbet/internal/pkg/filter"
	"github.com/Vodeneev/bonusbet/internal/pkg/models"
)

// ScanMarkets is the market set requested for every sport.
var ScanMarkets = []string{models.MarketH2H, models.MarketSpreads, models.MarketTotals}

// Catalog is the odds source. Implementations swallow provider errors and return whatever
// they have, possibly nothing.
type Catalog interface {
	GetSports(ctx context.Context) []models.Sport
	GetOdds(ctx context.Context, sportKey, markets string) []models.Event
}

// Scanner runs one fetch, filter and extract pass over the catalog.
type Scanner struct {
	catalog Catalog
	horizon time.Duration
	pause   time.Duration
	markets string
	now     func() time.Time
}

type ScannerOption func(*Scanner)

// WithHorizon sets how far ahead events are considered.
func WithHorizon(d time.Duration) ScannerOption {
	return func(s *Scanner) {
		if d > 0 {
			s.horizon = d
		}
	}
}

// WithSportPause spaces out odds requests between sports.
func WithSportPause(d time.Duration) ScannerOption {
	return func(s *Scanner) { s.pause = d }
}

// WithMarkets overrides ScanMarkets.
func WithMarkets(markets []string) ScannerOption {
	return func(s *Scanner) {
		if len(markets) > 0 {
			s.markets = strings.Join(markets, ",")
		}
	}
}

func WithClock(now func() time.Time) ScannerOption {
	return func(s *Scanner) { s.now = now }
}

func NewScanner(catalog Catalog, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		catalog: catalog,
		horizon: filter.DefaultHorizon,
		markets: strings.Join(ScanMarkets, ","),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan returns every candidate in the current catalog. It stops early, returning what it
// has, when ctx is cancelled.
func (s *Scanner) Scan(ctx context.Context) []models.Candidate {
	sports := s.catalog.GetSports(ctx)

	var candidates []models.Candidate
	for i, sport := range sports {
		if i > 0 && s.pause > 0 {
			select {
			case <-ctx.Done():
				return candidates
			case <-time.After(s.pause):
			}
		}
		if ctx.Err() != nil {
			return candidates
		}

		events := s.catalog.GetOdds(ctx, sport.Key, s.markets)
		kept := filter.Events(events, s.now(), s.horizon)
		for j := range kept {
			if kept[j].SportTitle == "" {
				kept[j].SportTitle = sport.Title
			}
		}
		found := Extract(kept)
		slog.Debug("Scanned sport", "sport", sport.Key, "events", len(events), "kept", len(kept), "candidates", len(found))
		candidates = append(candidates, found...)
	}
	slog.Info("Scan complete", "sports", len(sports), "candidates", len(candidates))
	return candidates
}
