package bonusbet

import (
	"fmt"
	"strings"

	"github.com/Vodeneev/bonusbet/internal/pkg/models"
)

// DefaultQuickThreshold is the fraction of the stake quick mode accepts as good enough.
const DefaultQuickThreshold = 0.60

// Mode selects how Select scans candidates.
type Mode string

const (
	// ModeQuick stops at the first candidate returning at least the quick threshold.
	ModeQuick Mode = "quick"
	// ModeBest scans every candidate.
	ModeBest Mode = "best"
)

// ParseMode accepts "quick" or "best" in any case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeQuick:
		return ModeQuick, nil
	case ModeBest:
		return ModeBest, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Label is the user-facing name of the mode.
func (m Mode) Label() string {
	if m == ModeQuick {
		return "Quick Return"
	}
	return "Best Return"
}

// accepts reports whether a return ends the scan early.
func (m Mode) accepts(guaranteed, stake, threshold float64) bool {
	return m == ModeQuick && guaranteed >= threshold*stake
}

// Select picks the candidate with the highest guaranteed return for a bonus stake at
// bookmaker. In quick mode the first candidate clearing threshold*stake wins. It returns
// nil when no candidate has bookmaker as the bonus leg.
func Select(candidates []models.Candidate, bookmaker string, stake float64, mode Mode, threshold float64) *Recommendation {
	if threshold <= 0 {
		threshold = DefaultQuickThreshold
	}

	var (
		best      *models.Candidate
		bestHedge Hedge
	)
	for i := range candidates {
		c := &candidates[i]
		if c.BonusBookmaker != bookmaker || c.HedgeOdds <= 0 {
			continue
		}
		h := CalcHedge(c.BonusOdds, c.HedgeOdds, stake)
		if best == nil || h.GuaranteedReturn > bestHedge.GuaranteedReturn {
			best, bestHedge = c, h
			if mode.accepts(h.GuaranteedReturn, stake, threshold) {
				break
			}
		}
	}
	if best == nil {
		return nil
	}
	return &Recommendation{
		Candidate: *best,
		Mode:      mode,
		Stake:     stake,
		Hedge:     bestHedge,
		Summary:   bestHedge.Summary(),
	}
}
