package bonusbet

import (
	"github.com/Vodeneev/bonusbet/internal/pkg/models"
)

// Extract turns a snapshot of events into every two-way hedge pairing.
//
// For each bookmaker and each of its two-outcome markets, both outcomes are tried as the
// bonus leg. The hedge leg takes the best price any other bookmaker offers for an outcome
// with exactly the same name in the same market type; the first bookmaker seen wins ties.
// A direction with no opposing price is skipped.
//
// Output order follows event, bookmaker, market and outcome order of the input. The
// provider does not promise a stable order, so callers must not rely on it for correctness.
func Extract(events []models.Event) []models.Candidate {
	var out []models.Candidate
	for i := range events {
		out = appendEventCandidates(out, &events[i])
	}
	return out
}

func appendEventCandidates(out []models.Candidate, ev *models.Event) []models.Candidate {
	for bi := range ev.Bookmakers {
		bonusBook := &ev.Bookmakers[bi]
		for _, market := range bonusBook.Markets {
			if !market.IsTwoWay() {
				continue
			}
			for side := 0; side < 2; side++ {
				bonus := market.Outcomes[side]
				hedge := market.Outcomes[1-side]

				hedgeBook, hedgeOutcome, ok := bestOpposingPrice(ev.Bookmakers, bonusBook.Key, market.Key, hedge.Name)
				if !ok {
					continue
				}
				out = append(out, models.Candidate{
					EventID:        ev.ID,
					SportTitle:     ev.SportTitle,
					HomeTeam:       ev.HomeTeam,
					AwayTeam:       ev.AwayTeam,
					CommenceTime:   ev.CommenceTime,
					MarketType:     market.Key,
					MarketDisplay:  models.MarketDisplayName(market.Key),
					BonusBookmaker: bonusBook.Key,
					BonusOutcome:   bonus.Name,
					BonusPoint:     bonus.Point,
					BonusOdds:      bonus.Price,
					HedgeBookmaker: hedgeBook,
					HedgeOutcome:   hedgeOutcome.Name,
					HedgePoint:     hedgeOutcome.Point,
					HedgeOdds:      hedgeOutcome.Price,
				})
			}
		}
	}
	return out
}

// bestOpposingPrice scans all bookmakers except exclude for the highest positive price on
// outcomeName in marketKey.
func bestOpposingPrice(books []models.BookmakerQuote, exclude, marketKey, outcomeName string) (string, models.Outcome, bool) {
	var (
		bestBook    string
		bestOutcome models.Outcome
		found       bool
	)
	for _, book := range books {
		if book.Key == exclude {
			continue
		}
		for _, m := range book.Markets {
			if m.Key != marketKey {
				continue
			}
			for _, o := range m.Outcomes {
				if o.Name != outcomeName || o.Price <= 0 {
					continue
				}
				if !found || o.Price > bestOutcome.Price {
					bestBook, bestOutcome, found = book.Key, o, true
				}
			}
		}
	}
	return bestBook, bestOutcome, found
}
