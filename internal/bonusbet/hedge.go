package bonusbet

import (
	"math"

	"github.com/shopspring/decimal"
)

// Hedge is the economics of a bonus bet hedged with cash on the complementary outcome.
// All fields are unrounded; use Summary for display.
type Hedge struct {
	BonusPayout       float64 // winnings of the bonus bet; the bonus stake is not returned
	HedgeStake        float64 // cash staked on the other outcome
	HedgePayout       float64
	ProfitIfBonusWins float64
	ProfitIfHedgeWins float64
	GuaranteedReturn  float64 // min of the two profits
	ReturnPct         float64 // GuaranteedReturn as a percentage of the bonus stake
}

// CalcHedge sizes the hedge so that its payout equals the bonus bet's winnings.
// hedgeOdds must be positive.
func CalcHedge(bonusOdds, hedgeOdds, stake float64) Hedge {
	bonusPayout := stake*bonusOdds - stake
	hedgeStake := bonusPayout / hedgeOdds
	hedgePayout := hedgeStake * hedgeOdds

	// The hedge stake is risked either way; the bonus stake was never the user's money.
	profitIfBonusWins := bonusPayout - hedgeStake
	profitIfHedgeWins := hedgePayout - hedgeStake

	guaranteed := math.Min(profitIfBonusWins, profitIfHedgeWins)
	return Hedge{
		BonusPayout:       bonusPayout,
		HedgeStake:        hedgeStake,
		HedgePayout:       hedgePayout,
		ProfitIfBonusWins: profitIfBonusWins,
		ProfitIfHedgeWins: profitIfHedgeWins,
		GuaranteedReturn:  guaranteed,
		ReturnPct:         guaranteed / stake * 100,
	}
}

// HedgeSummary is Hedge rounded for presentation: money to cents, percentage to one place.
type HedgeSummary struct {
	BonusPayout      decimal.Decimal `json:"bonus_payout"`
	HedgeStake       decimal.Decimal `json:"hedge_stake"`
	HedgePayout      decimal.Decimal `json:"hedge_payout"`
	GuaranteedReturn decimal.Decimal `json:"guaranteed_return"`
	ReturnPct        decimal.Decimal `json:"return_pct"`
}

func (h Hedge) Summary() HedgeSummary {
	return HedgeSummary{
		BonusPayout:      money(h.BonusPayout),
		HedgeStake:       money(h.HedgeStake),
		HedgePayout:      money(h.HedgePayout),
		GuaranteedReturn: money(h.GuaranteedReturn),
		ReturnPct:        decimal.NewFromFloat(h.ReturnPct).Round(1),
	}
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
