package models

// Candidate is a two-way hedge pairing: a bonus leg at one bookmaker and the best price for
// the complementary outcome at any other bookmaker.
type Candidate struct {
	EventID      string `json:"event_id"`
	SportTitle   string `json:"sport_title"`
	HomeTeam     string `json:"home_team"`
	AwayTeam     string `json:"away_team"`
	CommenceTime string `json:"commence_time"`

	MarketType    string `json:"market_type"`
	MarketDisplay string `json:"market_display"`

	BonusBookmaker string   `json:"bonus_bookmaker"`
	BonusOutcome   string   `json:"bonus_outcome"`
	BonusPoint     *float64 `json:"bonus_point,omitempty"`
	BonusOdds      float64  `json:"bonus_odds"`

	HedgeBookmaker string   `json:"hedge_bookmaker"`
	HedgeOutcome   string   `json:"hedge_outcome"`
	HedgePoint     *float64 `json:"hedge_point,omitempty"`
	HedgeOdds      float64  `json:"hedge_odds"`
}

// MatchName is "Home vs Away".
func (c Candidate) MatchName() string {
	return c.HomeTeam + " vs " + c.AwayTeam
}
