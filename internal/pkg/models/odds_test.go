package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEventDecode(t *testing.T) {
	raw := `{
		"id": "e1",
		"sport_key": "aussierules_afl",
		"sport_title": "AFL",
		"commence_time": "2026-10-15T09:40:00Z",
		"home_team": "Carlton Blues",
		"away_team": "Richmond Tigers",
		"bookmakers": [{
			"key": "sportsbet",
			"title": "SportsBet",
			"markets": [
				{"key": "h2h", "outcomes": [{"name": "Carlton Blues", "price": 1.8}, {"name": "Richmond Tigers", "price": 2.05}]},
				{"key": "totals", "outcomes": [{"name": "Over", "price": 1.9, "point": 165.5}, {"name": "Under", "price": 1.9, "point": 165.5}]}
			]
		}]
	}`
	var ev Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	start, err := ev.StartTime()
	if err != nil {
		t.Fatalf("StartTime: %v", err)
	}
	if !start.Equal(time.Date(2026, 10, 15, 9, 40, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	markets := ev.Bookmakers[0].Markets
	if !markets[0].IsTwoWay() || markets[0].Outcomes[0].Point != nil {
		t.Errorf("h2h market decoded wrong: %+v", markets[0])
	}
	if p := markets[1].Outcomes[0].Point; p == nil || *p != 165.5 {
		t.Errorf("totals point = %v, want 165.5", p)
	}
}

func TestMarketDisplayName(t *testing.T) {
	tests := map[string]string{
		"h2h":          "Head to Head",
		"spreads":      "Spread",
		"totals":       "Totals",
		"player_props": "player_props",
	}
	for in, want := range tests {
		if got := MarketDisplayName(in); got != want {
			t.Errorf("MarketDisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}
