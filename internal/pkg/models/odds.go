package models

import (
	"time"
)

// Market keys requested from the odds provider.
const (
	MarketH2H     = "h2h"
	MarketSpreads = "spreads"
	MarketTotals  = "totals"
)

// Sport is one entry of the provider's /sports list.
type Sport struct {
	Key          string `json:"key"`
	Group        string `json:"group"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	HasOutrights bool   `json:"has_outrights"`
}

// Event is a fixture with per-bookmaker odds as returned by /sports/{key}/odds.
type Event struct {
	ID           string           `json:"id"`
	SportKey     string           `json:"sport_key"`
	SportTitle   string           `json:"sport_title"`
	CommenceTime string           `json:"commence_time"` // RFC 3339, parsed lazily
	HomeTeam     string           `json:"home_team"`
	AwayTeam     string           `json:"away_team"`
	Bookmakers   []BookmakerQuote `json:"bookmakers"`
}

// StartTime parses CommenceTime.
func (e Event) StartTime() (time.Time, error) {
	return time.Parse(time.RFC3339, e.CommenceTime)
}

// BookmakerQuote holds one bookmaker's markets for an event.
type BookmakerQuote struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	LastUpdate string   `json:"last_update,omitempty"`
	Markets    []Market `json:"markets"`
}

type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// IsTwoWay reports whether the market has exactly two outcomes.
func (m Market) IsTwoWay() bool {
	return len(m.Outcomes) == 2
}

// Outcome is a priced selection. Point is the handicap/total line for spreads and totals.
type Outcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// MarketDisplayName returns a human label for a market key.
func MarketDisplayName(key string) string {
	switch key {
	case MarketH2H:
		return "Head to Head"
	case MarketSpreads:
		return "Spread"
	case MarketTotals:
		return "Totals"
	}
	return key
}
