// Package filter drops sports and events the bonus search never considers: soccer in any
// disguise and fixtures too far in the future.
package filter

import (
	"strings"
	"time"

	"github.com/Vodeneev/bonusbet/internal/pkg/models"
)

// DefaultHorizon is how far ahead an event may start and still be considered.
const DefaultHorizon = 7 * 24 * time.Hour

// soccerKeywords are matched as lowercase substrings. Some soccer competitions are listed
// under non-obvious sport titles, so team names are checked with the same list.
var soccerKeywords = []string{
	"soccer", "football", "epl", "uefa", "champions", "premier", "serie", "la liga",
	"bundesliga", "ligue", "mls", "fifa", "world cup", "euro", "copa", "arsenal",
	"chelsea", "liverpool", "manchester", "barcelona", "real madrid", "juventus",
	"psg", "bayern", "dortmund", "atletico", "tottenham", "milan", "inter",
}

// IsSoccerRelated reports whether text contains any soccer keyword, ignoring case.
func IsSoccerRelated(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range soccerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Events returns the events that start no later than now+horizon, have a parseable
// kickoff and no soccer-related team name. Order is preserved.
func Events(events []models.Event, now time.Time, horizon time.Duration) []models.Event {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	cutoff := now.Add(horizon)

	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if !Keep(ev, cutoff) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Keep applies the per-event rules against an absolute cutoff.
func Keep(ev models.Event, cutoff time.Time) bool {
	start, err := ev.StartTime()
	if err != nil {
		return false
	}
	if start.After(cutoff) {
		return false
	}
	if IsSoccerRelated(ev.HomeTeam) || IsSoccerRelated(ev.AwayTeam) {
		return false
	}
	return true
}
