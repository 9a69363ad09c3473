package bonusbet

import (
	"github.com/Vodeneev/bonusbet/internal/pkg/models"
)

func h2h(home, away float64, homeName, awayName string) models.Market {
	return models.Market{Key: models.MarketH2H, Outcomes: []models.Outcome{
		{Name: homeName, Price: home},
		{Name: awayName, Price: away},
	}}
}

func book(key string, markets ...models.Market) models.BookmakerQuote {
	return models.BookmakerQuote{Key: key, Title: key, Markets: markets}
}

// aflEvent has three bookmakers pricing Carlton v Richmond head to head.
func aflEvent() models.Event {
	return models.Event{
		ID:           "afl-1",
		SportTitle:   "AFL",
		CommenceTime: "2026-10-15T09:40:00Z",
		HomeTeam:     "Carlton Blues",
		AwayTeam:     "Richmond Tigers",
		Bookmakers: []models.BookmakerQuote{
			book("sportsbet", h2h(2.5, 1.55, "Carlton Blues", "Richmond Tigers")),
			book("tab", h2h(2.4, 1.60, "Carlton Blues", "Richmond Tigers")),
			book("neds", h2h(2.6, 1.45, "Carlton Blues", "Richmond Tigers")),
		},
	}
}
