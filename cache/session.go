package cache

import "time"

// B3 trades Monday through Friday, 10:00 to 18:00 São Paulo time. The
// bounds are deliberately generous: pre-open auctions and after-market
// both fall inside, which only makes quotes refresh a bit more often.
const (
	sessionOpenHour  = 10
	sessionCloseHour = 18
)

var saoPaulo = func() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}()

// MarketOpen reports whether the B3 trading session is open at t. Exchange
// holidays are not modeled; a closed-holiday Tuesday just refreshes quotes
// at the open-session cadence for nothing.
func MarketOpen(t time.Time) bool {
	t = t.In(saoPaulo)
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return t.Hour() >= sessionOpenHour && t.Hour() < sessionCloseHour
}

// Data classes with distinct freshness needs.
const (
	ClassQuote     = "quote"
	ClassDividend  = "dividend"
	ClassNews      = "news"
	ClassAssetName = "asset-name"
)

// TTL returns how long a cached value of the given class stays fresh at
// time t. Quotes and dividend lookups wear out fast during the trading
// session and slowly outside it, at different magnitudes; asset names
// never change and never expire.
func TTL(class string, t time.Time) time.Duration {
	switch class {
	case ClassQuote:
		if MarketOpen(t) {
			return 10 * time.Minute
		}
		return 8 * time.Hour
	case ClassDividend:
		// Announcements land during business hours; overnight there is
		// nothing new to scrape.
		if MarketOpen(t) {
			return 4 * time.Hour
		}
		return 24 * time.Hour
	case ClassNews:
		return 30 * time.Minute
	case ClassAssetName:
		return NeverExpires
	default:
		return time.Hour
	}
}
