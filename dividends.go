package carteira

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// DividendType classifies a cash distribution.
type DividendType string

const (
	TypeDividend    DividendType = "dividend"
	TypeJCP         DividendType = "jcp" // juros sobre capital próprio
	TypeTaxAdjusted DividendType = "tax-adjusted"
	TypeOther       DividendType = "other"
)

// ParseDividendType maps the loose labels upstream scrapers emit to a
// canonical DividendType.
func ParseDividendType(s string) DividendType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dividend", "dividendo", "rendimento":
		return TypeDividend
	case "jcp", "jscp", "juros sobre capital", "juros sobre capital próprio", "interest-on-capital":
		return TypeJCP
	case "tax-adjusted", "rendimento tributado":
		return TypeTaxAdjusted
	default:
		return TypeOther
	}
}

// Announcement is a dividend announcement for one symbol: a per-share
// value, the payment date, and the record date that decides eligibility.
//
// The id doubles as the natural identity key (see announcementKey), which
// is how re-scraped duplicates are recognized as already known. Processed
// flips to true once the payment date has passed and cash was credited;
// a known announcement is never overwritten by a re-scrape, so the flag
// cannot be clobbered.
type Announcement struct {
	ID          string          `json:"id"`
	Symbol      string          `json:"symbol"`
	Value       decimal.Decimal `json:"value"` // per share
	PaymentDate Date            `json:"paymentDate"`
	ExDate      Date            `json:"exDate,omitzero"` // zero when the scraper gave no record date
	Type        DividendType    `json:"dividendType"`
	Processed   bool            `json:"processed"`
	CreatedAt   Date            `json:"createdAt"`
}

// EligibilityDate is the record date, falling back to the payment date
// when the scraper did not provide one.
func (a Announcement) EligibilityDate() Date {
	if a.ExDate.IsZero() {
		return a.PaymentDate
	}
	return a.ExDate
}

// announcementKey builds the composite natural key for an announcement.
// The value is formatted at fixed precision so that float-to-string drift
// can never make the same payment look like two different ones.
func announcementKey(symbol string, payment Date, typ DividendType, value decimal.Decimal) string {
	return fmt.Sprintf("%s_%s_%s_%s", symbol, payment, typ, value.StringFixed(6))
}

// RawDividend is one row as returned by the scrape provider, before
// validation. Upstream scrapers are unreliable: dates may be malformed,
// values may be zero placeholders. Rows are validated defensively at
// ingestion and malformed ones discarded.
type RawDividend struct {
	Symbol      string          `json:"symbol"`
	Value       decimal.Decimal `json:"value"`
	PaymentDate string          `json:"paymentDate"`
	ExDate      string          `json:"exDate"`
	Type        string          `json:"type"`
}

var isoDayRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// validate converts a raw scraped row into an Announcement, or reports why
// it must be discarded.
func (r RawDividend) validate(today Date) (Announcement, error) {
	symbol := normalizeSymbol(r.Symbol)
	if symbol == "" {
		return Announcement{}, fmt.Errorf("scraped row has no symbol")
	}
	if !isoDayRe.MatchString(r.PaymentDate) {
		return Announcement{}, fmt.Errorf("scraped row for %s has malformed payment date %q", symbol, r.PaymentDate)
	}
	payment, err := ParseDate(r.PaymentDate)
	if err != nil {
		return Announcement{}, fmt.Errorf("scraped row for %s: %w", symbol, err)
	}
	if !r.Value.IsPositive() {
		return Announcement{}, fmt.Errorf("scraped row for %s has non-positive value %s", symbol, r.Value)
	}
	var ex Date
	if isoDayRe.MatchString(r.ExDate) {
		// A malformed record date is not fatal; eligibility falls back to
		// the payment date.
		ex, _ = ParseDate(r.ExDate)
	}
	return Announcement{
		Symbol:      symbol,
		Value:       r.Value,
		PaymentDate: payment,
		ExDate:      ex,
		Type:        ParseDividendType(r.Type),
		CreatedAt:   today,
	}, nil
}

// Reconcile merges freshly scraped rows into the known set.
//
// Each valid row gets its composite identity key; a key that collides with
// one generated earlier in the same batch gets a versioned suffix (_v2,
// _v3, …) instead of being dropped — same-day same-value distinct payments
// are legitimate (ordinary plus extraordinary dividend on one day). A row
// is new only when no known announcement carries its key. Known
// announcements are never modified.
//
// It returns the merged set and the fresh announcements alone, so the
// caller can persist only what changed. Reconciling the same batch twice
// yields zero fresh announcements the second time. Malformed rows are
// dropped and reported through the second return value's companion error
// list; callers log them and move on.
func Reconcile(known []Announcement, scraped []RawDividend, today Date) (merged, fresh []Announcement, dropped []error) {
	knownKeys := make(map[string]struct{}, len(known))
	for _, a := range known {
		knownKeys[a.ID] = struct{}{}
	}

	merged = slices.Clone(known)
	batch := make(map[string]int)
	for _, raw := range scraped {
		a, err := raw.validate(today)
		if err != nil {
			dropped = append(dropped, err)
			continue
		}
		key := announcementKey(a.Symbol, a.PaymentDate, a.Type, a.Value)
		batch[key]++
		if n := batch[key]; n > 1 {
			key = fmt.Sprintf("%s_v%d", key, n)
		}
		a.ID = key
		if _, ok := knownKeys[key]; ok {
			continue
		}
		knownKeys[key] = struct{}{}
		merged = append(merged, a)
		fresh = append(fresh, a)
	}
	return merged, fresh, dropped
}

// activeWindowDays bounds how far back "active" announcements reach.
// Older records are retained but excluded from display.
const activeWindowDays = 45

// Active filters announcements to the display window: payment dates from
// 45 days in the past through any future date.
func Active(known []Announcement, today Date) []Announcement {
	floor := today.Add(-activeWindowDays)
	active := make([]Announcement, 0, len(known))
	for _, a := range known {
		if a.PaymentDate.Before(floor) {
			continue
		}
		active = append(active, a)
	}
	return active
}

// DropSymbol removes every announcement for a symbol. Announcements are
// otherwise never deleted; this runs only when the user removes the last
// transaction for the symbol.
func DropSymbol(known []Announcement, symbol string) []Announcement {
	return slices.DeleteFunc(slices.Clone(known), func(a Announcement) bool {
		return a.Symbol == symbol
	})
}

// Settlement is the outcome of settling paid dividends: the realized cash
// total and the announcements whose Processed flag flipped on this pass.
type Settlement struct {
	TotalCash      decimal.Decimal
	NewlyProcessed []Announcement
}

// SettlePaidDividends computes realized dividend income.
//
// For every announcement whose payment date has arrived, the eligible
// quantity is the quantity held at end of the record date (falling back to
// the payment date). Cash accrues as value times eligible quantity. The
// total is always recomputed from scratch — the function is idempotent by
// construction, never an incremental ledger — so correctness does not
// depend on call order. Announcements settled for the first time are
// marked Processed in place and collected for persistence.
func SettlePaidDividends(known []Announcement, today Date, held func(symbol string, cutoff Date) float64) Settlement {
	var s Settlement
	for i := range known {
		a := &known[i]
		if a.PaymentDate.IsZero() || a.PaymentDate.After(today) || !a.Value.IsPositive() {
			continue
		}
		quantity := held(a.Symbol, a.EligibilityDate())
		if quantity <= 0 {
			continue
		}
		s.TotalCash = s.TotalCash.Add(a.Value.Mul(decimal.NewFromFloat(quantity)))
		if !a.Processed {
			a.Processed = true
			s.NewlyProcessed = append(s.NewlyProcessed, *a)
		}
	}
	return s
}

// Category buckets an announcement for notification purposes. The
// categories are mutually exclusive by evaluation order: paid-today is
// checked first, then record-date-today, then newly-announced.
type Category int

const (
	// CategoryNone covers future and past-irrelevant announcements,
	// excluded from notification but retained.
	CategoryNone Category = iota
	// CategoryPaidToday: payment date is today and the holder is eligible.
	CategoryPaidToday
	// CategoryRecordDateToday: today is the record date.
	CategoryRecordDateToday
	// CategoryNewlyAnnounced: first seen today, and neither of the above.
	CategoryNewlyAnnounced
)

func (c Category) String() string {
	switch c {
	case CategoryPaidToday:
		return "paid-today"
	case CategoryRecordDateToday:
		return "record-date-today"
	case CategoryNewlyAnnounced:
		return "newly-announced"
	default:
		return "none"
	}
}

// Classify assigns an announcement to exactly one notification category.
func Classify(a Announcement, today Date, held func(symbol string, cutoff Date) float64) Category {
	if a.PaymentDate == today && held(a.Symbol, a.EligibilityDate()) > 0 {
		return CategoryPaidToday
	}
	if a.ExDate == today {
		return CategoryRecordDateToday
	}
	if a.CreatedAt == today {
		return CategoryNewlyAnnounced
	}
	return CategoryNone
}
