package carteira

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyIncome is one month of aggregated per-share dividend payout for
// a symbol, as scraped from the provider's trailing-12-month history.
type MonthlyIncome struct {
	Month string          `json:"month"` // YYYY-MM
	Value decimal.Decimal `json:"value"` // per share
}

// MonthEnd returns the last calendar day of the income's month. Held
// quantity for a month is evaluated at its end; a zero Date means the
// month string is malformed and the row counts nothing.
func (m MonthlyIncome) MonthEnd() Date {
	t, err := time.Parse("2006-01", m.Month)
	if err != nil {
		return Date{}
	}
	last := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	return NewDate(last.Date())
}

// MonthlyTotals collapses per-symbol history into one cash total per
// month, valuing each symbol's per-share payout at the quantity held at
// that month's end. Months with no income held are omitted. The result
// maps YYYY-MM to total cash.
func MonthlyTotals(history map[string][]MonthlyIncome, held func(symbol string, cutoff Date) float64) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for symbol, months := range history {
		for _, m := range months {
			end := m.MonthEnd()
			if end.IsZero() || !m.Value.IsPositive() {
				continue
			}
			qty := held(symbol, end)
			if qty <= Epsilon {
				continue
			}
			cash := m.Value.Mul(decimal.NewFromFloat(qty))
			totals[m.Month] = totals[m.Month].Add(cash)
		}
	}
	return totals
}
