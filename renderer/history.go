package renderer

import (
	"sort"

	"github.com/gmporto/carteira"
)

// HistoryMarkdown renders monthly dividend income over the trailing
// twelve months, valuing each symbol's per-share payouts at the quantity
// held at that month's end.
func HistoryMarkdown(history map[string][]carteira.MonthlyIncome, held func(string, carteira.Date) float64) string {
	totals := carteira.MonthlyTotals(history, held)
	if len(totals) == 0 {
		return ""
	}
	months := make([]string, 0, len(totals))
	for month := range totals {
		months = append(months, month)
	}
	sort.Strings(months)
	if len(months) > 12 {
		months = months[len(months)-12:]
	}

	r := newRenderer()
	r.Printf("## Renda mensal\n\n")
	r.row("Mês", "Proventos")
	r.row("---", "---:")
	for _, month := range months {
		r.row(month, brlDecimal(totals[month]))
	}
	return r.String()
}
