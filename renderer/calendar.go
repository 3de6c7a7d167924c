package renderer

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gmporto/carteira"
)

// CalendarMarkdown renders the dividend calendar: announcements inside the
// active window, soonest payment first, with the amount the holder will
// actually receive and today's notification markers.
func CalendarMarkdown(announcements []carteira.Announcement, today carteira.Date, held func(string, carteira.Date) float64) string {
	r := newRenderer()
	r.Printf("## Proventos\n\n")

	active := carteira.Active(announcements, today)
	if len(active) == 0 {
		r.Printf("No dividends announced in the last 45 days.\n")
		return r.String()
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].PaymentDate.Before(active[j].PaymentDate)
	})

	r.row("Ativo", "Tipo", "Data com", "Pagamento", "Por cota", "Qtd", "Total", "")
	r.row("---", "---", "---", "---", "---:", "---:", "---:", "---")
	for _, a := range active {
		quantity := held(a.Symbol, a.EligibilityDate())
		total := "—"
		if quantity > 0 {
			total = brlDecimal(a.Value.Mul(decimal.NewFromFloat(quantity)))
		}
		exDate := "—"
		if !a.ExDate.IsZero() {
			exDate = a.ExDate.String()
		}
		r.row(
			a.Symbol,
			string(a.Type),
			exDate,
			a.PaymentDate.String(),
			brlDecimal(a.Value),
			trimZeros(quantity),
			total,
			marker(carteira.Classify(a, today, held)),
		)
	}
	return r.String()
}

func marker(c carteira.Category) string {
	switch c {
	case carteira.CategoryPaidToday:
		return "💰 pago hoje"
	case carteira.CategoryRecordDateToday:
		return "📅 data com hoje"
	case carteira.CategoryNewlyAnnounced:
		return "✨ novo"
	default:
		return ""
	}
}
