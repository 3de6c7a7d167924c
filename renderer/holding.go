package renderer

import (
	"github.com/shopspring/decimal"

	"github.com/gmporto/carteira"
)

// SummaryMarkdown renders the holdings table with allocation and
// unrealized result per position. Positions without a fetched quote are
// valued at cost and marked as stale.
func SummaryMarkdown(positions []carteira.Position, quotes map[string]carteira.Quote, realized decimal.Decimal) string {
	r := newRenderer()
	r.Printf("# Carteira\n\n")
	if len(positions) == 0 {
		r.Printf("No positions. Record a purchase to get started.\n")
		return r.String()
	}

	type line struct {
		p      carteira.Position
		price  float64
		value  float64
		quoted bool
		change decimal.Decimal
	}

	var total float64
	lines := make([]line, 0, len(positions))
	for _, p := range positions {
		ln := line{p: p, price: p.AverageCost}
		if q, ok := quotes[p.Symbol]; ok {
			ln.price, _ = q.Price.Float64()
			ln.quoted = true
			ln.change = q.Change
		}
		ln.value = p.MarketValue(ln.price)
		total += ln.value
		lines = append(lines, ln)
	}

	r.row("Ativo", "Qtd", "Preço médio", "Cotação", "Valor", "Alocação", "Resultado", "Dia")
	r.row("---", "---:", "---:", "---:", "---:", "---:", "---:", "---:")
	for _, ln := range lines {
		cost := ln.p.Quantity * ln.p.AverageCost
		result := "—"
		quote := "—"
		day := "—"
		if ln.quoted {
			quote = brl(ln.price)
			if cost > 0 {
				result = pct((ln.value - cost) / cost * 100)
			}
			day = signedPct(ln.change)
		}
		allocation := 0.0
		if total > 0 {
			allocation = ln.value / total * 100
		}
		r.row(
			ln.p.Symbol,
			trimZeros(ln.p.Quantity),
			brl(ln.p.AverageCost),
			quote,
			brl(ln.value),
			pct(allocation),
			result,
			day,
		)
	}

	r.Printf("\n**Total**: %s", brl(total))
	if !realized.IsZero() {
		r.Printf(" · **Proventos recebidos**: %s", brlDecimal(realized))
	}
	r.Printf("\n")
	return r.String()
}

// trimZeros formats a quantity without trailing decimal zeros.
func trimZeros(v float64) string {
	return decimal.NewFromFloat(v).String()
}
