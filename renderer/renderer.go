// Package renderer formats portfolio data as markdown reports: the
// holdings summary, the dividend calendar, and the news feed.
package renderer

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/gmporto/carteira"
)

// brl formats a value as Brazilian reais, pt-BR style (R$ 1.234,56).
func brl(v float64) string {
	return money.New(int64(math.Round(v*100)), money.BRL).Display()
}

func brlDecimal(v decimal.Decimal) string {
	f, _ := v.Round(2).Float64()
	return brl(f)
}

// pct formats a percentage with one decimal.
func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// signedPct formats a percent change with an explicit sign.
func signedPct(v decimal.Decimal) string {
	f, _ := v.Float64()
	return fmt.Sprintf("%+.2f%%", f)
}

// mdRenderer accumulates markdown output.
type mdRenderer struct {
	*strings.Builder
}

func newRenderer() *mdRenderer {
	return &mdRenderer{Builder: &strings.Builder{}}
}

// Printf formats according to a format specifier and writes to the
// renderer's buffer.
func (r *mdRenderer) Printf(format string, args ...any) {
	fmt.Fprintf(r, format, args...)
}

// row emits one markdown table row.
func (r *mdRenderer) row(cells ...string) {
	r.Printf("| %s |\n", strings.Join(cells, " | "))
}

// Dashboard is the full dataset a report cycle renders from.
type Dashboard struct {
	Today         carteira.Date
	Positions     []carteira.Position
	Quotes        map[string]carteira.Quote
	Announcements []carteira.Announcement
	Articles      []carteira.Article
	History       map[string][]carteira.MonthlyIncome
	Realized      decimal.Decimal
	Held          func(symbol string, cutoff carteira.Date) float64
}

// Markdown renders the whole dashboard: summary, calendar, and news feed.
func (d Dashboard) Markdown() string {
	var b strings.Builder
	b.WriteString(SummaryMarkdown(d.Positions, d.Quotes, d.Realized))
	b.WriteString("\n")
	b.WriteString(CalendarMarkdown(d.Announcements, d.Today, d.Held))
	if income := HistoryMarkdown(d.History, d.Held); income != "" {
		b.WriteString("\n")
		b.WriteString(income)
	}
	if len(d.Articles) > 0 {
		b.WriteString("\n")
		b.WriteString(NewsMarkdown(d.Articles))
	}
	return b.String()
}
