package renderer

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gmporto/carteira"
)

func day(s string) carteira.Date { return carteira.MustParseDate(s) }

func testPositions() []carteira.Position {
	return []carteira.Position{
		{Symbol: "HGLG11", Quantity: 10, AverageCost: 160, FirstAcquired: day("2024-01-15")},
		{Symbol: "PETR4", Quantity: 120, AverageCost: 11, FirstAcquired: day("2024-01-10")},
	}
}

func TestSummaryMarkdown(t *testing.T) {
	quotes := map[string]carteira.Quote{
		"PETR4": {Symbol: "PETR4", Price: decimal.NewFromFloat(12.10), Change: decimal.NewFromFloat(1.5)},
	}
	out := SummaryMarkdown(testPositions(), quotes, decimal.RequireFromString("110.00"))

	for _, want := range []string{
		"# Carteira",
		"PETR4",
		"HGLG11",
		"+1.50%",
		"Proventos recebidos",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	// HGLG11 has no quote: valued at cost, day change dashed.
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "| HGLG11") && !strings.Contains(line, "—") {
			t.Errorf("unquoted position not marked stale: %s", line)
		}
	}
}

func TestSummaryMarkdownEmpty(t *testing.T) {
	out := SummaryMarkdown(nil, nil, decimal.Zero)
	if !strings.Contains(out, "No positions") {
		t.Errorf("empty summary = %q", out)
	}
}

func TestSummaryAllocationSumsToWhole(t *testing.T) {
	// Two equal-value positions: 50% each.
	positions := []carteira.Position{
		{Symbol: "AAAA3", Quantity: 10, AverageCost: 100},
		{Symbol: "BBBB3", Quantity: 10, AverageCost: 100},
	}
	out := SummaryMarkdown(positions, nil, decimal.Zero)
	if got := strings.Count(out, "50.0%"); got != 2 {
		t.Errorf("expected two 50.0%% allocations, found %d:\n%s", got, out)
	}
}

func TestCalendarMarkdown(t *testing.T) {
	today := day("2024-06-05")
	announcements := []carteira.Announcement{
		{
			ID: "a1", Symbol: "PETR4", Value: decimal.RequireFromString("1.10"),
			PaymentDate: day("2024-06-20"), ExDate: today, Type: carteira.TypeDividend,
		},
		{
			ID: "a2", Symbol: "HGLG11", Value: decimal.RequireFromString("1.10"),
			PaymentDate: day("2024-06-14"), ExDate: day("2024-05-31"), Type: carteira.TypeDividend,
		},
		{
			// Outside the 45-day window: not rendered.
			ID: "a3", Symbol: "VALE3", Value: decimal.RequireFromString("2.00"),
			PaymentDate: day("2024-01-10"), Type: carteira.TypeDividend,
		},
	}
	held := func(string, carteira.Date) float64 { return 100 }

	out := CalendarMarkdown(announcements, today, held)
	if strings.Contains(out, "VALE3") {
		t.Error("calendar rendered an announcement outside the active window")
	}
	if !strings.Contains(out, "data com hoje") {
		t.Errorf("record-date marker missing:\n%s", out)
	}
	// Soonest payment first.
	if strings.Index(out, "HGLG11") > strings.Index(out, "PETR4") {
		t.Error("calendar not sorted by payment date")
	}
}

func TestCalendarMarkdownEmpty(t *testing.T) {
	out := CalendarMarkdown(nil, day("2024-06-05"), func(string, carteira.Date) float64 { return 0 })
	if !strings.Contains(out, "No dividends") {
		t.Errorf("empty calendar = %q", out)
	}
}

func TestNewsMarkdown(t *testing.T) {
	articles := []carteira.Article{
		{Title: "PETR4 dispara", URL: "https://example.com/1", Source: "InfoMoney", Symbols: []string{"PETR4"}},
		{Title: "Mercado fecha em queda", URL: "https://example.com/2"},
	}
	out := NewsMarkdown(articles)
	if !strings.Contains(out, "[PETR4 dispara](https://example.com/1)") {
		t.Errorf("headline link missing:\n%s", out)
	}
	if !strings.Contains(out, "`PETR4`") {
		t.Errorf("held-symbol tag missing:\n%s", out)
	}
}

func TestHistoryMarkdown(t *testing.T) {
	history := map[string][]carteira.MonthlyIncome{
		"HGLG11": {
			{Month: "2024-01", Value: decimal.RequireFromString("1.10")},
			{Month: "2024-02", Value: decimal.RequireFromString("1.05")},
		},
	}
	held := func(string, carteira.Date) float64 { return 10 }

	out := HistoryMarkdown(history, held)
	for _, want := range []string{"## Renda mensal", "2024-01", "R$", "11,00", "10,50"} {
		if !strings.Contains(out, want) {
			t.Errorf("history missing %q:\n%s", want, out)
		}
	}
}

func TestHistoryMarkdownEmpty(t *testing.T) {
	if out := HistoryMarkdown(nil, nil); out != "" {
		t.Errorf("empty history should render nothing, got %q", out)
	}
}

func TestDashboardMarkdown(t *testing.T) {
	d := Dashboard{
		Today:     day("2024-06-05"),
		Positions: testPositions(),
		Quotes:    map[string]carteira.Quote{},
		Realized:  decimal.Zero,
		Held:      func(string, carteira.Date) float64 { return 0 },
	}
	out := d.Markdown()
	if !strings.Contains(out, "# Carteira") || !strings.Contains(out, "## Proventos") {
		t.Errorf("dashboard missing sections:\n%s", out)
	}
	if strings.Contains(out, "## Notícias") {
		t.Error("news section rendered without articles")
	}
}
