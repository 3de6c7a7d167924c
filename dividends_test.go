package carteira

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func raw(symbol, payment, ex, typ string, value float64) RawDividend {
	return RawDividend{
		Symbol:      symbol,
		Value:       decimal.NewFromFloat(value),
		PaymentDate: payment,
		ExDate:      ex,
		Type:        typ,
	}
}

func TestReconcileIdempotence(t *testing.T) {
	today := day("2024-06-01")
	scraped := []RawDividend{
		raw("PETR4", "2024-06-20", "2024-06-05", "dividendo", 1.10),
		raw("HGLG11", "2024-06-14", "2024-05-31", "rendimento", 1.10),
	}

	merged, fresh, dropped := Reconcile(nil, scraped, today)
	if len(dropped) != 0 {
		t.Fatalf("dropped %v rows, want 0", dropped)
	}
	if len(fresh) != 2 || len(merged) != 2 {
		t.Fatalf("fresh=%d merged=%d, want 2/2", len(fresh), len(merged))
	}

	// Same batch again: nothing new.
	merged2, fresh2, _ := Reconcile(merged, scraped, today.Add(1))
	if len(fresh2) != 0 {
		t.Errorf("second reconcile produced %d fresh announcements, want 0", len(fresh2))
	}
	if len(merged2) != 2 {
		t.Errorf("second reconcile merged=%d, want 2", len(merged2))
	}
}

func TestReconcileBatchCollisionSuffix(t *testing.T) {
	today := day("2024-06-01")
	// Two legitimate distinct payments with identical key fields in one
	// batch: ordinary plus extraordinary dividend on the same day.
	scraped := []RawDividend{
		raw("PETR4", "2024-06-20", "2024-06-05", "dividendo", 1.10),
		raw("PETR4", "2024-06-20", "2024-06-05", "dividendo", 1.10),
	}
	_, fresh, _ := Reconcile(nil, scraped, today)
	if len(fresh) != 2 {
		t.Fatalf("got %d fresh announcements, want 2", len(fresh))
	}
	if fresh[0].ID == fresh[1].ID {
		t.Fatalf("batch collision produced duplicate id %q", fresh[0].ID)
	}
	if !strings.HasSuffix(fresh[1].ID, "_v2") {
		t.Errorf("second id = %q, want _v2 suffix", fresh[1].ID)
	}
}

func TestReconcileNeverOverwritesKnown(t *testing.T) {
	today := day("2024-06-25")
	merged, fresh, _ := Reconcile(nil, []RawDividend{
		raw("PETR4", "2024-06-20", "2024-06-05", "dividendo", 1.10),
	}, day("2024-06-01"))
	if len(fresh) != 1 {
		t.Fatal("setup failed")
	}
	merged[0].Processed = true

	merged2, fresh2, _ := Reconcile(merged, []RawDividend{
		raw("PETR4", "2024-06-20", "2024-06-05", "dividendo", 1.10),
	}, today)
	if len(fresh2) != 0 {
		t.Fatalf("re-scrape produced %d fresh announcements, want 0", len(fresh2))
	}
	if !merged2[0].Processed {
		t.Error("re-scrape cleared the Processed flag")
	}
}

func TestReconcileDropsMalformedRows(t *testing.T) {
	today := day("2024-06-01")
	scraped := []RawDividend{
		raw("PETR4", "20/06/2024", "", "dividendo", 1.10), // wrong date format
		raw("PETR4", "2024-06-20", "", "dividendo", 0),    // zero value
		raw("", "2024-06-20", "", "dividendo", 1.10),      // no symbol
		raw("VALE3", "2024-06-20", "31/05/2024", "dividendo", 2.5), // bad ex-date only
	}
	merged, fresh, dropped := Reconcile(nil, scraped, today)
	if len(dropped) != 3 {
		t.Errorf("dropped %d rows, want 3: %v", len(dropped), dropped)
	}
	if len(fresh) != 1 || len(merged) != 1 {
		t.Fatalf("fresh=%d merged=%d, want 1/1", len(fresh), len(merged))
	}
	// Malformed ex-date falls back to the payment date for eligibility.
	if got, want := merged[0].EligibilityDate(), day("2024-06-20"); got != want {
		t.Errorf("eligibility = %v, want %v", got, want)
	}
}

func TestActiveWindow(t *testing.T) {
	today := day("2024-06-01")
	mk := func(payment string) Announcement {
		return Announcement{ID: payment, Symbol: "PETR4", Value: decimal.NewFromInt(1), PaymentDate: day(payment)}
	}
	known := []Announcement{
		mk("2024-04-16"), // 46 days back, outside
		mk("2024-04-17"), // exactly 45 days back, inside
		mk("2024-06-01"),
		mk("2025-01-01"), // far future, inside
	}
	active := Active(known, today)
	if len(active) != 3 {
		t.Fatalf("got %d active, want 3", len(active))
	}
	for _, a := range active {
		if a.ID == "2024-04-16" {
			t.Error("announcement outside the window survived the filter")
		}
	}
}

func TestSettlePaidDividends(t *testing.T) {
	// Held 120 shares on the record date; R$1.00 per share paid.
	l := NewLedger()
	if err := l.Append(
		NewBuy(day("2024-01-10"), "ABCD11", 100, 10),
		NewBuy(day("2024-02-10"), "ABCD11", 50, 10),
		NewSell(day("2024-03-10"), "ABCD11", 30, 12),
	); err != nil {
		t.Fatal(err)
	}

	known := []Announcement{{
		ID:          "a1",
		Symbol:      "ABCD11",
		Value:       decimal.NewFromInt(1),
		PaymentDate: day("2024-04-15"),
		ExDate:      day("2024-03-28"),
	}}

	s := SettlePaidDividends(known, day("2024-04-15"), l.QuantityHeldAsOf)
	if got, want := s.TotalCash.StringFixed(2), "120.00"; got != want {
		t.Errorf("TotalCash = %s, want %s", got, want)
	}
	if len(s.NewlyProcessed) != 1 {
		t.Fatalf("NewlyProcessed = %d, want 1", len(s.NewlyProcessed))
	}
	if !known[0].Processed {
		t.Error("announcement not flagged Processed")
	}

	// Second pass: same cash, nothing newly processed.
	s2 := SettlePaidDividends(known, day("2024-04-16"), l.QuantityHeldAsOf)
	if got := s2.TotalCash.StringFixed(2); got != "120.00" {
		t.Errorf("second pass TotalCash = %s, want 120.00", got)
	}
	if len(s2.NewlyProcessed) != 0 {
		t.Errorf("second pass NewlyProcessed = %d, want 0", len(s2.NewlyProcessed))
	}
}

func TestSettleSkipsIneligible(t *testing.T) {
	l := NewLedger()
	if err := l.Append(
		// Bought after the record date: entitled to nothing.
		NewBuy(day("2024-04-01"), "ABCD11", 100, 10),
	); err != nil {
		t.Fatal(err)
	}
	known := []Announcement{{
		ID:          "a1",
		Symbol:      "ABCD11",
		Value:       decimal.NewFromInt(1),
		PaymentDate: day("2024-04-15"),
		ExDate:      day("2024-03-28"),
	}}
	s := SettlePaidDividends(known, day("2024-04-20"), l.QuantityHeldAsOf)
	if !s.TotalCash.IsZero() {
		t.Errorf("TotalCash = %s, want 0", s.TotalCash)
	}
	if known[0].Processed {
		t.Error("ineligible announcement flagged Processed")
	}
}

func TestSettleSkipsFuturePayments(t *testing.T) {
	l := NewLedger()
	if err := l.Append(NewBuy(day("2024-01-10"), "ABCD11", 100, 10)); err != nil {
		t.Fatal(err)
	}
	known := []Announcement{{
		ID:          "a1",
		Symbol:      "ABCD11",
		Value:       decimal.NewFromInt(1),
		PaymentDate: day("2024-04-15"),
	}}
	s := SettlePaidDividends(known, day("2024-04-14"), l.QuantityHeldAsOf)
	if !s.TotalCash.IsZero() {
		t.Errorf("TotalCash = %s, want 0", s.TotalCash)
	}
}

func TestClassify(t *testing.T) {
	today := day("2024-06-05")
	held := func(string, Date) float64 { return 100 }
	nobody := func(string, Date) float64 { return 0 }

	tests := []struct {
		name string
		a    Announcement
		held func(string, Date) float64
		want Category
	}{
		{
			"paid today and eligible",
			Announcement{PaymentDate: today, ExDate: day("2024-05-20"), CreatedAt: today},
			held, CategoryPaidToday,
		},
		{
			"paid today but ineligible",
			Announcement{PaymentDate: today, ExDate: day("2024-05-20"), CreatedAt: day("2024-05-20")},
			nobody, CategoryNone,
		},
		{
			"record date today",
			Announcement{PaymentDate: day("2024-06-20"), ExDate: today, CreatedAt: day("2024-05-20")},
			held, CategoryRecordDateToday,
		},
		{
			"newly announced",
			Announcement{PaymentDate: day("2024-06-20"), ExDate: day("2024-06-10"), CreatedAt: today},
			held, CategoryNewlyAnnounced,
		},
		{
			"old future payment",
			Announcement{PaymentDate: day("2024-06-20"), ExDate: day("2024-06-10"), CreatedAt: day("2024-05-20")},
			held, CategoryNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.a, today, tt.held); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDividendType(t *testing.T) {
	tests := []struct {
		in   string
		want DividendType
	}{
		{"Dividendo", TypeDividend},
		{"rendimento", TypeDividend},
		{"JCP", TypeJCP},
		{"rendimento tributado", TypeTaxAdjusted},
		{"amortização", TypeOther},
	}
	for _, tt := range tests {
		if got := ParseDividendType(tt.in); got != tt.want {
			t.Errorf("ParseDividendType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
