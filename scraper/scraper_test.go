package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gmporto/carteira/cache"
)

const sampleResponse = `{
	"assetEarningsModels": [
		{"ed": "05/06/2024", "pd": "20/06/2024", "etd": "Dividendo", "v": 1.10},
		{"ed": "31/05/2024", "pd": "14/06/2024", "etd": "Rendimento", "v": "1,10"},
		{"ed": "", "pd": "junk", "etd": "Dividendo", "v": null}
	],
	"assetEarningsYearlyModels": []
}`

func TestDividendsExtraction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.FormValue("code"); got != "HGLG11" {
			t.Errorf("code = %q, want HGLG11", got)
		}
		if got := r.FormValue("type"); got != modeFII {
			t.Errorf("type = %q, want %q for a FII", got, modeFII)
		}
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	rows, err := New(WithBaseURL(srv.URL)).Dividends(context.Background(), []string{"hglg11"})
	if err != nil {
		t.Fatal(err)
	}
	// All three rows come back raw; validation happens downstream.
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	if got := rows[0].PaymentDate; got != "2024-06-20" {
		t.Errorf("payment date = %q, want 2024-06-20 (converted from dd/MM/yyyy)", got)
	}
	if got := rows[0].ExDate; got != "2024-06-05" {
		t.Errorf("ex date = %q, want 2024-06-05", got)
	}
	// pt-BR decimal comma parsed.
	if got := rows[1].Value.StringFixed(2); got != "1.10" {
		t.Errorf("value = %s, want 1.10", got)
	}
	// The junk row passes through untouched for reconciliation to reject.
	if got := rows[2].PaymentDate; got != "junk" {
		t.Errorf("junk payment date = %q, want passthrough", got)
	}
	if !rows[2].Value.IsZero() {
		t.Errorf("null value = %s, want 0", rows[2].Value)
	}
}

func TestDividendsStockMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.FormValue("type"); got != modeStock {
			t.Errorf("type = %q, want %q for a stock", got, modeStock)
		}
		w.Write([]byte(`{"assetEarningsModels": []}`))
	}))
	defer srv.Close()

	if _, err := New(WithBaseURL(srv.URL)).Dividends(context.Background(), []string{"PETR4"}); err != nil {
		t.Fatal(err)
	}
}

func TestDividendsPartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("code") == "VALE3" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	rows, err := New(WithBaseURL(srv.URL)).Dividends(context.Background(), []string{"HGLG11", "VALE3"})
	if err != nil {
		t.Fatalf("one failing symbol must not fail the batch: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("got %d rows from the healthy symbol, want 3", len(rows))
	}
}

func TestDividendsAllFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := New(WithBaseURL(srv.URL)).Dividends(context.Background(), []string{"PETR4", "VALE3"}); err == nil {
		t.Fatal("all symbols failing must surface an error")
	}
}

func TestDividendsCached(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL), WithCache(cache.New()))
	for range 3 {
		if _, err := c.Dividends(context.Background(), []string{"HGLG11"}); err != nil {
			t.Fatal(err)
		}
	}
	if hits != 1 {
		t.Errorf("upstream hit %d times, want 1", hits)
	}
}

const sampleHistory = `{
	"chart": {
		"category": [
			{"month": "01/2024", "value": 1.10},
			{"month": "02/2024", "value": "1,05"},
			{"month": "weird", "value": 0.90}
		]
	}
}`

func TestHistoryExtraction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.FormValue("code"); got != "HGLG11" {
			t.Errorf("code = %q, want HGLG11", got)
		}
		w.Write([]byte(sampleHistory))
	}))
	defer srv.Close()

	history, err := New(WithBaseURL(srv.URL)).History(context.Background(), []string{"hglg11"})
	if err != nil {
		t.Fatal(err)
	}
	months := history["HGLG11"]
	if len(months) != 3 {
		t.Fatalf("got %d months, want 3", len(months))
	}
	if got := months[0].Month; got != "2024-01" {
		t.Errorf("month = %q, want 2024-01 (converted from MM/yyyy)", got)
	}
	if got := months[1].Value.StringFixed(2); got != "1.05" {
		t.Errorf("value = %s, want 1.05 (pt-BR comma)", got)
	}
	// Unparseable labels pass through; aggregation drops them.
	if got := months[2].Month; got != "weird" {
		t.Errorf("bad month = %q, want passthrough", got)
	}
}

func TestHistoryAllFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := New(WithBaseURL(srv.URL)).History(context.Background(), []string{"PETR4"}); err == nil {
		t.Fatal("all symbols failing must surface an error")
	}
}

func TestToDecimal(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{1.10, "1.10"},
		{"1,10", "1.10"},
		{"1.234,56", "1234.56"}, // pt-BR thousands separator
		{"1.10", "1.10"},        // already a plain decimal
		{"junk", "0.00"},
		{nil, "0.00"},
	}
	for _, tt := range tests {
		if got := toDecimal(tt.in).StringFixed(2); got != tt.want {
			t.Errorf("toDecimal(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestIsFII(t *testing.T) {
	tests := []struct {
		symbol string
		want   bool
	}{
		{"HGLG11", true},
		{"MXRF11", true},
		{"PETR4", false},
		{"VALE3", false},
	}
	for _, tt := range tests {
		if got := IsFII(tt.symbol); got != tt.want {
			t.Errorf("IsFII(%s) = %v, want %v", tt.symbol, got, tt.want)
		}
	}
}
