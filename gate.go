package carteira

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// DatasetKind names a derived dataset guarded by the render gate.
type DatasetKind string

const (
	DatasetTransactions DatasetKind = "transactions"
	DatasetDividends    DatasetKind = "dividends"
	DatasetQuotes       DatasetKind = "quotes"
	DatasetNews         DatasetKind = "news"
	DatasetHistory      DatasetKind = "history"
)

// AnnouncementsSignature fingerprints a set of announcements. The Processed
// flag is part of the hash: settling a dividend must invalidate any render
// gated on the dividend dataset even though no announcement was added.
func AnnouncementsSignature(anns []Announcement) string {
	h := sha1.New()
	for _, a := range anns {
		fmt.Fprintf(h, "%s|%t\n", a.ID, a.Processed)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// QuotesSignature fingerprints a quote map by symbol and price.
func QuotesSignature(quotes map[string]Quote) string {
	h := sha1.New()
	for _, symbol := range slices.Sorted(maps.Keys(quotes)) {
		q := quotes[symbol]
		fmt.Fprintf(h, "%s|%s|%s\n", symbol, q.Price.StringFixed(4), q.Change.StringFixed(4))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Quote is the latest market price for one symbol.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Change    decimal.Decimal `json:"change"` // percent, day over day
	Name      string          `json:"name,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// HistorySignature fingerprints the aggregated dividend history by
// symbol, month, and per-share value.
func HistorySignature(history map[string][]MonthlyIncome) string {
	h := sha1.New()
	for _, symbol := range slices.Sorted(maps.Keys(history)) {
		for _, m := range history[symbol] {
			fmt.Fprintf(h, "%s|%s|%s\n", symbol, m.Month, m.Value.StringFixed(6))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ArticlesSignature fingerprints a headline list by URL, the only field
// guaranteed stable across feed refreshes.
func ArticlesSignature(articles []Article) string {
	h := sha1.New()
	for _, a := range articles {
		fmt.Fprintf(h, "%s\n", a.URL)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Gate decides whether a dataset's expensive downstream work (rendering,
// broadcasting) can be skipped because the dataset has not changed since
// the last pass. Signatures are content hashes, so an in-place edit that
// keeps the record count and ids still invalidates the gate.
type Gate struct {
	mu   sync.Mutex
	last map[DatasetKind]string
}

// NewGate creates a gate with no recorded signatures; the first check for
// every dataset reports a change.
func NewGate() *Gate {
	return &Gate{last: make(map[DatasetKind]string)}
}

// Changed records the dataset's current signature and reports whether it
// differs from the previous one. A true result means downstream work must
// run; false means it can be skipped.
func (g *Gate) Changed(kind DatasetKind, signature string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last[kind] == signature {
		return false
	}
	g.last[kind] = signature
	return true
}

// Reset forgets a dataset's signature so the next check always reports a
// change. Used after a failed render, which must not be skipped on retry.
func (g *Gate) Reset(kind DatasetKind) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.last, kind)
}

// Debouncer coalesces bursts of render requests. Concurrent provider
// fetches complete within milliseconds of each other; without coalescing,
// each completion would trigger a full render.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given settle delay. A zero
// delay runs callbacks synchronously, which keeps tests deterministic.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the settle delay. A trigger arriving while one
// is pending replaces it and restarts the clock, so only the last fn of a
// burst runs.
func (d *Debouncer) Trigger(fn func()) {
	if d.delay <= 0 {
		fn()
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending trigger.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
