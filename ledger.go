package carteira

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"iter"
	"maps"
	"slices"
	"sort"
)

// Ledger holds the full transaction history for one portfolio.
//
// Transactions are kept in chronological order. All derived figures
// (positions, point-in-time held quantities) are computed from scratch on
// demand; callers gate recomputation on Signature.
type Ledger struct {
	transactions []Transaction

	// heldMemo caches QuantityHeldAsOf results. A single edit can shift
	// every subsequent cutoff computation for a symbol, so any mutation
	// clears the whole table rather than invalidating selectively.
	heldMemo map[heldKey]float64
}

type heldKey struct {
	symbol string
	day    Date
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{heldMemo: make(map[heldKey]float64)}
}

// Append validates and adds transactions to the ledger, maintaining
// chronological order. A sell that would overdraw the position on any day
// is rejected: over-selling is a hard validation error here, not a silent
// clamp (see DESIGN.md for the rationale). The check runs over the whole
// timeline, so a back-dated sell that starves a later one is caught too.
func (l *Ledger) Append(txs ...Transaction) error {
	for _, tx := range txs {
		tx, err := tx.Validate()
		if err != nil {
			return err
		}
		if tx.Side == SideSell {
			if err := overdraw(append(slices.Clone(l.transactions), tx), tx.Symbol); err != nil {
				return err
			}
		}
		l.transactions = append(l.transactions, tx)
		l.stableSort()
		l.invalidate()
	}
	return nil
}

// overdraw walks the symbol's transactions in date order and reports the
// first point where the running balance would go negative.
func overdraw(txs []Transaction, symbol string) error {
	sorted := slices.Clone(txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	var held float64
	for _, tx := range sorted {
		if tx.Symbol != symbol {
			continue
		}
		if tx.Side == SideSell && tx.Quantity > held+Epsilon {
			return fmt.Errorf("on %s, cannot sell %v of %s, position is only %v", tx.Date, tx.Quantity, tx.Symbol, held)
		}
		held += tx.Signed()
	}
	return nil
}

// append adds transactions without validation. Used when decoding a ledger
// that was already validated on write.
func (l *Ledger) append(txs ...Transaction) {
	l.transactions = append(l.transactions, txs...)
	l.stableSort()
	l.invalidate()
}

// Replace swaps the transaction with the given id for a validated
// replacement. The replacement keeps the id. Over-sell enforcement is the
// same as Append's: an edit that overdraws the position on any day, for
// either the old or the new symbol, leaves the ledger untouched.
func (l *Ledger) Replace(id string, tx Transaction) error {
	i := l.index(id)
	if i < 0 {
		return fmt.Errorf("transaction %q not found", id)
	}
	tx.ID = id
	tx, err := tx.Validate()
	if err != nil {
		return err
	}
	candidate := slices.Clone(l.transactions)
	old := candidate[i]
	candidate[i] = tx
	if err := overdraw(candidate, tx.Symbol); err != nil {
		return err
	}
	if old.Symbol != tx.Symbol {
		if err := overdraw(candidate, old.Symbol); err != nil {
			return err
		}
	}
	l.transactions[i] = tx
	l.stableSort()
	l.invalidate()
	return nil
}

// Remove deletes the transaction with the given id. Removing a buy that a
// later sell depends on is rejected, like any other mutation that would
// overdraw the position.
func (l *Ledger) Remove(id string) error {
	i := l.index(id)
	if i < 0 {
		return fmt.Errorf("transaction %q not found", id)
	}
	symbol := l.transactions[i].Symbol
	candidate := slices.Delete(slices.Clone(l.transactions), i, i+1)
	if err := overdraw(candidate, symbol); err != nil {
		return err
	}
	l.transactions = slices.Delete(l.transactions, i, i+1)
	l.invalidate()
	return nil
}

func (l *Ledger) index(id string) int {
	for i, tx := range l.transactions {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the transaction with the given id.
func (l *Ledger) Get(id string) (Transaction, bool) {
	i := l.index(id)
	if i < 0 {
		return Transaction{}, false
	}
	return l.transactions[i], true
}

// Len returns the number of transactions in the ledger.
func (l *Ledger) Len() int { return len(l.transactions) }

// Transactions returns an iterator over transactions in chronological order.
func (l *Ledger) Transactions() iter.Seq[Transaction] {
	return func(yield func(Transaction) bool) {
		for _, tx := range l.transactions {
			if !yield(tx) {
				return
			}
		}
	}
}

// Symbols returns the sorted set of symbols that appear in the ledger.
func (l *Ledger) Symbols() []string {
	visited := make(map[string]struct{})
	for _, tx := range l.transactions {
		visited[tx.Symbol] = struct{}{}
	}
	symbols := slices.Collect(maps.Keys(visited))
	slices.Sort(symbols)
	return symbols
}

// HasSymbol reports whether any transaction references the symbol.
func (l *Ledger) HasSymbol(symbol string) bool {
	for _, tx := range l.transactions {
		if tx.Symbol == symbol {
			return true
		}
	}
	return false
}

// stableSort sorts the ledger by transaction date. The sort is stable, so
// transactions on the same day keep their original relative order.
func (l *Ledger) stableSort() {
	sort.SliceStable(l.transactions, func(i, j int) bool {
		return l.transactions[i].Date.Before(l.transactions[j].Date)
	})
}

// invalidate clears every memoized derived figure. It must run on every
// mutation path before any subsequent read, or stale eligibility
// quantities leak into dividend calculations.
func (l *Ledger) invalidate() {
	clear(l.heldMemo)
}

// Signature returns a content fingerprint of the ledger. Two ledgers with
// the same signature hold the same facts, so derived datasets gated on it
// can safely be reused. Content hashing (rather than a length plus last-id
// heuristic) also catches in-place edits that keep the id.
func (l *Ledger) Signature() string {
	h := sha1.New()
	for _, tx := range l.transactions {
		fmt.Fprintf(h, "%s|%s|%s|%v|%v|%s\n", tx.ID, tx.Symbol, tx.Side, tx.Quantity, tx.Price, tx.Date)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ComputePositions reduces the transaction log into current per-symbol
// positions with average cost basis.
//
// For each symbol a running (quantity, totalCost) accumulator is kept.
// A buy adds quantity and quantity*price. A sell removes cost at the
// pre-sale average, never at the sale price: selling never changes the
// average cost of the remaining shares. Residual quantities below Epsilon
// snap both quantity and cost to exactly zero, so repeated float
// subtraction cannot leave dust positions.
//
// The function is pure: input order does not matter (transactions are
// sorted by date first) and the ledger is not mutated. A sell exceeding
// the running quantity is clamped to zero here; Append rejects such sells
// up front, so the clamp only matters for ledgers loaded from a source
// that did not validate.
func (l *Ledger) ComputePositions() []Position {
	type acc struct {
		quantity  float64
		totalCost float64
		first     Date
	}

	sorted := slices.Clone(l.transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	accs := make(map[string]*acc)
	for _, tx := range sorted {
		a := accs[tx.Symbol]
		if a == nil {
			a = &acc{}
			accs[tx.Symbol] = a
		}
		switch tx.Side {
		case SideBuy:
			if a.quantity <= Epsilon && a.first.IsZero() {
				a.first = tx.Date
			}
			a.quantity += tx.Quantity
			a.totalCost += tx.Quantity * tx.Price
		case SideSell:
			if a.quantity > Epsilon {
				averageCost := a.totalCost / a.quantity
				a.quantity -= tx.Quantity
				a.totalCost -= tx.Quantity * averageCost
			} else {
				a.quantity -= tx.Quantity
			}
		}
		if a.quantity < Epsilon {
			a.quantity = 0
			a.totalCost = 0
		}
	}

	symbols := slices.Collect(maps.Keys(accs))
	slices.Sort(symbols)

	positions := make([]Position, 0, len(symbols))
	for _, symbol := range symbols {
		a := accs[symbol]
		if a.quantity <= Epsilon {
			continue
		}
		positions = append(positions, Position{
			Symbol:        symbol,
			Quantity:      a.quantity,
			AverageCost:   round2(a.totalCost / a.quantity),
			FirstAcquired: a.first,
		})
	}
	return positions
}

// QuantityHeldAsOf returns the signed quantity of a symbol held at the end
// of the cutoff day (inclusive): the number of shares that entitles the
// holder to a dividend whose record date is the cutoff.
//
// The result is memoized per (symbol, cutoff); the memo is fully cleared
// by every ledger mutation. This function runs once per (symbol, dividend)
// pair, potentially thousands of times per render cycle.
func (l *Ledger) QuantityHeldAsOf(symbol string, cutoff Date) float64 {
	key := heldKey{symbol: symbol, day: cutoff}
	if held, ok := l.heldMemo[key]; ok {
		return held
	}
	var held float64
	for _, tx := range l.transactions {
		if tx.Date.After(cutoff) {
			// The ledger is sorted by date, so it's safe to break.
			break
		}
		if tx.Symbol == symbol {
			held += tx.Signed()
		}
	}
	if held < Epsilon {
		held = 0
	}
	l.heldMemo[key] = held
	return held
}
