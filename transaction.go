package carteira

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Side identifies the direction of a transaction.
type Side string

const (
	// SideBuy adds shares to a position.
	SideBuy Side = "buy"
	// SideSell removes shares from a position.
	SideSell Side = "sell"
)

// ParseSide parses a string into a Side.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(s)) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	default:
		return "", fmt.Errorf("unknown transaction type: %q", s)
	}
}

// Transaction is an immutable fact in the ledger: the purchase or sale of a
// quantity of one symbol at a unit price on a given day. Edits are full
// replacements; there is no partial mutation.
type Transaction struct {
	ID       string  `json:"id"`
	Symbol   string  `json:"symbol"`
	Side     Side    `json:"type"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Date     Date    `json:"date"`
}

// NewBuy creates a buy transaction with a fresh id.
func NewBuy(day Date, symbol string, quantity, price float64) Transaction {
	return Transaction{
		ID:       uuid.NewString(),
		Symbol:   normalizeSymbol(symbol),
		Side:     SideBuy,
		Quantity: quantity,
		Price:    price,
		Date:     day,
	}
}

// NewSell creates a sell transaction with a fresh id.
func NewSell(day Date, symbol string, quantity, price float64) Transaction {
	return Transaction{
		ID:       uuid.NewString(),
		Symbol:   normalizeSymbol(symbol),
		Side:     SideSell,
		Quantity: quantity,
		Price:    price,
		Date:     day,
	}
}

// normalizeSymbol maps user input to the canonical B3 ticker form.
func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Validate checks the transaction for correctness and applies quick fixes
// where applicable (missing id, missing date). It returns the validated
// (and potentially modified) transaction or an error detailing the failure.
//
// Validation failures here are user-input errors: they surface immediately
// and never reach the ledger engine.
func (t Transaction) Validate() (Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Date.IsZero() {
		t.Date = Today()
	}
	t.Symbol = normalizeSymbol(t.Symbol)
	if t.Symbol == "" {
		return t, errors.New("transaction symbol is missing")
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return t, fmt.Errorf("unknown transaction type: %q", t.Side)
	}
	if t.Quantity <= 0 {
		return t, fmt.Errorf("transaction quantity must be positive, got %v", t.Quantity)
	}
	if t.Price <= 0 {
		return t, fmt.Errorf("transaction price must be positive, got %v", t.Price)
	}
	return t, nil
}

// Signed returns the quantity with a sign: positive for buys, negative for sells.
func (t Transaction) Signed() float64 {
	if t.Side == SideSell {
		return -t.Quantity
	}
	return t.Quantity
}

// Equal reports whether two transactions carry the same facts.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID && t.Symbol == o.Symbol && t.Side == o.Side &&
		t.Quantity == o.Quantity && t.Price == o.Price && t.Date == o.Date
}
