package carteira

import "math"

// Epsilon is the smallest quantity considered a live holding. Residuals
// below it are floored to zero to absorb floating-point drift from repeated
// average-cost adjustments.
const Epsilon = 1e-4

// Position is the derived holding of one symbol. It is never persisted;
// it is recomputed from the transaction log whenever the log changes.
type Position struct {
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	AverageCost   float64 `json:"averageCost"`
	FirstAcquired Date    `json:"firstAcquired"`
}

// MarketValue returns the position value at the given unit price.
func (p Position) MarketValue(price float64) float64 {
	return p.Quantity * price
}

// round2 rounds to two decimals, the precision positions are reported at.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
