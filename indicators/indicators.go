// Package indicators provides streaming technical indicators over price bars.
package indicators

import "github.com/rustyeddy/riskbench/market"

// Indicator computes a single streaming value from bars.
// It is deterministic and never looks past the last bar it was given.
type Indicator interface {
	// Name returns a stable identifier like "SMA(20)" or "RSI(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed bar.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful.
	Ready() bool

	// Value returns the current value, or 0 while !Ready().
	Value() float64
}

// Series feeds every bar through ind and returns its value after each bar,
// with ok[i] false while the indicator was still warming up.
func Series(ind Indicator, bars market.Series) (values []float64, ok []bool) {
	ind.Reset()
	values = make([]float64, len(bars))
	ok = make([]bool, len(bars))
	for i, b := range bars {
		ind.Update(b)
		if ind.Ready() {
			values[i] = ind.Value()
			ok[i] = true
		}
	}
	return values, ok
}
