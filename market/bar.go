// Package market holds the price-bar data contract shared by the signal
// extractor, the simulation backends and the market data providers.
package market

import (
	"math"
	"time"
)

// Bar is one OHLCV time step (typically one trading day).
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Finite reports whether every OHLCV field is a finite number.
func (b Bar) Finite() bool {
	for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Series is an ascending, date-ordered sequence of bars for one symbol.
// Callers treat a Series as immutable once handed to the engine.
type Series []Bar

// Len returns the number of bars.
func (s Series) Len() int { return len(s) }

// Closes returns the close prices in bar order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Between returns the bars whose date falls inside [start, end]. A zero start
// or end leaves that side unbounded. The result shares no memory with s.
func (s Series) Between(start, end time.Time) Series {
	out := make(Series, 0, len(s))
	for _, b := range s {
		if !start.IsZero() && b.Date.Before(start) {
			continue
		}
		if !end.IsZero() && b.Date.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Validate checks the provider contract: at least one bar, all fields finite,
// strictly ascending dates. The returned error is always a *DataError.
func (s Series) Validate(symbol string) error {
	if len(s) == 0 {
		return &DataError{Symbol: symbol, Index: -1, Err: ErrNoData}
	}
	for i, b := range s {
		if !b.Finite() {
			return &DataError{Symbol: symbol, Index: i, Err: ErrNonFinite}
		}
		if i > 0 && !b.Date.After(s[i-1].Date) {
			return &DataError{Symbol: symbol, Index: i, Err: ErrUnordered}
		}
	}
	return nil
}
