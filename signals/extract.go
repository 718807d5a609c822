package signals

import (
	"math"

	ta "github.com/thrasher-corp/gct-ta/indicators"

	"github.com/rustyeddy/riskbench/indicators"
	"github.com/rustyeddy/riskbench/market"
)

// Extract resolves spec and produces a Series of the same length as bars.
// Indices a generator cannot evaluate (warmup, short series) are false.
func Extract(bars market.Series, spec Spec) Series {
	spec = Resolve(spec)
	switch spec.Generator {
	case MACross:
		return maCross(bars, indicators.NewMA(spec.Fast), indicators.NewMA(spec.Slow))
	case EMACross:
		return maCross(bars, indicators.NewEMA(spec.Fast), indicators.NewEMA(spec.Slow))
	case RSIReversal:
		return rsiReversal(bars, spec.RSIPeriod, spec.RSILow, spec.RSIHigh)
	case MACDCross:
		return macdCross(bars, spec.Fast, spec.Slow, spec.SignalPeriod)
	default:
		return hold(len(bars))
	}
}

func hold(n int) Series {
	s := NewSeries(n)
	if n == 0 {
		return s
	}
	s.Entries[0] = true
	if n > 1 {
		s.Exits[n-1] = true
	}
	return s
}

// crossings marks entries where a crosses above b and exits where it crosses
// below, comparing bar i-1 with bar i. Both points need ok flags set.
func crossings(a, b []float64, okA, okB []bool) Series {
	s := NewSeries(len(a))
	for i := 1; i < len(a); i++ {
		if !okA[i] || !okB[i] || !okA[i-1] || !okB[i-1] {
			continue
		}
		prev := a[i-1] - b[i-1]
		cur := a[i] - b[i]
		switch {
		case prev <= 0 && cur > 0:
			s.Entries[i] = true
		case prev >= 0 && cur < 0:
			s.Exits[i] = true
		}
	}
	return s
}

func maCross(bars market.Series, fast, slow indicators.Indicator) Series {
	fv, fok := indicators.Series(fast, bars)
	sv, sok := indicators.Series(slow, bars)
	return crossings(fv, sv, fok, sok)
}

func rsiReversal(bars market.Series, period int, low, high float64) Series {
	vals, ok := indicators.Series(indicators.NewRSI(period), bars)
	s := NewSeries(len(bars))
	for i, v := range vals {
		if !ok[i] {
			continue
		}
		switch {
		case v < low:
			s.Entries[i] = true
		case v > high:
			s.Exits[i] = true
		}
	}
	return s
}

// macdCross uses the gct-ta MACD line and signal line. The first
// slow+signal-2 indices never carry a signal.
func macdCross(bars market.Series, fast, slow, signal int) Series {
	n := len(bars)
	warm := slow + signal - 2
	if n <= warm+1 {
		return NewSeries(n)
	}
	line, sig, _ := ta.MACD(bars.Closes(), fast, slow, signal)
	if len(line) != n || len(sig) != n {
		return NewSeries(n)
	}
	ok := make([]bool, n)
	for i := warm; i < n; i++ {
		ok[i] = finite(line[i]) && finite(sig[i])
	}
	return crossings(line, sig, ok, ok)
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
