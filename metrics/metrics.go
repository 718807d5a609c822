// Package metrics derives return and risk statistics from an equity curve
// and the net P&L of completed trades.
package metrics

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrUndefined marks a metric whose value could not be represented and was
// resolved to its sentinel.
var ErrUndefined = errors.New("metrics: undefined value")

// SortinoCap is reported when there is no downside dispersion and the
// excess return is positive.
const SortinoCap = 10.0

// Options controls annualization.
type Options struct {
	AnnualizationFactor float64 `json:"annualization_factor" yaml:"annualization_factor"`
	RiskFreeRate        float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
}

// DefaultOptions uses daily bars and a 2% risk-free rate.
func DefaultOptions() Options {
	return Options{AnnualizationFactor: 252, RiskFreeRate: 0.02}
}

// Report is the full set of computed metrics.
type Report struct {
	TotalReturn      float64   `json:"total_return"`
	AnnualizedReturn float64   `json:"annualized_return"`
	Volatility       float64   `json:"volatility"`
	Sharpe           float64   `json:"sharpe_ratio"`
	Sortino          float64   `json:"sortino_ratio"`
	MaxDrawdown      float64   `json:"max_drawdown"`
	WinRate          float64   `json:"win_rate"`
	VaR95            float64   `json:"value_at_risk_95"`
	TotalTrades      int       `json:"total_trades"`
	Wins             int       `json:"wins"`
	Losses           int       `json:"losses"`
	ProfitFactor     float64   `json:"profit_factor"`
	FinalEquity      float64   `json:"final_equity"`
	Returns          []float64 `json:"returns,omitempty"`

	// Undefined names metrics that were resolved to a sentinel because the
	// raw value was not finite.
	Undefined []string `json:"undefined,omitempty"`
}

// Compute derives a Report. It never fails: unrepresentable values are
// resolved to 0 and listed in Report.Undefined.
func Compute(equity []float64, tradePnL []float64, initial float64, opts Options) Report {
	if opts.AnnualizationFactor <= 0 {
		opts.AnnualizationFactor = DefaultOptions().AnnualizationFactor
	}
	af := opts.AnnualizationFactor

	var r Report
	r.TotalTrades = len(tradePnL)
	r.Wins, r.Losses, r.WinRate, r.ProfitFactor = tradeStats(tradePnL)

	if len(equity) == 0 {
		return r
	}
	r.FinalEquity = equity[len(equity)-1]
	if initial > 0 {
		r.TotalReturn = r.resolve("total_return", r.FinalEquity/initial-1)
	}
	r.MaxDrawdown = MaxDrawdown(equity)

	if len(equity) < 2 {
		return r
	}

	r.Returns = Returns(equity)
	n := float64(len(r.Returns))

	if 1+r.TotalReturn > 0 {
		r.AnnualizedReturn = r.resolve("annualized_return", math.Pow(1+r.TotalReturn, af/n)-1)
	} else {
		r.AnnualizedReturn = -1
	}

	mean := Mean(r.Returns)
	sd := Stdev(r.Returns)
	excess := mean - opts.RiskFreeRate/af

	r.Volatility = r.resolve("volatility", sd*math.Sqrt(af))
	if sd > 0 {
		r.Sharpe = r.resolve("sharpe_ratio", excess/sd*math.Sqrt(af))
	}

	dsd := DownsideDeviation(r.Returns)
	switch {
	case dsd > 0:
		r.Sortino = r.resolve("sortino_ratio", excess/dsd*math.Sqrt(af))
	case excess > 0:
		r.Sortino = SortinoCap
	}

	r.VaR95 = r.resolve("value_at_risk_95", Percentile(r.Returns, 0.05))
	return r
}

func (r *Report) resolve(name string, v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		r.Undefined = append(r.Undefined, name)
		return 0
	}
	return v
}

func tradeStats(pnl []float64) (wins, losses int, winRate, profitFactor float64) {
	var won, lost float64
	for _, p := range pnl {
		switch {
		case p > 0:
			wins++
			won += p
		case p < 0:
			losses++
			lost -= p
		}
	}
	if len(pnl) > 0 {
		winRate = float64(wins) / float64(len(pnl))
	}
	if lost > 0 {
		profitFactor = won / lost
	}
	return wins, losses, winRate, profitFactor
}

// Returns is the period-over-period percentage change. A step from a zero
// value contributes 0.
func Returns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}
	out := make([]float64, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1]
		if prev == 0 {
			continue
		}
		out[i-1] = equity[i]/prev - 1
	}
	return out
}

func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// DownsideDeviation is the root mean square of the negative values, measured
// from zero. It is 0 when no value is negative.
func DownsideDeviation(xs []float64) float64 {
	var ss float64
	var n int
	for _, x := range xs {
		if x < 0 {
			ss += x * x
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(ss / float64(n))
}

// Stdev is the sample standard deviation. It is 0 for fewer than two values.
func Stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// MaxDrawdown returns the largest peak-to-trough decline as a fraction of
// the peak, in [0, 1].
func MaxDrawdown(equity []float64) float64 {
	var peak, mdd float64
	for i, v := range equity {
		if i == 0 || v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - v) / peak; dd > mdd {
			mdd = dd
		}
	}
	return math.Min(1, math.Max(0, mdd))
}

// Percentile returns the p-quantile (0..1) using linear interpolation
// between closest ranks.
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Err reports ErrUndefined when any metric was resolved to a sentinel.
func (r Report) Err() error {
	if len(r.Undefined) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUndefined, strings.Join(r.Undefined, ", "))
}
