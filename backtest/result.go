package backtest

import (
	"time"

	"github.com/rustyeddy/riskbench/metrics"
)

// Position is an open long holding.
type Position struct {
	Shares          int64     `json:"shares"`
	AvgPrice        float64   `json:"avg_price"`
	EntryDate       time.Time `json:"entry_date"`
	EntryCommission float64   `json:"entry_commission"`
}

// Trade is a completed entry/exit pair.
type Trade struct {
	EntryDate  time.Time `json:"entry_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitDate   time.Time `json:"exit_date"`
	ExitPrice  float64   `json:"exit_price"`
	Shares     int64     `json:"shares"`
	GrossPnL   float64   `json:"gross_pnl"`
	Commission float64   `json:"commission"`
	NetPnL     float64   `json:"net_pnl"`
}

type EquityPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Result is the immutable outcome of one run.
type Result struct {
	ID      string         `json:"id,omitempty"`
	Config  Config         `json:"config"`
	Backend string         `json:"backend"`
	Metrics metrics.Report `json:"metrics"`
	Trades  []Trade        `json:"trades"`
	Equity  []EquityPoint  `json:"equity_curve"`

	// OpenPosition is set when the run ended LONG. Equity already marks it
	// to market at the last close.
	OpenPosition *Position `json:"open_position,omitempty"`
	Cash         float64   `json:"cash"`

	Partial bool   `json:"partial"`
	Reason  string `json:"reason,omitempty"`
}

// EquityValues returns the equity curve values.
func (r Result) EquityValues() []float64 {
	out := make([]float64, len(r.Equity))
	for i, p := range r.Equity {
		out[i] = p.Value
	}
	return out
}

// TradePnL returns the net P&L of each completed trade.
func (r Result) TradePnL() []float64 {
	out := make([]float64, len(r.Trades))
	for i, t := range r.Trades {
		out[i] = t.NetPnL
	}
	return out
}

// FinalEquity is the last equity value, or the initial capital for an empty run.
func (r Result) FinalEquity() float64 {
	if len(r.Equity) == 0 {
		return r.Config.InitialCapital
	}
	return r.Equity[len(r.Equity)-1].Value
}

// NetPnL sums realized net P&L.
func (r Result) NetPnL() float64 {
	var sum float64
	for _, t := range r.Trades {
		sum += t.NetPnL
	}
	return sum
}

// summarize fills Metrics from the curve and ledger.
func (r *Result) summarize() {
	r.Metrics = metrics.Compute(r.EquityValues(), r.TradePnL(), r.Config.InitialCapital, r.Config.metricsOptions())
}
