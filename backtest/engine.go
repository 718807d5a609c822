package backtest

import (
	"math"
	"time"

	"github.com/rustyeddy/riskbench/market"
	"github.com/rustyeddy/riskbench/signals"
)

// Utilization is the share of cash committed to a new position.
const Utilization = 0.95

// Fill is when a signal evaluated on bar i is executed.
type Fill int

const (
	// SameBarClose executes at close[i].
	SameBarClose Fill = iota
	// NextBarOpen executes at open[i+1]; a signal on the last bar is dropped.
	NextBarOpen
)

// Engine is the long-only FLAT -> LONG -> FLAT simulation, one position at a time.
type Engine struct {
	name string
	fill Fill
}

// NewNative returns the default backend: same-bar execution at the close.
func NewNative() *Engine { return &Engine{name: Native, fill: SameBarClose} }

// NewNextBar returns the opt-in backend that fills at the next bar's open.
func NewNextBar() *Engine { return &Engine{name: NextBar, fill: NextBarOpen} }

func (e *Engine) Name() string { return e.name }

// Run simulates cfg over bars. Bad input never fails the call: an empty
// series, invalid bars or misaligned signals produce a Partial result with
// Reason set.
func (e *Engine) Run(bars market.Series, sig signals.Series, cfg Config) Result {
	res := Result{
		Config:  cfg,
		Backend: e.name,
		Trades:  []Trade{},
		Equity:  []EquityPoint{},
		Cash:    cfg.InitialCapital,
	}

	if err := checkInput(bars, sig, cfg.Symbol); err != nil {
		res.Partial = true
		res.Reason = err.Error()
		res.summarize()
		return res
	}

	s := &state{cash: cfg.InitialCapital, rate: cfg.CommissionRate}
	res.Equity = make([]EquityPoint, 0, len(bars))

	for i, b := range bars {
		switch e.fill {
		case SameBarClose:
			s.step(sig.Entries[i], sig.Exits[i], b.Close, b.Date)
		case NextBarOpen:
			if i > 0 {
				s.step(sig.Entries[i-1], sig.Exits[i-1], b.Open, b.Date)
			}
		}
		res.Equity = append(res.Equity, EquityPoint{Date: b.Date, Value: s.equity(b.Close)})
	}

	res.Trades = s.trades
	res.Cash = s.cash
	if s.open {
		p := s.pos
		res.OpenPosition = &p
	}
	res.summarize()
	return res
}

func checkInput(bars market.Series, sig signals.Series, symbol string) error {
	if err := bars.Validate(symbol); err != nil {
		return err
	}
	if err := sig.Validate(len(bars)); err != nil {
		return &market.DataError{Symbol: symbol, Index: -1, Err: err}
	}
	return nil
}

type state struct {
	cash   float64
	rate   float64
	open   bool
	pos    Position
	trades []Trade
}

// step applies one bar's signals at price. Entry while LONG and exit while
// FLAT are no-ops.
func (s *state) step(entry, exit bool, price float64, date time.Time) {
	switch {
	case !s.open && entry:
		s.openPosition(price, date)
	case s.open && exit:
		s.closePosition(price, date)
	}
}

func (s *state) openPosition(price float64, date time.Time) {
	if price <= 0 {
		return
	}
	shares := int64(math.Floor(s.cash * Utilization / price))
	if shares <= 0 {
		return
	}
	notional := float64(shares) * price
	s.cash -= notional * (1 + s.rate)
	s.pos = Position{
		Shares:          shares,
		AvgPrice:        price,
		EntryDate:       date,
		EntryCommission: notional * s.rate,
	}
	s.open = true
}

func (s *state) closePosition(price float64, date time.Time) {
	p := s.pos
	notional := float64(p.Shares) * price
	s.cash += notional * (1 - s.rate)

	gross := (price - p.AvgPrice) * float64(p.Shares)
	commission := p.EntryCommission + notional*s.rate
	s.trades = append(s.trades, Trade{
		EntryDate:  p.EntryDate,
		EntryPrice: p.AvgPrice,
		ExitDate:   date,
		ExitPrice:  price,
		Shares:     p.Shares,
		GrossPnL:   gross,
		Commission: commission,
		NetPnL:     gross - commission,
	})
	s.pos = Position{}
	s.open = false
}

func (s *state) equity(mark float64) float64 {
	if !s.open {
		return s.cash
	}
	return s.cash + float64(s.pos.Shares)*mark
}
