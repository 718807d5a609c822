package journal

import (
	"time"

	"github.com/rustyeddy/riskbench/backtest"
	"github.com/rustyeddy/riskbench/market"
	"github.com/rustyeddy/riskbench/risk"
	"github.com/rustyeddy/riskbench/signals"
)

var backtestPosition = backtest.Position{Shares: 12, AvgPrice: 101.5, EntryDate: day0, EntryCommission: 1.2}

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// sampleResult is the 5-bar scenario with one round trip.
func sampleResult(symbol string) backtest.Result {
	closes := []float64{100, 105, 110, 108, 115}
	bars := make(market.Series, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{Date: day0.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	sig := signals.NewSeries(len(bars))
	sig.Entries[0] = true
	sig.Exits[4] = true
	cfg := backtest.Config{Symbol: symbol, InitialCapital: 10000, CommissionRate: 0.001, Engine: "native"}
	return backtest.NewNative().Run(bars, sig, cfg)
}

func sampleRecord(symbol string) Record {
	res := sampleResult(symbol)
	a := risk.NewAssessor(risk.DefaultPolicy()).Assess(res, "hold with 2x leverage")
	return Record{
		Created:    time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC),
		Notes:      "hold with 2x leverage",
		Result:     res,
		Assessment: &a,
	}
}
