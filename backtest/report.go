package backtest

import (
	"fmt"
	"io"
)

const rule = "--------------------------------------------------"

// PrintResult writes a human readable summary of r.
func PrintResult(w io.Writer, r Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	if r.ID != "" {
		fmt.Fprintf(w, "Run ID:        %s\n", r.ID)
	}
	fmt.Fprintf(w, "Symbol:        %s\n", r.Config.Symbol)
	fmt.Fprintf(w, "Backend:       %s\n", r.Backend)
	if r.Partial {
		fmt.Fprintf(w, "Status:        PARTIAL (%s)\n", r.Reason)
	} else {
		fmt.Fprintln(w, "Status:        complete")
	}

	if len(r.Equity) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Period")
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Start:         %s\n", r.Equity[0].Date.Format("2006-01-02"))
		fmt.Fprintf(w, "End:           %s\n", r.Equity[len(r.Equity)-1].Date.Format("2006-01-02"))
		fmt.Fprintf(w, "Bars:          %d\n", len(r.Equity))
	}

	m := r.Metrics
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Trades:        %d\n", m.TotalTrades)
	fmt.Fprintf(w, "Wins:          %d\n", m.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", m.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", m.WinRate*100)
	if m.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", m.ProfitFactor)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Start Capital: %.2f\n", r.Config.InitialCapital)
	fmt.Fprintf(w, "Final Equity:  %.2f\n", r.FinalEquity())
	fmt.Fprintf(w, "Net P/L:       %.2f\n", r.NetPnL())
	fmt.Fprintf(w, "Return:        %.2f%%\n", m.TotalReturn*100)
	fmt.Fprintf(w, "Annualized:    %.2f%%\n", m.AnnualizedReturn*100)
	fmt.Fprintf(w, "Volatility:    %.2f%%\n", m.Volatility*100)
	fmt.Fprintf(w, "Sharpe:        %.2f\n", m.Sharpe)
	fmt.Fprintf(w, "Sortino:       %.2f\n", m.Sortino)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", m.MaxDrawdown*100)
	fmt.Fprintf(w, "VaR 95:        %.2f%%\n", m.VaR95*100)

	if p := r.OpenPosition; p != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Open Position")
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Shares:        %d @ %.2f since %s\n", p.Shares, p.AvgPrice, p.EntryDate.Format("2006-01-02"))
	}

	fmt.Fprintln(w)
}
