package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/riskbench/backtest"
)

var (
	TradesHeader = []string{"entry_date", "entry_price", "exit_date", "exit_price", "shares", "gross_pnl", "commission", "net_pnl"}
	EquityHeader = []string{"date", "value"}
)

// WriteTradesCSV writes trades with money rounded to cents.
func WriteTradesCSV(w io.Writer, trades []backtest.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TradesHeader); err != nil {
		return err
	}
	for _, t := range trades {
		err := cw.Write([]string{
			t.EntryDate.Format(time.DateOnly),
			cents(t.EntryPrice),
			t.ExitDate.Format(time.DateOnly),
			cents(t.ExitPrice),
			strconv.FormatInt(t.Shares, 10),
			cents(t.GrossPnL),
			cents(t.Commission),
			cents(t.NetPnL),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEquityCSV writes the equity curve with values rounded to cents.
func WriteEquityCSV(w io.Writer, equity []backtest.EquityPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(EquityHeader); err != nil {
		return err
	}
	for _, p := range equity {
		if err := cw.Write([]string{p.Date.Format(time.DateOnly), cents(p.Value)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes <dir>/<id>_trades.csv and <dir>/<id>_equity.csv.
func ExportCSV(dir string, rec Record) (tradesPath, equityPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("journal: export dir: %w", err)
	}
	tradesPath = filepath.Join(dir, rec.ID+"_trades.csv")
	equityPath = filepath.Join(dir, rec.ID+"_equity.csv")

	if err := writeFile(tradesPath, func(w io.Writer) error { return WriteTradesCSV(w, rec.Result.Trades) }); err != nil {
		return "", "", err
	}
	if err := writeFile(equityPath, func(w io.Writer) error { return WriteEquityCSV(w, rec.Result.Equity) }); err != nil {
		return "", "", err
	}
	return tradesPath, equityPath, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("journal: create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("journal: write %s: %w", path, err)
	}
	return f.Close()
}

// cents rounds half away from zero to two decimals.
func cents(x float64) string {
	return decimal.NewFromFloat(x).Round(2).StringFixed(2)
}
