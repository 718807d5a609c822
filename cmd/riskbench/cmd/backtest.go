package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/riskbench/backtest"
	"github.com/rustyeddy/riskbench/journal"
	"github.com/rustyeddy/riskbench/research"
	"github.com/rustyeddy/riskbench/risk"
	"github.com/rustyeddy/riskbench/signals"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest <symbol>",
	Short: "Backtest a strategy on one symbol",
	Long: `Run one backtest, assess its risk and print both reports.

The strategy is either named with --strategy or inferred from --notes.

Examples:
  riskbench backtest SPY --start 2023-01-01 --end 2023-12-31 --notes "10/30 moving average crossover"
  riskbench backtest AAPL --strategy rsi --rsi-period 14 --persist
  riskbench backtest MSFT --strategy macd --engine nextbar --json`,
	Args: cobra.ExactArgs(1),
	RunE: runBacktest,
}

var (
	btStart, btEnd string
	btCapital      float64
	btCommission   float64
	btEngine       string
	btPersist      bool
	btJSON         bool
	btExportDir    string
	btOrgFile      string
	btSpec         signals.Spec
	btGenerator    string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	f := backtestCmd.Flags()
	f.StringVar(&btStart, "start", "", "first date (YYYY-MM-DD)")
	f.StringVar(&btEnd, "end", "", "last date (YYYY-MM-DD)")
	f.Float64Var(&btCapital, "capital", 0, "initial capital (default from config)")
	f.Float64Var(&btCommission, "commission", 0, "commission rate per fill (default from config)")
	f.StringVar(&btEngine, "engine", "", "simulation backend: native, nextbar or auto")
	f.BoolVar(&btPersist, "persist", false, "save the run to the journal")
	f.BoolVar(&btJSON, "json", false, "print JSON instead of text")
	f.StringVar(&btExportDir, "export", "", "write trades and equity CSV files to this directory")
	f.StringVar(&btOrgFile, "org", "", "write an org-mode report to this file")
	addSpecFlags(backtestCmd, &btSpec, &btGenerator)
}

func addSpecFlags(cmd *cobra.Command, s *signals.Spec, gen *string) {
	f := cmd.Flags()
	f.StringVar(gen, "strategy", "", "signal generator: ma_cross, ema_cross, rsi, macd or hold")
	f.StringVar(&s.Notes, "notes", "", "free-text strategy description")
	f.IntVar(&s.Fast, "fast", 0, "fast window")
	f.IntVar(&s.Slow, "slow", 0, "slow window")
	f.IntVar(&s.RSIPeriod, "rsi-period", 0, "RSI period")
	f.Float64Var(&s.RSILow, "rsi-low", 0, "RSI oversold level")
	f.Float64Var(&s.RSIHigh, "rsi-high", 0, "RSI overbought level")
	f.IntVar(&s.SignalPeriod, "signal", 0, "MACD signal period")
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

func runBacktest(cmd *cobra.Command, args []string) error {
	run := cfg.RunDefaults()
	run.Symbol = args[0]

	var err error
	if run.Start, err = parseDay(btStart); err != nil {
		return err
	}
	if run.End, err = parseDay(btEnd); err != nil {
		return err
	}
	f := cmd.Flags()
	if f.Changed("capital") {
		run.InitialCapital = btCapital
	}
	if f.Changed("commission") {
		run.CommissionRate = btCommission
	}
	if f.Changed("engine") {
		run.Engine = btEngine
	}

	spec := btSpec
	if btGenerator != "" {
		g, ok := signals.ParseGenerator(btGenerator)
		if !ok {
			return fmt.Errorf("unknown strategy %q (want one of %v)", btGenerator, signals.Generators())
		}
		spec.Generator = g
	}

	a, err := newApp(cfg, btPersist)
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := a.svc.Evaluate(cmd.Context(), research.Request{Config: run, Strategy: spec, Persist: btPersist})
	if err != nil {
		return err
	}

	rec := journal.Record{ID: rep.ID, Created: time.Now().UTC(), Notes: spec.Notes, Result: rep.Result, Assessment: &rep.Assessment}
	if btExportDir != "" {
		tp, ep, err := journal.ExportCSV(btExportDir, rec)
		if err != nil {
			return err
		}
		a.log.Info().Str("trades", tp).Str("equity", ep).Msg("exported run")
	}
	if btOrgFile != "" {
		if err := journal.WriteOrgFile(btOrgFile, rec); err != nil {
			return err
		}
	}

	if btJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	backtest.PrintResult(os.Stdout, rep.Result)
	risk.PrintAssessment(os.Stdout, rep.Assessment)
	return nil
}
