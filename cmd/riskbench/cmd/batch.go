package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/riskbench/research"
)

var batchCmd = &cobra.Command{
	Use:   "batch <jobs.yaml>",
	Short: "Backtest many strategies concurrently",
	Long: `Run every request in a YAML (or JSON) file and print a summary table.

Each entry has a config, a strategy and an optional persist flag:

  - config: {symbol: SPY, start: 2023-01-01}
    strategy: {generator: ma_cross, fast: 10, slow: 30}
    persist: true

Zero-valued settings take the config file defaults.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

var batchWorkers int

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "max concurrent runs (default from config)")
}

func loadRequests(path string) ([]research.Request, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read jobs: %w", err)
	}
	var reqs []research.Request
	if err := yaml.Unmarshal(b, &reqs); err != nil {
		return nil, fmt.Errorf("parse jobs %s: %w", path, err)
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("no jobs in %s", path)
	}

	d := cfg.RunDefaults()
	for i := range reqs {
		c := &reqs[i].Config
		if c.InitialCapital == 0 {
			c.InitialCapital = d.InitialCapital
		}
		if c.CommissionRate == 0 {
			c.CommissionRate = d.CommissionRate
		}
		if c.Engine == "" {
			c.Engine = d.Engine
		}
		if c.Metrics.AnnualizationFactor == 0 {
			c.Metrics = d.Metrics
		}
	}
	return reqs, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	reqs, err := loadRequests(args[0])
	if err != nil {
		return err
	}
	persist := false
	for _, r := range reqs {
		persist = persist || r.Persist
	}

	a, err := newApp(cfg, persist)
	if err != nil {
		return err
	}
	defer a.Close()

	workers := cfg.Backtest.Workers
	if cmd.Flags().Changed("workers") {
		workers = batchWorkers
	}
	items, err := a.svc.EvaluateBatch(cmd.Context(), reqs, workers)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSYMBOL\tBACKEND\tTRADES\tRETURN\tSHARPE\tMAX DD\tRISK\tSCORE\tRUN ID")
	failed := 0
	for i, it := range items {
		sym := reqs[i].Config.Symbol
		if it.Err != nil {
			failed++
			fmt.Fprintf(tw, "%d\t%s\terror\t\t\t\t\t\t\t%v\n", i+1, sym, it.Err)
			continue
		}
		r := it.Report.Result
		m := r.Metrics
		backend := r.Backend
		if r.Partial {
			backend += " (partial)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%.2f%%\t%.2f\t%.2f%%\t%s\t%.1f\t%s\n",
			i+1, sym, backend, m.TotalTrades, m.TotalReturn*100, m.Sharpe, m.MaxDrawdown*100,
			it.Report.Assessment.RiskLevel, it.Report.Assessment.OverallRiskScore, it.Report.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(items))
	}
	return nil
}
