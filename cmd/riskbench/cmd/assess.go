package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/riskbench/backtest"
	"github.com/rustyeddy/riskbench/metrics"
	"github.com/rustyeddy/riskbench/risk"
)

var assessCmd = &cobra.Command{
	Use:   "assess [run-id]",
	Short: "Assess a stored run or raw metrics against the risk policy",
	Long: `Score a journaled run, or metrics given on the command line, against the
configured risk policy. Exits non-zero when the risk level is High.

Examples:
  riskbench assess 01HZX4B6W5W0Q4Z3W5T0Y1K2AB
  riskbench assess --max-drawdown 0.25 --sharpe 0.5 --volatility 0.35 --var -0.06
  riskbench assess --notes "martingale with 5x leverage, no stop loss"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAssess,
}

var (
	assessMetrics metrics.Report
	assessPartial bool
	assessNotes   string
	assessPolicy  string
	assessJSON    bool
)

func init() {
	rootCmd.AddCommand(assessCmd)

	f := assessCmd.Flags()
	f.Float64Var(&assessMetrics.MaxDrawdown, "max-drawdown", 0, "max drawdown as a fraction")
	f.Float64Var(&assessMetrics.Sharpe, "sharpe", 0, "Sharpe ratio")
	f.Float64Var(&assessMetrics.Volatility, "volatility", 0, "annualized volatility as a fraction")
	f.Float64Var(&assessMetrics.VaR95, "var", 0, "95% value at risk as a (negative) fraction")
	f.BoolVar(&assessPartial, "partial", false, "treat the metrics as a partial result")
	f.StringVar(&assessNotes, "notes", "", "strategy description to scan for risk patterns")
	f.StringVar(&assessPolicy, "policy", "", "policy YAML file (default from config)")
	f.BoolVar(&assessJSON, "json", false, "print JSON instead of text")
}

func runAssess(cmd *cobra.Command, args []string) error {
	policy := cfg.Policy
	if assessPolicy != "" {
		p, err := risk.LoadPolicy(assessPolicy)
		if err != nil {
			return err
		}
		policy = p
	}
	assessor := risk.NewAssessor(policy)

	var a risk.Assessment
	if len(args) == 1 {
		app, err := newApp(cfg, true)
		if err != nil {
			return err
		}
		defer app.Close()

		rec, err := app.svc.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		notes := rec.Notes
		if assessNotes != "" {
			notes = assessNotes
		}
		a = assessor.Assess(rec.Result, notes)
	} else {
		a = assessor.Assess(backtest.Result{Metrics: assessMetrics, Partial: assessPartial}, assessNotes)
	}

	if assessJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}
	risk.PrintAssessment(os.Stdout, a)
	if a.RiskLevel == risk.High {
		return fmt.Errorf("risk level %s", a.RiskLevel)
	}
	return nil
}
