package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/riskbench/backtest"
	"github.com/rustyeddy/riskbench/journal"
	"github.com/rustyeddy/riskbench/risk"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the run journal",
	Long: `Query and export runs stored in the SQLite journal.

Subcommands:
  list    - List recent runs
  show    - Print one run
  export  - Write a run's trades and equity to CSV

Examples:
  riskbench journal list --symbol SPY
  riskbench journal show <run-id> --org
  riskbench journal export <run-id> --dir ./out`,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalList,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalExportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a run's trades and equity curve to CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalExport,
}

var (
	journalSymbol    string
	journalLimit     int
	journalOrg       bool
	journalExportDir string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalExportCmd)

	journalListCmd.Flags().StringVar(&journalSymbol, "symbol", "", "only runs for this symbol")
	journalListCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "max runs")
	journalShowCmd.Flags().BoolVar(&journalOrg, "org", false, "print as org-mode")
	journalExportCmd.Flags().StringVar(&journalExportDir, "dir", "", "output directory (default from config)")
}

func openJournal() (*journal.SQLite, error) {
	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func money(x float64) string { return decimal.NewFromFloat(x).Round(2).StringFixed(2) }

func runJournalList(cmd *cobra.Command, _ []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.List(cmd.Context(), journal.Filter{Symbol: journalSymbol, Limit: journalLimit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tSYMBOL\tBACKEND\tTRADES\tRETURN\tSHARPE\tRISK\tCOMPLIANCE")
	for _, r := range runs {
		comp := "-"
		if r.ComplianceScore != nil {
			comp = fmt.Sprintf("%.1f", *r.ComplianceScore)
		}
		backend := r.Backend
		if r.Partial {
			backend += " (partial)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.2f%%\t%.2f\t%s\t%s\n",
			r.ID, r.Created.Format("2006-01-02 15:04"), r.Symbol, backend, r.Trades,
			r.TotalReturn*100, r.Sharpe, r.RiskLevel, comp)
	}
	return tw.Flush()
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if journalOrg {
		return journal.WriteOrg(os.Stdout, rec)
	}

	backtest.PrintResult(os.Stdout, rec.Result)
	if len(rec.Result.Trades) > 0 {
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ENTRY\tEXIT\tSHARES\tENTRY PX\tEXIT PX\tNET P/L")
		for _, t := range rec.Result.Trades {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
				t.EntryDate.Format("2006-01-02"), t.ExitDate.Format("2006-01-02"), t.Shares,
				money(t.EntryPrice), money(t.ExitPrice), money(t.NetPnL))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Println()
	}
	if rec.Assessment != nil {
		risk.PrintAssessment(os.Stdout, *rec.Assessment)
	}
	return nil
}

func runJournalExport(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	dir := cfg.Journal.ExportDir
	if journalExportDir != "" {
		dir = journalExportDir
	}
	if dir == "" {
		dir = "."
	}
	tp, ep, err := journal.ExportCSV(dir, rec)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Wrote %s\n✓ Wrote %s\n", tp, ep)
	return nil
}
