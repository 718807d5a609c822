package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ulikunitz/xz"

	"github.com/rustyeddy/riskbench/market"
	"github.com/rustyeddy/riskbench/marketdata"
)

var importCmd = &cobra.Command{
	Use:   "import <bars.csv[.xz]>",
	Short: "Import daily bars into the configured data store",
	Long: `Read a date,open,high,low,close,volume CSV file, validate it and write it
to the data directory as Parquet or (optionally xz-compressed) CSV.

Examples:
  riskbench import ~/Downloads/SPY.csv
  riskbench import aapl.csv.xz --symbol AAPL --to parquet`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var (
	importSymbol string
	importTo     string
	importXZ     bool
)

func init() {
	rootCmd.AddCommand(importCmd)

	f := importCmd.Flags()
	f.StringVarP(&importSymbol, "symbol", "s", "", "symbol (default: file name)")
	f.StringVar(&importTo, "to", "", "target format: csv or parquet (default from config)")
	f.BoolVar(&importXZ, "xz", false, "xz-compress CSV output")
}

func readBarsFile(path string) (market.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		if r, err = xz.NewReader(f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return marketdata.ReadBarsCSV(r)
}

func symbolFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".xz")
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ToUpper(base)
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	sym := importSymbol
	if sym == "" {
		sym = symbolFromPath(path)
	}

	bars, err := readBarsFile(path)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	if err := bars.Validate(sym); err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}

	to := cfg.Data.Source
	if importTo != "" {
		to = importTo
	}
	var dest string
	switch strings.ToLower(to) {
	case "parquet":
		p := marketdata.NewParquet(cfg.Data.Dir, cfg.Data.Market)
		if err := p.WriteBars(sym, bars); err != nil {
			return err
		}
		dest = filepath.Join(p.Dir, p.Market, "daily", strings.ToUpper(sym))
	case "", "csv":
		if dest, err = marketdata.NewCSV(cfg.Data.Dir).WriteFile(sym, bars, importXZ); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown target %q (want csv or parquet)", to)
	}

	fmt.Printf("Imported %d bars for %s (%s to %s) into %s\n",
		len(bars), strings.ToUpper(sym),
		bars[0].Date.Format("2006-01-02"), bars[len(bars)-1].Date.Format("2006-01-02"), dest)
	return nil
}
