package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/riskbench/config"
	"github.com/rustyeddy/riskbench/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "riskbench",
	Short: "Strategy backtesting and risk assessment",
	Long: `Riskbench backtests trading strategies against historical daily bars and
scores the results against a risk policy.

It provides tools for:
  - Running single backtests and concurrent batches
  - Assessing stored runs or raw metrics against the risk policy
  - Importing bar data into CSV or Parquet storage
  - Serving the engine over HTTP
  - Querying and exporting the run journal`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	cfgFile   string
	logLevel  string
	logFormat string
	dbPath    string

	cfg *config.Config
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "", "log format (console or json)")
	pf.StringVar(&dbPath, "db", "", "path to SQLite journal DB")
}

// setup loads configuration, applies flag overrides and installs the
// global logger.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.LoadFromFile(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		c.Log.Format = logFormat
	}
	if flags.Changed("db") {
		c.Journal.DBPath = dbPath
	}
	cfg = c

	log.Logger = logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	return nil
}
