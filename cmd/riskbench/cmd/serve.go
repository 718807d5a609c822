package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/riskbench/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the backtest and assessment API over HTTP",
	Long: `Start the HTTP API:

  POST /api/v1/backtests        run (and optionally persist) one backtest
  POST /api/v1/backtests/batch  run many backtests
  GET  /api/v1/backtests        list journaled runs
  GET  /api/v1/backtests/{id}   fetch one run
  POST /api/v1/assessments      assess a stored run or a metrics report
  GET  /health
  GET  /metrics                 prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	opts := api.Options{
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		RequestTimeout: cfg.Server.RequestTimeout,
		Defaults:       cfg.RunDefaults(),
		Workers:        cfg.Backtest.Workers,
	}
	srv := api.NewServer(a.svc, a.log, a.tel, opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, addr)
}
