package cmd

import (
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/riskbench/backtest"
	"github.com/rustyeddy/riskbench/config"
	"github.com/rustyeddy/riskbench/internal/telemetry"
	"github.com/rustyeddy/riskbench/journal"
	"github.com/rustyeddy/riskbench/market"
	"github.com/rustyeddy/riskbench/marketdata"
	"github.com/rustyeddy/riskbench/research"
	"github.com/rustyeddy/riskbench/risk"
)

// app holds the collaborators a command needs.
type app struct {
	log     zerolog.Logger
	tel     *telemetry.Metrics
	journal *journal.SQLite
	redis   *redis.Client
	svc     *research.Service
}

func newApp(c *config.Config, withJournal bool) (*app, error) {
	a := &app{log: log.Logger, tel: telemetry.New()}

	p, err := a.provider(c)
	if err != nil {
		return nil, err
	}

	var j journal.Journal
	if withJournal {
		a.journal, err = journal.NewSQLite(c.Journal.DBPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open journal: %w", err)
		}
		j = a.journal
	}

	runner := backtest.NewRunner(nil, p)
	a.svc = research.New(runner, risk.NewAssessor(c.Policy), j, a.log, a.tel)
	return a, nil
}

// provider builds the bar source: file storage, guarded, and cached in
// Redis when an address is configured.
func (a *app) provider(c *config.Config) (market.Provider, error) {
	var base market.Provider
	switch strings.ToLower(c.Data.Source) {
	case "", "csv":
		base = marketdata.NewCSV(c.Data.Dir)
	case "parquet":
		base = marketdata.NewParquet(c.Data.Dir, c.Data.Market)
	default:
		return nil, fmt.Errorf("unknown data source %q (want csv or parquet)", c.Data.Source)
	}

	g := c.Guard
	var p market.Provider = marketdata.NewGuarded(base, marketdata.GuardOptions{
		Name:            c.Data.Source,
		RatePerSecond:   g.RatePerSecond,
		Burst:           g.Burst,
		MaxRetries:      g.MaxRetries,
		BackoffBase:     g.BackoffBase,
		BreakerFailures: g.BreakerFailures,
		BreakerTimeout:  g.BreakerTimeout,
	}, a.log, a.tel)

	if c.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: c.Redis.Addr, DB: c.Redis.DB})
		cached := marketdata.NewCached(a.redis, p, c.Redis.Prefix, c.Redis.TTL)
		cached.Log = a.log
		cached.Telemetry = a.tel
		p = cached
	}
	return p, nil
}

func (a *app) Close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close journal")
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
