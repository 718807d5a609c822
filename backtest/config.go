package backtest

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/riskbench/metrics"
)

// ErrNoBackend is wrapped by a ConfigError when no registered backend can
// serve a run.
var ErrNoBackend = errors.New("no simulation backend available")

// ConfigError rejects a run before any simulation work starts.
type ConfigError struct {
	Field string
	Msg   string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("backtest: invalid config: %s: %s", e.Field, e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Config describes one simulation.
type Config struct {
	Symbol         string    `json:"symbol" yaml:"symbol"`
	Start          time.Time `json:"start_date,omitempty" yaml:"start"`
	End            time.Time `json:"end_date,omitempty" yaml:"end"`
	InitialCapital float64   `json:"initial_capital" yaml:"initial_capital"`
	CommissionRate float64   `json:"commission_rate" yaml:"commission_rate"`
	Engine         string    `json:"engine_preference,omitempty" yaml:"engine"`

	// Metrics overrides annualization. The zero value means
	// metrics.DefaultOptions().
	Metrics metrics.Options `json:"metrics,omitempty" yaml:"metrics"`
}

// Validate returns a *ConfigError for the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Symbol == "":
		return &ConfigError{Field: "symbol", Msg: "required"}
	case math.IsNaN(c.InitialCapital) || math.IsInf(c.InitialCapital, 0) || c.InitialCapital <= 0:
		return &ConfigError{Field: "initial_capital", Msg: fmt.Sprintf("must be > 0, got %v", c.InitialCapital)}
	case math.IsNaN(c.CommissionRate) || c.CommissionRate < 0 || c.CommissionRate >= 1:
		return &ConfigError{Field: "commission_rate", Msg: fmt.Sprintf("must be in [0,1), got %v", c.CommissionRate)}
	case !c.Start.IsZero() && !c.End.IsZero() && c.End.Before(c.Start):
		return &ConfigError{Field: "end_date", Msg: "before start_date"}
	case c.Metrics.AnnualizationFactor < 0:
		return &ConfigError{Field: "metrics.annualization_factor", Msg: "must be >= 0"}
	}
	return nil
}

func (c Config) metricsOptions() metrics.Options {
	if c.Metrics == (metrics.Options{}) {
		return metrics.DefaultOptions()
	}
	return c.Metrics
}
