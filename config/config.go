// Package config loads riskbench settings from YAML with environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/riskbench/backtest"
	"github.com/rustyeddy/riskbench/metrics"
	"github.com/rustyeddy/riskbench/risk"
)

// Config is the complete application configuration.
type Config struct {
	Data     DataConfig     `json:"data" yaml:"data"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Redis    RedisConfig    `json:"redis" yaml:"redis"`
	Guard    GuardConfig    `json:"guard" yaml:"guard"`
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Policy   risk.Policy    `json:"policy" yaml:"policy"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// DataConfig selects where bars come from.
type DataConfig struct {
	Source string `json:"source" yaml:"source"` // "csv" or "parquet"
	Dir    string `json:"dir" yaml:"dir"`
	Market string `json:"market" yaml:"market"` // parquet partition, e.g. "us"
}

type JournalConfig struct {
	DBPath    string `json:"db_path" yaml:"db_path"`
	ExportDir string `json:"export_dir,omitempty" yaml:"export_dir,omitempty"`
}

// RedisConfig enables the bar cache when Addr is set.
type RedisConfig struct {
	Addr   string        `json:"addr,omitempty" yaml:"addr,omitempty"`
	DB     int           `json:"db" yaml:"db"`
	Prefix string        `json:"prefix" yaml:"prefix"`
	TTL    time.Duration `json:"ttl" yaml:"ttl"`
}

// GuardConfig controls rate limiting, retries and the circuit breaker
// around the bar provider.
type GuardConfig struct {
	RatePerSecond   float64       `json:"rate_per_second" yaml:"rate_per_second"`
	Burst           int           `json:"burst" yaml:"burst"`
	MaxRetries      int           `json:"max_retries" yaml:"max_retries"`
	BackoffBase     time.Duration `json:"backoff_base" yaml:"backoff_base"`
	BreakerFailures uint32        `json:"breaker_failures" yaml:"breaker_failures"`
	BreakerTimeout  time.Duration `json:"breaker_timeout" yaml:"breaker_timeout"`
}

// BacktestConfig holds defaults applied to runs that omit them.
type BacktestConfig struct {
	InitialCapital      float64 `json:"initial_capital" yaml:"initial_capital"`
	CommissionRate      float64 `json:"commission_rate" yaml:"commission_rate"`
	Engine              string  `json:"engine" yaml:"engine"`
	AnnualizationFactor float64 `json:"annualization_factor" yaml:"annualization_factor"`
	RiskFreeRate        float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	Workers             int     `json:"workers" yaml:"workers"`
}

type ServerConfig struct {
	Addr           string        `json:"addr" yaml:"addr"`
	ReadTimeout    time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout" yaml:"write_timeout"`
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "console" or "json"
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	mo := metrics.DefaultOptions()
	return &Config{
		Data: DataConfig{
			Source: "csv",
			Dir:    "./data",
			Market: "us",
		},
		Journal: JournalConfig{
			DBPath: "./riskbench.db",
		},
		Redis: RedisConfig{
			Prefix: "riskbench:bars:",
			TTL:    6 * time.Hour,
		},
		Guard: GuardConfig{
			RatePerSecond:   10,
			Burst:           5,
			MaxRetries:      3,
			BackoffBase:     200 * time.Millisecond,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Backtest: BacktestConfig{
			InitialCapital:      10000,
			CommissionRate:      0.001,
			Engine:              backtest.Native,
			AnnualizationFactor: mo.AnnualizationFactor,
			RiskFreeRate:        mo.RiskFreeRate,
			Workers:             4,
		},
		Policy: risk.DefaultPolicy(),
		Server: ServerConfig{
			Addr:           ":8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   30 * time.Second,
			RequestTimeout: 20 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromFile loads configuration from a file (YAML, or JSON as a fallback)
// on top of Default(), then applies environment overrides. An empty path
// skips the file.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		// Try YAML first, fall back to JSON
		if err := yaml.Unmarshal(data, cfg); err != nil {
			cfg = Default()
			if jerr := json.Unmarshal(data, cfg); jerr != nil {
				return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RISKBENCH_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("RISKBENCH_DATA_SOURCE"); v != "" {
		cfg.Data.Source = v
	}
	if v := os.Getenv("RISKBENCH_DB"); v != "" {
		cfg.Journal.DBPath = v
	}
	if v := os.Getenv("RISKBENCH_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("RISKBENCH_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// SaveToFile saves configuration as YAML (.yaml/.yml) or indented JSON.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Data.Source {
	case "csv", "parquet":
	default:
		return fmt.Errorf("data.source must be 'csv' or 'parquet', got %q", c.Data.Source)
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required")
	}
	if c.Data.Source == "parquet" && c.Data.Market == "" {
		return fmt.Errorf("data.market is required for parquet")
	}
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}
	if c.Redis.Addr != "" && c.Redis.TTL <= 0 {
		return fmt.Errorf("redis.ttl must be positive")
	}
	if c.Guard.RatePerSecond < 0 || c.Guard.Burst < 0 || c.Guard.MaxRetries < 0 {
		return fmt.Errorf("guard values must not be negative")
	}
	if c.Backtest.Workers < 0 {
		return fmt.Errorf("backtest.workers must not be negative")
	}
	run := c.RunDefaults()
	run.Symbol = "-" // symbol is per run
	if err := run.Validate(); err != nil {
		return err
	}
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be 'console' or 'json'")
	}
	return nil
}

// RunDefaults returns a backtest.Config seeded from the backtest section.
// Callers fill in the symbol and range.
func (c *Config) RunDefaults() backtest.Config {
	return backtest.Config{
		InitialCapital: c.Backtest.InitialCapital,
		CommissionRate: c.Backtest.CommissionRate,
		Engine:         c.Backtest.Engine,
		Metrics: metrics.Options{
			AnnualizationFactor: c.Backtest.AnnualizationFactor,
			RiskFreeRate:        c.Backtest.RiskFreeRate,
		},
	}
}
