package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValid(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Default().Validate())
}

func TestLoadFromFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "riskbench.yaml")
	yml := `
data:
  source: parquet
  dir: /srv/bars
  market: us
backtest:
  initial_capital: 50000
  commission_rate: 0.0005
  engine: nextbar
redis:
  addr: localhost:6379
  ttl: 2h
policy:
  max_drawdown: 0.15
server:
  request_timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "parquet", cfg.Data.Source)
	assert.Equal(t, "/srv/bars", cfg.Data.Dir)
	assert.Equal(t, 50000.0, cfg.Backtest.InitialCapital)
	assert.Equal(t, "nextbar", cfg.Backtest.Engine)
	assert.Equal(t, 2*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 0.15, cfg.Policy.MaxDrawdown)
	// untouched defaults survive
	assert.Equal(t, 1.0, cfg.Policy.MinSharpe)
	assert.Equal(t, ":8080", cfg.Server.Addr)

	run := cfg.RunDefaults()
	assert.Equal(t, 0.0005, run.CommissionRate)
	assert.Equal(t, 252.0, run.Metrics.AnnualizationFactor)
}

func TestLoadFromFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "riskbench.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"journal": {"db_path": "/tmp/x.db"}}`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.Journal.DBPath)
}

func TestLoadFromFileInvalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("backtest:\n  commission_rate: 1.5\n"), 0o644))
	_, err = LoadFromFile(bad)
	assert.ErrorContains(t, err, "commission_rate")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RISKBENCH_DATA_DIR", "/env/data")
	t.Setenv("RISKBENCH_DB", "/env/db.sqlite")
	t.Setenv("RISKBENCH_REDIS_ADDR", "redis:6379")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadFromFile("")
	require.NoError(t, err)
	assert.Equal(t, "/env/data", cfg.Data.Dir)
	assert.Equal(t, "/env/db.sqlite", cfg.Journal.DBPath)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"unknown source", func(c *Config) { c.Data.Source = "s3" }},
		{"no data dir", func(c *Config) { c.Data.Dir = "" }},
		{"parquet without market", func(c *Config) { c.Data.Source = "parquet"; c.Data.Market = "" }},
		{"no db", func(c *Config) { c.Journal.DBPath = "" }},
		{"redis without ttl", func(c *Config) { c.Redis.Addr = "x:1"; c.Redis.TTL = 0 }},
		{"negative retries", func(c *Config) { c.Guard.MaxRetries = -1 }},
		{"zero capital", func(c *Config) { c.Backtest.InitialCapital = 0 }},
		{"bad policy", func(c *Config) { c.Policy.MaxDrawdown = 0 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mut(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveToFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.yaml", "out.json"} {
		path := filepath.Join(dir, name)
		cfg := Default()
		cfg.Backtest.Engine = "nextbar"
		require.NoError(t, cfg.SaveToFile(path))

		back, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, cfg, back, name)
	}
}
