package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/riskbench/config"
)

func TestSymbolFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"/data/spy.csv", "SPY"},
		{"aapl.csv.xz", "AAPL"},
		{"brk.b.csv", "BRK.B"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, symbolFromPath(tt.in), tt.in)
	}
}

func TestParseDay(t *testing.T) {
	t.Parallel()

	d, err := parseDay("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	d, err = parseDay("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())

	_, err = parseDay("03/01/2024")
	assert.Error(t, err)
}

const barsCSV = `date,open,high,low,close,volume
2024-01-02,100,101,99,100,1000
2024-01-03,100,102,99,101,1000
2024-01-04,101,103,100,102,1000
2024-01-05,102,104,101,103,1000
2024-01-08,103,105,102,104,1000
2024-01-09,104,106,103,103,1000
2024-01-10,103,104,100,101,1000
2024-01-11,101,102,99,100,1000
`

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// Commands share package-level flag state, so this runs as one sequence.
func TestCommandsEndToEnd(t *testing.T) {
	dir := t.TempDir()
	c := config.Default()
	c.Data.Dir = filepath.Join(dir, "data")
	c.Journal.DBPath = filepath.Join(dir, "runs.db")
	c.Log.Level = "error"
	cfgPath := filepath.Join(dir, "riskbench.yaml")
	require.NoError(t, c.SaveToFile(cfgPath))

	src := filepath.Join(dir, "spy.csv")
	require.NoError(t, os.WriteFile(src, []byte(barsCSV), 0o644))

	require.NoError(t, execute(t, "-c", cfgPath, "config", "validate", "-f", cfgPath))

	require.NoError(t, execute(t, "-c", cfgPath, "import", src, "--xz"))
	assert.FileExists(t, filepath.Join(c.Data.Dir, "SPY.csv.xz"))

	exportDir := filepath.Join(dir, "out")
	orgFile := filepath.Join(dir, "run.org")
	require.NoError(t, execute(t, "-c", cfgPath, "backtest", "SPY",
		"--strategy", "hold", "--persist", "--export", exportDir, "--org", orgFile))
	assert.FileExists(t, orgFile)
	matches, err := filepath.Glob(filepath.Join(exportDir, "*_trades.csv"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	assert.FileExists(t, c.Journal.DBPath)

	jobs := filepath.Join(dir, "jobs.yaml")
	require.NoError(t, os.WriteFile(jobs, []byte(`
- config: {symbol: SPY}
  strategy: {generator: ma_cross, fast: 2, slow: 3}
- config: {symbol: SPY, engine: nextbar}
  strategy: {notes: "buy and hold"}
`), 0o644))
	require.NoError(t, execute(t, "-c", cfgPath, "batch", jobs, "-w", "2"))

	require.NoError(t, execute(t, "-c", cfgPath, "assess",
		"--max-drawdown", "0.05", "--sharpe", "2", "--volatility", "0.1", "--var", "-0.01",
		"--notes", "trend following with a 2% stop-loss"))
	assert.Error(t, execute(t, "-c", cfgPath, "assess",
		"--max-drawdown", "0.5", "--sharpe", "0.1", "--volatility", "0.6", "--var", "-0.2"))

	require.NoError(t, execute(t, "-c", cfgPath, "journal", "list"))
	require.NoError(t, execute(t, "-c", cfgPath, "version"))
}

func TestLoadRequestsDefaults(t *testing.T) {
	cfg = config.Default()
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- config: {symbol: AAPL}
  persist: true
`), 0o644))

	reqs, err := loadRequests(path)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "AAPL", reqs[0].Config.Symbol)
	assert.Equal(t, cfg.Backtest.InitialCapital, reqs[0].Config.InitialCapital)
	assert.Equal(t, cfg.Backtest.Engine, reqs[0].Config.Engine)
	assert.True(t, reqs[0].Persist)

	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))
	_, err = loadRequests(path)
	assert.Error(t, err)
}
