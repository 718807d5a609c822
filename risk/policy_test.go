package risk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicyValid(t *testing.T) {
	t.Parallel()
	assert.NoError(t, DefaultPolicy().Validate())
}

func TestPolicyValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mut  func(*Policy)
	}{
		{"drawdown zero", func(p *Policy) { p.MaxDrawdown = 0 }},
		{"drawdown above one", func(p *Policy) { p.MaxDrawdown = 1.5 }},
		{"volatility zero", func(p *Policy) { p.MaxVolatility = 0 }},
		{"sharpe zero", func(p *Policy) { p.MinSharpe = 0 }},
		{"var positive", func(p *Policy) { p.MinVaR95 = 0.01 }},
		{"bands inverted", func(p *Policy) { p.LowMax, p.MediumMax = 60, 30 }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := DefaultPolicy()
			tt.mut(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestLoadPolicy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_drawdown: 0.10\nmin_sharpe: 1.5\n"), 0o644))

	p, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, 0.10, p.MaxDrawdown)
	assert.Equal(t, 1.5, p.MinSharpe)
	assert.Equal(t, 0.30, p.MaxVolatility)

	_, err = LoadPolicy(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("max_drawdown: 2\n"), 0o644))
	_, err = LoadPolicy(bad)
	assert.Error(t, err)
}
