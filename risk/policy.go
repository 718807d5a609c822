package risk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the compliance thresholds and level bands.
type Policy struct {
	// Quantitative limits
	MaxDrawdown   float64 `yaml:"max_drawdown" json:"max_drawdown"`     // 0.20
	MinSharpe     float64 `yaml:"min_sharpe" json:"min_sharpe"`         // 1.0
	MinVaR95      float64 `yaml:"min_var_95" json:"min_var_95"`         // -0.05
	MaxVolatility float64 `yaml:"max_volatility" json:"max_volatility"` // 0.30

	// Level bands: score <= LowMax is Low, <= MediumMax is Medium, else High.
	LowMax    float64 `yaml:"low_max" json:"low_max"`       // 30
	MediumMax float64 `yaml:"medium_max" json:"medium_max"` // 60
}

func DefaultPolicy() Policy {
	return Policy{
		MaxDrawdown:   0.20,
		MinSharpe:     1.0,
		MinVaR95:      -0.05,
		MaxVolatility: 0.30,
		LowMax:        30,
		MediumMax:     60,
	}
}

// Validate checks that limits are usable for scoring.
func (p Policy) Validate() error {
	switch {
	case p.MaxDrawdown <= 0 || p.MaxDrawdown > 1:
		return fmt.Errorf("risk: max_drawdown must be in (0,1], got %v", p.MaxDrawdown)
	case p.MaxVolatility <= 0:
		return fmt.Errorf("risk: max_volatility must be > 0, got %v", p.MaxVolatility)
	case p.MinSharpe <= 0:
		return fmt.Errorf("risk: min_sharpe must be > 0, got %v", p.MinSharpe)
	case p.MinVaR95 >= 0:
		return fmt.Errorf("risk: min_var_95 must be < 0, got %v", p.MinVaR95)
	case p.LowMax <= 0 || p.MediumMax <= p.LowMax || p.MediumMax >= 100:
		return fmt.Errorf("risk: level bands must satisfy 0 < low_max < medium_max < 100")
	}
	return nil
}

// LoadPolicy reads a YAML policy. Fields missing from the file keep their
// default value.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("risk: read policy: %w", err)
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("risk: parse policy: %w", err)
	}
	return p, p.Validate()
}
