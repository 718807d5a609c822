package risk

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/riskbench/backtest"
	"github.com/rustyeddy/riskbench/metrics"
)

func TestAssessAllThresholdsBreached(t *testing.T) {
	t.Parallel()

	m := metrics.Report{MaxDrawdown: 0.25, Sharpe: 0.5, Volatility: 0.35, VaR95: -0.06}
	got := NewAssessor(DefaultPolicy()).AssessMetrics(m, false, "")

	require.Len(t, got.Violations, 4)
	assert.Empty(t, got.Warnings)
	assert.Equal(t, High, got.RiskLevel)
	assert.InDelta(t, 85.0, got.OverallRiskScore, 1e-9)
	assert.Equal(t, 20.0, got.ComplianceScore)
	assert.Contains(t, got.Violations[0], "max_drawdown 25.00% exceeds limit 20.00%")
	assert.Contains(t, got.Violations[1], "sharpe_ratio 0.50 below minimum 1.00")
	assert.Contains(t, got.Violations[2], "value_at_risk_95 -6.00% below limit -5.00%")
	assert.Contains(t, got.Violations[3], "volatility 35.00% exceeds limit 30.00%")
	assert.Equal(t, []string{
		"Reduce position sizing to limit exposure",
		"Cap drawdown with a portfolio-level stop or a smaller allocation",
		"Improve risk-adjusted returns before deployment",
	}, got.Recommendations)
}

func TestAssessCompliantStrategy(t *testing.T) {
	t.Parallel()

	m := metrics.Report{MaxDrawdown: 0.05, Sharpe: 1.8, Volatility: 0.12, VaR95: -0.01}
	got := NewAssessor(DefaultPolicy()).AssessMetrics(m, false, "SMA crossover with a 3% trailing stop")

	assert.Empty(t, got.Violations)
	assert.Empty(t, got.Warnings)
	assert.Equal(t, Low, got.RiskLevel)
	assert.InDelta(t, 40*0.25+30*0.4, got.OverallRiskScore, 1e-9)
	assert.Equal(t, 100.0, got.ComplianceScore)
	assert.Equal(t, []string{"Strategy is within policy; continue monitoring"}, got.Recommendations)
}

func TestAssessPartialWithPatterns(t *testing.T) {
	t.Parallel()

	notes := "We use 3x leverage and spoofing plus wash trades"
	got := NewAssessor(DefaultPolicy()).AssessMetrics(metrics.Report{MaxDrawdown: 0.9}, true, notes)

	assert.True(t, got.Partial)
	assert.Len(t, got.Violations, 2)
	assert.Len(t, got.Warnings, 3)
	assert.Equal(t, 45.0, got.ComplianceScore)
	assert.Equal(t, High, got.RiskLevel)
	assert.Equal(t, QualitativeFloor, got.OverallRiskScore)
	assert.Contains(t, got.Recommendations, "Re-run the backtest with complete price data")
	assert.Contains(t, got.Recommendations, "Add stop-loss risk management")
	assert.Contains(t, got.Recommendations, "Escalate to compliance review before any deployment")
}

func TestAssessPartialIsNeutral(t *testing.T) {
	t.Parallel()

	r := backtest.Result{Partial: true, Reason: "market data X: no price data"}
	got := NewAssessor(DefaultPolicy()).Assess(r, "")
	assert.Equal(t, NeutralSubScore, got.OverallRiskScore)
	assert.Equal(t, Medium, got.RiskLevel)
	assert.Equal(t, []string{"backtest result is partial; quantitative checks skipped"}, got.Warnings)
	assert.Equal(t, 95.0, got.ComplianceScore)
}

func TestAssessNonFiniteMetrics(t *testing.T) {
	t.Parallel()

	got := NewAssessor(DefaultPolicy()).AssessMetrics(metrics.Report{Sharpe: math.NaN()}, false, "")
	assert.Empty(t, got.Violations)
	require.Len(t, got.Findings, 1)
	assert.Equal(t, CodeQuantFailed, got.Findings[0].Code)
	assert.Equal(t, NeutralSubScore, got.OverallRiskScore)
}

func TestAssessTextPanicIsAbsorbed(t *testing.T) {
	t.Parallel()

	a := NewAssessor(DefaultPolicy())
	a.classify = func(string) []PatternMatch { panic("boom") }

	got := a.AssessMetrics(metrics.Report{Sharpe: 2}, false, "anything")
	require.Len(t, got.Warnings, 1)
	assert.Contains(t, got.Warnings[0], "text analysis failed")
	assert.Nil(t, got.Patterns)
	assert.Contains(t, got.Recommendations, "Review the inputs; part of the analysis could not be completed")
}

func TestAssessDisclaimerDoesNotEscalate(t *testing.T) {
	t.Parallel()

	m := metrics.Report{MaxDrawdown: 0.05, Sharpe: 2, Volatility: 0.1, VaR95: -0.01}
	got := NewAssessor(DefaultPolicy()).AssessMetrics(m, false,
		"SMA crossover with a 5% stop loss. We do not engage in spoofing or wash trading.")

	assert.Empty(t, got.Violations)
	assert.Empty(t, got.Warnings)
	assert.Equal(t, Low, got.RiskLevel)
	assert.Less(t, got.OverallRiskScore, QualitativeFloor)
	assert.Equal(t, 100.0, got.ComplianceScore)
}

func TestComplianceScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 45.0, ComplianceScore(2, 3))
	assert.Equal(t, 100.0, ComplianceScore(0, 0))
	assert.Equal(t, 0.0, ComplianceScore(6, 0))
	assert.Equal(t, 0.0, ComplianceScore(3, 10))
}

func TestScoreBands(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	tests := []struct {
		name string
		m    metrics.Report
		want Level
	}{
		{"calm", metrics.Report{Sharpe: 2}, Low},
		{"middling", metrics.Report{MaxDrawdown: 0.15, Volatility: 0.2, Sharpe: 1}, Medium},
		{"wild", metrics.Report{MaxDrawdown: 0.5, Volatility: 0.9, Sharpe: -1}, High},
		{"negative drawdown uses magnitude", metrics.Report{MaxDrawdown: -0.2, Volatility: 0.3, Sharpe: 1}, High},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := p.Score(tt.m)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 100.0)
			assert.Equal(t, tt.want, p.level(s))
		})
	}
}

func TestAssessDeterministic(t *testing.T) {
	t.Parallel()

	a := NewAssessor(DefaultPolicy())
	m := metrics.Report{MaxDrawdown: 0.3, Sharpe: 0.2, Volatility: 0.1}
	notes := "margin account, no stop loss"
	assert.Equal(t, a.AssessMetrics(m, false, notes), a.AssessMetrics(m, false, notes))
}

func TestAssessmentJSON(t *testing.T) {
	t.Parallel()

	got := NewAssessor(DefaultPolicy()).AssessMetrics(metrics.Report{Sharpe: 2}, false, "leveraged, trailing stop")
	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"pattern":"leverage"`)
	assert.Contains(t, string(b), `"severity":"warning"`)
	assert.Contains(t, string(b), `"risk_level":"Low"`)
}

func TestNewAssessorInvalidPolicy(t *testing.T) {
	t.Parallel()

	a := NewAssessor(Policy{})
	assert.Equal(t, DefaultPolicy(), a.Policy)

	// a zero Assessor still works
	var zero Assessor
	got := zero.AssessMetrics(metrics.Report{MaxDrawdown: 0.25, Sharpe: 0.5, Volatility: 0.35, VaR95: -0.06}, false, "")
	assert.Len(t, got.Violations, 4)
}
