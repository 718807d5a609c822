package risk

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/riskbench/metrics"
)

func TestPrintAssessment(t *testing.T) {
	t.Parallel()

	a := NewAssessor(DefaultPolicy()).AssessMetrics(
		metrics.Report{MaxDrawdown: 0.25, Sharpe: 2, Volatility: 0.1, VaR95: -0.01}, false, "uses 2x leverage")

	var buf bytes.Buffer
	PrintAssessment(&buf, a)
	out := buf.String()

	assert.Contains(t, out, " Risk Assessment")
	assert.Contains(t, out, "Violations\n")
	assert.Contains(t, out, "- max_drawdown 25.00% exceeds limit 20.00%")
	assert.Contains(t, out, "Patterns\n")
	assert.Contains(t, out, "Recommendations\n")
	assert.NotContains(t, out, "PARTIAL")
}

func TestPrintAssessmentEmptySections(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintAssessment(&buf, Assessment{RiskLevel: Low, Partial: true})
	out := buf.String()
	assert.Contains(t, out, "(Low)")
	assert.Contains(t, out, "Status:        PARTIAL")
	assert.NotContains(t, out, "Violations")
	assert.NotContains(t, out, "Patterns")
}
