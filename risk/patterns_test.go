package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patternsOf(ms []PatternMatch) []RiskPattern {
	var out []RiskPattern
	for _, m := range ms {
		out = append(out, m.Pattern)
	}
	return out
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []RiskPattern
	}{
		{"blank", "   ", nil},
		{"leverage with stop", "Uses 2x leverage with a 5% stop loss", []RiskPattern{Leverage}},
		{"negated leverage", "No leverage, no margin; exits on RSI above 70", nil},
		{"negation stays in clause", "no options. buying on margin with a trailing stop", []RiskPattern{Leverage}},
		{"plain hold", "Buy and hold the index", []RiskPattern{NoStopLoss}},
		{"manipulation and wash", "pump and dump small caps, wash trading for volume", []RiskPattern{NoStopLoss, Manipulation, WashTrading}},
		{"negated wash", "never trade with myself; take profit at 10%", nil},
		{"contraction negates", "we don't borrow; stop-loss at 2%", nil},
		{"negation carries through or", "SMA crossover with a 5% stop loss. We do not engage in spoofing or wash trading.", nil},
		{"negation carries through list", "We avoid spoofing, layering or wash trading; trailing stop at 3%", nil},
		{"clause break stops negation", "no leverage, stop loss at 5%", nil},
		{"answered afterwards", "Momentum entries. Stop-loss? Not used.", []RiskPattern{NoStopLoss}},
		{"denied afterwards", "Leverage: none. Exit rule is not used", []RiskPattern{NoStopLoss}},
		{"affirmed after a negated sentence", "No stop loss. Uses 3x leverage.", []RiskPattern{Leverage, NoStopLoss}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, patternsOf(Classify(tt.text)))
		})
	}
}

func TestClassifyTermsAndConfidence(t *testing.T) {
	t.Parallel()

	ms := Classify("Trade without a stop loss using 3x leverage")
	require.Len(t, ms, 2)

	assert.Equal(t, Leverage, ms[0].Pattern)
	assert.Equal(t, []string{"3x", "leverage"}, ms[0].Terms)
	assert.Equal(t, 0.9, ms[0].Confidence)

	assert.Equal(t, NoStopLoss, ms[1].Pattern)
	assert.Equal(t, []string{"stop loss"}, ms[1].Terms)
	assert.Equal(t, 0.9, ms[1].Confidence)

	silent := Classify("momentum")
	require.Len(t, silent, 1)
	assert.Equal(t, 0.5, silent[0].Confidence)
	assert.Empty(t, silent[0].Terms)
}

func TestClassifyAnsweredStopLossIsExplicit(t *testing.T) {
	t.Parallel()

	ms := Classify("Stop-loss? Not used.")
	require.Len(t, ms, 1)
	assert.Equal(t, NoStopLoss, ms[0].Pattern)
	assert.Equal(t, 0.9, ms[0].Confidence)
	assert.Equal(t, []string{"stop loss"}, ms[0].Terms)
}

func TestRiskPatternText(t *testing.T) {
	t.Parallel()

	for _, p := range Patterns {
		b, err := p.MarshalText()
		require.NoError(t, err)
		var back RiskPattern
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, p, back)
	}
	var bad RiskPattern
	assert.Error(t, bad.UnmarshalText([]byte("nope")))
	assert.Equal(t, "RiskPattern(99)", RiskPattern(99).String())

	assert.Equal(t, Warning, Leverage.Severity())
	assert.Equal(t, Warning, NoStopLoss.Severity())
	assert.Equal(t, Violation, Manipulation.Severity())
	assert.Equal(t, Violation, WashTrading.Severity())
}
