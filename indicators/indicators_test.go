package indicators

import (
	"testing"

	"github.com/rustyeddy/riskbench/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barsFromCloses(closes ...float64) market.Series {
	out := make(market.Series, len(closes))
	for i, c := range closes {
		out[i] = market.Bar{Open: c, High: c, Low: c, Close: c}
	}
	return out
}

func createTestBars() market.Series {
	return barsFromCloses(102, 105, 106, 108, 110, 111, 113, 114, 116, 118)
}

func TestSeriesEMA(t *testing.T) {
	values, ok := Series(NewEMA(3), barsFromCloses(1, 2, 3, 7))
	assert.Equal(t, []bool{false, false, true, true}, ok)
	assert.InDelta(t, 2.0, values[2], 1e-9)
	// seed 2, multiplier 0.5
	assert.InDelta(t, 4.5, values[3], 1e-9)
}

func TestSeriesWarmupFlags(t *testing.T) {
	values, ok := Series(NewMA(3), createTestBars())
	require.Len(t, values, 10)
	require.Len(t, ok, 10)

	assert.Equal(t, []bool{false, false, true}, ok[:3])
	assert.Equal(t, 0.0, values[1])
	assert.InDelta(t, (102.0+105.0+106.0)/3.0, values[2], 1e-9)
	assert.InDelta(t, (114.0+116.0+118.0)/3.0, values[9], 1e-9)
}

func TestSeriesResetsIndicator(t *testing.T) {
	ma := NewMA(2)
	ma.Update(market.Bar{Close: 1000})

	values, _ := Series(ma, barsFromCloses(1, 3))
	assert.InDelta(t, 2.0, values[1], 1e-9)
}
