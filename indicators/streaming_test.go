package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimpleMAStreaming(t *testing.T) {
	bars := barsFromCloses(102, 105, 106, 108, 110)

	t.Run("basic functionality", func(t *testing.T) {
		ma := NewMA(3)
		assert.Equal(t, "SMA(3)", ma.Name())
		assert.Equal(t, 3, ma.Warmup())
		assert.False(t, ma.Ready())
		assert.Equal(t, 0.0, ma.Value())

		ma.Update(bars[0])
		ma.Update(bars[1])
		assert.False(t, ma.Ready())

		ma.Update(bars[2])
		assert.True(t, ma.Ready())
		assert.InDelta(t, (102.0+105.0+106.0)/3.0, ma.Value(), 0.001)

		// Fourth bar should drop the first close
		ma.Update(bars[3])
		assert.InDelta(t, (105.0+106.0+108.0)/3.0, ma.Value(), 0.001)
	})

	t.Run("reset functionality", func(t *testing.T) {
		ma := NewMA(2)
		ma.Update(bars[0])
		ma.Update(bars[1])
		assert.True(t, ma.Ready())

		ma.Reset()
		assert.False(t, ma.Ready())
		assert.Equal(t, 0.0, ma.Value())
	})

	t.Run("full window", func(t *testing.T) {
		ma := NewMA(5)
		for _, b := range bars {
			ma.Update(b)
		}
		assert.InDelta(t, (102.0+105.0+106.0+108.0+110.0)/5.0, ma.Value(), 1e-9)
	})
}

func TestExponentialMAStreaming(t *testing.T) {
	bars := createTestBars()

	ema := NewEMA(5)
	assert.Equal(t, "EMA(5)", ema.Name())
	for i, b := range bars {
		ema.Update(b)
		assert.Equal(t, i >= 4, ema.Ready())
	}

	// seeded with the SMA of the first five closes, then smoothed by 1/3
	want := (102.0 + 105.0 + 106.0 + 108.0 + 110.0) / 5.0
	for _, c := range []float64{111, 113, 114, 116, 118} {
		want += (c - want) / 3
	}
	assert.InDelta(t, want, ema.Value(), 1e-9)

	ema.Reset()
	assert.False(t, ema.Ready())
	assert.Equal(t, 0.0, ema.Value())
}

func TestRSI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		period int
		closes []float64
		ready  bool
		want   float64
	}{
		{"warming up", 3, []float64{1, 2, 3}, false, 0},
		{"only gains", 3, []float64{1, 2, 3, 4}, true, 100},
		{"only losses", 3, []float64{4, 3, 2, 1}, true, 0},
		{"flat", 3, []float64{5, 5, 5, 5, 5}, true, 50},
		{"balanced", 2, []float64{1, 2, 1}, true, 50},
		// avgGain (0.5+2)/2=1.25, avgLoss 0.5/2=0.25 => RS 5
		{"wilder smoothing", 2, []float64{1, 2, 1, 3}, true, 100 - 100.0/6.0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewRSI(tt.period)
			for _, b := range barsFromCloses(tt.closes...) {
				r.Update(b)
			}
			assert.Equal(t, tt.ready, r.Ready())
			assert.InDelta(t, tt.want, r.Value(), 1e-9)
		})
	}
}

func TestRSIDefaults(t *testing.T) {
	r := NewRSI(0)
	assert.Equal(t, "RSI(14)", r.Name())
	assert.Equal(t, 15, r.Warmup())

	for _, b := range barsFromCloses(1, 2, 3) {
		r.Update(b)
	}
	r.Reset()
	assert.False(t, r.Ready())
}
