package market

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func testSeries() Series {
	return Series{
		{Date: day(2), Open: 99, High: 101, Low: 98, Close: 100, Volume: 1000},
		{Date: day(3), Open: 100, High: 106, Low: 99, Close: 105, Volume: 1200},
		{Date: day(4), Open: 105, High: 111, Low: 104, Close: 110, Volume: 900},
	}
}

func TestSeriesAccessors(t *testing.T) {
	t.Parallel()

	s := testSeries()
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []float64{100, 105, 110}, s.Closes())
}

func TestSeriesBetween(t *testing.T) {
	t.Parallel()

	s := testSeries()

	got := s.Between(day(3), day(4))
	require.Len(t, got, 2)
	assert.Equal(t, 105.0, got[0].Close)

	assert.Len(t, s.Between(time.Time{}, day(2)), 1)
	assert.Len(t, s.Between(time.Time{}, time.Time{}), 3)
	assert.Empty(t, s.Between(day(10), day(11)))
}

func TestSeriesValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		series  Series
		wantErr error
		index   int
	}{
		{"ok", testSeries(), nil, 0},
		{"empty", Series{}, ErrNoData, -1},
		{"nan close", Series{{Date: day(2), Close: math.NaN()}}, ErrNonFinite, 0},
		{"inf volume", Series{{Date: day(2), Close: 1}, {Date: day(3), Close: 1, Volume: math.Inf(1)}}, ErrNonFinite, 1},
		{"duplicate date", Series{{Date: day(2), Close: 1}, {Date: day(2), Close: 2}}, ErrUnordered, 1},
		{"descending", Series{{Date: day(3), Close: 1}, {Date: day(2), Close: 2}}, ErrUnordered, 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.series.Validate("AAPL")
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))

			var de *DataError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, "AAPL", de.Symbol)
			assert.Equal(t, tt.index, de.Index)
		})
	}
}

func TestDataErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "market data MSFT: no price data",
		(&DataError{Symbol: "MSFT", Index: -1, Err: ErrNoData}).Error())
	assert.Equal(t, "market data MSFT: bar 4: non-finite price field",
		(&DataError{Symbol: "MSFT", Index: 4, Err: ErrNonFinite}).Error())
}
