package climate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/terra-climate-extremes/internal/climate"
	"github.com/couchcryptid/terra-climate-extremes/internal/raster"
)

func TestThreshold(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		p       float64
		want    float64
	}{
		{name: "interpolated 95th", samples: []float64{28, 29, 30, 31, 32}, p: 0.95, want: 31.8},
		{name: "median of odd set", samples: []float64{28, 29, 30, 31, 32}, p: 0.5, want: 30},
		{name: "median interpolates even set", samples: []float64{10, 20}, p: 0.5, want: 15},
		{name: "single sample", samples: []float64{42}, p: 0.95, want: 42},
		{name: "unsorted input", samples: []float64{32, 28, 31, 29, 30}, p: 0.95, want: 31.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := climate.Threshold(tt.samples, tt.p)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestThreshold_MonotonicInP(t *testing.T) {
	samples := []float64{12, 7, 30, 18, 25, 3, 21}
	prev := -1.0
	for _, p := range []float64{0.1, 0.25, 0.5, 0.75, 0.9, 0.99} {
		got, err := climate.Threshold(samples, p)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, prev, "p=%g", p)
		prev = got
	}
}

func TestThreshold_Errors(t *testing.T) {
	_, err := climate.Threshold(nil, 0.95)
	assert.ErrorIs(t, err, climate.ErrInsufficientData)

	for _, p := range []float64{0, 1, -0.5, 1.5} {
		_, err := climate.Threshold([]float64{1, 2, 3}, p)
		require.Error(t, err, "p=%g", p)
	}
}

func TestCountExceedances(t *testing.T) {
	day := func(doy int, v float64, valid bool) climate.DayValue {
		return climate.DayValue{Date: date(2024, doy), Value: v, Valid: valid}
	}
	days := []climate.DayValue{
		day(200, 31.8, true), // equal is not an exceedance
		day(201, 31.9, true),
		day(202, 20.0, true),
		day(203, 40.0, true),
		day(204, 99.0, false), // gap day never counts
	}

	got := climate.CountExceedances(days, 31.8)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, []time.Time{date(2024, 201), date(2024, 203)}, got.Dates)
	assert.InDelta(t, 31.8, got.Threshold, 1e-9)
}

func TestRegionDayValues(t *testing.T) {
	mask := fullMask(t)
	empty, err := raster.New(testGrid())
	require.NoError(t, err)

	event := climate.Series{
		{Date: date(2024, 200), Raster: cellRaster(t, []float64{1, 2, 3, 4})},
		{Date: date(2024, 201), Raster: empty},
	}

	got := climate.RegionDayValues(event, mask)
	require.Len(t, got, 2)
	assert.True(t, got[0].Valid)
	assert.InDelta(t, 2.5, got[0].Value, 1e-9)
	assert.False(t, got[1].Valid)
}
