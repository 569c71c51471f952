package climate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/terra-climate-extremes/internal/climate"
	"github.com/couchcryptid/terra-climate-extremes/internal/raster"
)

func TestDelta(t *testing.T) {
	event := []float64{0.30, 0.32, 0.34}
	baseline := []float64{0.40, 0.42}

	got, err := climate.Delta(event, baseline)
	require.NoError(t, err)
	assert.InDelta(t, 0.32, got.EventMean, 1e-9)
	assert.InDelta(t, 0.41, got.BaselineMean, 1e-9)
	assert.InDelta(t, -0.09, got.Delta, 1e-9)
	assert.Equal(t, 3, got.EventSamples)
	assert.Equal(t, 2, got.BaselineSamples)
}

func TestDelta_Antisymmetric(t *testing.T) {
	a := []float64{0.1, 0.2, 0.3}
	b := []float64{0.5, 0.6}

	ab, err := climate.Delta(a, b)
	require.NoError(t, err)
	ba, err := climate.Delta(b, a)
	require.NoError(t, err)
	assert.InDelta(t, -ba.Delta, ab.Delta, 1e-12)
}

func TestDelta_InsufficientData(t *testing.T) {
	_, err := climate.Delta(nil, []float64{1})
	assert.ErrorIs(t, err, climate.ErrInsufficientData)

	_, err = climate.Delta([]float64{1}, nil)
	assert.ErrorIs(t, err, climate.ErrInsufficientData)
}

func TestWindowDelta(t *testing.T) {
	mask := fullMask(t)
	w := climate.Window{StartDOY: 183, EndDOY: 244}

	event := climate.Series{
		{Date: date(2024, 200), Raster: uniformRaster(t, 0.30)},
		{Date: date(2024, 300), Raster: uniformRaster(t, 9.99)}, // outside window
	}
	baseline := climate.Series{
		{Date: date(2020, 200), Raster: uniformRaster(t, 0.40)},
	}

	got, err := climate.WindowDelta(event, baseline, mask, w)
	require.NoError(t, err)
	assert.InDelta(t, -0.10, got.Delta, 1e-9)

	// A region whose window has no valid event samples has no delta.
	_, err = climate.WindowDelta(event, baseline, mask, climate.Window{StartDOY: 1, EndDOY: 50})
	assert.ErrorIs(t, err, climate.ErrInsufficientData)
}

func TestNormalizedDifference(t *testing.T) {
	nir := cellRaster(t, []float64{0.40, 0.50, 0.10, 0.30})
	red := cellRaster(t, []float64{0.10, 0.10, -0.10, 0.10})

	got, err := climate.NormalizedDifference(nir, red)
	require.NoError(t, err)

	v, ok := got.At(0, 0)
	require.True(t, ok)
	assert.InDelta(t, 0.6, v, 1e-9) // (0.4-0.1)/(0.4+0.1)

	v, ok = got.At(0, 1)
	require.True(t, ok)
	assert.InDelta(t, 2.0/3.0, v, 1e-9)

	// Zero denominator is undefined, not infinite.
	_, ok = got.At(1, 0)
	assert.False(t, ok)
}

func TestNormalizedDifference_InvalidBandCell(t *testing.T) {
	nir := cellRaster(t, []float64{0.40, 0.50, 0.20, 0.30})
	red := cellRaster(t, []float64{0.10, 0.10, 0.10, 0.10})
	red.SetInvalid(0, 1)

	got, err := climate.NormalizedDifference(nir, red)
	require.NoError(t, err)

	_, ok := got.At(0, 1)
	assert.False(t, ok, "either band invalid makes the index invalid")
	assert.Equal(t, 3, got.ValidCount())
}

func TestNormalizedDifference_GridMismatch(t *testing.T) {
	other := testGrid()
	other.Width = 3
	b, err := raster.New(other)
	require.NoError(t, err)

	_, err = climate.NormalizedDifference(cellRaster(t, []float64{1, 2, 3, 4}), b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "band grids differ")
}
