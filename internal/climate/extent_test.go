package climate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/terra-climate-extremes/internal/climate"
	"github.com/couchcryptid/terra-climate-extremes/internal/raster"
)

func TestExtent_DelineatesByWindowMean(t *testing.T) {
	mask := fullMask(t)
	w := climate.Window{StartDOY: 183, EndDOY: 244}

	// Baseline window means per cell: {0.3, 0.3, 0.1, 0.1}. Only the first
	// two cells clear a 0.2 cutoff.
	baseline := climate.Series{
		{Date: date(2021, 200), Raster: cellRaster(t, []float64{0.25, 0.35, 0.05, 0.15})},
		{Date: date(2021, 201), Raster: cellRaster(t, []float64{0.35, 0.25, 0.15, 0.05})},
	}
	// Event window means per cell: {0.3, 0.1, 0.3, 0.3}.
	event := climate.Series{
		{Date: date(2024, 200), Raster: cellRaster(t, []float64{0.3, 0.1, 0.3, 0.3})},
	}

	extent, err := climate.Extent(event, baseline, mask, w, 0.2)
	require.NoError(t, err)

	assert.InDelta(t, 0.2, extent.Threshold, 1e-9)
	assert.Equal(t, 3, extent.EventCells)
	assert.Equal(t, 2, extent.BaselineCells)
	assert.Equal(t, 1, extent.DeltaCells)
}

func TestExtent_CutoffIsStrict(t *testing.T) {
	mask := fullMask(t)
	w := climate.Window{StartDOY: 183, EndDOY: 244}
	s := climate.Series{
		{Date: date(2024, 200), Raster: uniformRaster(t, 0.2)},
	}

	// A cell mean exactly at the cutoff is not delineated.
	extent, err := climate.Extent(s, s, mask, w, 0.2)
	require.NoError(t, err)
	assert.Zero(t, extent.EventCells)
	assert.Zero(t, extent.BaselineCells)
}

func TestExtent_IgnoresSamplesOutsideWindow(t *testing.T) {
	mask := fullMask(t)
	w := climate.Window{StartDOY: 183, EndDOY: 244}

	baseline := climate.Series{
		{Date: date(2021, 200), Raster: uniformRaster(t, 0.1)},
		{Date: date(2021, 300), Raster: uniformRaster(t, 0.9)}, // outside
	}
	event := climate.Series{
		{Date: date(2024, 200), Raster: uniformRaster(t, 0.5)},
	}

	extent, err := climate.Extent(event, baseline, mask, w, 0.2)
	require.NoError(t, err)
	assert.Equal(t, 4, extent.EventCells)
	assert.Zero(t, extent.BaselineCells)
	assert.Equal(t, 4, extent.DeltaCells)
}

func TestExtent_InvalidCellsDoNotCount(t *testing.T) {
	mask := fullMask(t)
	w := climate.Window{StartDOY: 183, EndDOY: 244}

	g := testGrid()
	r, err := raster.New(g)
	require.NoError(t, err)
	r.Set(0, 0, 0.5) // only one valid cell
	s := climate.Series{{Date: date(2024, 200), Raster: r}}

	extent, err := climate.Extent(s, s, mask, w, 0.2)
	require.NoError(t, err)
	assert.Equal(t, 1, extent.EventCells)
	assert.Equal(t, 1, extent.BaselineCells)
}

func TestExtent_EmptyWindow(t *testing.T) {
	mask := fullMask(t)
	w := climate.Window{StartDOY: 183, EndDOY: 244}
	inWindow := climate.Series{{Date: date(2024, 200), Raster: uniformRaster(t, 0.5)}}
	outside := climate.Series{{Date: date(2021, 300), Raster: uniformRaster(t, 0.5)}}

	_, err := climate.Extent(inWindow, outside, mask, w, 0.2)
	require.Error(t, err)
	assert.ErrorIs(t, err, climate.ErrInsufficientData)

	_, err = climate.Extent(outside, inWindow, mask, w, 0.2)
	require.Error(t, err)
	assert.ErrorIs(t, err, climate.ErrInsufficientData)
}

func TestExtent_GridMismatch(t *testing.T) {
	mask := fullMask(t)
	w := climate.Window{StartDOY: 183, EndDOY: 244}

	other := raster.Grid{MinLon: 0, MinLat: 0, CellSize: 1, Width: 2, Height: 2}
	r, err := raster.New(other)
	require.NoError(t, err)
	r.Set(0, 0, 0.5)
	s := climate.Series{{Date: date(2024, 200), Raster: r}}

	_, err = climate.Extent(s, s, mask, w, 0.2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match mask grid")
}
