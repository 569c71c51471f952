package climate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/terra-climate-extremes/internal/climate"
	"github.com/couchcryptid/terra-climate-extremes/internal/raster"
)

func testGrid() raster.Grid {
	return raster.Grid{MinLon: 20.0, MinLat: 44.0, CellSize: 0.5, Width: 2, Height: 2}
}

func date(year, doy int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1)
}

// uniformRaster builds a raster with every cell valid at the same value.
func uniformRaster(t *testing.T, v float64) *raster.Raster {
	t.Helper()
	g := testGrid()
	r, err := raster.New(g)
	require.NoError(t, err)
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			r.Set(row, col, v)
		}
	}
	return r
}

// cellRaster builds a raster from row-major values, all valid.
func cellRaster(t *testing.T, values []float64) *raster.Raster {
	t.Helper()
	valid := make([]bool, len(values))
	for i := range valid {
		valid[i] = true
	}
	r, err := raster.FromSamples(testGrid(), values, valid)
	require.NoError(t, err)
	return r
}

func fullMask(t *testing.T) *raster.Mask {
	t.Helper()
	m, err := raster.NewMask(testGrid(), []bool{true, true, true, true})
	require.NoError(t, err)
	return m
}

func TestWindow_Contains(t *testing.T) {
	summer := climate.Window{StartDOY: 183, EndDOY: 244}
	assert.True(t, summer.Contains(183))
	assert.True(t, summer.Contains(200))
	assert.True(t, summer.Contains(244))
	assert.False(t, summer.Contains(182))
	assert.False(t, summer.Contains(245))

	// A wrapped window spans the year boundary.
	winter := climate.Window{StartDOY: 335, EndDOY: 59}
	assert.True(t, winter.Contains(340))
	assert.True(t, winter.Contains(20))
	assert.True(t, winter.Contains(335))
	assert.True(t, winter.Contains(59))
	assert.False(t, winter.Contains(200))
}

func TestWindow_Validate(t *testing.T) {
	assert.NoError(t, climate.Window{StartDOY: 183, EndDOY: 244}.Validate())
	assert.Error(t, climate.Window{StartDOY: 0, EndDOY: 244}.Validate())
	assert.Error(t, climate.Window{StartDOY: 183, EndDOY: 367}.Validate())
}

func TestSeries_InWindow(t *testing.T) {
	s := climate.Series{
		{Date: date(2024, 100), Raster: uniformRaster(t, 1)},
		{Date: date(2024, 200), Raster: uniformRaster(t, 2)},
		{Date: date(2024, 300), Raster: uniformRaster(t, 3)},
	}

	got := s.InWindow(climate.Window{StartDOY: 183, EndDOY: 244})
	require.Len(t, got, 1)
	assert.Equal(t, 200, got[0].DOY())
}

func TestParseMode(t *testing.T) {
	m, err := climate.ParseMode("region")
	require.NoError(t, err)
	assert.Equal(t, climate.RegionMode, m)

	m, err = climate.ParseMode("pixel")
	require.NoError(t, err)
	assert.Equal(t, climate.PixelMode, m)

	_, err = climate.ParseMode("county")
	require.Error(t, err)
}

func TestWindowValues(t *testing.T) {
	mask := fullMask(t)
	s := climate.Series{
		{Date: date(2024, 200), Raster: cellRaster(t, []float64{1, 2, 3, 4})},
		{Date: date(2024, 300), Raster: uniformRaster(t, 99)},
	}

	vals := climate.WindowValues(s, mask, climate.Window{StartDOY: 183, EndDOY: 244})
	assert.Equal(t, []float64{1, 2, 3, 4}, vals)
}
