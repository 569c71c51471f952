package climate

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/terra-climate-extremes/internal/raster"
)

// IndexDelta is the region-level difference between event-period and
// baseline-period means of a spectral index (or any variable): a positive
// delta means the event period ran higher than the baseline.
type IndexDelta struct {
	EventMean       float64 `json:"event_mean"`
	BaselineMean    float64 `json:"baseline_mean"`
	Delta           float64 `json:"delta"`
	EventSamples    int     `json:"event_samples"`
	BaselineSamples int     `json:"baseline_samples"`
}

// Delta computes event mean minus baseline mean over the given pooled value
// sets. Either set being empty fails with ErrInsufficientData; a region
// with no valid samples has no delta, not a delta of zero.
func Delta(eventVals, baselineVals []float64) (IndexDelta, error) {
	if len(eventVals) == 0 {
		return IndexDelta{}, fmt.Errorf("index delta: event window has no valid samples: %w", ErrInsufficientData)
	}
	if len(baselineVals) == 0 {
		return IndexDelta{}, fmt.Errorf("index delta: baseline window has no valid samples: %w", ErrInsufficientData)
	}

	d := IndexDelta{
		EventMean:       stat.Mean(eventVals, nil),
		BaselineMean:    stat.Mean(baselineVals, nil),
		EventSamples:    len(eventVals),
		BaselineSamples: len(baselineVals),
	}
	d.Delta = d.EventMean - d.BaselineMean
	return d, nil
}

// WindowDelta computes the index delta between an event series and a
// baseline series restricted to the same day-of-year window, pooling all
// valid masked cell values in each.
func WindowDelta(event, baseline Series, mask *raster.Mask, w Window) (IndexDelta, error) {
	return Delta(WindowValues(event, mask, w), WindowValues(baseline, mask, w))
}

// NormalizedDifference computes (a-b)/(a+b) cell-wise: the shape of NDVI
// (NIR, red) and MNDWI (green, SWIR1). Cells are invalid where either band
// is invalid or the denominator is zero.
func NormalizedDifference(a, b *raster.Raster) (*raster.Raster, error) {
	if a.Grid() != b.Grid() {
		return nil, fmt.Errorf("normalized difference: band grids differ: %s vs %s",
			a.Grid().Key(), b.Grid().Key())
	}
	grid := a.Grid()
	out, err := raster.New(grid)
	if err != nil {
		return nil, err
	}
	for row := 0; row < grid.Height; row++ {
		for col := 0; col < grid.Width; col++ {
			va, okA := a.At(row, col)
			vb, okB := b.At(row, col)
			if !okA || !okB {
				continue
			}
			denom := va + vb
			if denom == 0 {
				continue
			}
			out.Set(row, col, (va-vb)/denom)
		}
	}
	return out, nil
}
