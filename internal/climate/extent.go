package climate

import (
	"fmt"

	"github.com/couchcryptid/terra-climate-extremes/internal/raster"
)

// IndexExtent summarizes index-based delineation of a region: how many masked
// cells clear the index cutoff in the baseline window versus the event
// window. A water index with a 0.2 cutoff, for example, yields the region's
// open-water cell counts and how the event year changed them.
type IndexExtent struct {
	Threshold     float64 `json:"threshold"`
	EventCells    int     `json:"event_cells"`
	BaselineCells int     `json:"baseline_cells"`
	DeltaCells    int     `json:"delta_cells"`
}

// Extent delineates cells by index cutoff in both periods. A masked cell is
// counted for a period when the mean of its valid window samples is strictly
// greater than the threshold; a cell with no valid samples in a period is not
// counted for that period. Either period having zero valid samples overall
// fails with ErrInsufficientData.
func Extent(event, baseline Series, mask *raster.Mask, w Window, threshold float64) (IndexExtent, error) {
	eventCells, err := delineate(event, mask, w, threshold)
	if err != nil {
		return IndexExtent{}, fmt.Errorf("extent: event window: %w", err)
	}
	baselineCells, err := delineate(baseline, mask, w, threshold)
	if err != nil {
		return IndexExtent{}, fmt.Errorf("extent: baseline window: %w", err)
	}
	return IndexExtent{
		Threshold:     threshold,
		EventCells:    eventCells,
		BaselineCells: baselineCells,
		DeltaCells:    eventCells - baselineCells,
	}, nil
}

// delineate counts masked cells whose per-cell window mean exceeds threshold.
func delineate(s Series, mask *raster.Mask, w Window, threshold float64) (int, error) {
	grid := mask.Grid()
	sums := make([]float64, grid.Cells())
	counts := make([]int, grid.Cells())
	total := 0

	for _, sample := range s {
		if !w.Contains(sample.DOY()) {
			continue
		}
		if sample.Raster.Grid() != grid {
			return 0, fmt.Errorf("raster grid %s does not match mask grid %s",
				sample.Raster.Grid().Key(), grid.Key())
		}
		for row := 0; row < grid.Height; row++ {
			for col := 0; col < grid.Width; col++ {
				if !mask.Inside(row, col) {
					continue
				}
				v, ok := sample.Raster.At(row, col)
				if !ok {
					continue
				}
				i := row*grid.Width + col
				sums[i] += v
				counts[i]++
				total++
			}
		}
	}
	if total == 0 {
		return 0, fmt.Errorf("no valid samples: %w", ErrInsufficientData)
	}

	cells := 0
	for i, n := range counts {
		if n > 0 && sums[i]/float64(n) > threshold {
			cells++
		}
	}
	return cells, nil
}
