package climate

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/terra-climate-extremes/internal/raster"
)

// Climatology is the expected value and distribution of a variable per
// day-of-year, derived from baseline-year rasters. It is immutable once
// built and reusable across event series that share its (variable,
// baseline-years, region, mode) key.
type Climatology struct {
	mode Mode
	grid raster.Grid
	mask *raster.Mask
	days map[int]*doyStats
}

// doyStats accumulates one day-of-year group.
type doyStats struct {
	count   int       // contributing baseline samples (rasters with any valid masked cell)
	sum     float64   // region mode: running sum of region aggregates
	samples []float64 // raw samples for percentile queries, sorted at build end

	// Pixel mode per-cell accumulators, row-major over the grid.
	cellSum   []float64
	cellCount []int
}

// Build derives a climatology from baseline rasters. In region mode each
// raster is first reduced to its region-aggregate mean; in pixel mode
// per-cell sums are kept. Days-of-year with zero valid samples are absent
// from the result ("no climatology") and never invented by interpolation.
//
// Build fails with ErrInsufficientData when the whole baseline contributes
// nothing, and rejects rasters whose grid differs from the mask's.
func Build(baseline Series, mask *raster.Mask, mode Mode) (*Climatology, error) {
	if mask == nil {
		return nil, fmt.Errorf("build climatology: nil region mask")
	}

	c := &Climatology{
		mode: mode,
		grid: mask.Grid(),
		mask: mask,
		days: make(map[int]*doyStats),
	}

	for _, sample := range baseline {
		if sample.Raster.Grid() != c.grid {
			return nil, fmt.Errorf("build climatology: raster grid %s does not match mask grid %s",
				sample.Raster.Grid().Key(), c.grid.Key())
		}
		c.add(sample)
	}

	if len(c.days) == 0 {
		return nil, fmt.Errorf("build climatology: no baseline day contributed a valid sample: %w", ErrInsufficientData)
	}

	for _, d := range c.days {
		sort.Float64s(d.samples)
	}
	return c, nil
}

func (c *Climatology) add(sample Sample) {
	doy := sample.DOY()

	switch c.mode {
	case RegionMode:
		mean, n := regionMean(sample.Raster, c.mask)
		if n == 0 {
			return
		}
		d := c.day(doy)
		d.count++
		d.sum += mean
		d.samples = append(d.samples, mean)

	case PixelMode:
		vals := sample.Raster.Values(c.mask)
		if len(vals) == 0 {
			return
		}
		d := c.day(doy)
		if d.cellSum == nil {
			d.cellSum = make([]float64, c.grid.Cells())
			d.cellCount = make([]int, c.grid.Cells())
		}
		d.count++
		d.samples = append(d.samples, vals...)
		for row := 0; row < c.grid.Height; row++ {
			for col := 0; col < c.grid.Width; col++ {
				if !c.mask.Inside(row, col) {
					continue
				}
				v, ok := sample.Raster.At(row, col)
				if !ok {
					continue
				}
				i := row*c.grid.Width + col
				d.cellSum[i] += v
				d.cellCount[i]++
			}
		}
	}
}

func (c *Climatology) day(doy int) *doyStats {
	d, ok := c.days[doy]
	if !ok {
		d = &doyStats{}
		c.days[doy] = d
	}
	return d
}

// Mode returns the aggregation mode the climatology was built in.
func (c *Climatology) Mode() Mode {
	return c.mode
}

// Grid returns the grid the climatology is aligned to.
func (c *Climatology) Grid() raster.Grid {
	return c.grid
}

// HasDay reports whether the day-of-year has a climatology (sample count > 0).
func (c *Climatology) HasDay(doy int) bool {
	d, ok := c.days[doy]
	return ok && d.count > 0
}

// DayCount returns the number of baseline samples contributing to the
// day-of-year, zero for "no climatology" days.
func (c *Climatology) DayCount(doy int) int {
	if d, ok := c.days[doy]; ok {
		return d.count
	}
	return 0
}

// DayMean returns the region-mode mean for the day-of-year. The second
// return is false for "no climatology" days or pixel-mode climatologies.
func (c *Climatology) DayMean(doy int) (float64, bool) {
	if c.mode != RegionMode {
		return 0, false
	}
	d, ok := c.days[doy]
	if !ok || d.count == 0 {
		return 0, false
	}
	return d.sum / float64(d.count), true
}

// DaySamples returns a copy of the sorted raw samples for the day-of-year.
// Region mode yields one region aggregate per contributing baseline day;
// pixel mode yields all valid masked cell values.
func (c *Climatology) DaySamples(doy int) []float64 {
	d, ok := c.days[doy]
	if !ok {
		return nil
	}
	out := make([]float64, len(d.samples))
	copy(out, d.samples)
	return out
}

// CellMean returns the pixel-mode mean for the cell at (row, col) on the
// day-of-year. The second return is false when the cell has no baseline
// samples for that day or the climatology is region-mode.
func (c *Climatology) CellMean(doy, row, col int) (float64, bool) {
	if c.mode != PixelMode {
		return 0, false
	}
	d, ok := c.days[doy]
	if !ok || d.cellCount == nil {
		return 0, false
	}
	i := row*c.grid.Width + col
	if d.cellCount[i] == 0 {
		return 0, false
	}
	return d.cellSum[i] / float64(d.cellCount[i]), true
}

// PooledSamples returns all raw baseline samples whose day-of-year falls
// inside the window, pooled across days. This is the distribution behind the
// default pooled-window percentile threshold policy.
func (c *Climatology) PooledSamples(w Window) []float64 {
	var out []float64
	for doy, d := range c.days {
		if !w.Contains(doy) {
			continue
		}
		out = append(out, d.samples...)
	}
	return out
}

// WindowMean returns the mean of the pooled baseline samples in the window.
func (c *Climatology) WindowMean(w Window) (float64, error) {
	vals := c.PooledSamples(w)
	if len(vals) == 0 {
		return 0, fmt.Errorf("window %d..%d has no baseline samples: %w", w.StartDOY, w.EndDOY, ErrInsufficientData)
	}
	return stat.Mean(vals, nil), nil
}
