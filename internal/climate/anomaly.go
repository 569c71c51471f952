package climate

import (
	"fmt"
	"time"

	"github.com/couchcryptid/terra-climate-extremes/internal/raster"
)

// Anomaly is one day's deviation of the event series from climatology.
// Value is event minus climatology mean; Defined is false wherever either
// operand is invalid; an undefined day is a gap, not a zero.
type Anomaly struct {
	Date    time.Time `json:"date"`
	DOY     int       `json:"doy"`
	Value   float64   `json:"value"`
	Defined bool      `json:"defined"`
}

// AnomalySeries is the per-day anomaly of an event series against a
// climatology. In pixel mode Rasters holds the per-day anomaly grids,
// parallel to Points; Points then carry the region aggregate of each
// anomaly grid.
type AnomalySeries struct {
	Mode    Mode
	Points  []Anomaly
	Rasters []*raster.Raster
}

// ComputeAnomalies subtracts climatology from the event series day by day,
// aligning by day-of-year. The requested mode must match the mode the
// climatology was built in; a mismatch is a configuration error surfaced as
// ErrModeMismatch before any arithmetic happens.
func ComputeAnomalies(event Series, clim *Climatology, mask *raster.Mask, mode Mode) (AnomalySeries, error) {
	if mode != clim.Mode() {
		return AnomalySeries{}, fmt.Errorf("climatology built in %s mode, requested %s: %w",
			clim.Mode(), mode, ErrModeMismatch)
	}

	out := AnomalySeries{Mode: mode}
	for _, sample := range event {
		if sample.Raster.Grid() != clim.Grid() {
			return AnomalySeries{}, fmt.Errorf("compute anomalies: event grid %s does not match climatology grid %s",
				sample.Raster.Grid().Key(), clim.Grid().Key())
		}

		switch mode {
		case RegionMode:
			out.Points = append(out.Points, regionAnomaly(sample, clim, mask))
		case PixelMode:
			point, anomRaster, err := pixelAnomaly(sample, clim, mask)
			if err != nil {
				return AnomalySeries{}, err
			}
			out.Points = append(out.Points, point)
			out.Rasters = append(out.Rasters, anomRaster)
		}
	}
	return out, nil
}

// regionAnomaly computes one day's region-aggregate anomaly. Undefined when
// the day-of-year has no climatology or the event raster has no valid
// masked cell.
func regionAnomaly(sample Sample, clim *Climatology, mask *raster.Mask) Anomaly {
	doy := sample.DOY()
	a := Anomaly{Date: sample.Date, DOY: doy}

	mean, ok := clim.DayMean(doy)
	if !ok {
		return a
	}
	eventMean, n := regionMean(sample.Raster, mask)
	if n == 0 {
		return a
	}
	a.Value = eventMean - mean
	a.Defined = true
	return a
}

// pixelAnomaly computes one day's per-cell anomaly raster plus its region
// aggregate. Cells are invalid wherever the event cell or the cell's
// climatology is missing.
func pixelAnomaly(sample Sample, clim *Climatology, mask *raster.Mask) (Anomaly, *raster.Raster, error) {
	doy := sample.DOY()
	grid := clim.Grid()

	anom, err := raster.New(grid)
	if err != nil {
		return Anomaly{}, nil, fmt.Errorf("compute anomalies: %w", err)
	}

	for row := 0; row < grid.Height; row++ {
		for col := 0; col < grid.Width; col++ {
			if mask != nil && !mask.Inside(row, col) {
				continue
			}
			v, ok := sample.Raster.At(row, col)
			if !ok {
				continue
			}
			mean, ok := clim.CellMean(doy, row, col)
			if !ok {
				continue
			}
			anom.Set(row, col, v-mean)
		}
	}

	point := Anomaly{Date: sample.Date, DOY: doy}
	if mean, n := regionMean(anom, mask); n > 0 {
		point.Value = mean
		point.Defined = true
	}
	return point, anom, nil
}
