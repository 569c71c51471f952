package climate

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/couchcryptid/terra-climate-extremes/internal/raster"
)

// Threshold computes the p-quantile of the sample distribution using linear
// interpolation between the two bracketing order statistics: on the sorted
// sample, rank h = (n-1)p + 1 and the result interpolates between
// floor(h) and ceil(h) (the Excel/R-7 rule). The rule is fixed because
// nearest-rank counting produces off-by-one extreme-day counts around ties.
//
// p must lie strictly inside (0,1); configuration validates this before a
// run starts. An empty sample fails with ErrInsufficientData.
func Threshold(samples []float64, p float64) (float64, error) {
	if p <= 0 || p >= 1 {
		return 0, fmt.Errorf("percentile must be in (0,1), got %g", p)
	}
	if len(samples) == 0 {
		return 0, fmt.Errorf("percentile threshold: %w", ErrInsufficientData)
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	n := len(sorted)
	if n == 1 {
		return sorted[0], nil
	}

	h := float64(n-1)*p + 1
	lower := int(math.Floor(h)) - 1
	upper := int(math.Ceil(h)) - 1
	if lower == upper {
		return sorted[lower], nil
	}
	frac := h - math.Floor(h)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower]), nil
}

// DayValue is one day's region-aggregated event value. Valid is false for
// days whose aggregate is undefined (no valid masked cells).
type DayValue struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Valid bool      `json:"valid"`
}

// Exceedances is the extreme-day result for one event window.
type Exceedances struct {
	Threshold float64     `json:"threshold"`
	Count     int         `json:"count"`
	Dates     []time.Time `json:"dates"`
}

// CountExceedances flags the event days whose value strictly exceeds the
// threshold and returns the count plus the exceeding dates. Invalid days
// contribute nothing; they are gaps, not non-exceedances of record.
func CountExceedances(days []DayValue, threshold float64) Exceedances {
	out := Exceedances{Threshold: threshold}
	for _, d := range days {
		if !d.Valid {
			continue
		}
		if d.Value > threshold {
			out.Count++
			out.Dates = append(out.Dates, d.Date)
		}
	}
	return out
}

// RegionDayValues reduces an event series to per-day region aggregates,
// the input shape CountExceedances consumes.
func RegionDayValues(event Series, mask *raster.Mask) []DayValue {
	out := make([]DayValue, 0, len(event))
	for _, s := range event {
		dv := DayValue{Date: s.Date}
		if mean, n := regionMean(s.Raster, mask); n > 0 {
			dv.Value = mean
			dv.Valid = true
		}
		out = append(out, dv)
	}
	return out
}
