package climate

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/terra-climate-extremes/internal/raster"
)

// ErrInsufficientData signals that a required aggregate has zero valid
// contributing samples. Callers must not treat this as a zero value.
var ErrInsufficientData = errors.New("insufficient data")

// ErrModeMismatch signals that a climatology built in one aggregation mode
// was consumed in the other.
var ErrModeMismatch = errors.New("aggregation mode mismatch")

// Mode selects the aggregation level of climatology and anomaly computation.
type Mode int

const (
	// RegionMode reduces each raster to one region-aggregate value before
	// grouping by day-of-year.
	RegionMode Mode = iota
	// PixelMode keeps per-cell series.
	PixelMode
)

func (m Mode) String() string {
	switch m {
	case RegionMode:
		return "region"
	case PixelMode:
		return "pixel"
	default:
		return "unknown"
	}
}

// ParseMode converts a config string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "region":
		return RegionMode, nil
	case "pixel":
		return PixelMode, nil
	default:
		return RegionMode, fmt.Errorf("unknown aggregation mode %q", s)
	}
}

// Sample is one dated raster in a time series.
type Sample struct {
	Date   time.Time
	Raster *raster.Raster
}

// DOY returns the sample's day-of-year (1..366).
func (s Sample) DOY() int {
	return s.Date.YearDay()
}

// Series is a date-ordered raster time series.
type Series []Sample

// InWindow returns the subset of the series whose day-of-year falls inside
// the window.
func (s Series) InWindow(w Window) Series {
	out := make(Series, 0, len(s))
	for _, sample := range s {
		if w.Contains(sample.DOY()) {
			out = append(out, sample)
		}
	}
	return out
}

// Window is an inclusive day-of-year range. A window whose start exceeds its
// end wraps across the year boundary (e.g. 335..59 for Dec–Feb).
type Window struct {
	StartDOY int
	EndDOY   int
}

// Contains reports whether the day-of-year falls inside the window.
func (w Window) Contains(doy int) bool {
	if w.StartDOY <= w.EndDOY {
		return doy >= w.StartDOY && doy <= w.EndDOY
	}
	return doy >= w.StartDOY || doy <= w.EndDOY
}

// Validate checks the window bounds.
func (w Window) Validate() error {
	if w.StartDOY < 1 || w.StartDOY > 366 || w.EndDOY < 1 || w.EndDOY > 366 {
		return fmt.Errorf("window day-of-year bounds must be in 1..366, got %d..%d", w.StartDOY, w.EndDOY)
	}
	return nil
}

// regionMean returns the mean over valid masked cells and the number of
// contributing cells. A zero count means no aggregate exists for the raster.
func regionMean(r *raster.Raster, mask *raster.Mask) (float64, int) {
	vals := r.Values(mask)
	if len(vals) == 0 {
		return 0, 0
	}
	return stat.Mean(vals, nil), len(vals)
}

// WindowValues pools all valid masked cell values of the series samples
// whose day-of-year falls inside the window.
func WindowValues(s Series, mask *raster.Mask, w Window) []float64 {
	var out []float64
	for _, sample := range s {
		if !w.Contains(sample.DOY()) {
			continue
		}
		out = append(out, sample.Raster.Values(mask)...)
	}
	return out
}
