package climate

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BinSpec configures histogram binning. With Fixed set, Min and Max pin the
// range; otherwise the range is derived from the union of both datasets so
// the paired histograms always share identical edges.
type BinSpec struct {
	Bins  int
	Min   float64
	Max   float64
	Fixed bool
}

// Validate checks the bin spec.
func (b BinSpec) Validate() error {
	if b.Bins < 1 {
		return fmt.Errorf("bin count must be at least 1, got %d", b.Bins)
	}
	if b.Fixed && b.Max <= b.Min {
		return fmt.Errorf("fixed bin range must have max > min, got [%g, %g]", b.Min, b.Max)
	}
	return nil
}

// PairedHistogram holds baseline and event counts over one shared set of bin
// edges. len(Edges) is always len(Baseline)+1; identical edges between the
// two series is the invariant that makes the histograms directly comparable.
type PairedHistogram struct {
	Edges    []float64 `json:"edges"`
	Baseline []int     `json:"baseline"`
	Event    []int     `json:"event"`
}

// Comparison is the distribution-shift result for one region and variable.
type Comparison struct {
	Histogram       PairedHistogram `json:"histogram"`
	MeanShift       float64         `json:"mean_shift"`
	Percentile      float64         `json:"percentile"`
	PercentileShift float64         `json:"percentile_shift"`
	TailShift       float64         `json:"tail_shift"`
}

// Compare bins baseline and event values over one shared set of edges and
// computes shift statistics: difference of means, difference of the given
// percentile, and the tail shift (difference between the means of each
// dataset's top-5% tail). Either dataset being empty fails with
// ErrInsufficientData.
func Compare(baseline, event []float64, spec BinSpec, percentile float64) (Comparison, error) {
	if err := spec.Validate(); err != nil {
		return Comparison{}, fmt.Errorf("compare distributions: %w", err)
	}
	if percentile <= 0 || percentile >= 1 {
		return Comparison{}, fmt.Errorf("compare distributions: percentile must be in (0,1), got %g", percentile)
	}
	if len(baseline) == 0 {
		return Comparison{}, fmt.Errorf("compare distributions: empty baseline: %w", ErrInsufficientData)
	}
	if len(event) == 0 {
		return Comparison{}, fmt.Errorf("compare distributions: empty event: %w", ErrInsufficientData)
	}

	lo, hi := spec.Min, spec.Max
	if !spec.Fixed {
		lo = floats.Min(baseline)
		hi = floats.Max(baseline)
		if m := floats.Min(event); m < lo {
			lo = m
		}
		if m := floats.Max(event); m > hi {
			hi = m
		}
		if lo == hi {
			// Degenerate range: a constant dataset still gets one real bin.
			hi = lo + 1
		}
	}

	edges := make([]float64, spec.Bins+1)
	width := (hi - lo) / float64(spec.Bins)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[spec.Bins] = hi

	cmp := Comparison{
		Histogram: PairedHistogram{
			Edges:    edges,
			Baseline: bin(baseline, edges),
			Event:    bin(event, edges),
		},
		Percentile: percentile,
		MeanShift:  stat.Mean(event, nil) - stat.Mean(baseline, nil),
	}

	basePct, err := stats.Percentile(stats.Float64Data(baseline), percentile*100)
	if err != nil {
		return Comparison{}, fmt.Errorf("compare distributions: baseline percentile: %w", err)
	}
	eventPct, err := stats.Percentile(stats.Float64Data(event), percentile*100)
	if err != nil {
		return Comparison{}, fmt.Errorf("compare distributions: event percentile: %w", err)
	}
	cmp.PercentileShift = eventPct - basePct

	baseTail, err := tailMean(baseline)
	if err != nil {
		return Comparison{}, err
	}
	eventTail, err := tailMean(event)
	if err != nil {
		return Comparison{}, err
	}
	cmp.TailShift = eventTail - baseTail

	return cmp, nil
}

// bin counts values into the half-open intervals [edges[i], edges[i+1]);
// the last bin is closed so the maximum lands inside the histogram.
func bin(values []float64, edges []float64) []int {
	counts := make([]int, len(edges)-1)
	lo := edges[0]
	hi := edges[len(edges)-1]
	width := (hi - lo) / float64(len(counts))

	for _, v := range values {
		if v < lo || v > hi {
			continue
		}
		i := int((v - lo) / width)
		if i >= len(counts) {
			i = len(counts) - 1
		}
		counts[i]++
	}
	return counts
}

// tailMean returns the mean of the values at or above the dataset's own
// 95th percentile.
func tailMean(values []float64) (float64, error) {
	thresh, err := stats.Percentile(stats.Float64Data(values), 95)
	if err != nil {
		return 0, fmt.Errorf("tail mean: %w", err)
	}
	var tail []float64
	for _, v := range values {
		if v >= thresh {
			tail = append(tail, v)
		}
	}
	if len(tail) == 0 {
		return 0, fmt.Errorf("tail mean: %w", ErrInsufficientData)
	}
	return stat.Mean(tail, nil), nil
}
