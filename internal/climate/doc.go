// Package climate implements the anomaly-computation core: day-of-year
// climatology, event-year anomalies, percentile extreme-day detection,
// spectral index deltas, and baseline/event distribution comparison.
//
// # Day-of-Year Alignment
//
// Multi-year samples are aligned by day-of-year (1..366). Each day-of-year
// group is statistically independent: there is no interpolation or smoothing
// across calendar dates, so climatology never leaks information between days.
// A group that receives zero valid samples is marked "no climatology" and
// propagates as undefined through every downstream computation, never as
// zero, because a fabricated zero would masquerade as a real signal.
//
// # Aggregation Modes
//
// Region mode reduces each raster to a single region-aggregate value (mean
// over valid masked cells) before grouping by day-of-year. Pixel mode keeps
// per-cell series. A climatology built in one mode can only be consumed in
// that mode; a mismatch fails with [ErrModeMismatch].
//
// # Baseline / Event Separation
//
// The baseline set must exclude the event year. That invariant is enforced
// by configuration validation before any raster is loaded; this package
// assumes its inputs are already separated and keeps them separated: no
// function mixes baseline and event samples except the explicitly paired
// comparisons (index delta, distribution comparison).
//
// # Percentile Rule
//
// Thresholds use linear interpolation between the two bracketing order
// statistics of the sorted sample: h = (n-1)p + 1 (the Excel/R-7 rule).
// The rule is fixed here because nearest-rank counting shifts extreme-day
// counts by one around ties; see [Threshold].
//
// All functions are pure transformations over immutable inputs.
package climate
