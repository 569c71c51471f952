package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/terra-climate-extremes/internal/climate"
	"github.com/couchcryptid/terra-climate-extremes/internal/raster"
)

// Artifact kinds counted by the published-artifacts metric.
const (
	kindAnomalySeries = "anomaly_series"
	kindHeatDays      = "heat_days"
	kindIndexDelta    = "index_delta"
	kindDistribution  = "distribution"
	kindReport        = "report"
)

// RegionReport is the full artifact set for one region: the anomaly series,
// the heat-day summary, index deltas per secondary variable, and the
// baseline-vs-event distribution comparison.
type RegionReport struct {
	Region        string         `json:"region"`
	Variable      string         `json:"variable"`
	Mode          string         `json:"mode"`
	EventYear     int            `json:"event_year"`
	BaselineYears []int          `json:"baseline_years"`
	Window        climate.Window `json:"window"`
	ProcessedAt   time.Time      `json:"processed_at"`

	Anomalies     []climate.Anomaly `json:"anomalies"`
	WindowAnomaly float64           `json:"window_anomaly"`

	HeatDays     climate.Exceedances            `json:"heat_days"`
	IndexDeltas  map[string]climate.IndexDelta  `json:"index_deltas"`
	IndexExtents map[string]climate.IndexExtent `json:"index_extents"`
	Distribution climate.Comparison             `json:"distribution"`

	// Gap accounting. Baseline gaps degraded the climatology; index gaps
	// thinned the pooled delta samples. Neither aborts the region.
	BaselineGapDays int `json:"baseline_gap_days"`
	IndexGapDays    int `json:"index_gap_days"`
}

// ArtifactSink publishes a finished region report downstream.
type ArtifactSink interface {
	Publish(ctx context.Context, report RegionReport) error
}

// RunReport summarizes one full run across all configured regions. The HTTP
// status endpoint serves the most recent one.
type RunReport struct {
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	EventYear  int             `json:"event_year"`
	Regions    []RegionOutcome `json:"regions"`
}

// RegionOutcome is one region's line in the run summary.
type RegionOutcome struct {
	Region   string `json:"region"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	HeatDays int    `json:"heat_days"`
}

// GapReport is the error returned when the primary event series has days
// with no raster. The anomaly series is day-aligned, so event gaps abort the
// region instead of degrading it.
type GapReport struct {
	Region   string
	Variable string
	Year     int
	Missing  []time.Time
}

func (g *GapReport) Error() string {
	return fmt.Sprintf("event series %s/%s/%d is missing %d of its window days",
		g.Region, g.Variable, g.Year, len(g.Missing))
}

func (g *GapReport) Unwrap() error {
	return raster.ErrDataUnavailable
}

// MissingKeys returns the store keys of the missing days, for logs.
func (g *GapReport) MissingKeys() []string {
	keys := make([]string, len(g.Missing))
	for i, d := range g.Missing {
		keys[i] = raster.Key(g.Variable, d)
	}
	return keys
}
