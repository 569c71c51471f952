package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/terra-climate-extremes/internal/climate"
	"github.com/couchcryptid/terra-climate-extremes/internal/config"
	"github.com/couchcryptid/terra-climate-extremes/internal/observability"
	"github.com/couchcryptid/terra-climate-extremes/internal/raster"
	"github.com/couchcryptid/terra-climate-extremes/internal/region"
)

// bandPairs maps derived spectral indices to their (a, b) surface-reflectance
// bands: the index is (a-b)/(a+b) cell-wise.
var bandPairs = map[string][2]string{
	"NDVI":  {"sur_refl_b02", "sur_refl_b01"},
	"MNDWI": {"sur_refl_b04", "sur_refl_b06"},
}

// Engine orchestrates one analysis run: per region, build the baseline
// climatology, compute the event anomaly series, count heat days, compute
// index deltas, compare distributions, and publish the region report.
type Engine struct {
	store    raster.Store
	resolver *region.Resolver
	sink     ArtifactSink
	cfg      *config.Config
	regions  []region.Region
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool

	mu      sync.Mutex
	lastRun *RunReport
}

// New creates an Engine over the given raster store, regions, and sink.
func New(store raster.Store, resolver *region.Resolver, sink ArtifactSink, regions []region.Region, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		store:    store,
		resolver: resolver,
		sink:     sink,
		cfg:      cfg,
		regions:  regions,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once at least one region report has been
// published, or an error describing why the service is not yet ready.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if !e.ready.Load() {
		return errors.New("no region report has been produced yet")
	}
	return nil
}

// LastRun returns the most recent run summary, or nil before the first run.
func (e *Engine) LastRun() *RunReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastRun
}

// Run analyzes every configured region once. A failing region is logged and
// recorded in the run summary without stopping the others; Run returns an
// error only when no region succeeded.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("run started",
		"event_year", e.cfg.EventYear,
		"baseline_years", len(e.cfg.BaselineYears),
		"regions", len(e.regions),
		"mode", e.cfg.Mode.String(),
	)
	e.metrics.PipelineRunning.Set(1)
	defer e.metrics.PipelineRunning.Set(0)

	run := &RunReport{StartedAt: clock.Now().UTC(), EventYear: e.cfg.EventYear}
	succeeded := 0

	for _, reg := range e.regions {
		if ctx.Err() != nil {
			e.logger.Info("run stopping", "reason", ctx.Err())
			return ctx.Err()
		}

		start := time.Now()
		report, err := e.analyzeRegion(ctx, reg)
		e.metrics.RegionDuration.Observe(time.Since(start).Seconds())

		outcome := RegionOutcome{Region: reg.Name, Status: "ok"}
		if err != nil {
			e.metrics.AnalysisErrors.Inc()
			outcome.Status = "failed"
			outcome.Error = err.Error()

			var gaps *GapReport
			if errors.As(err, &gaps) {
				e.logger.Error("region aborted on event gaps",
					"region", reg.Name, "missing_keys", gaps.MissingKeys())
			} else {
				e.logger.Error("region analysis failed", "region", reg.Name, "error", err)
			}
			run.Regions = append(run.Regions, outcome)
			continue
		}

		if err := e.publish(ctx, *report); err != nil {
			e.metrics.AnalysisErrors.Inc()
			outcome.Status = "failed"
			outcome.Error = err.Error()
			e.logger.Error("publish failed", "region", reg.Name, "error", err)
			run.Regions = append(run.Regions, outcome)
			continue
		}

		outcome.HeatDays = report.HeatDays.Count
		run.Regions = append(run.Regions, outcome)
		succeeded++

		e.metrics.RegionsProcessed.Inc()
		e.metrics.HeatDays.WithLabelValues(reg.Name).Set(float64(report.HeatDays.Count))
		e.ready.Store(true)

		e.logger.Info("region processed",
			"region", reg.Name,
			"heat_days", report.HeatDays.Count,
			"threshold", report.HeatDays.Threshold,
			"window_anomaly", report.WindowAnomaly,
			"baseline_gap_days", report.BaselineGapDays,
		)
	}

	run.FinishedAt = clock.Now().UTC()
	e.mu.Lock()
	e.lastRun = run
	e.mu.Unlock()

	if succeeded == 0 {
		return fmt.Errorf("run produced no region report (%d regions failed)", len(e.regions))
	}
	e.logger.Info("run finished", "regions_ok", succeeded, "regions_failed", len(e.regions)-succeeded)
	return nil
}

// analyzeRegion produces the full artifact set for one region.
func (e *Engine) analyzeRegion(ctx context.Context, reg region.Region) (*RegionReport, error) {
	w := e.cfg.FocusWindow

	event, missing, err := e.loadSeries(ctx, e.cfg.Variable, e.cfg.EventYear, w, nil)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, &GapReport{
			Region:   reg.Name,
			Variable: e.cfg.Variable,
			Year:     e.cfg.EventYear,
			Missing:  missing,
		}
	}
	if len(event) == 0 {
		return nil, fmt.Errorf("region %s: event year %d has no rasters in the window: %w",
			reg.Name, e.cfg.EventYear, raster.ErrDataUnavailable)
	}

	grid := event[0].Raster.Grid()
	mask, err := e.resolver.Resolve(reg, grid)
	if err != nil {
		return nil, fmt.Errorf("region %s: %w", reg.Name, err)
	}
	if mask.Count() == 0 {
		// A region that covers no cell can never produce an aggregate; this
		// is a setup problem, not a data gap.
		return nil, &config.ConfigurationError{
			Option: "REGIONS",
			Reason: fmt.Sprintf("region %s covers no cell of grid %s", reg.Name, grid.Key()),
		}
	}

	baseline, baseGaps, err := e.loadBaseline(ctx, e.cfg.Variable, w, &grid)
	if err != nil {
		return nil, fmt.Errorf("region %s: %w", reg.Name, err)
	}

	clim, err := climate.Build(baseline, mask, e.cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("region %s: %w", reg.Name, err)
	}

	anomalies, err := climate.ComputeAnomalies(event, clim, mask, e.cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("region %s: %w", reg.Name, err)
	}

	threshold, err := climate.Threshold(clim.PooledSamples(w), e.cfg.HeatDayPercentile)
	if err != nil {
		return nil, fmt.Errorf("region %s: heat-day threshold: %w", reg.Name, err)
	}
	heat := climate.CountExceedances(climate.RegionDayValues(event, mask), threshold)

	dist, err := climate.Compare(
		climate.WindowValues(baseline, mask, w),
		climate.WindowValues(event, mask, w),
		climate.BinSpec{Bins: e.cfg.HistogramBins},
		e.cfg.ShiftPercentile,
	)
	if err != nil {
		return nil, fmt.Errorf("region %s: %w", reg.Name, err)
	}

	report := &RegionReport{
		Region:          reg.Name,
		Variable:        e.cfg.Variable,
		Mode:            e.cfg.Mode.String(),
		EventYear:       e.cfg.EventYear,
		BaselineYears:   e.cfg.BaselineYears,
		Window:          w,
		ProcessedAt:     clock.Now().UTC(),
		Anomalies:       anomalies.Points,
		HeatDays:        heat,
		IndexDeltas:     make(map[string]climate.IndexDelta, len(e.cfg.IndexVariables)),
		IndexExtents:    make(map[string]climate.IndexExtent, len(e.cfg.IndexVariables)),
		Distribution:    dist,
		BaselineGapDays: baseGaps,
	}
	report.WindowAnomaly = meanDefined(anomalies.Points)

	for _, iv := range e.cfg.IndexVariables {
		delta, extent, gaps, err := e.indexDelta(ctx, iv, mask, w, &grid)
		if err != nil {
			return nil, fmt.Errorf("region %s: index %s: %w", reg.Name, iv, err)
		}
		report.IndexDeltas[iv] = delta
		report.IndexExtents[iv] = extent
		report.IndexGapDays += gaps
	}

	return report, nil
}

// indexDelta computes one secondary variable's event-vs-baseline delta and
// its threshold delineation. The delta pools across the window, so missing
// index days thin the pool instead of aborting the region; the gap count is
// surfaced in the report.
func (e *Engine) indexDelta(ctx context.Context, variable string, mask *raster.Mask, w climate.Window, grid *raster.Grid) (climate.IndexDelta, climate.IndexExtent, int, error) {
	event, missing, err := e.loadSeries(ctx, variable, e.cfg.EventYear, w, grid)
	if err != nil {
		return climate.IndexDelta{}, climate.IndexExtent{}, 0, err
	}
	gaps := len(missing)
	for _, d := range missing {
		e.metrics.EventGapDays.Inc()
		e.logger.Warn("event index day missing", "key", raster.Key(variable, d))
	}

	baseline, baseGaps, err := e.loadBaseline(ctx, variable, w, grid)
	if err != nil {
		return climate.IndexDelta{}, climate.IndexExtent{}, 0, err
	}

	delta, err := climate.WindowDelta(event, baseline, mask, w)
	if err != nil {
		return climate.IndexDelta{}, climate.IndexExtent{}, 0, err
	}
	extent, err := climate.Extent(event, baseline, mask, w, e.cfg.IndexThreshold)
	if err != nil {
		return climate.IndexDelta{}, climate.IndexExtent{}, 0, err
	}
	return delta, extent, gaps + baseGaps, nil
}

// loadBaseline loads every baseline year's window days. Missing days degrade
// the climatology rather than aborting; the gap count is returned.
func (e *Engine) loadBaseline(ctx context.Context, variable string, w climate.Window, grid *raster.Grid) (climate.Series, int, error) {
	var series climate.Series
	gaps := 0
	for _, year := range e.cfg.BaselineYears {
		s, missing, err := e.loadSeries(ctx, variable, year, w, grid)
		if err != nil {
			return nil, 0, err
		}
		for _, d := range missing {
			e.metrics.BaselineGapDays.Inc()
			e.logger.Debug("baseline day missing", "key", raster.Key(variable, d))
		}
		gaps += len(missing)
		series = append(series, s...)
	}
	return series, gaps, nil
}

// loadSeries loads one year's rasters for every window day. Absent days are
// returned as missing dates; any other load failure, including a raster on
// the wrong grid, is an error. With grid nil the first raster pins it.
func (e *Engine) loadSeries(ctx context.Context, variable string, year int, w climate.Window, grid *raster.Grid) (climate.Series, []time.Time, error) {
	var series climate.Series
	var missing []time.Time

	for _, date := range windowDates(year, w) {
		r, err := e.loadVariable(ctx, variable, date)
		if err != nil {
			if errors.Is(err, raster.ErrDataUnavailable) {
				missing = append(missing, date)
				continue
			}
			e.metrics.RasterLoadFailures.Inc()
			return nil, nil, fmt.Errorf("load %s: %w", raster.Key(variable, date), err)
		}
		if grid != nil && *grid != (raster.Grid{}) && r.Grid() != *grid {
			e.metrics.RasterLoadFailures.Inc()
			return nil, nil, fmt.Errorf("load %s: grid %s does not match run grid %s",
				raster.Key(variable, date), r.Grid().Key(), grid.Key())
		}
		if grid != nil && *grid == (raster.Grid{}) {
			*grid = r.Grid()
		}
		e.metrics.RastersLoaded.Inc()
		series = append(series, climate.Sample{Date: date, Raster: r})
	}
	return series, missing, nil
}

// loadVariable loads a stored variable directly, or derives a band-pair
// index cell-wise when the name is a known index. A derived index is absent
// whenever either of its bands is absent.
func (e *Engine) loadVariable(ctx context.Context, variable string, date time.Time) (*raster.Raster, error) {
	bands, derived := bandPairs[variable]
	if !derived {
		return e.store.Load(ctx, variable, date)
	}

	a, err := e.store.Load(ctx, bands[0], date)
	if err != nil {
		return nil, err
	}
	b, err := e.store.Load(ctx, bands[1], date)
	if err != nil {
		return nil, err
	}
	return climate.NormalizedDifference(a, b)
}

func (e *Engine) publish(ctx context.Context, report RegionReport) error {
	if e.sink == nil {
		return nil
	}
	if err := e.sink.Publish(ctx, report); err != nil {
		return fmt.Errorf("publish report for %s: %w", report.Region, err)
	}
	for _, kind := range []string{kindAnomalySeries, kindHeatDays, kindDistribution, kindReport} {
		e.metrics.ArtifactsPublished.WithLabelValues(kind).Inc()
	}
	e.metrics.ArtifactsPublished.WithLabelValues(kindIndexDelta).Add(float64(len(report.IndexDeltas)))
	return nil
}

// windowDates lists the calendar dates of the year whose day-of-year falls
// inside the window, in chronological order. Day 366 is skipped in non-leap
// years.
func windowDates(year int, w climate.Window) []time.Time {
	var out []time.Time
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for doy := 1; doy <= 366; doy++ {
		if !w.Contains(doy) {
			continue
		}
		d := jan1.AddDate(0, 0, doy-1)
		if d.YearDay() != doy {
			continue
		}
		out = append(out, d)
	}
	return out
}

// meanDefined averages the defined anomaly points; zero when none is defined.
func meanDefined(points []climate.Anomaly) float64 {
	var vals []float64
	for _, p := range points {
		if p.Defined {
			vals = append(vals, p.Value)
		}
	}
	if len(vals) == 0 {
		return 0
	}
	return stat.Mean(vals, nil)
}
