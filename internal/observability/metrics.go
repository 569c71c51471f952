package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// anomaly-computation pipeline.
type Metrics struct {
	RastersLoaded      prometheus.Counter
	RasterLoadFailures prometheus.Counter

	// Gap accounting: baseline gaps degrade a day-of-year to "no
	// climatology"; event gaps abort the affected series with a gap report.
	BaselineGapDays prometheus.Counter
	EventGapDays    prometheus.Counter

	RegionsProcessed prometheus.Counter
	AnalysisErrors   prometheus.Counter
	PipelineRunning  prometheus.Gauge

	RegionDuration     prometheus.Histogram
	ArtifactsPublished *prometheus.CounterVec // label: kind={anomaly_series,heat_days,index_delta,distribution,report}
	HeatDays           *prometheus.GaugeVec   // label: region
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RastersLoaded,
		m.RasterLoadFailures,
		m.BaselineGapDays,
		m.EventGapDays,
		m.RegionsProcessed,
		m.AnalysisErrors,
		m.PipelineRunning,
		m.RegionDuration,
		m.ArtifactsPublished,
		m.HeatDays,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RastersLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_engine",
			Name:      "rasters_loaded_total",
			Help:      "Total rasters loaded from the store.",
		}),
		RasterLoadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_engine",
			Name:      "raster_load_failures_total",
			Help:      "Total raster loads that failed for reasons other than absence.",
		}),
		BaselineGapDays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_engine",
			Name:      "baseline_gap_days_total",
			Help:      "Baseline (year, day) keys with no raster available.",
		}),
		EventGapDays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_engine",
			Name:      "event_gap_days_total",
			Help:      "Event days with no raster available.",
		}),
		RegionsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_engine",
			Name:      "regions_processed_total",
			Help:      "Regions whose full artifact set was produced.",
		}),
		AnalysisErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_engine",
			Name:      "analysis_errors_total",
			Help:      "Region analyses that failed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_engine",
			Name:      "pipeline_running",
			Help:      "1 while a run is active, 0 otherwise.",
		}),
		RegionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_engine",
			Name:      "region_processing_duration_seconds",
			Help:      "Duration of one region's full analysis.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ArtifactsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_engine",
			Name:      "artifacts_published_total",
			Help:      "Artifacts handed to the sink, by kind.",
		}, []string{"kind"}),
		HeatDays: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "climate_engine",
			Name:      "heat_days",
			Help:      "Heat-day count of the most recent run, by region.",
		}, []string{"region"}),
	}
}
