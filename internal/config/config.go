package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/terra-climate-extremes/internal/climate"
)

// ConfigurationError reports an invalid or inconsistent option. It is
// returned before any numeric work starts; a run never begins computing
// with a bad configuration.
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Option, e.Reason)
}

// RegionRef names a region and the GeoJSON file holding its geometry.
type RegionRef struct {
	Name string
	Path string
}

// Config holds all engine settings, populated from environment variables.
type Config struct {
	// Analysis options recognized by the core.
	BaselineYears     []int
	EventYear         int
	FocusWindow       climate.Window
	HeatDayPercentile float64
	IndexThreshold    float64
	Mode              climate.Mode

	// Variables and regions under analysis.
	Variable       string
	IndexVariables []string
	Regions        []RegionRef

	// Distribution comparison.
	HistogramBins   int
	ShiftPercentile float64

	// Data location and caching.
	DataDir       string
	MaskCacheSize int

	// Service surface.
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Artifact sink (feature-flagged, like any other downstream collaborator).
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset, and validates the result before returning it.
func Load() (*Config, error) {
	baselineYears, err := parseYears(envOrDefault("BASELINE_YEARS", "2010-2019"))
	if err != nil {
		return nil, &ConfigurationError{Option: "BASELINE_YEARS", Reason: err.Error()}
	}

	eventYear, err := strconv.Atoi(envOrDefault("EVENT_YEAR", "2024"))
	if err != nil {
		return nil, &ConfigurationError{Option: "EVENT_YEAR", Reason: "not an integer"}
	}

	window, err := parseWindow(envOrDefault("FOCUS_WINDOW", "183:244"))
	if err != nil {
		return nil, &ConfigurationError{Option: "FOCUS_WINDOW", Reason: err.Error()}
	}

	percentile, err := strconv.ParseFloat(envOrDefault("HEAT_DAY_PERCENTILE", "0.95"), 64)
	if err != nil {
		return nil, &ConfigurationError{Option: "HEAT_DAY_PERCENTILE", Reason: "not a number"}
	}

	indexThreshold, err := strconv.ParseFloat(envOrDefault("INDEX_THRESHOLD", "0.2"), 64)
	if err != nil {
		return nil, &ConfigurationError{Option: "INDEX_THRESHOLD", Reason: "not a number"}
	}

	mode, err := climate.ParseMode(envOrDefault("AGGREGATION_MODE", "region"))
	if err != nil {
		return nil, &ConfigurationError{Option: "AGGREGATION_MODE", Reason: err.Error()}
	}

	bins, err := strconv.Atoi(envOrDefault("HISTOGRAM_BINS", "50"))
	if err != nil {
		return nil, &ConfigurationError{Option: "HISTOGRAM_BINS", Reason: "not an integer"}
	}

	shiftPercentile, err := strconv.ParseFloat(envOrDefault("SHIFT_PERCENTILE", "0.95"), 64)
	if err != nil {
		return nil, &ConfigurationError{Option: "SHIFT_PERCENTILE", Reason: "not a number"}
	}

	maskCacheSize, err := strconv.Atoi(envOrDefault("MASK_CACHE_SIZE", "64"))
	if err != nil {
		return nil, &ConfigurationError{Option: "MASK_CACHE_SIZE", Reason: "not an integer"}
	}

	shutdownTimeout, err := time.ParseDuration(envOrDefault("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil || shutdownTimeout <= 0 {
		return nil, &ConfigurationError{Option: "SHUTDOWN_TIMEOUT", Reason: "not a positive duration"}
	}

	regions, err := parseRegions(os.Getenv("REGIONS"))
	if err != nil {
		return nil, &ConfigurationError{Option: "REGIONS", Reason: err.Error()}
	}

	cfg := &Config{
		BaselineYears:     baselineYears,
		EventYear:         eventYear,
		FocusWindow:       window,
		HeatDayPercentile: percentile,
		IndexThreshold:    indexThreshold,
		Mode:              mode,

		Variable:       envOrDefault("VARIABLE", "LST_Day"),
		IndexVariables: splitList(envOrDefault("INDEX_VARIABLES", "NDVI,MNDWI")),
		Regions:        regions,

		HistogramBins:   bins,
		ShiftPercentile: shiftPercentile,

		DataDir:       envOrDefault("DATA_DIR", "data_products"),
		MaskCacheSize: maskCacheSize,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "climate-extremes-artifacts"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the invariants the core depends on. It runs once,
// before any raster is loaded.
func (c *Config) Validate() error {
	if len(c.BaselineYears) == 0 {
		return &ConfigurationError{Option: "BASELINE_YEARS", Reason: "at least one baseline year is required"}
	}
	for _, y := range c.BaselineYears {
		if y == c.EventYear {
			// Hard invariant: the event year must never leak into its own baseline.
			return &ConfigurationError{
				Option: "BASELINE_YEARS",
				Reason: fmt.Sprintf("event year %d must not appear in the baseline set", c.EventYear),
			}
		}
	}
	if c.HeatDayPercentile <= 0 || c.HeatDayPercentile >= 1 {
		return &ConfigurationError{
			Option: "HEAT_DAY_PERCENTILE",
			Reason: fmt.Sprintf("must be strictly between 0 and 1, got %g", c.HeatDayPercentile),
		}
	}
	if c.ShiftPercentile <= 0 || c.ShiftPercentile >= 1 {
		return &ConfigurationError{
			Option: "SHIFT_PERCENTILE",
			Reason: fmt.Sprintf("must be strictly between 0 and 1, got %g", c.ShiftPercentile),
		}
	}
	if err := c.FocusWindow.Validate(); err != nil {
		return &ConfigurationError{Option: "FOCUS_WINDOW", Reason: err.Error()}
	}
	if c.HistogramBins < 1 {
		return &ConfigurationError{Option: "HISTOGRAM_BINS", Reason: "must be at least 1"}
	}
	if c.MaskCacheSize < 1 {
		return &ConfigurationError{Option: "MASK_CACHE_SIZE", Reason: "must be at least 1"}
	}
	if len(c.Regions) == 0 {
		return &ConfigurationError{Option: "REGIONS", Reason: "at least one region is required"}
	}
	if c.Variable == "" {
		return &ConfigurationError{Option: "VARIABLE", Reason: "a primary variable is required"}
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return &ConfigurationError{Option: "KAFKA_BROKERS", Reason: "required when KAFKA_ENABLED is true"}
		}
		if c.KafkaSinkTopic == "" {
			return &ConfigurationError{Option: "KAFKA_SINK_TOPIC", Reason: "required when KAFKA_ENABLED is true"}
		}
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseYears accepts either an inclusive range "2010-2019" or a comma list
// "2010,2012,2015", or a mix of both. The result is sorted ascending with
// duplicates removed.
func parseYears(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty year list")
	}

	seen := make(map[int]bool)
	var years []int
	add := func(y int) {
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err1 := strconv.Atoi(strings.TrimSpace(lo))
			end, err2 := strconv.Atoi(strings.TrimSpace(hi))
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("invalid year range %q", part)
			}
			if end < start {
				return nil, fmt.Errorf("year range %q runs backwards", part)
			}
			for y := start; y <= end; y++ {
				add(y)
			}
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid year %q", part)
		}
		add(y)
	}

	sort.Ints(years)
	return years, nil
}

// parseWindow accepts "start:end" day-of-year bounds, e.g. "183:244" for
// July–August of a leap year.
func parseWindow(s string) (climate.Window, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return climate.Window{}, fmt.Errorf("expected start:end day-of-year, got %q", s)
	}
	start, err1 := strconv.Atoi(strings.TrimSpace(lo))
	end, err2 := strconv.Atoi(strings.TrimSpace(hi))
	if err1 != nil || err2 != nil {
		return climate.Window{}, fmt.Errorf("expected integer day-of-year bounds, got %q", s)
	}
	return climate.Window{StartDOY: start, EndDOY: end}, nil
}

// parseRegions accepts "name:path" pairs separated by commas, e.g.
// "ukraine:roi/ukraine.geojson,zaporizhzhia:roi/zaporizhzhia.geojson".
func parseRegions(s string) ([]RegionRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []RegionRef
	for _, part := range strings.Split(s, ",") {
		name, path, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("expected name:path, got %q", part)
		}
		out = append(out, RegionRef{Name: name, Path: path})
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
