// Command validate performs end-to-end integrity checks over a fixture data
// directory before a run: fixture file naming and parsing, per-year window
// coverage, decoded value sanity, and region-to-grid alignment.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -data data_products \
//	  -baseline 2018-2023 \
//	  -event-year 2024 \
//	  -window 183:244
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/terra-climate-extremes/internal/adapter/fixture"
	"github.com/couchcryptid/terra-climate-extremes/internal/observability"
	"github.com/couchcryptid/terra-climate-extremes/internal/raster"
	"github.com/couchcryptid/terra-climate-extremes/internal/region"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data", "", "fixture data directory")
	baseline := flag.String("baseline", "2018-2023", "baseline year range, inclusive")
	eventYear := flag.Int("event-year", 2024, "event year")
	window := flag.String("window", "183:244", "day-of-year window start:end")
	flag.Parse()

	if *dataDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dataDir, *baseline, *eventYear, *window); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir, baseline string, eventYear int, window string) int {
	fmt.Println("=== Fixture Data Integrity Validation ===")
	fmt.Println()

	startYear, endYear, err := parseRange(baseline, "-")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse -baseline: %v\n", err)
		return 1
	}
	startDOY, endDOY, err := parseRange(window, ":")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse -window: %v\n", err)
		return 1
	}

	years := make([]int, 0, endYear-startYear+2)
	for y := startYear; y <= endYear; y++ {
		years = append(years, y)
	}
	years = append(years, eventYear)

	logger := observability.NewLogger("error", "text")
	store := fixture.NewStore(dataDir, fixture.DefaultVariables(), logger)
	variables := fixture.DefaultVariables()

	grid, p1 := validateFixtureFiles(store, variables)
	phases := []*phase{
		p1,
		validateCoverage(store, variables, years, startDOY, endDOY),
		validateDecodedValues(store, variables, eventYear, startDOY, endDOY),
		validateRegions(dataDir, grid),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Fixture Files ──
// Every variable directory parses, and all fixtures share one grid.

func validateFixtureFiles(store *fixture.Store, variables []raster.Variable) (raster.Grid, *phase) {
	p := &phase{name: "Phase 1: Fixture Files (naming, parsing)"}
	ctx := context.Background()

	var grid raster.Grid
	for _, v := range variables {
		dates, err := store.Available(v.Name)
		if err != nil {
			p.errorf("%s: list fixtures: %v", v.Name, err)
			continue
		}
		if len(dates) == 0 {
			p.errorf("%s: no fixture files", v.Name)
			continue
		}
		for _, d := range dates {
			r, err := store.Load(ctx, v.Name, d)
			if err != nil {
				p.errorf("%s: %v", raster.Key(v.Name, d), err)
				continue
			}
			if grid == (raster.Grid{}) {
				grid = r.Grid()
			} else if r.Grid() != grid {
				p.errorf("%s: grid %s differs from %s", raster.Key(v.Name, d), r.Grid().Key(), grid.Key())
			}
		}
	}
	return grid, p
}

// ── Phase 2: Coverage ──
// Each configured year has a fixture for every window day, per variable.

func validateCoverage(store *fixture.Store, variables []raster.Variable, years []int, startDOY, endDOY int) *phase {
	p := &phase{name: "Phase 2: Coverage (years x window days)"}

	for _, v := range variables {
		available := map[string]bool{}
		dates, err := store.Available(v.Name)
		if err != nil {
			p.errorf("%s: %v", v.Name, err)
			continue
		}
		for _, d := range dates {
			available[raster.Key(v.Name, d)] = true
		}

		for _, year := range years {
			missing := 0
			for doy := startDOY; doy <= endDOY; doy++ {
				d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1)
				if d.YearDay() != doy {
					continue
				}
				if !available[raster.Key(v.Name, d)] {
					missing++
				}
			}
			if missing > 0 {
				p.errorf("%s year %d: %d of %d window days missing", v.Name, year, missing, endDOY-startDOY+1)
			}
		}
	}
	return p
}

// ── Phase 3: Decoded Values ──
// Decoded rasters are mostly valid; fully-invalid days would silently become
// data gaps at run time.

func validateDecodedValues(store *fixture.Store, variables []raster.Variable, eventYear, startDOY, endDOY int) *phase {
	p := &phase{name: "Phase 3: Decoded Values (validity fraction)"}
	ctx := context.Background()

	for _, v := range variables {
		for doy := startDOY; doy <= endDOY; doy++ {
			d := time.Date(eventYear, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1)
			if d.YearDay() != doy {
				continue
			}
			r, err := store.Load(ctx, v.Name, d)
			if err != nil {
				if errors.Is(err, raster.ErrDataUnavailable) {
					continue // phase 2 reports coverage
				}
				p.errorf("%s: %v", raster.Key(v.Name, d), err)
				continue
			}
			frac := float64(r.ValidCount()) / float64(r.Grid().Cells())
			if frac < 0.5 {
				p.errorf("%s: only %.0f%% of cells decode as valid", raster.Key(v.Name, d), frac*100)
			}
		}
	}
	return p
}

// ── Phase 4: Regions ──
// Every region GeoJSON under <data>/roi loads and covers at least one cell.

func validateRegions(dataDir string, grid raster.Grid) *phase {
	p := &phase{name: "Phase 4: Regions (GeoJSON, grid alignment)"}

	roiDir := filepath.Join(dataDir, "roi")
	entries, err := os.ReadDir(roiDir)
	if err != nil {
		p.errorf("read %s: %v", roiDir, err)
		return p
	}
	if grid == (raster.Grid{}) {
		p.errorf("no fixture grid to align regions against")
		return p
	}

	resolver := region.NewResolver(len(entries) + 1)
	found := 0
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".geojson") {
			continue
		}
		found++
		name := strings.TrimSuffix(e.Name(), ".geojson")
		reg, err := region.Load(name, filepath.Join(roiDir, e.Name()))
		if err != nil {
			p.errorf("%s: %v", e.Name(), err)
			continue
		}
		mask, err := resolver.Resolve(reg, grid)
		if err != nil {
			p.errorf("%s: rasterize: %v", name, err)
			continue
		}
		if mask.Count() == 0 {
			p.errorf("%s: covers no cell of grid %s", name, grid.Key())
		}
	}
	if found == 0 {
		p.errorf("no .geojson files under %s", roiDir)
	}
	return p
}

// ── Helpers ──

func parseRange(s, sep string) (int, int, error) {
	lo, hi, ok := strings.Cut(s, sep)
	if !ok {
		return 0, 0, fmt.Errorf("expected lo%shi, got %q", sep, s)
	}
	start, err1 := strconv.Atoi(strings.TrimSpace(lo))
	end, err2 := strconv.Atoi(strings.TrimSpace(hi))
	if err1 != nil || err2 != nil || end < start {
		return 0, 0, fmt.Errorf("invalid range %q", s)
	}
	return start, end, nil
}
