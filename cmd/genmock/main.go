// Command genmock generates synthetic raster fixtures for the engine's test
// and demo runs: a latitudinal temperature gradient for the baseline years
// plus a warm patch in the event year, with matching surface-reflectance
// bands and region GeoJSON files. It writes fixtures through the same
// decoding conventions the engine loads with, so generated data round-trips
// the real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data_products \
//	  -baseline 2018-2023 \
//	  -event-year 2024 \
//	  -window 183:244
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/terra-climate-extremes/internal/adapter/fixture"
	"github.com/couchcryptid/terra-climate-extremes/internal/raster"
)

// The synthetic grid covers southeastern Europe at half-degree resolution.
var grid = raster.Grid{
	MinLon:   22.0,
	MinLat:   44.0,
	CellSize: 0.5,
	Width:    28,
	Height:   16,
}

// warmPatch is the event-year anomaly footprint in degrees.
var warmPatch = struct{ minLon, maxLon, minLat, maxLat float64 }{
	minLon: 34.0, maxLon: 37.0,
	minLat: 46.5, maxLat: 48.5,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory for fixtures")
	baseline := flag.String("baseline", "2018-2023", "baseline year range, inclusive")
	eventYear := flag.Int("event-year", 2024, "event year")
	window := flag.String("window", "183:244", "day-of-year window start:end")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	startYear, endYear, err := parseRange(*baseline, "-")
	if err != nil {
		return fmt.Errorf("parsing -baseline: %w", err)
	}
	startDOY, endDOY, err := parseRange(*window, ":")
	if err != nil {
		return fmt.Errorf("parsing -window: %w", err)
	}

	files := 0
	for year := startYear; year <= endYear; year++ {
		n, err := writeYear(*out, year, startDOY, endDOY, false)
		if err != nil {
			return err
		}
		files += n
	}
	n, err := writeYear(*out, *eventYear, startDOY, endDOY, true)
	if err != nil {
		return err
	}
	files += n

	if err := writeRegions(*out); err != nil {
		return err
	}

	log.Printf("wrote %d fixture files under %s", files, *out)
	printStats(*eventYear, startDOY)
	return nil
}

// writeYear emits every variable's fixture for each window day of the year.
func writeYear(dir string, year, startDOY, endDOY int, event bool) (int, error) {
	files := 0
	for doy := startDOY; doy <= endDOY; doy++ {
		date := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1)
		if date.YearDay() != doy {
			continue
		}
		for _, v := range fixture.DefaultVariables() {
			f := fixture.File{Grid: grid, Values: synthesize(v, year, doy, event)}
			path := filepath.Join(dir, v.Name, fmt.Sprintf("A%04d%03d.json", year, doy))
			if err := writeJSON(path, f); err != nil {
				return files, fmt.Errorf("writing %s: %w", path, err)
			}
			files++
		}
	}
	return files, nil
}

// synthesize builds one variable's raw packed samples. Values are
// deterministic in (variable, year, doy, cell) so regenerated fixtures and
// test assertions never drift.
func synthesize(v raster.Variable, year, doy int, event bool) []float64 {
	raw := make([]float64, grid.Cells())
	for row := 0; row < grid.Height; row++ {
		lat := grid.CenterLat(row)
		for col := 0; col < grid.Width; col++ {
			lon := grid.CenterLon(col)
			i := row*grid.Width + col

			// A sprinkling of fill cells exercises validity handling.
			if (row*31+col*7+doy)%97 == 0 {
				raw[i] = v.FillValue
				continue
			}

			switch v.Name {
			case "LST_Day":
				t := lstKelvin(lat, lon, year, doy)
				if event && inPatch(lat, lon) {
					t += 4.0
				}
				raw[i] = math.Round(t / v.ScaleFactor)
			default:
				r := reflectance(v.Name, lat, lon, doy)
				if event && inPatch(lat, lon) {
					// Drier vegetation in the warm patch: NIR down, SWIR up.
					switch v.Name {
					case "sur_refl_b02":
						r -= 0.08
					case "sur_refl_b06":
						r += 0.05
					}
				}
				raw[i] = math.Round(r / v.ScaleFactor)
			}
		}
	}
	return raw
}

// lstKelvin is the baseline day temperature model: a south-to-north gradient,
// a seasonal curve peaking around day 200, and small stable spatial texture.
func lstKelvin(lat, lon float64, year, doy int) float64 {
	gradient := 301.0 - 0.6*(lat-grid.MinLat)
	season := 6.0 * math.Cos(2*math.Pi*float64(doy-200)/365.0)
	texture := 0.8 * math.Sin(lon*1.3+lat*2.1)
	interannual := 0.3 * math.Sin(float64(year))
	return gradient + season + texture + interannual
}

func reflectance(band string, lat, lon float64, doy int) float64 {
	base := map[string]float64{
		"sur_refl_b01": 0.08,
		"sur_refl_b02": 0.35,
		"sur_refl_b04": 0.10,
		"sur_refl_b06": 0.22,
	}[band]
	return base + 0.02*math.Sin(lon*0.9+lat*1.7+float64(doy)*0.01)
}

func inPatch(lat, lon float64) bool {
	return lon >= warmPatch.minLon && lon <= warmPatch.maxLon &&
		lat >= warmPatch.minLat && lat <= warmPatch.maxLat
}

// writeRegions emits a broad region covering most of the grid and a small
// one sitting inside the warm patch.
func writeRegions(dir string) error {
	regions := map[string][4]float64{
		// minLon, minLat, maxLon, maxLat
		"ukraine":      {23.0, 44.5, 35.5, 51.5},
		"zaporizhzhia": {34.2, 46.7, 36.8, 48.2},
	}
	for name, b := range regions {
		doc := map[string]any{
			"type": "FeatureCollection",
			"features": []any{map[string]any{
				"type":       "Feature",
				"properties": map[string]any{"name": name},
				"geometry": map[string]any{
					"type": "Polygon",
					"coordinates": [][][2]float64{{
						{b[0], b[1]}, {b[2], b[1]}, {b[2], b[3]}, {b[0], b[3]}, {b[0], b[1]},
					}},
				},
			}},
		}
		path := filepath.Join(dir, "roi", name+".geojson")
		if err := writeJSON(path, doc); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		log.Printf("wrote region: %s", path)
	}
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

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

func printStats(eventYear, startDOY int) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	lat := grid.CenterLat(grid.Height / 2)
	lon := grid.CenterLon(grid.Width / 2)
	fmt.Printf("Grid: %s\n", grid.Key())
	fmt.Printf("Center cell (%.2f, %.2f) baseline LST on day %d: %.2f K\n",
		lat, lon, startDOY, lstKelvin(lat, lon, eventYear-1, startDOY))
	patchLat, patchLon := 47.25, 35.25
	fmt.Printf("Patch cell (%.2f, %.2f) event bump: +4.0 K\n", patchLat, patchLon)
	fmt.Printf("Fill cells: every cell where (row*31+col*7+doy)%%97 == 0\n")
}
