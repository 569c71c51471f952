// Package fixture implements a raster store over JSON fixture files laid out
// as <dir>/<variable>/A<YYYY><DDD>.json, the satellite product day-of-year
// naming convention.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/couchcryptid/terra-climate-extremes/internal/raster"
)

var fileNameRe = regexp.MustCompile(`^A(\d{4})(\d{3})\.json$`)

// File is the on-disk shape of one fixture: the grid plus raw packed samples
// in row-major order. Values are decoded to physical units on load.
type File struct {
	Grid   raster.Grid `json:"grid"`
	Values []float64   `json:"values"`
}

// Store loads rasters from fixture files, decoding each variable with its
// registered packing spec. Unregistered variables pass through unscaled.
type Store struct {
	dir       string
	variables map[string]raster.Variable
	logger    *slog.Logger
}

// NewStore creates a Store rooted at dir with the given variable specs.
func NewStore(dir string, variables []raster.Variable, logger *slog.Logger) *Store {
	vars := make(map[string]raster.Variable, len(variables))
	for _, v := range variables {
		vars[v.Name] = v
	}
	return &Store{dir: dir, variables: vars, logger: logger}
}

// DefaultVariables returns the packing specs of the land products the engine
// ships with: day land-surface temperature in Kelvin and the surface
// reflectance bands used for derived indices.
func DefaultVariables() []raster.Variable {
	reflectance := func(name string) raster.Variable {
		return raster.Variable{
			Name:        name,
			ScaleFactor: 0.0001,
			FillValue:   -28672,
			ValidMin:    -0.2,
			ValidMax:    1.6,
		}
	}
	return []raster.Variable{
		{Name: "LST_Day", ScaleFactor: 0.02, FillValue: 0, ValidMin: 150, ValidMax: 400},
		reflectance("sur_refl_b01"),
		reflectance("sur_refl_b02"),
		reflectance("sur_refl_b04"),
		reflectance("sur_refl_b06"),
	}
}

// Load reads and decodes the fixture for the (variable, date) key. A missing
// file is ErrDataUnavailable; a malformed one is a hard error.
func (s *Store) Load(_ context.Context, variable string, date time.Time) (*raster.Raster, error) {
	key := raster.Key(variable, date)
	path := filepath.Join(s.dir, variable, fmt.Sprintf("A%04d%03d.json", date.Year(), date.YearDay()))

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", key, raster.ErrDataUnavailable)
		}
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("load %s: parse fixture: %w", key, err)
	}
	if err := f.Grid.Validate(); err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	r, err := raster.Decode(s.variable(variable), f.Grid, f.Values)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	s.logger.Debug("fixture loaded", "key", key, "valid_cells", r.ValidCount())
	return r, nil
}

// Available lists the dates a variable has fixtures for, sorted ascending.
func (s *Store) Available(variable string) ([]time.Time, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, variable))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("variable %s: %w", variable, raster.ErrDataUnavailable)
		}
		return nil, err
	}

	var dates []time.Time
	for _, e := range entries {
		m := fileNameRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[1])
		doy, _ := strconv.Atoi(m[2])
		d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1)
		if d.YearDay() != doy {
			continue
		}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// variable returns the registered packing spec, or an identity spec that
// keeps every finite sample as-is.
func (s *Store) variable(name string) raster.Variable {
	if v, ok := s.variables[name]; ok {
		return v
	}
	return raster.Variable{
		Name:        name,
		ScaleFactor: 1,
		FillValue:   math.NaN(),
		ValidMin:    math.Inf(-1),
		ValidMax:    math.Inf(1),
	}
}
