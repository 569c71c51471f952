package raster

import (
	"fmt"
	"math"
)

// Raster is an immutable grid of real-valued samples with a per-cell
// validity flag. Construct one with New or FromSamples, populate it, then
// treat it as read-only: every pipeline stage consumes rasters without
// mutating them.
type Raster struct {
	grid   Grid
	values []float64
	valid  []bool
}

// New creates an all-invalid raster on the given grid.
func New(grid Grid) (*Raster, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	return &Raster{
		grid:   grid,
		values: make([]float64, grid.Cells()),
		valid:  make([]bool, grid.Cells()),
	}, nil
}

// FromSamples creates a raster from row-major values and validity flags.
// The slices must both match the grid's cell count.
func FromSamples(grid Grid, values []float64, valid []bool) (*Raster, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if len(values) != grid.Cells() || len(valid) != grid.Cells() {
		return nil, fmt.Errorf("sample length %d/%d does not match grid cell count %d",
			len(values), len(valid), grid.Cells())
	}
	r := &Raster{
		grid:   grid,
		values: make([]float64, len(values)),
		valid:  make([]bool, len(valid)),
	}
	copy(r.values, values)
	copy(r.valid, valid)
	return r, nil
}

// Grid returns the raster's grid.
func (r *Raster) Grid() Grid {
	return r.grid
}

// At returns the value at (row, col) and whether it is valid.
func (r *Raster) At(row, col int) (float64, bool) {
	i := row*r.grid.Width + col
	return r.values[i], r.valid[i]
}

// Set stores a valid value at (row, col).
func (r *Raster) Set(row, col int, v float64) {
	i := row*r.grid.Width + col
	r.values[i] = v
	r.valid[i] = true
}

// SetInvalid marks the cell at (row, col) invalid.
func (r *Raster) SetInvalid(row, col int) {
	r.valid[row*r.grid.Width+col] = false
}

// ValidCount returns the number of valid cells.
func (r *Raster) ValidCount() int {
	n := 0
	for _, ok := range r.valid {
		if ok {
			n++
		}
	}
	return n
}

// Values returns the valid values inside the mask, in row-major order.
// A nil mask selects the whole grid. The mask must share the raster's grid.
func (r *Raster) Values(mask *Mask) []float64 {
	out := make([]float64, 0, len(r.values))
	for i, ok := range r.valid {
		if !ok {
			continue
		}
		if mask != nil && !mask.inside[i] {
			continue
		}
		out = append(out, r.values[i])
	}
	return out
}

// Variable describes the integer-packed encoding of a satellite product
// variable: its scale factor, fill value, and physical valid range.
type Variable struct {
	Name        string
	ScaleFactor float64
	FillValue   float64
	ValidMin    float64
	ValidMax    float64
}

// Decode converts raw packed samples into a raster in physical units.
// Fill-value cells and cells whose scaled value falls outside the valid
// range become invalid. Out-of-range values are dropped, not clamped.
func Decode(v Variable, grid Grid, raw []float64) (*Raster, error) {
	if len(raw) != grid.Cells() {
		return nil, fmt.Errorf("decode %s: raw length %d does not match grid cell count %d",
			v.Name, len(raw), grid.Cells())
	}
	r, err := New(grid)
	if err != nil {
		return nil, err
	}
	for i, sample := range raw {
		if sample == v.FillValue || math.IsNaN(sample) {
			continue
		}
		scaled := sample * v.ScaleFactor
		if scaled < v.ValidMin || scaled > v.ValidMax {
			continue
		}
		r.values[i] = scaled
		r.valid[i] = true
	}
	return r, nil
}
