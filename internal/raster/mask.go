package raster

import "fmt"

// Mask is a boolean grid selecting the cells that belong to a
// region-of-interest. It is derived once per (region, grid) pair and is
// immutable after creation. A mask carries no ownership over the rasters it
// will later select from; two regions may overlap freely.
type Mask struct {
	grid   Grid
	inside []bool
}

// NewMask creates a mask from row-major membership flags.
func NewMask(grid Grid, inside []bool) (*Mask, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if len(inside) != grid.Cells() {
		return nil, fmt.Errorf("mask length %d does not match grid cell count %d",
			len(inside), grid.Cells())
	}
	m := &Mask{grid: grid, inside: make([]bool, len(inside))}
	copy(m.inside, inside)
	return m, nil
}

// Grid returns the grid the mask is aligned to.
func (m *Mask) Grid() Grid {
	return m.grid
}

// Inside reports whether the cell at (row, col) belongs to the region.
func (m *Mask) Inside(row, col int) bool {
	return m.inside[row*m.grid.Width+col]
}

// Count returns the number of cells inside the region.
func (m *Mask) Count() int {
	n := 0
	for _, in := range m.inside {
		if in {
			n++
		}
	}
	return n
}

// Equal reports whether two masks select the exact same cells on the same grid.
func (m *Mask) Equal(other *Mask) bool {
	if other == nil || m.grid != other.grid {
		return false
	}
	for i := range m.inside {
		if m.inside[i] != other.inside[i] {
			return false
		}
	}
	return true
}
