package raster

import "fmt"

// Grid describes a regular latitude/longitude grid: the coordinate of its
// southwest corner, the cell size in degrees, and its dimensions in cells.
type Grid struct {
	MinLon   float64 `json:"min_lon"`
	MinLat   float64 `json:"min_lat"`
	CellSize float64 `json:"cell_size"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

// Cells returns the total number of cells in the grid.
func (g Grid) Cells() int {
	return g.Width * g.Height
}

// CenterLon returns the longitude of the center of column col.
func (g Grid) CenterLon(col int) float64 {
	return g.MinLon + (float64(col)+0.5)*g.CellSize
}

// CenterLat returns the latitude of the center of row row.
func (g Grid) CenterLat(row int) float64 {
	return g.MinLat + (float64(row)+0.5)*g.CellSize
}

// Key returns a deterministic string identity for the grid, used to key
// caches of derived artifacts such as region masks.
func (g Grid) Key() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%dx%d", g.MinLon, g.MinLat, g.CellSize, g.Width, g.Height)
}

// Validate checks that the grid has positive dimensions and cell size.
func (g Grid) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("grid dimensions must be positive, got %dx%d", g.Width, g.Height)
	}
	if g.CellSize <= 0 {
		return fmt.Errorf("grid cell size must be positive, got %g", g.CellSize)
	}
	return nil
}
