package region

import (
	"github.com/ctessum/geom"

	"github.com/couchcryptid/terra-climate-extremes/internal/raster"
)

// Resolver rasterizes region polygons into grid masks. Resolution is a pure
// function of (region geometry, grid), so results are cached by
// (region name, grid key); region names identify their geometry for the
// lifetime of a run.
type Resolver struct {
	cache *maskCache
}

// NewResolver creates a Resolver with an LRU mask cache of the given size.
func NewResolver(cacheSize int) *Resolver {
	return &Resolver{cache: newMaskCache(cacheSize)}
}

// Resolve returns the boolean mask of grid cells whose centers fall inside
// the region. Cell centers exactly on a polygon edge count as inside, so
// regions sharing a border cannot silently drop pixels.
func (r *Resolver) Resolve(reg Region, grid raster.Grid) (*raster.Mask, error) {
	key := reg.Name + "|" + grid.Key()
	if m, ok := r.cache.get(key); ok {
		return m, nil
	}

	m, err := rasterize(reg.Geometry, grid)
	if err != nil {
		return nil, err
	}
	r.cache.put(key, m)
	return m, nil
}

// rasterize applies the pixel-center-in-polygon rule over the grid,
// restricted to the polygon's bounding box for speed.
func rasterize(poly geom.Polygonal, grid raster.Grid) (*raster.Mask, error) {
	inside := make([]bool, grid.Cells())
	b := poly.Bounds()

	for row := 0; row < grid.Height; row++ {
		lat := grid.CenterLat(row)
		if lat < b.Min.Y || lat > b.Max.Y {
			continue
		}
		for col := 0; col < grid.Width; col++ {
			lon := grid.CenterLon(col)
			if lon < b.Min.X || lon > b.Max.X {
				continue
			}
			p := geom.Point{X: lon, Y: lat}
			if p.Within(poly) != geom.Outside {
				inside[row*grid.Width+col] = true
			}
		}
	}

	return raster.NewMask(grid, inside)
}
