// Package region converts externally authored region-of-interest polygons
// into boolean grid masks aligned to a raster grid.
//
// Regions arrive as GeoJSON FeatureCollections in geographic (WGS-84)
// coordinates. The rasterization rule is pixel-center-in-polygon: a cell
// belongs to a region when its center point lies inside (or exactly on the
// edge of) any of the region's polygons. The rule is applied uniformly so
// region-aggregate statistics are reproducible across runs.
package region

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ctessum/geom"
)

// Region is a named region-of-interest with its polygon geometry.
type Region struct {
	Name     string
	Geometry geom.Polygonal
}

// geoJSON mirrors the subset of the GeoJSON spec the loader understands.
type geoJSON struct {
	Type     string        `json:"type"`
	Features []geoFeature  `json:"features"`
	Geometry *geoGeometry  `json:"geometry"`
	Coords   json.RawMessage `json:"coordinates"`
}

type geoFeature struct {
	Geometry geoGeometry `json:"geometry"`
}

type geoGeometry struct {
	Type   string          `json:"type"`
	Coords json.RawMessage `json:"coordinates"`
}

// Load reads a GeoJSON file and returns the named region. FeatureCollection,
// Feature, and bare Polygon/MultiPolygon documents are accepted; all polygon
// geometries found are merged into one MultiPolygon.
func Load(name, path string) (Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Region{}, fmt.Errorf("read region %s: %w", name, err)
	}
	return Parse(name, data)
}

// Parse decodes GeoJSON bytes into a Region.
func Parse(name string, data []byte) (Region, error) {
	var doc geoJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return Region{}, fmt.Errorf("parse region %s: %w", name, err)
	}

	var merged geom.MultiPolygon
	switch doc.Type {
	case "FeatureCollection":
		for _, feat := range doc.Features {
			polys, err := decodeGeometry(feat.Geometry)
			if err != nil {
				return Region{}, fmt.Errorf("region %s: %w", name, err)
			}
			merged = append(merged, polys...)
		}
	case "Feature":
		if doc.Geometry == nil {
			return Region{}, fmt.Errorf("region %s: feature has no geometry", name)
		}
		polys, err := decodeGeometry(*doc.Geometry)
		if err != nil {
			return Region{}, fmt.Errorf("region %s: %w", name, err)
		}
		merged = append(merged, polys...)
	case "Polygon", "MultiPolygon":
		polys, err := decodeGeometry(geoGeometry{Type: doc.Type, Coords: doc.Coords})
		if err != nil {
			return Region{}, fmt.Errorf("region %s: %w", name, err)
		}
		merged = append(merged, polys...)
	default:
		return Region{}, fmt.Errorf("region %s: unsupported GeoJSON type %q", name, doc.Type)
	}

	if len(merged) == 0 {
		return Region{}, fmt.Errorf("region %s: no polygon geometries found", name)
	}
	return Region{Name: name, Geometry: merged}, nil
}

// decodeGeometry converts one GeoJSON geometry into polygons. Non-polygonal
// geometry types (points, lines) are rejected: a region must have area.
func decodeGeometry(g geoGeometry) ([]geom.Polygon, error) {
	switch g.Type {
	case "Polygon":
		var rings [][][2]float64
		if err := json.Unmarshal(g.Coords, &rings); err != nil {
			return nil, fmt.Errorf("decode polygon coordinates: %w", err)
		}
		return []geom.Polygon{toPolygon(rings)}, nil
	case "MultiPolygon":
		var polys [][][][2]float64
		if err := json.Unmarshal(g.Coords, &polys); err != nil {
			return nil, fmt.Errorf("decode multipolygon coordinates: %w", err)
		}
		out := make([]geom.Polygon, 0, len(polys))
		for _, rings := range polys {
			out = append(out, toPolygon(rings))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

func toPolygon(rings [][][2]float64) geom.Polygon {
	poly := make(geom.Polygon, 0, len(rings))
	for _, ring := range rings {
		path := make([]geom.Point, 0, len(ring))
		for _, c := range ring {
			path = append(path, geom.Point{X: c[0], Y: c[1]})
		}
		poly = append(poly, path)
	}
	return poly
}
