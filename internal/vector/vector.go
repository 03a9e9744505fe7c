// Package vector reads GeoJSON feature collections and answers the
// geometric questions the raster operations ask of them: union bounds,
// point-in-polygon tests and numeric attribute lookup.
//
// GeoJSON coordinates are by definition geographic (EPSG:4326); callers
// holding rasters in projected systems must reproject the raster to the
// layer's system first so both sides share coordinates.
package vector

import (
	"fmt"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Layer is a loaded GeoJSON feature collection.
type Layer struct {
	Features []*geojson.Feature
}

// Read loads a GeoJSON file into a layer.
func Read(path string) (*Layer, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("%s contains no features", path)
	}
	return &Layer{Features: fc.Features}, nil
}

// Bounds returns the union bounding box of all features as
// (left, bottom, right, top).
func (l *Layer) Bounds() (left, bottom, right, top float64) {
	left, bottom = math.Inf(1), math.Inf(1)
	right, top = math.Inf(-1), math.Inf(-1)
	for _, f := range l.Features {
		b := f.Geometry.Bound()
		left = math.Min(left, b.Min[0])
		bottom = math.Min(bottom, b.Min[1])
		right = math.Max(right, b.Max[0])
		top = math.Max(top, b.Max[1])
	}
	return left, bottom, right, top
}

// Contains reports whether the world point (x, y) lies inside the
// feature's polygon geometry. Non-areal geometries never contain points.
func Contains(f *geojson.Feature, x, y float64) bool {
	return geometryContains(f.Geometry, orb.Point{x, y})
}

func geometryContains(g orb.Geometry, p orb.Point) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, p)
	case orb.Collection:
		for _, sub := range geom {
			if geometryContains(sub, p) {
				return true
			}
		}
	}
	return false
}

// IsAreal reports whether the feature has polygon geometry.
func IsAreal(f *geojson.Feature) bool {
	switch f.Geometry.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return true
	}
	return false
}

// Points returns the coordinates of a point or multipoint feature.
func Points(f *geojson.Feature) []orb.Point {
	switch geom := f.Geometry.(type) {
	case orb.Point:
		return []orb.Point{geom}
	case orb.MultiPoint:
		return geom
	}
	return nil
}

// NumericProperty extracts a numeric attribute from a feature, as used
// for class labels when sampling training data.
func NumericProperty(f *geojson.Feature, field string) (float64, error) {
	v, ok := f.Properties[field]
	if !ok {
		return 0, fmt.Errorf("feature has no property %q", field)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("property %q is %T, want a number", field, v)
	}
}
