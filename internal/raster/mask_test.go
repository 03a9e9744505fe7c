package raster

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/geonate/geonate/internal/vector"
)

func TestMask(t *testing.T) {
	src := rampRaster(6, 6, 1, 4326)

	// L-shaped polygon: covers x 1..3 y 1..5 plus x 3..5 y 1..3.
	f := geojson.NewFeature(orb.Polygon{orb.Ring{
		{1, 1}, {5, 1}, {5, 3}, {3, 3}, {3, 5}, {1, 5}, {1, 1},
	}})
	layer := &vector.Layer{Features: []*geojson.Feature{f}}

	out, err := Mask(src, layer, nil)
	if err != nil {
		t.Fatalf("Mask failed: %v", err)
	}
	m := out.Meta()
	if m.Width != 4 || m.Height != 4 {
		t.Fatalf("cropped size: got %dx%d, want 4x4", m.Width, m.Height)
	}
	if m.Nodata == nil || *m.Nodata != DefaultNodata(Float32) {
		t.Errorf("Nodata: got %v, want %g", m.Nodata, DefaultNodata(Float32))
	}

	// Output cell (0,0) center is world (1.5, 4.5): inside the polygon.
	if math.IsNaN(out.Value(1, 0, 0)) {
		t.Error("cell inside the polygon was masked")
	}
	// Output cell (3,0) center is world (4.5, 4.5): outside the L.
	if !math.IsNaN(out.Value(1, 3, 0)) {
		t.Error("cell outside the polygon was kept")
	}
	// Output cell (3,3) center is world (4.5, 1.5): inside the foot.
	if math.IsNaN(out.Value(1, 3, 3)) {
		t.Error("cell in the polygon foot was masked")
	}
}

func TestMaskInvert(t *testing.T) {
	src := rampRaster(6, 6, 1, 4326)
	layer := squareLayer(1, 1, 3, 3)

	out, err := Mask(src, layer, &MaskOptions{Invert: true})
	if err != nil {
		t.Fatalf("Mask failed: %v", err)
	}
	for row := 0; row < out.Height(); row++ {
		for col := 0; col < out.Width(); col++ {
			if !math.IsNaN(out.Value(1, col, row)) {
				t.Fatalf("cell (%d,%d) inside the polygon survived an inverted mask", col, row)
			}
		}
	}
}

func TestMaskNodataOverride(t *testing.T) {
	src := rampRaster(4, 4, 1, 4326)
	nodata := -1.0

	out, err := Mask(src, squareLayer(0, 0, 4, 4), &MaskOptions{Nodata: &nodata})
	if err != nil {
		t.Fatalf("Mask failed: %v", err)
	}
	if m := out.Meta(); m.Nodata == nil || *m.Nodata != -1 {
		t.Errorf("Nodata: got %v, want -1", m.Nodata)
	}
}

func TestMaskRequiresPolygons(t *testing.T) {
	src := rampRaster(4, 4, 1, 4326)
	f := geojson.NewFeature(orb.Point{1, 1})
	layer := &vector.Layer{Features: []*geojson.Feature{f}}

	if _, err := Mask(src, layer, nil); err == nil {
		t.Fatal("expected error for a layer without polygons")
	}
}

func TestMaskByRaster(t *testing.T) {
	src := rampRaster(4, 4, 1, 4326)
	ref := constRaster(4, 4, 4326, 1)
	ref.SetValue(1, 2, 2, math.NaN())

	out, err := MaskByRaster(src, ref, nil)
	if err != nil {
		t.Fatalf("MaskByRaster failed: %v", err)
	}
	if !math.IsNaN(out.Value(1, 2, 2)) {
		t.Error("cell under the reference hole was kept")
	}
	if math.IsNaN(out.Value(1, 0, 0)) {
		t.Error("cell under valid reference data was masked")
	}

	wrongCRS := constRaster(4, 4, 32648, 1)
	if _, err := MaskByRaster(src, wrongCRS, nil); err == nil {
		t.Error("expected error for differing CRS")
	}
}
