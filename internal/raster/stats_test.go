package raster

import (
	"math"
	"path/filepath"
	"strings"
	"testing"
)

func TestMinMax(t *testing.T) {
	meta := gridMeta(2, 2, 2, 0)
	r, _ := FromBands(meta, [][]float64{
		{3, -2, math.NaN(), 1},
		{7, 0, 4, math.NaN()},
	})

	minV, maxV, err := MinMax(r)
	if err != nil {
		t.Fatalf("MinMax failed: %v", err)
	}
	if minV != -2 || maxV != 7 {
		t.Errorf("got [%g, %g], want [-2, 7]", minV, maxV)
	}

	if _, _, err := MinMax(New(gridMeta(2, 2, 1, 0))); err == nil {
		t.Fatal("expected error for an all-NaN raster")
	}
}

func TestStats(t *testing.T) {
	meta := gridMeta(2, 2, 1, 0)
	r, _ := FromBands(meta, [][]float64{{1, 2, 3, math.NaN()}})

	stats := Stats(r)
	if len(stats) != 1 {
		t.Fatalf("bands: got %d, want 1", len(stats))
	}
	s := stats[0]
	if s.Band != 1 {
		t.Errorf("Band: got %d, want 1", s.Band)
	}
	if s.Min != 1 || s.Max != 3 {
		t.Errorf("range: got [%g, %g], want [1, 3]", s.Min, s.Max)
	}
	if s.Mean != 2 {
		t.Errorf("Mean: got %g, want 2", s.Mean)
	}
	if math.Abs(s.Std-math.Sqrt(2.0/3)) > 1e-12 {
		t.Errorf("Std: got %g, want %g", s.Std, math.Sqrt(2.0/3))
	}
	if s.Valid != 3 || s.Nodata != 1 {
		t.Errorf("cells: got %d valid, %d nodata, want 3 and 1", s.Valid, s.Nodata)
	}
}

func TestStatsAllNaNBand(t *testing.T) {
	stats := Stats(New(gridMeta(2, 2, 1, 0)))
	s := stats[0]
	if !math.IsNaN(s.Min) || !math.IsNaN(s.Max) || !math.IsNaN(s.Mean) || !math.IsNaN(s.Std) {
		t.Errorf("empty band should report NaN summaries, got %+v", s)
	}
	if s.Valid != 0 || s.Nodata != 4 {
		t.Errorf("cells: got %d valid, %d nodata, want 0 and 4", s.Valid, s.Nodata)
	}
}

func TestCellArea(t *testing.T) {
	// 1x1 grid covering lon 0..1, lat 0..1.
	src := New(Meta{
		Width: 1, Height: 1, Count: 1, DType: Float32,
		Transform: NewTransform(0, 1, 1, 1),
		CRS:       EPSG(4326),
	})

	out, err := CellArea(src, "km")
	if err != nil {
		t.Fatalf("CellArea failed: %v", err)
	}
	// A 1°x1° cell at the equator is roughly 12300 km².
	got := out.Value(1, 0, 0)
	if got < 12200 || got > 12500 {
		t.Errorf("equator cell: got %g km², want ~12300", got)
	}

	m2, err := CellArea(src, "m")
	if err != nil {
		t.Fatal(err)
	}
	if v := m2.Value(1, 0, 0); math.Abs(v-got*1e6) > got {
		t.Errorf("m² cell: got %g, want %g", v, got*1e6)
	}
	ha, err := CellArea(src, "ha")
	if err != nil {
		t.Fatal(err)
	}
	if v := ha.Value(1, 0, 0); math.Abs(v-got*100) > 1 {
		t.Errorf("hectare cell: got %g, want %g", v, got*100)
	}
}

func TestCellAreaShrinksTowardPole(t *testing.T) {
	polar := New(Meta{
		Width: 1, Height: 1, Count: 1, DType: Float32,
		Transform: NewTransform(0, 60, 1, 1),
		CRS:       EPSG(4326),
	})
	equator := New(Meta{
		Width: 1, Height: 1, Count: 1, DType: Float32,
		Transform: NewTransform(0, 1, 1, 1),
		CRS:       EPSG(4326),
	})

	pa, err := CellArea(polar, "km")
	if err != nil {
		t.Fatal(err)
	}
	ea, err := CellArea(equator, "km")
	if err != nil {
		t.Fatal(err)
	}
	if pa.Value(1, 0, 0) >= ea.Value(1, 0, 0) {
		t.Errorf("cell at lat 60 (%g km²) should be smaller than at the equator (%g km²)",
			pa.Value(1, 0, 0), ea.Value(1, 0, 0))
	}
	// cos(60°) = 0.5, so the high cell is roughly half the equatorial one.
	ratio := pa.Value(1, 0, 0) / ea.Value(1, 0, 0)
	if ratio < 0.45 || ratio > 0.55 {
		t.Errorf("area ratio at lat 60: got %g, want ~0.5", ratio)
	}
}

func TestCellAreaValidation(t *testing.T) {
	projected := rampRaster(2, 2, 1, 32648)
	if _, err := CellArea(projected, "km"); err == nil {
		t.Error("expected error for a projected raster")
	}

	geographic := rampRaster(2, 2, 1, 4326)
	if _, err := CellArea(geographic, "acre"); err == nil {
		t.Error("expected error for an unsupported unit")
	}
}

func TestMeterToDegree(t *testing.T) {
	if got := MeterToDegree(111320, 0); math.Abs(got-1) > 1e-9 {
		t.Errorf("111320 m at the equator: got %g°, want 1°", got)
	}
	if got := MeterToDegree(111320, 60); math.Abs(got-2) > 1e-9 {
		t.Errorf("111320 m at lat 60: got %g°, want 2°", got)
	}
}

func TestExtent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.tif")
	b := filepath.Join(dir, "b.tif")
	if err := Write(offsetRaster(4, 4, 0, 4, 32648, 1), a, nil); err != nil {
		t.Fatal(err)
	}
	if err := Write(offsetRaster(4, 4, 2, 6, 32648, 2), b, nil); err != nil {
		t.Fatal(err)
	}

	bounds, crs, err := Extent([]string{a, b})
	if err != nil {
		t.Fatalf("Extent failed: %v", err)
	}
	want := Bounds{Left: 0, Bottom: 0, Right: 6, Top: 6}
	if bounds != want {
		t.Errorf("bounds: got %+v, want %+v", bounds, want)
	}
	if crs != EPSG(32648) {
		t.Errorf("CRS: got %s, want EPSG:32648", crs)
	}
}

func TestExtentRejectsMixedCRS(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "utm.tif")
	b := filepath.Join(dir, "geo.tif")
	if err := Write(constRaster(2, 2, 32648, 1), a, nil); err != nil {
		t.Fatal(err)
	}
	if err := Write(constRaster(2, 2, 4326, 1), b, nil); err != nil {
		t.Fatal(err)
	}

	_, _, err := Extent([]string{a, b})
	if err == nil {
		t.Fatal("expected error for mixed reference systems")
	}
	if !strings.Contains(err.Error(), "geo.tif") {
		t.Errorf("error should name the offending file, got: %v", err)
	}

	if _, _, err := Extent(nil); err == nil {
		t.Error("expected error for an empty file list")
	}
}
