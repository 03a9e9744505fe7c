package raster

import (
	"math"
	"path/filepath"
	"testing"
)

func TestWriteOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ramp.tif")

	src := rampRaster(6, 4, 3, 32648)
	src.SetDType(Int16)
	if err := Write(src, path, nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	m := got.Meta()
	if m.Width != 6 || m.Height != 4 || m.Count != 3 {
		t.Fatalf("dimensions: got %dx%dx%d", m.Width, m.Height, m.Count)
	}
	if m.DType != Int16 {
		t.Errorf("DType: got %s, want int16", m.DType)
	}
	if m.CRS != EPSG(32648) {
		t.Errorf("CRS: got %s", m.CRS)
	}
	if m.Transform != src.Meta().Transform {
		t.Errorf("Transform: got %+v, want %+v", m.Transform, src.Meta().Transform)
	}
	for b := 1; b <= 3; b++ {
		want, _ := src.Band(b)
		gotBand, _ := got.Band(b)
		for i := range want {
			if gotBand[i] != want[i] {
				t.Fatalf("band %d cell %d: got %g, want %g", b, i, gotBand[i], want[i])
			}
		}
	}
}

func TestWriteCompressionOptions(t *testing.T) {
	dir := t.TempDir()
	src := rampRaster(4, 4, 1, 4326)

	if err := Write(src, filepath.Join(dir, "a.tif"), &WriteOptions{Compression: "none"}); err != nil {
		t.Errorf("none: %v", err)
	}
	if err := Write(src, filepath.Join(dir, "b.tif"), &WriteOptions{Compression: "deflate"}); err != nil {
		t.Errorf("deflate: %v", err)
	}
	if err := Write(src, filepath.Join(dir, "c.tif"), &WriteOptions{Compression: "lzw"}); err == nil {
		t.Error("lzw write should be rejected")
	}
	if err := Write(src, filepath.Join(dir, "d.tif"), &WriteOptions{Compression: "jpeg"}); err == nil {
		t.Error("unknown compression should be rejected")
	}
}

func TestReadInfo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "info.tif")

	nodata := 255.0
	src := rampRaster(8, 5, 2, 4326)
	src.SetDType(Uint8)
	src.SetNodata(&nodata)
	if err := Write(src, path, nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	info, err := ReadInfo(path)
	if err != nil {
		t.Fatalf("ReadInfo failed: %v", err)
	}
	if info.Path != "info.tif" {
		t.Errorf("Path: got %q", info.Path)
	}
	if info.Width != 8 || info.Height != 5 || info.Bands != 2 {
		t.Errorf("size: got %dx%dx%d", info.Width, info.Height, info.Bands)
	}
	if info.DType != "uint8" {
		t.Errorf("DType: got %q", info.DType)
	}
	if info.CRS != "EPSG:4326" {
		t.Errorf("CRS: got %q", info.CRS)
	}
	if info.Resolution != [2]float64{1, 1} {
		t.Errorf("Resolution: got %v", info.Resolution)
	}
	if info.Nodata == nil || *info.Nodata != 255 {
		t.Errorf("Nodata: got %v", info.Nodata)
	}
	if info.FileSizeBytes <= 0 {
		t.Errorf("FileSizeBytes: got %d", info.FileSizeBytes)
	}
	want := Bounds{Left: 0, Bottom: 0, Right: 8, Top: 5}
	if info.Bounds != want {
		t.Errorf("Bounds: got %+v, want %+v", info.Bounds, want)
	}
}

func TestOpenMapsNodataToNaN(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nd.tif")

	nodata := 65535.0
	src := rampRaster(3, 3, 1, 0)
	src.SetDType(Uint16)
	src.SetNodata(&nodata)
	src.SetValue(1, 1, 1, math.NaN())
	if err := Write(src, path, nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !math.IsNaN(got.Value(1, 1, 1)) {
		t.Errorf("nodata cell: got %g, want NaN", got.Value(1, 1, 1))
	}
	if got.Value(1, 0, 0) != 0 {
		t.Errorf("valid cell: got %g, want 0", got.Value(1, 0, 0))
	}
}
