package render

import (
	"bytes"
	"encoding/base64"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/geonate/geonate/internal/raster"
)

// testRaster builds a small ramp raster with the given band count.
func testRaster(width, height, bands int) *raster.Raster {
	r := raster.New(raster.Meta{
		Width: width, Height: height, Count: bands, DType: raster.Float64,
		Transform: raster.NewTransform(0, float64(height), 1, 1),
		CRS:       raster.EPSG(32648),
	})
	for b := 1; b <= bands; b++ {
		band, _ := r.Band(b)
		for i := range band {
			band[i] = float64(b*100 + i)
		}
	}
	return r
}

func decodeResult(t *testing.T, res *Result) *bytes.Reader {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	return bytes.NewReader(raw)
}

func TestSingle(t *testing.T) {
	src := testRaster(2, 2, 1)
	src.SetValue(1, 1, 1, math.NaN())

	res, err := Single(src, 1, nil, nil)
	if err != nil {
		t.Fatalf("Single failed: %v", err)
	}
	if res.Width != 2 || res.Height != 2 {
		t.Errorf("size: got %dx%d, want 2x2", res.Width, res.Height)
	}
	if len(res.Bands) != 1 || res.Bands[0] != 1 {
		t.Errorf("Bands: got %v, want [1]", res.Bands)
	}
	if res.Colormap != "viridis" {
		t.Errorf("Colormap: got %q, want the default viridis", res.Colormap)
	}
	if res.MimeType != "image/png" {
		t.Errorf("MimeType: got %q", res.MimeType)
	}

	img, err := png.Decode(decodeResult(t, res))
	if err != nil {
		t.Fatalf("payload is not PNG: %v", err)
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a == 0 {
		t.Error("valid cell should be opaque")
	}
	if _, _, _, a := img.At(1, 1).RGBA(); a != 0 {
		t.Error("nodata cell should be transparent")
	}
}

func TestSingleResize(t *testing.T) {
	src := testRaster(2, 2, 1)

	res, err := Single(src, 1, nil, &Options{Width: 8})
	if err != nil {
		t.Fatalf("Single failed: %v", err)
	}
	if res.Width != 8 || res.Height != 8 {
		t.Errorf("resized: got %dx%d, want 8x8", res.Width, res.Height)
	}
}

func TestSinglePostProcess(t *testing.T) {
	src := testRaster(4, 4, 1)

	res, err := Single(src, 1, nil, &Options{BlurRadius: 1, Sharpen: true})
	if err != nil {
		t.Fatalf("Single failed: %v", err)
	}
	if _, err := png.Decode(decodeResult(t, res)); err != nil {
		t.Errorf("processed payload is not PNG: %v", err)
	}
}

func TestSingleErrors(t *testing.T) {
	src := testRaster(2, 2, 1)
	if _, err := Single(src, 5, nil, nil); err == nil {
		t.Error("expected error for out-of-range band")
	}

	empty := raster.New(raster.Meta{
		Width: 2, Height: 2, Count: 1, DType: raster.Float64,
		Transform: raster.NewTransform(0, 2, 1, 1),
	})
	if _, err := Single(empty, 1, nil, nil); err == nil {
		t.Error("expected error for an all-nodata band")
	}
}

func TestComposite(t *testing.T) {
	src := testRaster(2, 2, 3)
	src.SetValue(2, 0, 1, math.NaN())

	res, err := Composite(src, [3]int{3, 2, 1}, nil)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	if len(res.Bands) != 3 || res.Bands[0] != 3 {
		t.Errorf("Bands: got %v, want [3 2 1]", res.Bands)
	}
	if res.Colormap != "" {
		t.Errorf("composite should carry no colormap, got %q", res.Colormap)
	}

	img, err := png.Decode(decodeResult(t, res))
	if err != nil {
		t.Fatalf("payload is not PNG: %v", err)
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a == 0 {
		t.Error("valid cell should be opaque")
	}
	// NaN in the green channel knocks the whole pixel out.
	if _, _, _, a := img.At(0, 1).RGBA(); a != 0 {
		t.Error("cell with nodata in one channel should be transparent")
	}
}

func TestCompositeNeedsThreeBands(t *testing.T) {
	src := testRaster(2, 2, 2)
	if _, err := Composite(src, [3]int{1, 2, 2}, nil); err == nil {
		t.Fatal("expected error for a 2-band raster")
	}
}

func TestWritePNG(t *testing.T) {
	src := testRaster(2, 2, 1)
	res, err := Single(src, 1, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "quicklook.png")
	if err := res.WritePNG(path); err != nil {
		t.Fatalf("WritePNG failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("file does not start with the PNG signature")
	}

	bad := &Result{ImageBase64: "not base64!!"}
	if err := bad.WritePNG(filepath.Join(t.TempDir(), "bad.png")); err == nil {
		t.Error("expected error for a corrupt payload")
	}
}

func TestGridOverlay(t *testing.T) {
	src := testRaster(8, 8, 1)
	res, err := Single(src, 1, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	overlaid, err := GridOverlay(res, src.Meta(), 4, false, "#00ff00")
	if err != nil {
		t.Fatalf("GridOverlay failed: %v", err)
	}
	if overlaid.ImageBase64 == res.ImageBase64 {
		t.Error("overlay did not change the image")
	}

	img, err := png.Decode(decodeResult(t, overlaid))
	if err != nil {
		t.Fatalf("payload is not PNG: %v", err)
	}
	got := color.NRGBAModel.Convert(img.At(4, 1)).(color.NRGBA)
	if got.G != 255 || got.R != 0 || got.B != 0 {
		t.Errorf("grid line pixel: got %+v, want green", got)
	}
	off := color.NRGBAModel.Convert(img.At(1, 1)).(color.NRGBA)
	if off.G == 255 && off.R == 0 && off.B == 0 {
		t.Error("off-grid pixel should keep the rendered color")
	}
}

func TestGridOverlayWithCoordinates(t *testing.T) {
	src := testRaster(16, 16, 1)
	res, err := Single(src, 1, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	overlaid, err := GridOverlay(res, src.Meta(), 8, true, "#ffffff")
	if err != nil {
		t.Fatalf("GridOverlay failed: %v", err)
	}
	if _, err := png.Decode(decodeResult(t, overlaid)); err != nil {
		t.Errorf("labeled payload is not PNG: %v", err)
	}
}

func TestGridOverlaySpacingValidation(t *testing.T) {
	src := testRaster(4, 4, 1)
	res, err := Single(src, 1, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := GridOverlay(res, src.Meta(), 0, false, ""); err == nil {
		t.Fatal("expected error for zero spacing")
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#ff0000", color.NRGBA{R: 255, A: 255}},
		{"00ff00", color.NRGBA{G: 255, A: 255}},
		{"#11223344", color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x44}},
	}
	for _, tt := range tests {
		got, err := parseHexColor(tt.in)
		if err != nil {
			t.Errorf("parseHexColor(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseHexColor(%q): got %+v, want %+v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "#fff", "#zzzzzz", "#1234567"} {
		if _, err := parseHexColor(bad); err == nil {
			t.Errorf("parseHexColor(%q) should fail", bad)
		}
	}
}
