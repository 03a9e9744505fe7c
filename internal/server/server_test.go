package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/geonate/geonate/internal/config"
	"github.com/geonate/geonate/internal/raster"
)

// newTestServer builds a server over a temp directory holding one
// 8x8 single-band GeoTIFF named dem.tif.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	r := raster.New(raster.Meta{
		Width: 8, Height: 8, Count: 1, DType: raster.Float32,
		Transform: raster.NewTransform(500000, 4000000, 30, 30),
		CRS:       raster.EPSG(32648),
	})
	band, _ := r.Band(1)
	for i := range band {
		band[i] = float64(i)
	}
	if err := raster.Write(r, filepath.Join(dir, "dem.tif"), nil); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Server.Root = dir
	return New(cfg)
}

func get(t *testing.T, s *Server, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestHandleList(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/rasters")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}

	var body struct {
		Rasters []struct {
			Name  string `json:"name"`
			Bytes int64  `json:"bytes"`
		} `json:"rasters"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(body.Rasters) != 1 {
		t.Fatalf("rasters: got %d, want 1", len(body.Rasters))
	}
	if body.Rasters[0].Name != "dem.tif" || body.Rasters[0].Bytes == 0 {
		t.Errorf("entry: got %+v", body.Rasters[0])
	}
}

func TestHandleInfo(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/rasters/dem.tif/info")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rec.Code, rec.Body)
	}

	var info raster.Info
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if info.Width != 8 || info.Height != 8 || info.Bands != 1 {
		t.Errorf("shape: got %dx%dx%d", info.Width, info.Height, info.Bands)
	}
	if info.CRS != "EPSG:32648" {
		t.Errorf("CRS: got %q", info.CRS)
	}
	if info.Resolution != [2]float64{30, 30} {
		t.Errorf("resolution: got %v", info.Resolution)
	}
}

func TestHandleStats(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/rasters/dem.tif/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rec.Code, rec.Body)
	}

	var body struct {
		Name  string             `json:"name"`
		Bands []raster.BandStats `json:"bands"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if body.Name != "dem.tif" {
		t.Errorf("name: got %q", body.Name)
	}
	if len(body.Bands) != 1 {
		t.Fatalf("bands: got %d, want 1", len(body.Bands))
	}
	if b := body.Bands[0]; b.Min != 0 || b.Max != 63 || b.Valid != 64 {
		t.Errorf("band stats: got %+v", b)
	}
}

func TestHandlePreview(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/rasters/dem.tif/preview.png?band=1&width=16&cmap=gray")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type: got %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("body does not start with the PNG signature")
	}
}

func TestHandlePreviewBadParams(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		url  string
		want int
	}{
		{"/rasters/dem.tif/preview.png?band=x", http.StatusBadRequest},
		{"/rasters/dem.tif/preview.png?width=0", http.StatusBadRequest},
		{"/rasters/dem.tif/preview.png?width=100000", http.StatusBadRequest},
		{"/rasters/dem.tif/preview.png?cmap=jet", http.StatusBadRequest},
		{"/rasters/dem.tif/preview.png?band=9", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		if rec := get(t, s, tt.url); rec.Code != tt.want {
			t.Errorf("%s: got %d, want %d", tt.url, rec.Code, tt.want)
		}
	}
}

func TestRasterNameValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		url  string
		want int
	}{
		{"/rasters/missing.tif/info", http.StatusNotFound},
		{"/rasters/notes.txt/info", http.StatusBadRequest},
		{"/rasters/..%5Cdem.tif/info", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if rec := get(t, s, tt.url); rec.Code != tt.want {
			t.Errorf("%s: got %d, want %d", tt.url, rec.Code, tt.want)
		}
	}
}
