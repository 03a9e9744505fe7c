package raster

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/geonate/geonate/internal/geotiff"
)

// DType identifies the numeric type a raster's samples take on disk.
// In memory all samples are float64.
type DType = geotiff.SampleType

// Sample types, re-exported from the codec.
const (
	Uint8   = geotiff.Uint8
	Int8    = geotiff.Int8
	Uint16  = geotiff.Uint16
	Int16   = geotiff.Int16
	Uint32  = geotiff.Uint32
	Int32   = geotiff.Int32
	Float32 = geotiff.Float32
	Float64 = geotiff.Float64
)

// ParseDType parses a sample type name like "uint8" or "float32".
func ParseDType(s string) (DType, error) {
	return geotiff.ParseSampleType(s)
}

// Sentinel errors callers branch on with errors.Is.
var (
	// ErrUnsupportedDType marks a sample type the codec cannot encode.
	ErrUnsupportedDType = geotiff.ErrUnsupportedType

	// ErrGridMismatch marks inputs that do not share the grid an
	// operation requires.
	ErrGridMismatch = errors.New("rasters do not share a grid")
)

// DefaultNodata returns the conventional nodata fill for a sample type:
// the top of the integer range, 999999 for float32 and NaN for float64.
func DefaultNodata(dt DType) float64 {
	switch dt {
	case Int8:
		return 127
	case Uint8:
		return 255
	case Int16:
		return 32767
	case Uint16:
		return 65535
	case Int32:
		return 2147483647
	case Uint32:
		return 4294967295
	case Float32:
		return 999999
	default:
		return math.NaN()
	}
}

// CRS is a coordinate reference system identified by its EPSG code.
// The zero value means "no CRS".
type CRS struct {
	Code int
}

// EPSG returns the CRS for an EPSG code.
func EPSG(code int) CRS { return CRS{Code: code} }

// ParseCRS parses strings like "EPSG:4326" or a bare code like "32648".
func ParseCRS(s string) (CRS, error) {
	t := strings.TrimSpace(s)
	if i := strings.IndexByte(t, ':'); i >= 0 {
		if !strings.EqualFold(t[:i], "epsg") {
			return CRS{}, fmt.Errorf("unsupported CRS authority in %q, only EPSG codes are understood", s)
		}
		t = t[i+1:]
	}
	code, err := strconv.Atoi(t)
	if err != nil || code <= 0 {
		return CRS{}, fmt.Errorf("invalid CRS %q", s)
	}
	return CRS{Code: code}, nil
}

func (c CRS) String() string {
	if c.Code == 0 {
		return ""
	}
	return fmt.Sprintf("EPSG:%d", c.Code)
}

// Valid reports whether the CRS carries a code.
func (c CRS) Valid() bool { return c.Code > 0 }

// IsGeographic reports whether the CRS uses degree units. EPSG reserves
// the 4000-4999 block for geographic systems.
func (c CRS) IsGeographic() bool { return c.Code >= 4000 && c.Code < 5000 }

// Transform is the affine map from pixel to world coordinates:
//
//	x = A*col + B*row + C
//	y = D*col + E*row + F
//
// For north-up rasters B and D are zero, A is the pixel width and E the
// negative pixel height.
type Transform struct {
	A, B, C, D, E, F float64
}

// NewTransform builds a north-up transform from the top-left origin and
// positive pixel sizes.
func NewTransform(originX, originY, xres, yres float64) Transform {
	return Transform{A: xres, C: originX, E: -yres, F: originY}
}

// TransformFromBounds builds the north-up transform covering the given
// world bounds with a width x height grid.
func TransformFromBounds(b Bounds, width, height int) Transform {
	return NewTransform(b.Left, b.Top, (b.Right-b.Left)/float64(width), (b.Top-b.Bottom)/float64(height))
}

// World maps fractional pixel coordinates to world coordinates.
func (t Transform) World(col, row float64) (x, y float64) {
	return t.A*col + t.B*row + t.C, t.D*col + t.E*row + t.F
}

// Pixel maps world coordinates to fractional pixel coordinates.
func (t Transform) Pixel(x, y float64) (col, row float64) {
	det := t.A*t.E - t.B*t.D
	if det == 0 {
		return math.NaN(), math.NaN()
	}
	dx, dy := x-t.C, y-t.F
	return (t.E*dx - t.B*dy) / det, (t.A*dy - t.D*dx) / det
}

// XRes returns the positive pixel width.
func (t Transform) XRes() float64 { return math.Abs(t.A) }

// YRes returns the positive pixel height.
func (t Transform) YRes() float64 { return math.Abs(t.E) }

// Array returns the transform as (a, b, c, d, e, f).
func (t Transform) Array() [6]float64 {
	return [6]float64{t.A, t.B, t.C, t.D, t.E, t.F}
}

func transformFromArray(a [6]float64) Transform {
	return Transform{A: a[0], B: a[1], C: a[2], D: a[3], E: a[4], F: a[5]}
}

// Bounds is a world-coordinate bounding box.
type Bounds struct {
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
}

// Union returns the smallest bounds covering both boxes.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		Left:   math.Min(b.Left, o.Left),
		Bottom: math.Min(b.Bottom, o.Bottom),
		Right:  math.Max(b.Right, o.Right),
		Top:    math.Max(b.Top, o.Top),
	}
}

// Intersect returns the overlap of both boxes; ok is false when they are
// disjoint.
func (b Bounds) Intersect(o Bounds) (Bounds, bool) {
	out := Bounds{
		Left:   math.Max(b.Left, o.Left),
		Bottom: math.Max(b.Bottom, o.Bottom),
		Right:  math.Min(b.Right, o.Right),
		Top:    math.Min(b.Top, o.Top),
	}
	if out.Left >= out.Right || out.Bottom >= out.Top {
		return Bounds{}, false
	}
	return out, true
}

// Contains reports whether the point lies inside the box.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.Left && x <= b.Right && y >= b.Bottom && y <= b.Top
}

// Width returns the horizontal extent in world units.
func (b Bounds) Width() float64 { return b.Right - b.Left }

// Height returns the vertical extent in world units.
func (b Bounds) Height() float64 { return b.Top - b.Bottom }

// Meta describes a raster grid without its samples.
type Meta struct {
	// Width and Height are the grid dimensions in pixels.
	Width  int
	Height int

	// Count is the number of bands.
	Count int

	// DType is the on-disk sample type.
	DType DType

	// Nodata is the declared nodata value, nil when none is set.
	Nodata *float64

	// Transform maps pixel to world coordinates.
	Transform Transform

	// CRS is the coordinate reference system.
	CRS CRS
}

// Bounds returns the world extent of the grid.
func (m Meta) Bounds() Bounds {
	x0, y0 := m.Transform.World(0, 0)
	x1, y1 := m.Transform.World(float64(m.Width), float64(m.Height))
	return Bounds{
		Left:   math.Min(x0, x1),
		Bottom: math.Min(y0, y1),
		Right:  math.Max(x0, x1),
		Top:    math.Max(y0, y1),
	}
}

// Resolution returns the positive pixel sizes.
func (m Meta) Resolution() (xres, yres float64) {
	return m.Transform.XRes(), m.Transform.YRes()
}

// SameGrid reports whether two rasters share dimensions, transform and CRS.
func (m Meta) SameGrid(o Meta) bool {
	return m.Width == o.Width && m.Height == o.Height &&
		m.Transform == o.Transform && m.CRS == o.CRS
}

// Raster is a grid of samples with georeferencing metadata.
//
// Samples are stored band-major: one flat row-major float64 slice per
// band. Nodata cells hold NaN.
type Raster struct {
	meta  Meta
	bands [][]float64
}

// New allocates a raster with every cell set to NaN.
func New(meta Meta) *Raster {
	if meta.Count < 1 {
		meta.Count = 1
	}
	bands := make([][]float64, meta.Count)
	for i := range bands {
		b := make([]float64, meta.Width*meta.Height)
		for j := range b {
			b[j] = math.NaN()
		}
		bands[i] = b
	}
	return &Raster{meta: meta, bands: bands}
}

// FromBands wraps existing band slices in a raster. The slices are not
// copied; each must hold Width*Height samples.
func FromBands(meta Meta, bands [][]float64) (*Raster, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("no bands given")
	}
	for i, b := range bands {
		if len(b) != meta.Width*meta.Height {
			return nil, fmt.Errorf("band %d has %d samples, want %d", i+1, len(b), meta.Width*meta.Height)
		}
	}
	meta.Count = len(bands)
	return &Raster{meta: meta, bands: bands}, nil
}

// Meta returns a copy of the raster's metadata.
func (r *Raster) Meta() Meta { return r.meta }

// Width returns the grid width in pixels.
func (r *Raster) Width() int { return r.meta.Width }

// Height returns the grid height in pixels.
func (r *Raster) Height() int { return r.meta.Height }

// Count returns the number of bands.
func (r *Raster) Count() int { return r.meta.Count }

// Bounds returns the world extent.
func (r *Raster) Bounds() Bounds { return r.meta.Bounds() }

// Band returns the samples of the 1-based band number.
func (r *Raster) Band(n int) ([]float64, error) {
	if n < 1 || n > len(r.bands) {
		return nil, fmt.Errorf("band %d out of range 1..%d", n, len(r.bands))
	}
	return r.bands[n-1], nil
}

// Value returns the sample of the 1-based band at (col,row).
// Out-of-grid requests return NaN.
func (r *Raster) Value(band, col, row int) float64 {
	if band < 1 || band > len(r.bands) || col < 0 || col >= r.meta.Width || row < 0 || row >= r.meta.Height {
		return math.NaN()
	}
	return r.bands[band-1][row*r.meta.Width+col]
}

// SetValue sets the sample of the 1-based band at (col,row).
// Out-of-grid requests are ignored.
func (r *Raster) SetValue(band, col, row int, v float64) {
	if band < 1 || band > len(r.bands) || col < 0 || col >= r.meta.Width || row < 0 || row >= r.meta.Height {
		return
	}
	r.bands[band-1][row*r.meta.Width+col] = v
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	bands := make([][]float64, len(r.bands))
	for i, b := range r.bands {
		bands[i] = append([]float64(nil), b...)
	}
	return &Raster{meta: r.meta, bands: bands}
}

// SetDType changes the declared on-disk sample type.
func (r *Raster) SetDType(dt DType) { r.meta.DType = dt }

// SetNodata changes the declared nodata value.
func (r *Raster) SetNodata(v *float64) { r.meta.Nodata = v }
