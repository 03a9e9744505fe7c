package raster

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/wroge/wgs84"
)

// Method selects how source samples are combined into an output cell.
type Method int

const (
	MethodNearest Method = iota
	MethodBilinear
	MethodCubic
	MethodAverage
	MethodMin
	MethodMax
	MethodSum
	MethodMedian
	MethodMode
)

var methodNames = map[Method]string{
	MethodNearest:  "nearest",
	MethodBilinear: "bilinear",
	MethodCubic:    "cubic",
	MethodAverage:  "average",
	MethodMin:      "min",
	MethodMax:      "max",
	MethodSum:      "sum",
	MethodMedian:   "median",
	MethodMode:     "mode",
}

func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod parses a resampling method name. The usual aliases are
// accepted: near/nearest, mean/average, med/median.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "", "near", "nearest":
		return MethodNearest, nil
	case "bilinear":
		return MethodBilinear, nil
	case "cubic", "spline":
		return MethodCubic, nil
	case "mean", "average":
		return MethodAverage, nil
	case "min":
		return MethodMin, nil
	case "max":
		return MethodMax, nil
	case "sum":
		return MethodSum, nil
	case "med", "median":
		return MethodMedian, nil
	case "mode":
		return MethodMode, nil
	default:
		return 0, fmt.Errorf("resampling method %q is not supported, use one of: nearest, bilinear, cubic, average, min, max, sum, median, mode", s)
	}
}

// projFunc maps world coordinates between two reference systems.
type projFunc func(x, y float64) (float64, float64)

func identityProj(x, y float64) (float64, float64) { return x, y }

// newProjection builds the coordinate transform between two EPSG systems.
func newProjection(from, to CRS) (projFunc, error) {
	if from == to {
		return identityProj, nil
	}
	src := wgs84.EPSG().Code(from.Code)
	if src == nil {
		return nil, fmt.Errorf("EPSG:%d is not in the supported EPSG set", from.Code)
	}
	dst := wgs84.EPSG().Code(to.Code)
	if dst == nil {
		return nil, fmt.Errorf("EPSG:%d is not in the supported EPSG set", to.Code)
	}
	f := wgs84.Transform(src, dst)
	return func(x, y float64) (float64, float64) {
		a, b, _ := f(x, y, 0)
		return a, b
	}, nil
}

// transformBounds maps an extent through a projection, densifying the
// outline so curved edges do not clip the result.
func transformBounds(b Bounds, proj projFunc) Bounds {
	const steps = 21
	left, bottom := math.Inf(1), math.Inf(1)
	right, top := math.Inf(-1), math.Inf(-1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / steps
		pts := [4][2]float64{
			{b.Left + t*b.Width(), b.Top},
			{b.Left + t*b.Width(), b.Bottom},
			{b.Left, b.Bottom + t*b.Height()},
			{b.Right, b.Bottom + t*b.Height()},
		}
		for _, p := range pts {
			x, y := proj(p[0], p[1])
			if math.IsNaN(x) || math.IsNaN(y) {
				continue
			}
			left = math.Min(left, x)
			bottom = math.Min(bottom, y)
			right = math.Max(right, x)
			top = math.Max(top, y)
		}
	}
	return Bounds{Left: left, Bottom: bottom, Right: right, Top: top}
}

// ReprojectOptions controls Reproject.
type ReprojectOptions struct {
	// CRS is the target system. The zero value keeps the source CRS,
	// turning the call into a pure resampling pass.
	CRS CRS

	// Resolution is the output pixel size in target units. Zero derives
	// it from the source pixel count over the reprojected extent.
	Resolution float64

	// Method is the resampling method, MethodNearest by default.
	Method Method
}

// Reproject warps a raster to another reference system and/or
// resolution.
func Reproject(r *Raster, opts ReprojectOptions) (*Raster, error) {
	m := r.Meta()
	dstCRS := opts.CRS
	if !dstCRS.Valid() {
		dstCRS = m.CRS
	}
	if !m.CRS.Valid() && dstCRS != m.CRS {
		return nil, fmt.Errorf("source raster has no CRS, cannot reproject")
	}

	fwd, err := newProjection(m.CRS, dstCRS)
	if err != nil {
		return nil, err
	}
	inv, err := newProjection(dstCRS, m.CRS)
	if err != nil {
		return nil, err
	}

	dstBounds := transformBounds(m.Bounds(), fwd)
	res := opts.Resolution
	if res <= 0 {
		// Keep roughly the source pixel count.
		res = math.Max(dstBounds.Width()/float64(m.Width), dstBounds.Height()/float64(m.Height))
	}
	width := int(math.Ceil(dstBounds.Width() / res))
	height := int(math.Ceil(dstBounds.Height() / res))
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("resolution %g leaves no output pixels", res)
	}

	dst := m
	dst.CRS = dstCRS
	dst.Width = width
	dst.Height = height
	dst.Transform = NewTransform(dstBounds.Left, dstBounds.Top, res, res)
	return warpToGrid(r, dst, inv, opts.Method)
}

// ReprojectToReference warps a raster onto the CRS and resolution of a
// reference raster. The extent stays the input's own, reprojected.
func ReprojectToReference(r, ref *Raster, method Method) (*Raster, error) {
	xres, _ := ref.Meta().Resolution()
	return Reproject(r, ReprojectOptions{CRS: ref.Meta().CRS, Resolution: xres, Method: method})
}

// ResampleMode picks the direction of a factor-based resample.
type ResampleMode int

const (
	// Aggregate coarsens the grid: the pixel count shrinks by factor.
	Aggregate ResampleMode = iota
	// Disaggregate refines the grid: the pixel count grows by factor.
	Disaggregate
)

// ParseResampleMode parses "aggregate"/"agg"/"a" and
// "disaggregate"/"disagg"/"d".
func ParseResampleMode(s string) (ResampleMode, error) {
	switch strings.ToLower(s) {
	case "aggregate", "agg", "a":
		return Aggregate, nil
	case "disaggregate", "disagg", "d":
		return Disaggregate, nil
	default:
		return 0, fmt.Errorf("resample mode %q is not supported, use %q or %q", s, "aggregate", "disaggregate")
	}
}

// Resample rescales a raster by an integer factor relative to its own
// grid, keeping the extent.
func Resample(r *Raster, factor int, mode ResampleMode, method Method) (*Raster, error) {
	if factor < 1 {
		return nil, fmt.Errorf("resample factor must be positive, got %d", factor)
	}
	m := r.Meta()
	var width, height int
	switch mode {
	case Aggregate:
		width, height = m.Width/factor, m.Height/factor
	case Disaggregate:
		width, height = m.Width*factor, m.Height*factor
	default:
		return nil, fmt.Errorf("unknown resample mode %d", mode)
	}
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("factor %d leaves no output pixels on a %dx%d grid", factor, m.Width, m.Height)
	}

	dst := m
	dst.Width = width
	dst.Height = height
	dst.DType = Float32
	dst.Transform = TransformFromBounds(m.Bounds(), width, height)
	return warpToGrid(r, dst, identityProj, method)
}

// Match warps a raster onto the CRS and resolution of a reference, over
// the union of both extents, so the two line up cell for cell on the
// bigger grid.
func Match(r, ref *Raster, method Method) (*Raster, error) {
	m := r.Meta()
	rm := ref.Meta()

	fwd, err := newProjection(m.CRS, rm.CRS)
	if err != nil {
		return nil, err
	}
	inv, err := newProjection(rm.CRS, m.CRS)
	if err != nil {
		return nil, err
	}

	ext := transformBounds(m.Bounds(), fwd).Union(rm.Bounds())
	res, _ := rm.Resolution()
	width := int(math.Ceil(ext.Width() / res))
	height := int(math.Ceil(ext.Height() / res))

	dst := m
	dst.CRS = rm.CRS
	dst.Width = width
	dst.Height = height
	dst.DType = Float32
	dst.Transform = NewTransform(ext.Left, ext.Top, res, res)
	return warpToGrid(r, dst, inv, method)
}

// warpToGrid fills the destination grid by inverse-mapping every output
// cell center into the source and sampling there. Rows are fanned out
// over a worker per CPU; each worker owns a disjoint row range.
func warpToGrid(src *Raster, dst Meta, inv projFunc, method Method) (*Raster, error) {
	m := src.Meta()
	out := New(dst)

	// The aggregating methods need the footprint of one output pixel in
	// SOURCE pixel units. Destination and source resolutions can be in
	// different units entirely (meters vs degrees), so the footprint is
	// found per pixel by inverse-mapping the output pixel's corners.
	windowed := false
	switch method {
	case MethodNearest, MethodBilinear, MethodCubic:
	default:
		windowed = true
	}

	workers := workersFor(dst.Height)
	chunk := (dst.Height + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		rowStart := w * chunk
		rowEnd := rowStart + chunk
		if rowEnd > dst.Height {
			rowEnd = dst.Height
		}
		wg.Add(1)
		go func(rowStart, rowEnd int) {
			defer wg.Done()
			for b := 1; b <= m.Count; b++ {
				srcBand, _ := src.Band(b)
				dstBand, _ := out.Band(b)
				for row := rowStart; row < rowEnd; row++ {
					for col := 0; col < dst.Width; col++ {
						x, y := dst.Transform.World(float64(col)+0.5, float64(row)+0.5)
						sxw, syw := inv(x, y)
						scol, srow := m.Transform.Pixel(sxw, syw)
						winX, winY := 0.5, 0.5
						if windowed {
							x0, y0 := dst.Transform.World(float64(col), float64(row))
							x1, y1 := dst.Transform.World(float64(col)+1, float64(row)+1)
							ax, ay := inv(x0, y0)
							bx, by := inv(x1, y1)
							c0, r0 := m.Transform.Pixel(ax, ay)
							c1, r1 := m.Transform.Pixel(bx, by)
							winX = math.Max(0.5, math.Abs(c1-c0)/2)
							winY = math.Max(0.5, math.Abs(r1-r0)/2)
						}
						dstBand[row*dst.Width+col] = sampleBand(srcBand, m, scol, srow, method, winX, winY)
					}
				}
			}
		}(rowStart, rowEnd)
	}
	wg.Wait()
	return out, nil
}

// sampleBand reads one value at fractional source pixel coordinates.
func sampleBand(band []float64, m Meta, col, row float64, method Method, winX, winY float64) float64 {
	switch method {
	case MethodNearest:
		c, r := int(math.Floor(col)), int(math.Floor(row))
		if c < 0 || c >= m.Width || r < 0 || r >= m.Height {
			return math.NaN()
		}
		return band[r*m.Width+c]
	case MethodBilinear:
		return sampleBilinear(band, m, col, row)
	case MethodCubic:
		return sampleCubic(band, m, col, row)
	default:
		return sampleWindow(band, m, col, row, method, winX, winY)
	}
}

func pixelAt(band []float64, m Meta, c, r int) float64 {
	if c < 0 || c >= m.Width || r < 0 || r >= m.Height {
		return math.NaN()
	}
	return band[r*m.Width+c]
}

// sampleBilinear interpolates between the four surrounding cell centers,
// ignoring NaN neighbors by renormalizing the weights.
func sampleBilinear(band []float64, m Meta, col, row float64) float64 {
	u, v := col-0.5, row-0.5
	c0, r0 := int(math.Floor(u)), int(math.Floor(v))
	fu, fv := u-float64(c0), v-float64(r0)

	var sum, weight float64
	for dr := 0; dr <= 1; dr++ {
		for dc := 0; dc <= 1; dc++ {
			val := pixelAt(band, m, c0+dc, r0+dr)
			if math.IsNaN(val) {
				continue
			}
			wu := fu
			if dc == 0 {
				wu = 1 - fu
			}
			wv := fv
			if dr == 0 {
				wv = 1 - fv
			}
			sum += val * wu * wv
			weight += wu * wv
		}
	}
	if weight == 0 {
		return math.NaN()
	}
	return sum / weight
}

// cubicWeight is the Catmull-Rom kernel.
func cubicWeight(t float64) float64 {
	t = math.Abs(t)
	switch {
	case t <= 1:
		return 1.5*t*t*t - 2.5*t*t + 1
	case t < 2:
		return -0.5*t*t*t + 2.5*t*t - 4*t + 2
	default:
		return 0
	}
}

func sampleCubic(band []float64, m Meta, col, row float64) float64 {
	u, v := col-0.5, row-0.5
	c0, r0 := int(math.Floor(u)), int(math.Floor(v))

	var sum, weight float64
	for dr := -1; dr <= 2; dr++ {
		for dc := -1; dc <= 2; dc++ {
			val := pixelAt(band, m, c0+dc, r0+dr)
			if math.IsNaN(val) {
				continue
			}
			w := cubicWeight(u-float64(c0+dc)) * cubicWeight(v-float64(r0+dr))
			sum += val * w
			weight += w
		}
	}
	if weight == 0 {
		return math.NaN()
	}
	return sum / weight
}

// sampleWindow applies an aggregating statistic over the source cells
// covered by one output pixel.
func sampleWindow(band []float64, m Meta, col, row float64, method Method, winX, winY float64) float64 {
	// Clamp to the grid before sizing the value buffer: a window far
	// larger than the raster must not drive the allocation.
	c0 := clampInt(int(math.Floor(col-winX)), 0, m.Width)
	c1 := clampInt(int(math.Ceil(col+winX)), 0, m.Width)
	r0 := clampInt(int(math.Floor(row-winY)), 0, m.Height)
	r1 := clampInt(int(math.Ceil(row+winY)), 0, m.Height)

	values := make([]float64, 0, (c1-c0)*(r1-r0))
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			v := band[r*m.Width+c]
			if !math.IsNaN(v) {
				values = append(values, v)
			}
		}
	}
	if len(values) == 0 {
		return math.NaN()
	}

	switch method {
	case MethodAverage:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	case MethodMin:
		out := values[0]
		for _, v := range values[1:] {
			out = math.Min(out, v)
		}
		return out
	case MethodMax:
		out := values[0]
		for _, v := range values[1:] {
			out = math.Max(out, v)
		}
		return out
	case MethodSum:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum
	case MethodMedian:
		sort.Float64s(values)
		n := len(values)
		if n%2 == 1 {
			return values[n/2]
		}
		return (values[n/2-1] + values[n/2]) / 2
	case MethodMode:
		counts := make(map[float64]int, len(values))
		best, bestCount := values[0], 0
		for _, v := range values {
			counts[v]++
			if counts[v] > bestCount {
				best, bestCount = v, counts[v]
			}
		}
		return best
	default:
		return math.NaN()
	}
}
