package raster

import (
	"fmt"
	"math"

	"github.com/geonate/geonate/internal/vector"
)

// Crop clips a raster to the bounding box of a reference extent. The
// output grid stays aligned to the input's pixel grid and the sample
// type widens to float32 so clipped-away cells can hold nodata.
//
// With invert set, the grid is left at full size and the cells inside
// the box are masked instead.
func Crop(r *Raster, ref Bounds, invert bool) (*Raster, error) {
	m := r.Meta()

	if invert {
		out := r.Clone()
		out.meta.DType = Float32
		col0, row0, col1, row1 := pixelRange(m, ref)
		for b := 1; b <= m.Count; b++ {
			band, _ := out.Band(b)
			for row := row0; row < row1; row++ {
				for col := col0; col < col1; col++ {
					band[row*m.Width+col] = math.NaN()
				}
			}
		}
		return out, nil
	}

	inter, ok := m.Bounds().Intersect(ref)
	if !ok {
		return nil, fmt.Errorf("crop extent does not overlap the raster (%v vs %v)", ref, m.Bounds())
	}
	col0, row0, col1, row1 := pixelRange(m, inter)
	if col0 >= col1 || row0 >= row1 {
		return nil, fmt.Errorf("crop extent covers no whole pixel")
	}

	width := col1 - col0
	height := row1 - row0
	originX, originY := m.Transform.World(float64(col0), float64(row0))

	out := m
	out.Width = width
	out.Height = height
	out.DType = Float32
	out.Transform = NewTransform(originX, originY, m.Transform.XRes(), m.Transform.YRes())

	bands := make([][]float64, m.Count)
	for b := 1; b <= m.Count; b++ {
		src, _ := r.Band(b)
		dst := make([]float64, width*height)
		for row := 0; row < height; row++ {
			copy(dst[row*width:(row+1)*width], src[(row0+row)*m.Width+col0:(row0+row)*m.Width+col1])
		}
		bands[b-1] = dst
	}
	return FromBands(out, bands)
}

// CropToLayer clips a raster to the union bounding box of a vector layer.
func CropToLayer(r *Raster, layer *vector.Layer, invert bool) (*Raster, error) {
	left, bottom, right, top := layer.Bounds()
	return Crop(r, Bounds{Left: left, Bottom: bottom, Right: right, Top: top}, invert)
}

// CropToRaster clips a raster to the extent of another raster.
func CropToRaster(r, ref *Raster, invert bool) (*Raster, error) {
	if r.Meta().CRS != ref.Meta().CRS {
		return nil, fmt.Errorf("crop reference is %s, raster is %s; reproject one of them first",
			ref.Meta().CRS, r.Meta().CRS)
	}
	return Crop(r, ref.Bounds(), invert)
}

// pixelRange converts a world box to the clamped half-open pixel range
// [col0,col1) x [row0,row1) it covers on the grid.
func pixelRange(m Meta, b Bounds) (col0, row0, col1, row1 int) {
	c0, r0 := m.Transform.Pixel(b.Left, b.Top)
	c1, r1 := m.Transform.Pixel(b.Right, b.Bottom)
	col0 = clampInt(int(math.Floor(c0+1e-9)), 0, m.Width)
	row0 = clampInt(int(math.Floor(r0+1e-9)), 0, m.Height)
	col1 = clampInt(int(math.Ceil(c1-1e-9)), 0, m.Width)
	row1 = clampInt(int(math.Ceil(r1-1e-9)), 0, m.Height)
	return col0, row0, col1, row1
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
