package raster

import (
	"fmt"
	"math"

	"github.com/geonate/geonate/internal/vector"
)

// MaskOptions controls polygon and raster masking.
type MaskOptions struct {
	// Invert masks the cells INSIDE the geometry instead of outside.
	Invert bool

	// Nodata overrides the fill value recorded for masked cells. When
	// nil the conventional fill for the raster's sample type is used.
	Nodata *float64
}

// Mask crops a raster to a vector layer's extent and masks every cell
// whose center falls outside the layer's polygons (inside, with Invert).
// Masked cells are NaN in memory; the recorded nodata value is what
// they become on disk.
func Mask(r *Raster, layer *vector.Layer, opts *MaskOptions) (*Raster, error) {
	if opts == nil {
		opts = &MaskOptions{}
	}
	hasAreal := false
	for _, f := range layer.Features {
		if vector.IsAreal(f) {
			hasAreal = true
			break
		}
	}
	if !hasAreal {
		return nil, fmt.Errorf("mask layer has no polygon features")
	}

	out, err := CropToLayer(r, layer, false)
	if err != nil {
		return nil, err
	}
	m := out.Meta()

	inside := rasterize(layer, m)
	for b := 1; b <= m.Count; b++ {
		band, _ := out.Band(b)
		for i := range band {
			if inside[i] == opts.Invert {
				band[i] = math.NaN()
			}
		}
	}

	nodata := DefaultNodata(m.DType)
	if opts.Nodata != nil {
		nodata = *opts.Nodata
	}
	out.meta.Nodata = &nodata
	return out, nil
}

// MaskByRaster masks the cells of r where the reference raster has no
// data (or has data, with Invert). The rasters must share a CRS; grids
// may differ, cells are matched through the georeferencing.
func MaskByRaster(r, ref *Raster, opts *MaskOptions) (*Raster, error) {
	if opts == nil {
		opts = &MaskOptions{}
	}
	if r.Meta().CRS != ref.Meta().CRS {
		return nil, fmt.Errorf("mask reference is %s, raster is %s; reproject one of them first",
			ref.Meta().CRS, r.Meta().CRS)
	}

	out, err := CropToRaster(r, ref, false)
	if err != nil {
		return nil, err
	}
	m := out.Meta()
	refMeta := ref.Meta()
	refBand, err := ref.Band(1)
	if err != nil {
		return nil, err
	}

	for row := 0; row < m.Height; row++ {
		for col := 0; col < m.Width; col++ {
			x, y := m.Transform.World(float64(col)+0.5, float64(row)+0.5)
			rc, rr := refMeta.Transform.Pixel(x, y)
			rcol, rrow := int(math.Floor(rc)), int(math.Floor(rr))
			valid := rcol >= 0 && rcol < refMeta.Width && rrow >= 0 && rrow < refMeta.Height &&
				!math.IsNaN(refBand[rrow*refMeta.Width+rcol])
			if valid == opts.Invert {
				for b := 1; b <= m.Count; b++ {
					band, _ := out.Band(b)
					band[row*m.Width+col] = math.NaN()
				}
			}
		}
	}

	nodata := DefaultNodata(m.DType)
	if opts.Nodata != nil {
		nodata = *opts.Nodata
	}
	out.meta.Nodata = &nodata
	return out, nil
}

// rasterize marks the grid cells whose centers fall inside any polygon
// feature of the layer.
func rasterize(layer *vector.Layer, m Meta) []bool {
	inside := make([]bool, m.Width*m.Height)
	for _, f := range layer.Features {
		if !vector.IsAreal(f) {
			continue
		}
		b := f.Geometry.Bound()
		col0, row0, col1, row1 := pixelRange(m, Bounds{Left: b.Min[0], Bottom: b.Min[1], Right: b.Max[0], Top: b.Max[1]})
		for row := row0; row < row1; row++ {
			for col := col0; col < col1; col++ {
				if inside[row*m.Width+col] {
					continue
				}
				x, y := m.Transform.World(float64(col)+0.5, float64(row)+0.5)
				if vector.Contains(f, x, y) {
					inside[row*m.Width+col] = true
				}
			}
		}
	}
	return inside
}
