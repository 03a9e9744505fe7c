package raster

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Merge mosaics rasters onto the union grid of their extents. Cells
// covered by several inputs take the average of the contributing values;
// NaN samples never contribute. All inputs must share CRS, band count
// and resolution.
func Merge(inputs []*Raster) (*Raster, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no rasters to merge")
	}
	first := inputs[0].Meta()
	xres, yres := first.Resolution()
	bounds := first.Bounds()
	for i, in := range inputs[1:] {
		m := in.Meta()
		if m.CRS != first.CRS {
			return nil, fmt.Errorf("input %d is %s, input 1 is %s: %w", i+2, m.CRS, first.CRS, ErrGridMismatch)
		}
		if m.Count != first.Count {
			return nil, fmt.Errorf("input %d has %d bands, input 1 has %d", i+2, m.Count, first.Count)
		}
		xr, yr := m.Resolution()
		if !almostEqual(xr, xres) || !almostEqual(yr, yres) {
			return nil, fmt.Errorf("input %d resolution %gx%g differs from %gx%g: %w", i+2, xr, yr, xres, yres, ErrGridMismatch)
		}
		bounds = bounds.Union(m.Bounds())
	}

	width := int(math.Ceil(bounds.Width()/xres - 1e-9))
	height := int(math.Ceil(bounds.Height()/yres - 1e-9))
	meta := first
	meta.Width = width
	meta.Height = height
	meta.Transform = NewTransform(bounds.Left, bounds.Top, xres, yres)

	// Sum and count accumulators per band; average at the end. NaN-aware,
	// so uncovered cells stay NaN instead of dividing zero by zero.
	sums := make([][]float64, meta.Count)
	counts := make([][]float64, meta.Count)
	for b := range sums {
		sums[b] = make([]float64, width*height)
		counts[b] = make([]float64, width*height)
	}

	for _, in := range inputs {
		m := in.Meta()
		for b := 1; b <= meta.Count; b++ {
			band, err := in.Band(b)
			if err != nil {
				return nil, err
			}
			for row := 0; row < m.Height; row++ {
				// World position of the first cell center on this input row,
				// converted once into the output grid.
				x, y := m.Transform.World(0.5, float64(row)+0.5)
				ocf, orf := meta.Transform.Pixel(x, y)
				oc, orow := int(math.Floor(ocf)), int(math.Floor(orf))
				if orow < 0 || orow >= height {
					continue
				}
				for col := 0; col < m.Width; col++ {
					v := band[row*m.Width+col]
					if math.IsNaN(v) {
						continue
					}
					out := oc + col
					if out < 0 || out >= width {
						continue
					}
					sums[b-1][orow*width+out] += v
					counts[b-1][orow*width+out]++
				}
			}
		}
	}

	bands := make([][]float64, meta.Count)
	for b := range bands {
		band := make([]float64, width*height)
		for i := range band {
			if counts[b][i] == 0 {
				band[i] = math.NaN()
			} else {
				band[i] = sums[b][i] / counts[b][i]
			}
		}
		bands[b] = band
	}
	return FromBands(meta, bands)
}

// MergeFiles mosaics the given GeoTIFF files into one output file. The
// mosaic is staged in a uniquely named temp file beside the output and
// renamed into place, so a failed run never leaves a partial output.
func MergeFiles(paths []string, output string, opts *WriteOptions) error {
	if err := checkExtensions(paths); err != nil {
		return err
	}
	inputs := make([]*Raster, 0, len(paths))
	for _, p := range paths {
		r, err := Open(p)
		if err != nil {
			return err
		}
		inputs = append(inputs, r)
	}
	merged, err := Merge(inputs)
	if err != nil {
		return err
	}

	tmp := filepath.Join(filepath.Dir(output), "."+uuid.NewString()+".tif")
	if err := Write(merged, tmp, opts); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, output); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move mosaic into place: %w", err)
	}
	return nil
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
