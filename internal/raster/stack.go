package raster

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Stack combines single-band rasters into one multi-band raster. All
// inputs must share the same grid (dimensions, transform, CRS); the
// output takes its metadata from the first input and one band per input,
// in order.
func Stack(inputs []*Raster) (*Raster, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no rasters to stack")
	}
	first := inputs[0].Meta()
	bands := make([][]float64, 0, len(inputs))
	for i, in := range inputs {
		m := in.Meta()
		if m.Count != 1 {
			return nil, fmt.Errorf("input %d has %d bands, stacking expects single-band inputs", i+1, m.Count)
		}
		if !m.SameGrid(first) {
			return nil, fmt.Errorf("input %d vs input 1 (%dx%d %s): %w",
				i+1, first.Width, first.Height, first.CRS, ErrGridMismatch)
		}
		if m.DType != first.DType {
			return nil, fmt.Errorf("input %d is %s, input 1 is %s; stack inputs must share a sample type",
				i+1, m.DType, first.DType)
		}
		band, err := in.Band(1)
		if err != nil {
			return nil, err
		}
		bands = append(bands, append([]float64(nil), band...))
	}
	out := first
	out.Count = len(bands)
	return FromBands(out, bands)
}

// StackFiles opens each path and stacks the results. All paths must
// carry the same extension; only GeoTIFF input is understood.
func StackFiles(paths []string) (*Raster, error) {
	if err := checkExtensions(paths); err != nil {
		return nil, err
	}
	inputs := make([]*Raster, 0, len(paths))
	for _, p := range paths {
		r, err := Open(p)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, r)
	}
	return Stack(inputs)
}

// checkExtensions verifies that every path shares one supported extension.
func checkExtensions(paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no input files")
	}
	first := strings.ToLower(filepath.Ext(paths[0]))
	for _, p := range paths[1:] {
		if strings.ToLower(filepath.Ext(p)) != first {
			return fmt.Errorf("mixed file extensions: %s vs %s", first, filepath.Ext(p))
		}
	}
	switch first {
	case ".tif", ".tiff":
		return nil
	default:
		return fmt.Errorf("file extension %q is not supported", first)
	}
}
