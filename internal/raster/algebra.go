package raster

import (
	"fmt"
	"math"
)

// NormalizedDifference computes (b1 - b2) / (b1 + b2) between two
// 1-based band numbers, the usual form of spectral indices like NDVI
// and NDWI. Results outside [-1, 1] (a zero-sum denominator blowing up)
// become NaN. The output is a single float32 band on the input grid.
func NormalizedDifference(r *Raster, b1, b2 int) (*Raster, error) {
	band1, err := r.Band(b1)
	if err != nil {
		return nil, err
	}
	band2, err := r.Band(b2)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(band1))
	for i := range out {
		v := (band1[i] - band2[i]) / (band1[i] + band2[i])
		if v < -1 || v > 1 {
			v = math.NaN()
		}
		out[i] = v
	}

	meta := r.Meta()
	meta.DType = Float32
	meta.Nodata = nil
	return FromBands(meta, [][]float64{out})
}

// Normalize rescales all bands linearly so the raster's global minimum
// maps to 0 and its maximum to 1.
func Normalize(r *Raster) (*Raster, error) {
	minV, maxV, err := MinMax(r)
	if err != nil {
		return nil, err
	}
	if minV == maxV {
		return nil, fmt.Errorf("raster is constant (%g), nothing to normalize", minV)
	}

	m := r.Meta()
	span := maxV - minV
	bands := make([][]float64, m.Count)
	for b := 1; b <= m.Count; b++ {
		src, _ := r.Band(b)
		dst := make([]float64, len(src))
		for i, v := range src {
			dst[i] = (v - minV) / span
		}
		bands[b-1] = dst
	}

	meta := m
	meta.DType = Float32
	meta.Nodata = nil
	return FromBands(meta, bands)
}

// Reclassify maps a single-band raster onto class values.
//
// Two modes, decided by the argument arity:
//
//   - discrete: len(breakpoints) == len(classes); cells equal to
//     breakpoints[i] become classes[i]
//   - continuous: len(breakpoints) == len(classes)+1; cells in
//     [breakpoints[i], breakpoints[i+1]) become classes[i]
//
// Cells matching no rule become 0.
func Reclassify(r *Raster, breakpoints, classes []float64) (*Raster, error) {
	if r.Count() != 1 {
		return nil, fmt.Errorf("reclassify expects a single-band raster, got %d bands", r.Count())
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("no classes given")
	}

	band, _ := r.Band(1)
	out := make([]float64, len(band))

	switch len(breakpoints) {
	case len(classes):
		for i, v := range band {
			for j, bp := range breakpoints {
				if v == bp {
					out[i] = classes[j]
					break
				}
			}
		}
	case len(classes) + 1:
		for i, v := range band {
			if math.IsNaN(v) {
				continue
			}
			for j := range classes {
				if v >= breakpoints[j] && v < breakpoints[j+1] {
					out[i] = classes[j]
					break
				}
			}
		}
	default:
		return nil, fmt.Errorf("got %d breakpoints for %d classes, want equal (discrete) or one more (continuous)",
			len(breakpoints), len(classes))
	}

	meta := r.Meta()
	meta.Nodata = nil
	return FromBands(meta, [][]float64{out})
}
