package raster

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// FocalStat is the statistic applied over a focal window.
type FocalStat int

const (
	FocalMean FocalStat = iota
	FocalMin
	FocalMax
	FocalMedian
)

// ParseFocalStat parses mean/min/max/median.
func ParseFocalStat(s string) (FocalStat, error) {
	switch s {
	case "", "mean":
		return FocalMean, nil
	case "min":
		return FocalMin, nil
	case "max":
		return FocalMax, nil
	case "median":
		return FocalMedian, nil
	default:
		return 0, fmt.Errorf("focal statistic %q is not supported, use mean, min, max or median", s)
	}
}

// Focal computes a moving-window statistic over every band. The window
// is the square of side 2*radius+1 centered on each cell; NaN neighbors
// are skipped, and a cell with no valid neighbor stays NaN. Rows are
// processed in parallel.
func Focal(r *Raster, radius int, stat FocalStat) (*Raster, error) {
	if radius < 1 {
		return nil, fmt.Errorf("focal radius must be positive, got %d", radius)
	}
	m := r.Meta()
	out := New(m)
	outMeta := out.meta
	outMeta.DType = Float32
	out.meta = outMeta

	workers := workersFor(m.Height)
	chunk := (m.Height + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		rowStart := w * chunk
		rowEnd := rowStart + chunk
		if rowEnd > m.Height {
			rowEnd = m.Height
		}
		wg.Add(1)
		go func(rowStart, rowEnd int) {
			defer wg.Done()
			window := make([]float64, 0, (2*radius+1)*(2*radius+1))
			for b := 1; b <= m.Count; b++ {
				src, _ := r.Band(b)
				dst, _ := out.Band(b)
				for row := rowStart; row < rowEnd; row++ {
					for col := 0; col < m.Width; col++ {
						window = window[:0]
						for dr := -radius; dr <= radius; dr++ {
							rr := row + dr
							if rr < 0 || rr >= m.Height {
								continue
							}
							for dc := -radius; dc <= radius; dc++ {
								cc := col + dc
								if cc < 0 || cc >= m.Width {
									continue
								}
								if v := src[rr*m.Width+cc]; !math.IsNaN(v) {
									window = append(window, v)
								}
							}
						}
						dst[row*m.Width+col] = focalValue(window, stat)
					}
				}
			}
		}(rowStart, rowEnd)
	}
	wg.Wait()
	return out, nil
}

func focalValue(window []float64, stat FocalStat) float64 {
	if len(window) == 0 {
		return math.NaN()
	}
	switch stat {
	case FocalMean:
		var sum float64
		for _, v := range window {
			sum += v
		}
		return sum / float64(len(window))
	case FocalMin:
		out := window[0]
		for _, v := range window[1:] {
			out = math.Min(out, v)
		}
		return out
	case FocalMax:
		out := window[0]
		for _, v := range window[1:] {
			out = math.Max(out, v)
		}
		return out
	case FocalMedian:
		sort.Float64s(window)
		n := len(window)
		if n%2 == 1 {
			return window[n/2]
		}
		return (window[n/2-1] + window[n/2]) / 2
	default:
		return math.NaN()
	}
}
