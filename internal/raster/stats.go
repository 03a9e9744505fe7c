package raster

import (
	"fmt"
	"math"
	"strings"
)

// MinMax returns the smallest and largest finite sample across all
// bands, ignoring NaN cells.
func MinMax(r *Raster) (minV, maxV float64, err error) {
	minV, maxV = math.Inf(1), math.Inf(-1)
	found := false
	for _, band := range r.bands {
		for _, v := range band {
			if math.IsNaN(v) {
				continue
			}
			found = true
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}
	}
	if !found {
		return 0, 0, fmt.Errorf("raster has no valid samples")
	}
	return minV, maxV, nil
}

// BandStats summarizes one band.
type BandStats struct {
	Band   int     `json:"band"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Valid  int     `json:"valid_cells"`
	Nodata int     `json:"nodata_cells"`
}

// Stats computes per-band summaries, skipping NaN cells.
func Stats(r *Raster) []BandStats {
	out := make([]BandStats, 0, r.Count())
	for b, band := range r.bands {
		s := BandStats{Band: b + 1, Min: math.Inf(1), Max: math.Inf(-1)}
		var sum float64
		for _, v := range band {
			if math.IsNaN(v) {
				s.Nodata++
				continue
			}
			s.Valid++
			sum += v
			s.Min = math.Min(s.Min, v)
			s.Max = math.Max(s.Max, v)
		}
		if s.Valid == 0 {
			s.Min, s.Max, s.Mean, s.Std = math.NaN(), math.NaN(), math.NaN(), math.NaN()
			out = append(out, s)
			continue
		}
		s.Mean = sum / float64(s.Valid)
		var sq float64
		for _, v := range band {
			if !math.IsNaN(v) {
				d := v - s.Mean
				sq += d * d
			}
		}
		s.Std = math.Sqrt(sq / float64(s.Valid))
		out = append(out, s)
	}
	return out
}

// Spheroid radii used for geodesic cell areas (WGS84).
const (
	equatorialRadius = 6378137.0
	polarRadius      = 6356752.3142
)

// CellArea builds a single-band raster holding the geodesic area of
// every cell, in km² ("km"), m² ("m") or hectares ("ha"). The input
// must be in geographic coordinates; cell area then varies with
// latitude only, so one area per grid row is computed on the WGS84
// spheroid and broadcast across the row.
func CellArea(r *Raster, unit string) (*Raster, error) {
	m := r.Meta()
	if !m.CRS.IsGeographic() {
		return nil, fmt.Errorf("cell area needs geographic coordinates, raster is %s; reproject to EPSG:4326 first", m.CRS)
	}

	var scale float64
	switch strings.ToLower(unit) {
	case "", "km", "kilometer":
		scale = 1
	case "m", "meter":
		scale = 1_000_000
	case "ha", "hectare":
		scale = 100
	default:
		return nil, fmt.Errorf("unit %q is not supported, use km, m or ha", unit)
	}

	bounds := m.Bounds()
	pixWidth := m.Transform.XRes()

	// Area between each pair of row latitudes and the equator, by the
	// closed-form integral over the spheroid, then differenced per row.
	e := math.Sqrt(1 - (polarRadius/equatorialRadius)*(polarRadius/equatorialRadius))
	q := pixWidth / 360

	toEquator := make([]float64, m.Height+1)
	for i := range toEquator {
		lat := bounds.Top - float64(i)*(bounds.Top-bounds.Bottom)/float64(m.Height)
		sinLat := math.Sin(lat * math.Pi / 180)
		zm := 1 - e*sinLat
		zp := 1 + e*sinLat
		toEquator[i] = math.Pi * polarRadius * polarRadius *
			(2*math.Atanh(e*sinLat)/(2*e) + sinLat/(zp*zm)) / 1e6
	}

	band := make([]float64, m.Width*m.Height)
	for row := 0; row < m.Height; row++ {
		area := math.Abs(toEquator[row+1]-toEquator[row]) * q * scale
		for col := 0; col < m.Width; col++ {
			band[row*m.Width+col] = area
		}
	}

	meta := m
	meta.DType = Float32
	meta.Nodata = nil
	return FromBands(meta, [][]float64{band})
}

// MeterToDegree converts a ground distance in meters to arc degrees at
// the given latitude. Latitude 0 (the equator) gives the widest degree.
func MeterToDegree(meters, latitude float64) float64 {
	return meters / (111320 * math.Cos(latitude*math.Pi/180))
}

// Extent returns the union extent and shared CRS of a list of GeoTIFF
// files, reading only their metadata.
func Extent(paths []string) (Bounds, CRS, error) {
	if len(paths) == 0 {
		return Bounds{}, CRS{}, fmt.Errorf("no input files")
	}
	var union Bounds
	var crs CRS
	for i, p := range paths {
		info, err := ReadInfo(p)
		if err != nil {
			return Bounds{}, CRS{}, err
		}
		fileCRS, _ := ParseCRS(info.CRS)
		if i == 0 {
			union = info.Bounds
			crs = fileCRS
			continue
		}
		if fileCRS != crs {
			return Bounds{}, CRS{}, fmt.Errorf("%s is %s, %s is %s; extents cannot be unioned across reference systems",
				p, fileCRS, paths[0], crs)
		}
		union = union.Union(info.Bounds)
	}
	return union, crs, nil
}
