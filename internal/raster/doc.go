// Package raster provides the in-memory raster model and the processing
// operations of the toolkit: stacking, mosaicking, cropping, masking,
// warping, band math, reclassification, statistics and sampling.
//
// # Data model
//
// A Raster couples grid metadata (dimensions, sample type, nodata,
// affine transform, coordinate reference system) with band-major float64
// samples, one flat row-major slice per band. Nodata is always NaN in
// memory; the declared nodata value only matters at the file boundary,
// where the GeoTIFF codec maps it to and from NaN.
//
// # Coordinate conventions
//
// Pixel coordinates are 0-based with (0,0) the top-left cell; col grows
// rightward, row grows downward. The affine transform maps the CENTER of
// pixel (col,row) via World(col+0.5, row+0.5). World bounds are
// (left, bottom, right, top) in CRS units.
//
// # Concurrency
//
// Rasters are not safe for concurrent mutation. Operations that fan work
// out over goroutines (warping, focal statistics) partition the output
// grid so no two goroutines share cells; SetWorkers caps the fan-out.
// The Cache type is safe for concurrent use.
package raster
