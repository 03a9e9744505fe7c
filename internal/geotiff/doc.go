// Package geotiff implements a baseline GeoTIFF codec for strip-based,
// classic (non-Big) TIFF files.
//
// The reader handles both byte orders, chunky and planar sample layouts,
// uncompressed, LZW and Deflate strips, horizontal-differencing prediction,
// and unsigned/signed/floating samples at 8 to 64 bits per sample. The
// writer always produces little-endian, chunky, strip-based files and
// supports uncompressed and Deflate output.
//
// Georeferencing is carried through the standard private tags:
//
//   - ModelPixelScale (33550) and ModelTiepoint (33922), or the full
//     ModelTransformation matrix (34264), for the pixel-to-world affine
//   - GeoKeyDirectory (34735) for the EPSG code of the reference system
//   - GDAL_NODATA (42113) for the nodata fill value
//
// Tiled layouts and BigTIFF are out of scope; files using them are
// rejected with a descriptive error.
package geotiff
