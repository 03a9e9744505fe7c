// Package server exposes a raster directory as a small HTTP catalog.
//
// Routes:
//
//	GET /rasters                      list the GeoTIFF files under the root
//	GET /rasters/{name}/info          georeferencing and size metadata
//	GET /rasters/{name}/stats         per-band min/max/mean/std
//	GET /rasters/{name}/preview.png   colormap quicklook (query: band, cmap, width)
//
// Responses are JSON except the preview, which is a PNG. Decoded rasters
// are cached between requests.
package server
