// Package render turns rasters into quicklook PNG images.
//
// A single band is mapped through a named colormap after a percentile
// contrast stretch; three bands form an RGB composite. Nodata cells are
// transparent in the output. Results carry the encoded PNG as base64
// alongside its dimensions, and can also be written straight to disk.
package render
