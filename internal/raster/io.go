package raster

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/geonate/geonate/internal/geotiff"
)

// WriteOptions controls raster output.
type WriteOptions struct {
	// Compression is "deflate" (default), "none" or "uncompressed".
	// LZW is read-only in the codec and rejected here by name so the
	// caller learns the supported encoders.
	Compression string
}

// Open reads a GeoTIFF from disk into a Raster.
func Open(path string) (*Raster, error) {
	d, err := geotiff.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	return fromDataset(d), nil
}

// Write encodes a raster as GeoTIFF at path.
func Write(r *Raster, path string, opts *WriteOptions) error {
	compression := geotiff.CompressionDeflate
	if opts != nil && opts.Compression != "" {
		switch strings.ToLower(opts.Compression) {
		case "deflate":
			compression = geotiff.CompressionDeflate
		case "none", "uncompressed":
			compression = geotiff.CompressionNone
		case "lzw":
			return fmt.Errorf("lzw compression is read-only, use %q or %q", "deflate", "none")
		default:
			return fmt.Errorf("compression %q is not supported, use %q or %q", opts.Compression, "deflate", "none")
		}
	}
	return geotiff.EncodeFile(path, toDataset(r), &geotiff.Options{Compression: compression})
}

// Info summarizes a raster file without loading its samples.
type Info struct {
	Path          string     `json:"path"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	Bands         int        `json:"bands"`
	DType         string     `json:"dtype"`
	CRS           string     `json:"crs,omitempty"`
	Bounds        Bounds     `json:"bounds"`
	Resolution    [2]float64 `json:"resolution"`
	Nodata        *float64   `json:"nodata,omitempty"`
	FileSizeBytes int64      `json:"file_size_bytes"`
}

// ReadInfo reads only the metadata of a GeoTIFF file.
func ReadInfo(path string) (*Info, error) {
	gi, err := geotiff.DecodeInfoFile(path)
	if err != nil {
		return nil, err
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	meta := metaFromInfo(gi)
	xres, yres := meta.Resolution()
	return &Info{
		Path:          filepath.Base(path),
		Width:         meta.Width,
		Height:        meta.Height,
		Bands:         meta.Count,
		DType:         meta.DType.String(),
		CRS:           meta.CRS.String(),
		Bounds:        meta.Bounds(),
		Resolution:    [2]float64{xres, yres},
		Nodata:        meta.Nodata,
		FileSizeBytes: stat.Size(),
	}, nil
}

func metaFromInfo(gi *geotiff.Info) Meta {
	return Meta{
		Width:     gi.Width,
		Height:    gi.Height,
		Count:     gi.Bands,
		DType:     gi.Type,
		Nodata:    gi.Nodata,
		Transform: transformFromArray(gi.Transform),
		CRS:       CRS{Code: gi.EPSG},
	}
}

func fromDataset(d *geotiff.Dataset) *Raster {
	return &Raster{meta: metaFromInfo(&d.Info), bands: d.Pixels}
}

func toDataset(r *Raster) *geotiff.Dataset {
	return &geotiff.Dataset{
		Info: geotiff.Info{
			Width:     r.meta.Width,
			Height:    r.meta.Height,
			Bands:     r.meta.Count,
			Type:      r.meta.DType,
			Transform: r.meta.Transform.Array(),
			EPSG:      r.meta.CRS.Code,
			Nodata:    r.meta.Nodata,
		},
		Pixels: r.bands,
	}
}
