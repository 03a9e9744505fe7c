package geotiff

import (
	"errors"
	"fmt"
)

// TIFF tag IDs used by the codec.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagPlanarConfig    = 284
	tagPredictor       = 317
	tagTileWidth       = 322
	tagSampleFormat    = 339

	tagModelPixelScale     = 33550
	tagModelTiepoint       = 33922
	tagModelTransformation = 34264
	tagGeoKeyDirectory     = 34735
	tagGDALNodata          = 42113
)

// TIFF field types.
const (
	typeByte     = 1
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
	typeSByte    = 6
	typeSShort   = 8
	typeSLong    = 9
	typeFloat    = 11
	typeDouble   = 12
)

// Compression schemes.
const (
	CompressionNone       = 1
	CompressionLZW        = 5
	CompressionDeflate    = 8
	CompressionOldDeflate = 32946
)

// Sample formats (tag 339).
const (
	sampleFormatUint  = 1
	sampleFormatInt   = 2
	sampleFormatFloat = 3
)

// GeoKey IDs (subset used for EPSG round-tripping).
const (
	geoKeyModelType      = 1024
	geoKeyRasterType     = 1025
	geoKeyGeographicType = 2048
	geoKeyProjectedCS    = 3072
)

// GeoKey model types.
const (
	modelTypeProjected  = 1
	modelTypeGeographic = 2
)

// SampleType identifies the numeric type of a single sample.
type SampleType int

const (
	Uint8 SampleType = iota
	Int8
	Uint16
	Int16
	Uint32
	Int32
	Float32
	Float64
)

var sampleTypeNames = map[SampleType]string{
	Uint8:   "uint8",
	Int8:    "int8",
	Uint16:  "uint16",
	Int16:   "int16",
	Uint32:  "uint32",
	Int32:   "int32",
	Float32: "float32",
	Float64: "float64",
}

func (t SampleType) String() string {
	if s, ok := sampleTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("SampleType(%d)", int(t))
}

// Bits returns the number of bits per sample for the type.
func (t SampleType) Bits() int {
	switch t {
	case Uint8, Int8:
		return 8
	case Uint16, Int16:
		return 16
	case Uint32, Int32, Float32:
		return 32
	case Float64:
		return 64
	}
	return 0
}

// Size returns the number of bytes per sample for the type.
func (t SampleType) Size() int { return t.Bits() / 8 }

// format returns the TIFF sample format code for the type.
func (t SampleType) format() int {
	switch t {
	case Int8, Int16, Int32:
		return sampleFormatInt
	case Float32, Float64:
		return sampleFormatFloat
	default:
		return sampleFormatUint
	}
}

// IsInteger reports whether the type holds integer samples.
func (t SampleType) IsInteger() bool {
	return t != Float32 && t != Float64
}

// ParseSampleType parses names like "uint8" or "float32".
func ParseSampleType(name string) (SampleType, error) {
	for t, s := range sampleTypeNames {
		if s == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnsupportedType, name)
}

func sampleTypeFor(format, bits int) (SampleType, error) {
	switch format {
	case sampleFormatUint:
		switch bits {
		case 8:
			return Uint8, nil
		case 16:
			return Uint16, nil
		case 32:
			return Uint32, nil
		}
	case sampleFormatInt:
		switch bits {
		case 8:
			return Int8, nil
		case 16:
			return Int16, nil
		case 32:
			return Int32, nil
		}
	case sampleFormatFloat:
		switch bits {
		case 32:
			return Float32, nil
		case 64:
			return Float64, nil
		}
	}
	return 0, fmt.Errorf("%w: format %d with %d bits", ErrUnsupportedType, format, bits)
}

// ErrNotTIFF is returned when the input lacks a valid TIFF header.
var ErrNotTIFF = errors.New("not a TIFF file")

// ErrUnsupportedType is returned for sample types the codec cannot
// represent.
var ErrUnsupportedType = errors.New("unsupported sample type")

// Info describes a GeoTIFF file without its pixel data.
type Info struct {
	// Width and Height are the raster dimensions in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Bands is the number of samples per pixel.
	Bands int `json:"bands"`

	// Type is the numeric type shared by all bands.
	Type SampleType `json:"-"`

	// Transform is the pixel-to-world affine (a, b, c, d, e, f):
	// x = a*col + b*row + c, y = d*col + e*row + f.
	Transform [6]float64 `json:"transform"`

	// EPSG is the coordinate reference system code, 0 if absent.
	EPSG int `json:"epsg"`

	// Nodata is the declared nodata value, nil if absent.
	Nodata *float64 `json:"nodata,omitempty"`

	// Compression is the TIFF compression scheme of the source file.
	Compression int `json:"compression"`
}

// Dataset is a fully decoded GeoTIFF: metadata plus band-major samples.
//
// Pixels holds one flat slice per band in row-major order. Samples equal to
// the declared nodata value are mapped to NaN during decoding.
type Dataset struct {
	Info
	Pixels [][]float64
}
