package geotiff

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"
)

// Options controls GeoTIFF encoding.
type Options struct {
	// Compression is one of CompressionNone or CompressionDeflate.
	// The zero value selects Deflate.
	Compression int
}

const targetStripBytes = 64 * 1024

// EncodeFile writes a dataset to disk as a GeoTIFF.
func EncodeFile(path string, d *Dataset, opts *Options) error {
	buf, err := Encode(d, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Encode serializes a dataset as a little-endian, chunky, strip-based
// GeoTIFF.
//
// In-memory NaN samples are materialized as the dataset's nodata value when
// one is set; integer types without a nodata value write NaN samples as 0.
func Encode(d *Dataset, opts *Options) ([]byte, error) {
	compression := CompressionDeflate
	if opts != nil && opts.Compression != 0 {
		compression = opts.Compression
	}
	switch compression {
	case CompressionNone, CompressionDeflate:
	case CompressionLZW:
		return nil, fmt.Errorf("lzw output is not supported, use %q or %q", "deflate", "none")
	default:
		return nil, fmt.Errorf("compression scheme %d is not supported for output", compression)
	}

	if d.Width <= 0 || d.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", d.Width, d.Height)
	}
	if len(d.Pixels) == 0 || len(d.Pixels) != d.Bands {
		return nil, fmt.Errorf("got %d pixel bands, metadata declares %d", len(d.Pixels), d.Bands)
	}
	for b, band := range d.Pixels {
		if len(band) != d.Width*d.Height {
			return nil, fmt.Errorf("band %d has %d samples, want %d", b+1, len(band), d.Width*d.Height)
		}
	}

	order := binary.LittleEndian
	size := d.Type.Size()
	rowBytes := d.Width * d.Bands * size
	rowsPerStrip := targetStripBytes / rowBytes
	if rowsPerStrip < 1 {
		rowsPerStrip = 1
	}
	if rowsPerStrip > d.Height {
		rowsPerStrip = d.Height
	}
	numStrips := (d.Height + rowsPerStrip - 1) / rowsPerStrip

	fill := math.NaN()
	if d.Nodata != nil {
		fill = *d.Nodata
	}
	if math.IsNaN(fill) && d.Type.IsInteger() {
		fill = 0
	}

	// Encode all strips first so their offsets and byte counts are known
	// before the IFD is laid out.
	strips := make([][]byte, numStrips)
	raw := make([]byte, 0, rowsPerStrip*rowBytes)
	for s := 0; s < numStrips; s++ {
		rowStart := s * rowsPerStrip
		rowEnd := rowStart + rowsPerStrip
		if rowEnd > d.Height {
			rowEnd = d.Height
		}
		raw = raw[:0]
		for row := rowStart; row < rowEnd; row++ {
			for col := 0; col < d.Width; col++ {
				for b := 0; b < d.Bands; b++ {
					v := d.Pixels[b][row*d.Width+col]
					if math.IsNaN(v) && !math.IsNaN(fill) {
						v = fill
					}
					raw = appendSample(raw, v, d.Type, order)
				}
			}
		}
		if compression == CompressionDeflate {
			var zbuf bytes.Buffer
			zw := zlib.NewWriter(&zbuf)
			if _, err := zw.Write(raw); err != nil {
				return nil, fmt.Errorf("deflate strip %d: %w", s, err)
			}
			if err := zw.Close(); err != nil {
				return nil, fmt.Errorf("deflate strip %d: %w", s, err)
			}
			strips[s] = append([]byte(nil), zbuf.Bytes()...)
		} else {
			strips[s] = append([]byte(nil), raw...)
		}
	}

	// Header + strip data, padded to even length, then the IFD.
	var w bytes.Buffer
	w.WriteString("II")
	writeU16(&w, order, 42)

	dataStart := 8
	stripOffsets := make([]int, numStrips)
	stripCounts := make([]int, numStrips)
	pos := dataStart
	for s, sd := range strips {
		stripOffsets[s] = pos
		stripCounts[s] = len(sd)
		pos += len(sd)
	}
	pad := pos % 2
	ifdOffset := pos + pad
	writeU32(&w, order, uint32(ifdOffset))
	for _, sd := range strips {
		w.Write(sd)
	}
	if pad == 1 {
		w.WriteByte(0)
	}

	entries := buildTags(d, compression, rowsPerStrip, stripOffsets, stripCounts)
	if err := writeIFD(&w, order, ifdOffset, entries); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func appendSample(buf []byte, v float64, t SampleType, order binary.ByteOrder) []byte {
	var scratch [8]byte
	switch t {
	case Uint8:
		return append(buf, uint8(clampRound(v, 0, math.MaxUint8)))
	case Int8:
		return append(buf, byte(int8(clampRound(v, math.MinInt8, math.MaxInt8))))
	case Uint16:
		order.PutUint16(scratch[:2], uint16(clampRound(v, 0, math.MaxUint16)))
		return append(buf, scratch[:2]...)
	case Int16:
		order.PutUint16(scratch[:2], uint16(int16(clampRound(v, math.MinInt16, math.MaxInt16))))
		return append(buf, scratch[:2]...)
	case Uint32:
		order.PutUint32(scratch[:4], uint32(clampRound(v, 0, math.MaxUint32)))
		return append(buf, scratch[:4]...)
	case Int32:
		order.PutUint32(scratch[:4], uint32(int32(clampRound(v, math.MinInt32, math.MaxInt32))))
		return append(buf, scratch[:4]...)
	case Float32:
		order.PutUint32(scratch[:4], math.Float32bits(float32(v)))
		return append(buf, scratch[:4]...)
	default:
		order.PutUint64(scratch[:8], math.Float64bits(v))
		return append(buf, scratch[:8]...)
	}
}

func clampRound(v, lo, hi float64) float64 {
	v = math.Round(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// tagValue is one IFD entry with its value still in native form.
type tagValue struct {
	id        int
	fieldType int
	ints      []int
	doubles   []float64
	ascii     string
}

func buildTags(d *Dataset, compression, rowsPerStrip int, stripOffsets, stripCounts []int) []tagValue {
	bits := make([]int, d.Bands)
	formats := make([]int, d.Bands)
	for i := range bits {
		bits[i] = d.Type.Bits()
		formats[i] = d.Type.format()
	}

	t := d.Transform
	tags := []tagValue{
		{id: tagImageWidth, fieldType: typeLong, ints: []int{d.Width}},
		{id: tagImageLength, fieldType: typeLong, ints: []int{d.Height}},
		{id: tagBitsPerSample, fieldType: typeShort, ints: bits},
		{id: tagCompression, fieldType: typeShort, ints: []int{compression}},
		{id: tagPhotometric, fieldType: typeShort, ints: []int{1}}, // BlackIsZero
		{id: tagStripOffsets, fieldType: typeLong, ints: stripOffsets},
		{id: tagSamplesPerPixel, fieldType: typeShort, ints: []int{d.Bands}},
		{id: tagRowsPerStrip, fieldType: typeLong, ints: []int{rowsPerStrip}},
		{id: tagStripByteCounts, fieldType: typeLong, ints: stripCounts},
		{id: tagPlanarConfig, fieldType: typeShort, ints: []int{1}},
		{id: tagSampleFormat, fieldType: typeShort, ints: formats},
		{id: tagModelPixelScale, fieldType: typeDouble, doubles: []float64{t[0], -t[4], 0}},
		{id: tagModelTiepoint, fieldType: typeDouble, doubles: []float64{0, 0, 0, t[2], t[5], 0}},
	}

	if d.EPSG != 0 {
		tags = append(tags, tagValue{id: tagGeoKeyDirectory, fieldType: typeShort, ints: geoKeyDirectory(d.EPSG)})
	}
	if d.Nodata != nil {
		s := strconv.FormatFloat(*d.Nodata, 'g', -1, 64)
		if math.IsNaN(*d.Nodata) {
			s = "nan"
		}
		tags = append(tags, tagValue{id: tagGDALNodata, fieldType: typeASCII, ascii: s + "\x00"})
	}
	return tags
}

// geoKeyDirectory builds a minimal GeoKey set declaring the EPSG code.
// Codes in the 4000 range are geographic systems, everything else projected.
func geoKeyDirectory(epsg int) []int {
	modelType := modelTypeProjected
	csKey := geoKeyProjectedCS
	if epsg >= 4000 && epsg < 5000 {
		modelType = modelTypeGeographic
		csKey = geoKeyGeographicType
	}
	return []int{
		1, 1, 0, 3, // version, revision, minor, key count
		geoKeyModelType, 0, 1, modelType,
		geoKeyRasterType, 0, 1, 1, // PixelIsArea
		csKey, 0, 1, epsg,
	}
}

func writeIFD(w *bytes.Buffer, order binary.ByteOrder, ifdOffset int, tags []tagValue) error {
	type encoded struct {
		tagValue
		raw []byte
	}
	encodedTags := make([]encoded, len(tags))
	for i, tv := range tags {
		var raw []byte
		switch tv.fieldType {
		case typeShort:
			for _, v := range tv.ints {
				if v < 0 || v > math.MaxUint16 {
					return fmt.Errorf("tag %d: value %d does not fit SHORT", tv.id, v)
				}
				raw = appendU16(raw, order, uint16(v))
			}
		case typeLong:
			for _, v := range tv.ints {
				raw = appendU32(raw, order, uint32(v))
			}
		case typeDouble:
			for _, v := range tv.doubles {
				var b [8]byte
				order.PutUint64(b[:], math.Float64bits(v))
				raw = append(raw, b[:]...)
			}
		case typeASCII:
			raw = []byte(tv.ascii)
		default:
			return fmt.Errorf("tag %d: unsupported field type %d", tv.id, tv.fieldType)
		}
		encodedTags[i] = encoded{tagValue: tv, raw: raw}
	}

	writeU16(w, order, uint16(len(encodedTags)))
	// Out-of-line values start right after the entry table and next-IFD pointer.
	external := ifdOffset + 2 + len(encodedTags)*12 + 4
	var overflow []byte
	for _, et := range encodedTags {
		count := len(et.ints)
		if et.fieldType == typeDouble {
			count = len(et.doubles)
		}
		if et.fieldType == typeASCII {
			count = len(et.raw)
		}
		writeU16(w, order, uint16(et.id))
		writeU16(w, order, uint16(et.fieldType))
		writeU32(w, order, uint32(count))
		if len(et.raw) <= 4 {
			var inline [4]byte
			copy(inline[:], et.raw)
			w.Write(inline[:])
		} else {
			writeU32(w, order, uint32(external+len(overflow)))
			overflow = append(overflow, et.raw...)
			if len(overflow)%2 == 1 {
				overflow = append(overflow, 0)
			}
		}
	}
	writeU32(w, order, 0) // no next IFD
	w.Write(overflow)
	return nil
}

func writeU16(w *bytes.Buffer, order binary.ByteOrder, v uint16) {
	var b [2]byte
	order.PutUint16(b[:], v)
	w.Write(b[:])
}

func writeU32(w *bytes.Buffer, order binary.ByteOrder, v uint32) {
	var b [4]byte
	order.PutUint32(b[:], v)
	w.Write(b[:])
}

func appendU16(buf []byte, order binary.ByteOrder, v uint16) []byte {
	var b [2]byte
	order.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func appendU32(buf []byte, order binary.ByteOrder, v uint32) []byte {
	var b [4]byte
	order.PutUint32(b[:], v)
	return append(buf, b[:]...)
}
