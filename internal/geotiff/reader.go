package geotiff

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/image/tiff/lzw"
)

// ifdEntry is one parsed directory entry.
type ifdEntry struct {
	fieldType int
	count     int
	// raw holds the value bytes, already dereferenced if stored at an offset.
	raw []byte
}

type reader struct {
	buf   []byte
	order binary.ByteOrder
	tags  map[int]ifdEntry
}

// DecodeFile reads and decodes a GeoTIFF from disk.
func DecodeFile(path string) (*Dataset, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	d, err := Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// DecodeInfoFile reads only the metadata of a GeoTIFF from disk.
func DecodeInfoFile(path string) (*Info, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	r, err := newReader(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	info, err := r.info()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return info, nil
}

// Decode decodes a GeoTIFF from a byte slice.
func Decode(buf []byte) (*Dataset, error) {
	r, err := newReader(buf)
	if err != nil {
		return nil, err
	}
	info, err := r.info()
	if err != nil {
		return nil, err
	}
	pixels, err := r.pixels(info)
	if err != nil {
		return nil, err
	}
	return &Dataset{Info: *info, Pixels: pixels}, nil
}

func newReader(buf []byte) (*reader, error) {
	if len(buf) < 8 {
		return nil, ErrNotTIFF
	}
	var order binary.ByteOrder
	switch string(buf[0:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, ErrNotTIFF
	}
	switch order.Uint16(buf[2:4]) {
	case 42:
	case 43:
		return nil, fmt.Errorf("BigTIFF is not supported")
	default:
		return nil, ErrNotTIFF
	}

	r := &reader{buf: buf, order: order, tags: make(map[int]ifdEntry)}
	ifdOffset := int(order.Uint32(buf[4:8]))
	if err := r.parseIFD(ifdOffset); err != nil {
		return nil, err
	}
	return r, nil
}

var fieldTypeSize = map[int]int{
	typeByte:     1,
	typeASCII:    1,
	typeShort:    2,
	typeLong:     4,
	typeRational: 8,
	typeSByte:    1,
	typeSShort:   2,
	typeSLong:    4,
	typeFloat:    4,
	typeDouble:   8,
}

func (r *reader) parseIFD(offset int) error {
	if offset < 0 || offset+2 > len(r.buf) {
		return fmt.Errorf("IFD offset %d out of range", offset)
	}
	n := int(r.order.Uint16(r.buf[offset : offset+2]))
	pos := offset + 2
	if pos+n*12+4 > len(r.buf) {
		return fmt.Errorf("truncated IFD at offset %d", offset)
	}
	for i := 0; i < n; i++ {
		e := r.buf[pos+i*12 : pos+(i+1)*12]
		tag := int(r.order.Uint16(e[0:2]))
		fieldType := int(r.order.Uint16(e[2:4]))
		count := int(r.order.Uint32(e[4:8]))

		size, ok := fieldTypeSize[fieldType]
		if !ok {
			// Unknown field type; skip the tag, per spec.
			continue
		}
		byteLen := size * count
		var raw []byte
		if byteLen <= 4 {
			raw = e[8 : 8+byteLen]
		} else {
			valOffset := int(r.order.Uint32(e[8:12]))
			if valOffset+byteLen > len(r.buf) {
				return fmt.Errorf("tag %d: value offset %d out of range", tag, valOffset)
			}
			raw = r.buf[valOffset : valOffset+byteLen]
		}
		r.tags[tag] = ifdEntry{fieldType: fieldType, count: count, raw: raw}
	}
	return nil
}

// intValues returns a tag's values widened to int.
func (r *reader) intValues(tag int) ([]int, bool) {
	e, ok := r.tags[tag]
	if !ok {
		return nil, false
	}
	out := make([]int, e.count)
	for i := 0; i < e.count; i++ {
		switch e.fieldType {
		case typeByte:
			out[i] = int(e.raw[i])
		case typeShort:
			out[i] = int(r.order.Uint16(e.raw[i*2 : i*2+2]))
		case typeLong:
			out[i] = int(r.order.Uint32(e.raw[i*4 : i*4+4]))
		case typeSShort:
			out[i] = int(int16(r.order.Uint16(e.raw[i*2 : i*2+2])))
		case typeSLong:
			out[i] = int(int32(r.order.Uint32(e.raw[i*4 : i*4+4])))
		default:
			return nil, false
		}
	}
	return out, true
}

func (r *reader) intValue(tag, fallback int) int {
	if v, ok := r.intValues(tag); ok && len(v) > 0 {
		return v[0]
	}
	return fallback
}

func (r *reader) doubleValues(tag int) ([]float64, bool) {
	e, ok := r.tags[tag]
	if !ok || e.fieldType != typeDouble {
		return nil, false
	}
	out := make([]float64, e.count)
	for i := 0; i < e.count; i++ {
		out[i] = math.Float64frombits(r.order.Uint64(e.raw[i*8 : i*8+8]))
	}
	return out, true
}

func (r *reader) asciiValue(tag int) (string, bool) {
	e, ok := r.tags[tag]
	if !ok || e.fieldType != typeASCII {
		return "", false
	}
	return strings.TrimRight(string(e.raw), "\x00"), true
}

func (r *reader) info() (*Info, error) {
	if _, tiled := r.tags[tagTileWidth]; tiled {
		return nil, fmt.Errorf("tiled TIFF layout is not supported")
	}

	width := r.intValue(tagImageWidth, 0)
	height := r.intValue(tagImageLength, 0)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	bands := r.intValue(tagSamplesPerPixel, 1)

	bits, ok := r.intValues(tagBitsPerSample)
	if !ok {
		bits = []int{8}
	}
	formats, ok := r.intValues(tagSampleFormat)
	if !ok {
		formats = []int{sampleFormatUint}
	}
	for i := 1; i < len(bits); i++ {
		if bits[i] != bits[0] {
			return nil, fmt.Errorf("mixed bits per sample %v is not supported", bits)
		}
	}
	for i := 1; i < len(formats); i++ {
		if formats[i] != formats[0] {
			return nil, fmt.Errorf("mixed sample formats %v is not supported", formats)
		}
	}
	st, err := sampleTypeFor(formats[0], bits[0])
	if err != nil {
		return nil, err
	}

	info := &Info{
		Width:       width,
		Height:      height,
		Bands:       bands,
		Type:        st,
		Compression: r.intValue(tagCompression, CompressionNone),
	}

	info.Transform = r.transform()
	info.EPSG = r.epsg()

	if s, ok := r.asciiValue(tagGDALNodata); ok {
		s = strings.TrimSpace(s)
		if strings.EqualFold(s, "nan") {
			nan := math.NaN()
			info.Nodata = &nan
		} else if v, err := strconv.ParseFloat(s, 64); err == nil {
			info.Nodata = &v
		}
	}
	return info, nil
}

// transform assembles the pixel-to-world affine from either the pixel
// scale + tiepoint pair or the full model transformation matrix.
func (r *reader) transform() [6]float64 {
	if m, ok := r.doubleValues(tagModelTransformation); ok && len(m) == 16 {
		return [6]float64{m[0], m[1], m[3], m[4], m[5], m[7]}
	}
	scale, okScale := r.doubleValues(tagModelPixelScale)
	tie, okTie := r.doubleValues(tagModelTiepoint)
	if okScale && okTie && len(scale) >= 2 && len(tie) >= 6 {
		// Tiepoint: raster (i,j,k) maps to world (x,y,z).
		i, j := tie[0], tie[1]
		x, y := tie[3], tie[4]
		return [6]float64{scale[0], 0, x - i*scale[0], 0, -scale[1], y + j*scale[1]}
	}
	// Identity pixel grid when georeferencing is absent.
	return [6]float64{1, 0, 0, 0, -1, 0}
}

func (r *reader) epsg() int {
	keys, ok := r.intValues(tagGeoKeyDirectory)
	if !ok || len(keys) < 4 {
		return 0
	}
	numKeys := keys[3]
	var geographic, projected int
	for k := 0; k < numKeys; k++ {
		base := 4 + k*4
		if base+3 >= len(keys) {
			break
		}
		id, location, value := keys[base], keys[base+1], keys[base+3]
		if location != 0 {
			continue // value stored in another tag, not a plain code
		}
		switch id {
		case geoKeyGeographicType:
			geographic = value
		case geoKeyProjectedCS:
			projected = value
		}
	}
	if projected != 0 {
		return projected
	}
	return geographic
}

func (r *reader) pixels(info *Info) ([][]float64, error) {
	offsets, ok := r.intValues(tagStripOffsets)
	if !ok {
		return nil, fmt.Errorf("missing strip offsets")
	}
	counts, ok := r.intValues(tagStripByteCounts)
	if !ok {
		return nil, fmt.Errorf("missing strip byte counts")
	}
	if len(offsets) != len(counts) {
		return nil, fmt.Errorf("strip offsets/counts length mismatch: %d vs %d", len(offsets), len(counts))
	}

	rowsPerStrip := r.intValue(tagRowsPerStrip, info.Height)
	if rowsPerStrip <= 0 {
		rowsPerStrip = info.Height
	}
	stripsPerBand := (info.Height + rowsPerStrip - 1) / rowsPerStrip
	planar := r.intValue(tagPlanarConfig, 1)
	predictor := r.intValue(tagPredictor, 1)
	if predictor != 1 && predictor != 2 {
		return nil, fmt.Errorf("predictor %d is not supported", predictor)
	}
	if predictor == 2 && !info.Type.IsInteger() {
		return nil, fmt.Errorf("horizontal predictor on %s samples is not supported", info.Type)
	}

	wantStrips := stripsPerBand
	samplesPerRow := info.Width * info.Bands
	if planar == 2 {
		wantStrips = stripsPerBand * info.Bands
		samplesPerRow = info.Width
	}
	if len(offsets) < wantStrips {
		return nil, fmt.Errorf("expected %d strips, found %d", wantStrips, len(offsets))
	}

	pixels := make([][]float64, info.Bands)
	for b := range pixels {
		pixels[b] = make([]float64, info.Width*info.Height)
	}

	size := info.Type.Size()
	for s := 0; s < wantStrips; s++ {
		data, err := r.stripData(offsets[s], counts[s], info.Compression)
		if err != nil {
			return nil, fmt.Errorf("strip %d: %w", s, err)
		}

		band := 0
		stripInBand := s
		if planar == 2 {
			band = s / stripsPerBand
			stripInBand = s % stripsPerBand
		}
		rowStart := stripInBand * rowsPerStrip
		rowEnd := rowStart + rowsPerStrip
		if rowEnd > info.Height {
			rowEnd = info.Height
		}
		rowBytes := samplesPerRow * size
		if len(data) < (rowEnd-rowStart)*rowBytes {
			return nil, fmt.Errorf("strip %d: got %d bytes, want %d", s, len(data), (rowEnd-rowStart)*rowBytes)
		}

		for row := rowStart; row < rowEnd; row++ {
			line := data[(row-rowStart)*rowBytes : (row-rowStart+1)*rowBytes]
			if predictor == 2 {
				undoHorizontalPredictor(line, size, info.Bands, planar, r.order)
			}
			for i := 0; i < samplesPerRow; i++ {
				v := r.sample(line[i*size:(i+1)*size], info.Type)
				if planar == 2 {
					pixels[band][row*info.Width+i] = v
				} else {
					pixels[i%info.Bands][row*info.Width+i/info.Bands] = v
				}
			}
		}
	}

	if info.Nodata != nil && !math.IsNaN(*info.Nodata) {
		nd := *info.Nodata
		for _, band := range pixels {
			for i, v := range band {
				if v == nd {
					band[i] = math.NaN()
				}
			}
		}
	}
	return pixels, nil
}

func (r *reader) stripData(offset, count, compression int) ([]byte, error) {
	if offset < 0 || offset+count > len(r.buf) {
		return nil, fmt.Errorf("data range [%d,%d) out of file bounds", offset, offset+count)
	}
	raw := r.buf[offset : offset+count]
	switch compression {
	case CompressionNone:
		return raw, nil
	case CompressionLZW:
		rc := lzw.NewReader(bytes.NewReader(raw), lzw.MSB, 8)
		defer rc.Close()
		return io.ReadAll(rc)
	case CompressionDeflate, CompressionOldDeflate:
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return nil, fmt.Errorf("compression scheme %d is not supported", compression)
	}
}

func (r *reader) sample(b []byte, t SampleType) float64 {
	switch t {
	case Uint8:
		return float64(b[0])
	case Int8:
		return float64(int8(b[0]))
	case Uint16:
		return float64(r.order.Uint16(b))
	case Int16:
		return float64(int16(r.order.Uint16(b)))
	case Uint32:
		return float64(r.order.Uint32(b))
	case Int32:
		return float64(int32(r.order.Uint32(b)))
	case Float32:
		return float64(math.Float32frombits(r.order.Uint32(b)))
	case Float64:
		return math.Float64frombits(r.order.Uint64(b))
	}
	return math.NaN()
}

// undoHorizontalPredictor reverses TIFF predictor 2 in place for one row.
func undoHorizontalPredictor(line []byte, size, bands, planar int, order binary.ByteOrder) {
	stride := 1
	if planar == 1 {
		stride = bands
	}
	n := len(line) / size
	for i := stride; i < n; i++ {
		prev := line[(i-stride)*size : (i-stride+1)*size]
		cur := line[i*size : (i+1)*size]
		switch size {
		case 1:
			cur[0] += prev[0]
		case 2:
			order.PutUint16(cur, order.Uint16(cur)+order.Uint16(prev))
		case 4:
			order.PutUint32(cur, order.Uint32(cur)+order.Uint32(prev))
		}
	}
}
