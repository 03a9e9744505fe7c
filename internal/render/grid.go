package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"

	"github.com/geonate/geonate/internal/raster"
)

// GridOverlay draws a coordinate grid over a rendered quicklook. Lines
// are spaced every spacing output pixels; with showCoordinates each
// intersection is labeled with its world coordinates, derived from the
// raster's geotransform and scaled to the quicklook's size.
func GridOverlay(res *Result, m raster.Meta, spacing int, showCoordinates bool, gridColorHex string) (*Result, error) {
	if spacing < 1 {
		return nil, fmt.Errorf("grid spacing must be positive, got %d", spacing)
	}
	raw, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	src, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	gridColor, err := parseHexColor(gridColorHex)
	if err != nil {
		gridColor = color.NRGBA{R: 255, A: 128} // semi-transparent red
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := image.NewNRGBA(bounds)
	draw.Draw(out, bounds, src, bounds.Min, draw.Src)

	for x := spacing; x < width; x += spacing {
		for y := 0; y < height; y++ {
			out.Set(x, y, gridColor)
		}
	}
	for y := spacing; y < height; y += spacing {
		for x := 0; x < width; x++ {
			out.Set(x, y, gridColor)
		}
	}

	if showCoordinates {
		// Output pixel -> source pixel, for quicklooks that were resized.
		scaleX := float64(m.Width) / float64(width)
		scaleY := float64(m.Height) / float64(height)
		fg := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
		bg := color.NRGBA{A: 180}

		for y := spacing; y < height; y += spacing {
			for x := spacing; x < width; x += spacing {
				wx, wy := m.Transform.World(float64(x)*scaleX, float64(y)*scaleY)
				label := fmt.Sprintf("%.5g,%.5g", wx, wy)
				drawLabel(out, x+2, y+2, label, fg, bg)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	overlaid := *res
	overlaid.ImageBase64 = base64.StdEncoding.EncodeToString(buf.Bytes())
	return &overlaid, nil
}

// parseHexColor parses "#RRGGBB" or "#RRGGBBAA".
func parseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}

// drawLabel renders text with a tiny built-in pixel font, enough for
// numeric coordinate labels.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		',': {"000", "000", "000", "010", "010"},
		'-': {"000", "000", "111", "000", "000"},
		'.': {"000", "000", "000", "000", "010"},
		'e': {"000", "111", "111", "100", "111"},
		'+': {"000", "010", "111", "010", "000"},
	}

	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			px, py := x+dx, y+dy
			if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
				img.Set(px, py, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					px, py := cx+col, y+row
					if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
						img.Set(px, py, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}
