package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"sort"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"

	"github.com/geonate/geonate/internal/raster"
)

// Options control the post-processing applied to a quicklook.
type Options struct {
	// Width resizes the output to this pixel width, keeping the aspect
	// ratio. Zero keeps the raster's native size.
	Width int

	// BlurRadius applies a Gaussian blur after rendering; zero skips it.
	BlurRadius float64

	// Sharpen applies a sharpening kernel after rendering.
	Sharpen bool

	// StretchLow and StretchHigh are the contrast-stretch percentiles.
	// Both zero means the default 2-98 stretch.
	StretchLow  float64
	StretchHigh float64
}

func (o *Options) percentiles() (float64, float64) {
	if o == nil || (o.StretchLow == 0 && o.StretchHigh == 0) {
		return 2, 98
	}
	return o.StretchLow, o.StretchHigh
}

// Result contains a rendered quicklook.
type Result struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Bands       []int  `json:"bands"`
	Colormap    string `json:"colormap,omitempty"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Single renders one band through a colormap. Cell values are stretched
// between the low and high percentiles of the band's valid samples, and
// nodata cells come out fully transparent.
func Single(r *raster.Raster, band int, cmap *Colormap, opts *Options) (*Result, error) {
	src, err := r.Band(band)
	if err != nil {
		return nil, err
	}
	if cmap == nil {
		if cmap, err = ParseColormap(""); err != nil {
			return nil, err
		}
	}

	lowP, highP := opts.percentiles()
	low, high, err := percentileRange(src, lowP, highP)
	if err != nil {
		return nil, fmt.Errorf("band %d: %w", band, err)
	}

	m := r.Meta()
	img := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range src {
		if math.IsNaN(v) {
			continue // transparent
		}
		t := 0.5
		if high > low {
			t = (v - low) / (high - low)
		}
		c := cmap.At(t)
		o := i * 4
		img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = c.R, c.G, c.B, c.A
	}

	out := postProcess(img, opts)
	return encodeResult(out, []int{band}, cmap.Name())
}

// Composite renders three bands as an RGB image with a per-band
// percentile stretch. The raster must have at least three bands; a cell
// that is nodata in any of the chosen bands is transparent.
func Composite(r *raster.Raster, bands [3]int, opts *Options) (*Result, error) {
	if r.Count() < 3 {
		return nil, fmt.Errorf("composite needs at least 3 bands, raster has %d", r.Count())
	}

	lowP, highP := opts.percentiles()
	m := r.Meta()
	channels := make([][]float64, 3)
	lows := make([]float64, 3)
	highs := make([]float64, 3)
	for i, b := range bands {
		src, err := r.Band(b)
		if err != nil {
			return nil, err
		}
		low, high, err := percentileRange(src, lowP, highP)
		if err != nil {
			return nil, fmt.Errorf("band %d: %w", b, err)
		}
		channels[i], lows[i], highs[i] = src, low, high
	}

	img := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for i := 0; i < m.Width*m.Height; i++ {
		var rgb [3]uint8
		valid := true
		for ch := 0; ch < 3; ch++ {
			v := channels[ch][i]
			if math.IsNaN(v) {
				valid = false
				break
			}
			t := 0.5
			if highs[ch] > lows[ch] {
				t = (v - lows[ch]) / (highs[ch] - lows[ch])
			}
			if t < 0 {
				t = 0
			} else if t > 1 {
				t = 1
			}
			rgb[ch] = uint8(math.Round(t * 255))
		}
		if !valid {
			continue
		}
		o := i * 4
		img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = rgb[0], rgb[1], rgb[2], 255
	}

	out := postProcess(img, opts)
	return encodeResult(out, bands[:], "")
}

// WritePNG decodes a result's PNG payload back to disk.
func (res *Result) WritePNG(path string) error {
	raw, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		return fmt.Errorf("failed to decode image payload: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func postProcess(img image.Image, opts *Options) image.Image {
	if opts == nil {
		return img
	}
	out := img
	if opts.BlurRadius > 0 {
		out = blur.Gaussian(out, opts.BlurRadius)
	}
	if opts.Sharpen {
		out = effect.Sharpen(out)
	}
	if opts.Width > 0 && opts.Width != out.Bounds().Dx() {
		out = imaging.Resize(out, opts.Width, 0, imaging.Lanczos)
	}
	return out
}

func encodeResult(img image.Image, bands []int, cmap string) (*Result, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	b := img.Bounds()
	return &Result{
		Width:       b.Dx(),
		Height:      b.Dy(),
		Bands:       bands,
		Colormap:    cmap,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// percentileRange returns the low and high percentile values of the
// valid samples in a band.
func percentileRange(samples []float64, low, high float64) (float64, float64, error) {
	valid := make([]float64, 0, len(samples))
	for _, v := range samples {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return 0, 0, fmt.Errorf("no valid samples to stretch")
	}
	sort.Float64s(valid)
	return valid[percentileIndex(len(valid), low)], valid[percentileIndex(len(valid), high)], nil
}

func percentileIndex(n int, p float64) int {
	i := int(math.Round(p / 100 * float64(n-1)))
	if i < 0 {
		i = 0
	} else if i >= n {
		i = n - 1
	}
	return i
}
