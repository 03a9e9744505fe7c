package render

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Colormap is a color ramp sampled at evenly spaced stops. Lookups
// blend between neighboring stops in Lab space, which keeps the ramp
// perceptually smooth.
type Colormap struct {
	name  string
	stops []colorful.Color
}

var colormapStops = map[string][]string{
	"gray":     {"#000000", "#ffffff"},
	"viridis":  {"#440154", "#3b528b", "#21918c", "#5ec962", "#fde725"},
	"magma":    {"#000004", "#3b0f70", "#8c2981", "#de4968", "#fe9f6d", "#fcfdbf"},
	"rdylgn":   {"#a50026", "#f46d43", "#fee08b", "#a6d96a", "#1a9850"},
	"spectral": {"#9e0142", "#f46d43", "#fee08b", "#66c2a5", "#5e4fa2"},
}

// ParseColormap looks up a ramp by name (case-insensitive).
func ParseColormap(name string) (*Colormap, error) {
	key := strings.ToLower(name)
	if key == "" {
		key = "viridis"
	}
	hexes, ok := colormapStops[key]
	if !ok {
		names := make([]string, 0, len(colormapStops))
		for n := range colormapStops {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("colormap %q is not available, use one of: %s", name, strings.Join(names, ", "))
	}

	stops := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("colormap %s stop %d: %w", key, i, err)
		}
		stops[i] = c
	}
	return &Colormap{name: key, stops: stops}, nil
}

// Name returns the ramp's name.
func (c *Colormap) Name() string { return c.name }

// At maps t in [0, 1] to a color; t outside the range is clamped.
func (c *Colormap) At(t float64) color.NRGBA {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	segments := len(c.stops) - 1
	pos := t * float64(segments)
	i := int(pos)
	if i >= segments {
		i = segments - 1
	}
	frac := pos - float64(i)

	blended := c.stops[i].BlendLab(c.stops[i+1], frac).Clamped()
	r, g, b := blended.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}
