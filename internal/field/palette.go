package field

import (
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// DefaultPalette is the fixed set of base colors particles are drawn from.
var DefaultPalette = []color.RGBA{
	{R: 0x00, G: 0xf5, B: 0xff, A: 0xff},
	{R: 0xff, G: 0x00, B: 0xc8, A: 0xff},
	{R: 0x7b, G: 0x2f, B: 0xff, A: 0xff},
	{R: 0x00, G: 0xff, B: 0x9f, A: 0xff},
	{R: 0xff, G: 0xe6, B: 0x00, A: 0xff},
}

// ShiftColor rotates the hue of c by shift degrees, keeping saturation,
// value and alpha.
func ShiftColor(c color.RGBA, shift float64) color.RGBA {
	if shift == 0 {
		return c
	}
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return c
	}
	h, s, v := cf.Hsv()
	h = math.Mod(h+shift, 360)
	if h < 0 {
		h += 360
	}
	r, g, b := colorful.Hsv(h, s, v).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: c.A}
}
