package raster

import (
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Lighting is accumulated in linear light. Lookup tables convert 8-bit sRGB
// to linear and 12-bit linear back to sRGB.
var (
	toLinear [256]float32
	toSRGB   [4096]uint8
)

func init() {
	for i := range toLinear {
		r, _, _ := colorful.Color{R: float64(i) / 255}.LinearRgb()
		toLinear[i] = float32(r)
	}
	for i := range toSRGB {
		c := colorful.LinearRgb(float64(i)/float64(len(toSRGB)-1), 0, 0)
		toSRGB[i] = uint8(math.Round(math.Min(math.Max(c.R, 0), 1) * 255))
	}
}

// rgb is a linear-light color.
type rgb struct {
	r, g, b float32
}

func linear(c color.NRGBA) rgb {
	return rgb{toLinear[c.R], toLinear[c.G], toLinear[c.B]}
}

func (c rgb) add(o rgb) rgb       { return rgb{c.r + o.r, c.g + o.g, c.b + o.b} }
func (c rgb) mul(o rgb) rgb       { return rgb{c.r * o.r, c.g * o.g, c.b * o.b} }
func (c rgb) scale(s float32) rgb { return rgb{c.r * s, c.g * s, c.b * s} }

// encode converts a linear channel to sRGB, clamping to [0, 1].
func encode(l float32) uint8 {
	if !(l > 0) {
		return 0
	}
	if l >= 1 {
		return 255
	}
	return toSRGB[int(l*float32(len(toSRGB)-1)+0.5)]
}
