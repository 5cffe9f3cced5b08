// Package colorutil provides shared color utilities for board image processing.
package colorutil

import (
	"image/color"
	"math"
)

// Mask rendering colors. Conductor pixels are drawn white on black.
var (
	Conductor  = color.Gray{Y: 255}
	Background = color.Gray{Y: 0}
)

// HSV is a color in OpenCV's 8-bit HSV convention: H 0-180, S 0-255, V 0-255.
type HSV struct {
	H float64 `json:"h" yaml:"h"`
	S float64 `json:"s" yaml:"s"`
	V float64 `json:"v" yaml:"v"`
}

// RGBToHSV converts RGB (0-255) to HSV (OpenCV convention: H 0-180, S 0-255, V 0-255).
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	r /= 255.0
	g /= 255.0
	b /= 255.0

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	diff := maxC - minC

	v = maxC * 255.0

	if maxC == 0 {
		s = 0
	} else {
		s = (diff / maxC) * 255.0
	}

	switch {
	case diff == 0:
		h = 0
	case maxC == r:
		h = 60 * math.Mod((g-b)/diff, 6)
	case maxC == g:
		h = 60 * ((b-r)/diff + 2)
	default:
		h = 60 * ((r-g)/diff + 4)
	}
	if h < 0 {
		h += 360
	}

	return h / 2, s, v
}

// ToHSV converts an 8-bit RGB triple to HSV.
func ToHSV(rgb [3]uint8) HSV {
	h, s, v := RGBToHSV(float64(rgb[0]), float64(rgb[1]), float64(rgb[2]))
	return HSV{H: h, S: s, V: v}
}

// Clamp limits each channel to its valid OpenCV range.
func (c HSV) Clamp() HSV {
	return HSV{
		H: math.Max(0, math.Min(180, c.H)),
		S: math.Max(0, math.Min(255, c.S)),
		V: math.Max(0, math.Min(255, c.V)),
	}
}

// Within reports whether c lies inside the inclusive box [lower, upper] on all channels.
func (c HSV) Within(lower, upper HSV) bool {
	return c.H >= lower.H && c.H <= upper.H &&
		c.S >= lower.S && c.S <= upper.S &&
		c.V >= lower.V && c.V <= upper.V
}
