// Package colorutil provides shared color utilities for the lighting renderers.
package colorutil

import (
	"image/color"
	"math"
)

// Common overlay colors used throughout the application.
var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Cyan   = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// Kelvin range accepted by KelvinToRGB. Values outside are clamped.
const (
	MinKelvin = 1000.0
	MaxKelvin = 40000.0
)

// KelvinToRGB converts a color temperature to an RGB triple using the
// Tanner Helland black-body fit. Every channel is clamped to 0-255.
func KelvinToRGB(kelvin float64) color.RGBA {
	if math.IsNaN(kelvin) {
		kelvin = 2700
	}
	temp := clamp(kelvin, MinKelvin, MaxKelvin) / 100

	var r, g, b float64

	if temp <= 66 {
		r = 255
		g = 99.4708025861*math.Log(temp) - 161.1195681661
	} else {
		r = 329.698727446 * math.Pow(temp-60, -0.1332047592)
		g = 288.1221695283 * math.Pow(temp-60, -0.0755148492)
	}

	switch {
	case temp >= 66:
		b = 255
	case temp <= 19:
		b = 0
	default:
		b = 138.5177312231*math.Log(temp-10) - 305.0447927307
	}

	return color.RGBA{
		R: uint8(math.Round(clamp(r, 0, 255))),
		G: uint8(math.Round(clamp(g, 0, 255))),
		B: uint8(math.Round(clamp(b, 0, 255))),
		A: 255,
	}
}

// HSVToRGB converts hue (0-360), saturation and value (0-1) to an opaque RGBA color.
func HSVToRGB(h, s, v float64) color.RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s = clamp(s, 0, 1)
	v = clamp(v, 0, 1)

	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return color.RGBA{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
		A: 255,
	}
}

// Scale multiplies the RGB channels of c by f, keeping alpha.
func Scale(c color.RGBA, f float64) color.RGBA {
	return color.RGBA{
		R: uint8(clamp(float64(c.R)*f, 0, 255)),
		G: uint8(clamp(float64(c.G)*f, 0, 255)),
		B: uint8(clamp(float64(c.B)*f, 0, 255)),
		A: c.A,
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
