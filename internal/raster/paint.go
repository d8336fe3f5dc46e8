package raster

import (
	"image/color"
	"math"

	"github.com/srwiley/rasterx"
)

// Paint supplies the color for each covered pixel.
type Paint interface {
	// shader returns a function of canvas pixel coordinates.
	shader() func(x, y int) color.Color
}

// Solid paints a single color.
type Solid struct {
	Color color.Color
}

func (s Solid) shader() func(x, y int) color.Color {
	c := s.Color
	if c == nil {
		c = color.Transparent
	}
	return func(int, int) color.Color { return c }
}

// Stop is a gradient color stop. Color is straight (non-premultiplied)
// and its alpha is ignored in favor of Opacity.
type Stop struct {
	Offset  float64
	Color   color.RGBA
	Opacity float64
}

// LinearGradient varies color along the segment (X1,Y1)-(X2,Y2) and pads
// beyond its ends.
type LinearGradient struct {
	X1, Y1, X2, Y2 float64
	Stops          []Stop
}

func (g LinearGradient) shader() func(x, y int) color.Color {
	if g.X1 == g.X2 && g.Y1 == g.Y2 {
		return lastStop(g.Stops)
	}
	rg := gradient(g.Stops)
	rg.Points = [5]float64{g.X1, g.Y1, g.X2, g.Y2, 0}
	return shaderOf(rg.GetColorFunction(1))
}

// RadialGradient varies color with distance from (CX, CY). R is the
// horizontal radius; ScaleY stretches it vertically (0 means 1).
type RadialGradient struct {
	CX, CY, R float64
	ScaleY    float64
	Stops     []Stop
}

func (g RadialGradient) shader() func(x, y int) color.Color {
	k := g.ScaleY
	if k <= 0 || math.IsNaN(k) {
		k = 1
	}
	if g.R <= 0 {
		return lastStop(g.Stops)
	}
	rg := gradient(g.Stops)
	rg.IsRadial = true
	// The matrix scales y, so the center is given pre-scale.
	rg.Matrix = rasterx.Identity.Scale(1, k)
	rg.Points = [5]float64{g.CX, g.CY / k, g.CX, g.CY / k, g.R}
	return shaderOf(rg.GetColorFunction(1))
}

func gradient(stops []Stop) *rasterx.Gradient {
	g := &rasterx.Gradient{
		Matrix: rasterx.Identity,
		Spread: rasterx.PadSpread,
		Units:  rasterx.UserSpaceOnUse,
	}
	g.Bounds.W, g.Bounds.H = 1, 1
	for _, s := range stops {
		c := s.Color
		c.A = 0xff
		g.Stops = append(g.Stops, rasterx.GradStop{
			StopColor: c,
			Offset:    s.Offset,
			Opacity:   clamp01(s.Opacity),
		})
	}
	return g
}

func lastStop(stops []Stop) func(x, y int) color.Color {
	if len(stops) == 0 {
		return Solid{}.shader()
	}
	s := stops[len(stops)-1]
	c := color.NRGBA{R: s.Color.R, G: s.Color.G, B: s.Color.B, A: uint8(clamp01(s.Opacity)*255 + 0.5)}
	return Solid{Color: c}.shader()
}

func shaderOf(v interface{}) func(x, y int) color.Color {
	switch f := v.(type) {
	case rasterx.ColorFunc:
		return f
	case color.Color:
		return func(int, int) color.Color { return f }
	}
	return Solid{}.shader()
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
