package lighting

import (
	"image/color"
	"math"

	"lightplan/internal/fixture"
	limage "lightplan/internal/image"
	"lightplan/internal/raster"
	"lightplan/pkg/colorutil"
	"lightplan/pkg/geometry"
)

// Shape proportions shared by every glow.
const (
	coneNeckFraction   = 0.15 // cone width at the fixture, relative to its top
	spreadNeckFraction = 0.45
	poolFlatten        = 0.35 // vertical squash of ground pools
	coreRadiusFraction = 0.012
	minCoreRadius      = 3.0
)

// PaintGlow draws the light of one fixture onto s with screen blending.
// w and h are the image size in pixels; opacity scales every layer.
func PaintGlow(s raster.Surface, f fixture.Fixture, w, h int, opacity float64) {
	if w <= 0 || h <= 0 || opacity <= 0 {
		return
	}
	f = f.Normalize()
	if f.Intensity <= 0 {
		return
	}
	g := fixture.PresetFor(f.Category).Glow
	light := colorutil.KelvinToRGB(f.ColorTemperature)
	pos := geometry.PercentToPixels(f.Position(), w, h)
	alpha := f.Intensity * opacity

	switch g.Direction {
	case fixture.DirectionOmni:
		paintPool(s, f, g, pos, light, alpha, w, h)
	case fixture.DirectionSpread:
		paintCone(s, f, g, pos, light, alpha, w, h, spreadNeckFraction)
		paintPool(s, f, g, pos, light, alpha*0.5, w, h)
	default:
		paintCone(s, f, g, pos, light, alpha, w, h, coneNeckFraction)
	}
	paintCore(s, g, pos, light, alpha, w, h)
}

// beamWidth scales the preset width by the fixture's beam angle relative to
// the category default.
func beamWidth(f fixture.Fixture, g fixture.GlowConfig, w int) float64 {
	base := g.BaseWidth * float64(w)
	def := fixture.PresetFor(f.Category).BeamAngle
	if def <= 0 || f.BeamAngle <= 0 {
		return base
	}
	return base * geometry.Clamp(f.BeamAngle/def, 0.3, 3)
}

// beamScale returns the fixture's length multiplier, 1 when unusable.
func beamScale(f fixture.Fixture) float64 {
	k := f.BeamLengthScale()
	if k <= 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return 1
	}
	return k
}

func layerCount(g fixture.GlowConfig) int {
	if g.Layers < 1 {
		return 1
	}
	return g.Layers
}

// layerAlpha gives inner layers more opacity than outer ones.
func layerAlpha(g fixture.GlowConfig, i, n int, alpha float64) float64 {
	inner := float64(i+1) / float64(n)
	return alpha * (0.12 + 0.4*g.Falloff*inner) / math.Sqrt(float64(n))
}

// paintCone draws nested trapezoids from the fixture toward its beam
// direction, each fading out along its length.
func paintCone(s raster.Surface, f fixture.Fixture, g fixture.GlowConfig, pos geometry.Point2D, light color.RGBA, alpha float64, w, h int, neck float64) {
	length := g.BaseHeight * float64(h) * beamScale(f)
	top := beamWidth(f, g, w)
	if length <= 0 || top <= 0 {
		return
	}
	rot := geometry.RotationAround(pos, f.BeamDirection())
	n := layerCount(g)

	for i := 0; i < n; i++ {
		frac := 1 - float64(i)/float64(n)
		l := length * (0.55 + 0.45*frac)
		half := top * frac / 2
		neckHalf := math.Max(half*neck, 1)

		// Local frame: fixture at pos, beam pointing toward -y.
		pts := []geometry.Point2D{
			{X: pos.X - neckHalf, Y: pos.Y},
			{X: pos.X - half, Y: pos.Y - l},
			{X: pos.X, Y: pos.Y - l - half*0.35},
			{X: pos.X + half, Y: pos.Y - l},
			{X: pos.X + neckHalf, Y: pos.Y},
		}
		for j := range pts {
			pts[j] = rot.Apply(pts[j])
		}
		p := raster.NewPath().
			MoveTo(pts[0].X, pts[0].Y).
			LineTo(pts[1].X, pts[1].Y).
			QuadTo(pts[2].X, pts[2].Y, pts[3].X, pts[3].Y).
			LineTo(pts[4].X, pts[4].Y).
			Close()

		end := rot.Apply(geometry.Point2D{X: pos.X, Y: pos.Y - l})
		a := layerAlpha(g, i, n, alpha)
		paint := raster.LinearGradient{
			X1: pos.X, Y1: pos.Y, X2: end.X, Y2: end.Y,
			Stops: []raster.Stop{
				{Offset: 0, Color: light, Opacity: a},
				{Offset: 0.6, Color: light, Opacity: a * 0.55},
				{Offset: 1, Color: light, Opacity: 0},
			},
		}
		s.Fill(p, paint, limage.BlendScreen)
	}
}

// paintPool draws nested flattened ellipses centered on the fixture.
func paintPool(s raster.Surface, f fixture.Fixture, g fixture.GlowConfig, pos geometry.Point2D, light color.RGBA, alpha float64, w, h int) {
	radius := beamWidth(f, g, w) / 2 * beamScale(f)
	if radius <= 0 {
		return
	}
	n := layerCount(g)
	for i := 0; i < n; i++ {
		r := radius * (1 - float64(i)/float64(n+1))
		a := layerAlpha(g, i, n, alpha)
		p := raster.NewPath().Ellipse(pos.X, pos.Y, r, r*poolFlatten, 0)
		s.Fill(p, raster.RadialGradient{
			CX: pos.X, CY: pos.Y, R: r, ScaleY: poolFlatten,
			Stops: []raster.Stop{
				{Offset: 0, Color: light, Opacity: a},
				{Offset: 1, Color: light, Opacity: 0},
			},
		}, limage.BlendScreen)
	}

	// A faint vertical halo lifts short fixtures off the ground.
	if halo := g.BaseHeight * float64(h); halo > 0 {
		p := raster.NewPath().Ellipse(pos.X, pos.Y-halo/2, halo/2, halo, 0)
		s.Fill(p, raster.RadialGradient{
			CX: pos.X, CY: pos.Y - halo/2, R: halo / 2, ScaleY: 2,
			Stops: []raster.Stop{
				{Offset: 0, Color: light, Opacity: alpha * 0.25},
				{Offset: 1, Color: light, Opacity: 0},
			},
		}, limage.BlendScreen)
	}
}

// paintCore draws the bright disc at the light source.
func paintCore(s raster.Surface, g fixture.GlowConfig, pos geometry.Point2D, light color.RGBA, alpha float64, w, h int) {
	r := math.Max(minCoreRadius, coreRadiusFraction*float64(min(w, h))) * (1 + alpha)
	hot := mix(light, colorutil.White, geometry.Clamp(g.CoreBrightness, 0, 1)*0.7)
	a := geometry.Clamp(alpha*(0.5+0.5*g.CoreBrightness), 0, 1)

	s.Fill(raster.NewPath().Circle(pos.X, pos.Y, r), raster.RadialGradient{
		CX: pos.X, CY: pos.Y, R: r,
		Stops: []raster.Stop{
			{Offset: 0, Color: hot, Opacity: a},
			{Offset: 0.45, Color: light, Opacity: a * 0.6},
			{Offset: 1, Color: light, Opacity: 0},
		},
	}, limage.BlendScreen)
}

func mix(a, b color.RGBA, t float64) color.RGBA {
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x)*(1-t) + float64(y)*t + 0.5)
	}
	return color.RGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: 255}
}
