// Package guide renders the annotated layout image: numbered fixture
// markers, beam arrows and mounting lines over a darkened photo.
package guide

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"time"

	"lightplan/internal/fixture"
	limage "lightplan/internal/image"
	"lightplan/internal/lighting"
	"lightplan/internal/raster"
	"lightplan/pkg/colorutil"
	"lightplan/pkg/geometry"
)

// Options toggles every element of the guide image.
type Options struct {
	// Darken is the fraction of brightness removed from the photo.
	Darken float64
	// Glow paints the fixture light shapes, scaled by GlowOpacity.
	Glow        bool
	GlowOpacity float64

	MountingLines bool
	LineLabels    bool

	Markers    bool
	Numbers    bool
	TypeLabels bool
	Crosshairs bool
	Arrows     bool

	// MarkerSize is the marker radius as a fraction of the shorter side.
	MarkerSize float64

	Format  limage.Format
	Quality int
}

// CleanOptions returns the sparse style sent to image generation.
func CleanOptions() Options {
	return Options{
		Darken:        0.35,
		Glow:          true,
		GlowOpacity:   0.5,
		MountingLines: true,
		Markers:       true,
		Numbers:       true,
		Arrows:        true,
		MarkerSize:    0.018,
		Format:        limage.FormatJPEG,
		Quality:       limage.DefaultJPEGQuality,
	}
}

// VerboseOptions returns the fully annotated style shown to people.
func VerboseOptions() Options {
	return Options{
		Darken:        0.5,
		Glow:          true,
		GlowOpacity:   0.8,
		MountingLines: true,
		LineLabels:    true,
		Markers:       true,
		Numbers:       true,
		TypeLabels:    true,
		Crosshairs:    true,
		Arrows:        true,
		MarkerSize:    0.022,
		Format:        limage.FormatPNG,
	}
}

var (
	lineColor     = colorutil.Yellow
	endpointColor = colorutil.Cyan
	labelBack     = color.RGBA{R: 0, G: 0, B: 0, A: 170}
)

// Render draws the guide image for the given layout and encodes it.
func Render(base image.Image, fixtures []fixture.Fixture, lines []fixture.MountingLine, opts Options) (*lighting.Result, error) {
	start := time.Now()
	img, err := Draw(base, fixtures, lines, opts)
	if err != nil {
		return nil, err
	}
	data, err := limage.Encode(img, opts.Format, opts.Quality)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &lighting.Result{
		Image:   img,
		Bytes:   data,
		Format:  opts.Format,
		Width:   b.Dx(),
		Height:  b.Dy(),
		Elapsed: time.Since(start),
	}, nil
}

// Draw produces the unencoded guide image.
func Draw(base image.Image, fixtures []fixture.Fixture, lines []fixture.MountingLine, opts Options) (*image.RGBA, error) {
	if base == nil || base.Bounds().Empty() {
		return nil, lighting.ErrEmptyImage
	}

	dark := limage.NightFilter{Brightness: 1 - geometry.Clamp(opts.Darken, 0, 1)}
	c, err := raster.FromImage(dark.Apply(base))
	if err != nil {
		return nil, fmt.Errorf("guide surface: %w", err)
	}
	b := c.Bounds()
	w, h := b.Dx(), b.Dy()

	if opts.Glow && opts.GlowOpacity > 0 {
		for _, f := range fixtures {
			lighting.PaintGlow(c, f, w, h, opts.GlowOpacity)
		}
	}

	if opts.MountingLines {
		for i, l := range lines {
			drawMountingLine(c, l, i+1, opts, w, h)
		}
	}

	radius := math.Max(6, opts.MarkerSize*float64(min(w, h)))
	for i, f := range fixtures {
		drawFixture(c, f.Normalize(), i+1, radius, opts, w, h)
	}
	return c.Image(), nil
}

func drawMountingLine(s raster.Surface, l fixture.MountingLine, n int, opts Options, w, h int) {
	a := geometry.PercentToPixels(l.Start(), w, h)
	b := geometry.PercentToPixels(l.End(), w, h)
	width := math.Max(2, float64(min(w, h))*0.004)

	s.Stroke(raster.NewPath().Polyline(a, b), raster.Solid{Color: lineColor},
		raster.Stroke{Width: width, Dashes: []float64{width * 4, width * 3}, Butt: true}, limage.BlendNormal)

	for _, p := range []geometry.Point2D{a, b} {
		s.Fill(raster.NewPath().Circle(p.X, p.Y, width*2), raster.Solid{Color: endpointColor}, limage.BlendNormal)
	}

	if opts.LineLabels {
		mid := a.Add(b).Scale(0.5)
		drawLabel(s, "L"+strconv.Itoa(n), mid.X, mid.Y-width*3, width*6, lineColor)
	}
}

func drawFixture(s raster.Surface, f fixture.Fixture, n int, radius float64, opts Options, w, h int) {
	preset := fixture.PresetFor(f.Category)
	p := geometry.PercentToPixels(f.Position(), w, h)
	stroke := math.Max(1.5, radius/6)

	if opts.Crosshairs {
		arm := radius * 1.8
		cross := raster.NewPath().
			MoveTo(p.X-arm, p.Y).LineTo(p.X+arm, p.Y).
			MoveTo(p.X, p.Y-arm).LineTo(p.X, p.Y+arm)
		s.Stroke(cross, raster.Solid{Color: colorutil.White}, raster.Stroke{Width: 1}, limage.BlendNormal)
	}

	if opts.Arrows {
		drawArrow(s, p, f.BeamDirection(), radius, preset.MarkerColor)
	}

	if opts.Markers {
		s.Fill(raster.NewPath().Circle(p.X, p.Y, radius), raster.Solid{Color: preset.MarkerColor}, limage.BlendNormal)
		s.Stroke(raster.NewPath().Circle(p.X, p.Y, radius), raster.Solid{Color: colorutil.White},
			raster.Stroke{Width: stroke}, limage.BlendNormal)
	}

	if opts.Numbers {
		style := raster.TextStyle{Size: radius * 1.2, Color: colorutil.White, Bold: true}
		if !opts.Markers {
			style.Color = preset.MarkerColor
		}
		num := strconv.Itoa(n)
		tw, th := s.MeasureText(num, style)
		s.Text(p.X-tw/2, p.Y-th/2, num, style)
	}

	if opts.TypeLabels {
		text := preset.Name
		if f.Label != "" {
			text = f.Label
		}
		drawLabel(s, text, p.X, p.Y+radius*1.4, radius*0.9, preset.MarkerColor)
	}
}

// drawArrow draws a shaft from the marker edge along dir (degrees clockwise
// from up) with a filled head.
func drawArrow(s raster.Surface, from geometry.Point2D, dir, radius float64, col color.RGBA) {
	rot := geometry.RotationAround(from, dir)
	tail := rot.Apply(geometry.Point2D{X: from.X, Y: from.Y - radius})
	tip := rot.Apply(geometry.Point2D{X: from.X, Y: from.Y - radius*3.2})
	headL := rot.Apply(geometry.Point2D{X: from.X - radius*0.6, Y: from.Y - radius*2.3})
	headR := rot.Apply(geometry.Point2D{X: from.X + radius*0.6, Y: from.Y - radius*2.3})
	neck := rot.Apply(geometry.Point2D{X: from.X, Y: from.Y - radius*2.4})

	width := math.Max(2, radius/4)
	s.Stroke(raster.NewPath().Polyline(tail, neck), raster.Solid{Color: col}, raster.Stroke{Width: width}, limage.BlendNormal)
	s.Fill(raster.NewPath().Polygon(tip, headL, headR), raster.Solid{Color: col}, limage.BlendNormal)
}

// drawLabel draws text centered horizontally on cx with its top at y, on
// a translucent backing box.
func drawLabel(s raster.Surface, text string, cx, y, size float64, col color.Color) {
	style := raster.TextStyle{Size: size, Color: col}
	tw, th := s.MeasureText(text, style)
	pad := size * 0.25
	s.Fill(raster.NewPath().Rect(cx-tw/2-pad, y-pad, tw+2*pad, th+2*pad), raster.Solid{Color: labelBack}, limage.BlendNormal)
	s.Text(cx-tw/2, y, text, style)
}
