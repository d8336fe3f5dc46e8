package image

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
)

// BlendMode specifies how a source color is combined with the pixel below it.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDifference
)

func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "Normal"
	case BlendMultiply:
		return "Multiply"
	case BlendScreen:
		return "Screen"
	case BlendOverlay:
		return "Overlay"
	case BlendDifference:
		return "Difference"
	default:
		return "Unknown"
	}
}

// ParseBlendMode looks up a blend mode by name, ignoring case.
func ParseBlendMode(name string) (BlendMode, error) {
	for m := BlendNormal; m <= BlendDifference; m++ {
		if strings.EqualFold(m.String(), name) {
			return m, nil
		}
	}
	return BlendNormal, fmt.Errorf("unknown blend mode %q", name)
}

// channel is the separable blend function B(cb, cs) on straight colors.
func (m BlendMode) channel(cb, cs float64) float64 {
	switch m {
	case BlendMultiply:
		return cb * cs
	case BlendScreen:
		return cb + cs - cb*cs
	case BlendOverlay:
		if cb < 0.5 {
			return 2 * cs * cb
		}
		return 1 - 2*(1-cs)*(1-cb)
	case BlendDifference:
		return math.Abs(cs - cb)
	default:
		return cs
	}
}

// BlendPixel composites a premultiplied source color (components in [0,1])
// onto the premultiplied 8-bit pixel d using the given mode.
func BlendPixel(d []uint8, s [4]float64, mode BlendMode) {
	as := s[3]
	if as <= 0 {
		return
	}
	b := [4]float64{float64(d[0]) / 255, float64(d[1]) / 255, float64(d[2]) / 255, float64(d[3]) / 255}
	ab := b[3]

	var out [4]float64
	switch mode {
	case BlendNormal:
		for i := 0; i < 3; i++ {
			out[i] = s[i] + b[i]*(1-as)
		}
	case BlendScreen:
		for i := 0; i < 3; i++ {
			out[i] = s[i] + b[i] - s[i]*b[i]
		}
	default:
		for i := 0; i < 3; i++ {
			cs := s[i] / as
			cb := 0.0
			if ab > 0 {
				cb = b[i] / ab
			}
			out[i] = s[i]*(1-ab) + b[i]*(1-as) + as*ab*mode.channel(cb, cs)
		}
	}
	out[3] = as + ab*(1-as)

	for i := 0; i < 4; i++ {
		d[i] = uint8(clamp(out[i], 0, 1)*255 + 0.5)
	}
	// Premultiplied colors never exceed alpha.
	for i := 0; i < 3; i++ {
		if d[i] > d[3] {
			d[i] = d[3]
		}
	}
}

// premultiplied returns c as premultiplied components in [0,1], scaled by opacity.
func premultiplied(c color.Color, opacity float64) [4]float64 {
	r, g, b, a := c.RGBA()
	return [4]float64{
		float64(r) / 0xffff * opacity,
		float64(g) / 0xffff * opacity,
		float64(b) / 0xffff * opacity,
		float64(a) / 0xffff * opacity,
	}
}

// Premultiplied is the exported form of premultiplied for drawing code
// that shades pixels itself.
func Premultiplied(c color.Color, opacity float64) [4]float64 {
	return premultiplied(c, opacity)
}

// BlendImage composites src onto dst with the given mode and opacity.
// src is aligned with dst's origin.
func BlendImage(dst *image.RGBA, src image.Image, mode BlendMode, opacity float64) {
	if opacity <= 0 {
		return
	}
	r := dst.Bounds().Intersect(src.Bounds().Sub(src.Bounds().Min).Add(dst.Bounds().Min))
	sb := src.Bounds()

	if s, ok := src.(*image.RGBA); ok {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			di := dst.PixOffset(r.Min.X, y)
			si := s.PixOffset(sb.Min.X+r.Min.X-dst.Rect.Min.X, sb.Min.Y+y-dst.Rect.Min.Y)
			for x := r.Min.X; x < r.Max.X; x, di, si = x+1, di+4, si+4 {
				if s.Pix[si+3] == 0 {
					continue
				}
				c := [4]float64{
					float64(s.Pix[si]) / 255 * opacity,
					float64(s.Pix[si+1]) / 255 * opacity,
					float64(s.Pix[si+2]) / 255 * opacity,
					float64(s.Pix[si+3]) / 255 * opacity,
				}
				BlendPixel(dst.Pix[di:di+4], c, mode)
			}
		}
		return
	}

	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := src.At(sb.Min.X+x-dst.Rect.Min.X, sb.Min.Y+y-dst.Rect.Min.Y)
			di := dst.PixOffset(x, y)
			BlendPixel(dst.Pix[di:di+4], premultiplied(c, opacity), mode)
		}
	}
}

// Composite combines multiple layers into a single image.
type Composite struct {
	Width     int
	Height    int
	Layers    []*CompositeLayer
	BackColor color.Color
}

// CompositeLayer wraps a Layer with compositing settings.
type CompositeLayer struct {
	Layer     *Layer
	BlendMode BlendMode
	OffsetX   int
	OffsetY   int
}

// NewComposite creates a new Composite with the specified dimensions.
func NewComposite(width, height int) *Composite {
	return &Composite{
		Width:     width,
		Height:    height,
		BackColor: color.RGBA{0, 0, 0, 255},
	}
}

// AddLayer adds a layer to the composite.
func (c *Composite) AddLayer(layer *Layer, mode BlendMode, offsetX, offsetY int) {
	c.Layers = append(c.Layers, &CompositeLayer{
		Layer:     layer,
		BlendMode: mode,
		OffsetX:   offsetX,
		OffsetY:   offsetY,
	})
}

// Render produces the final composited image.
func (c *Composite) Render() *image.RGBA {
	result := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	draw.Draw(result, result.Bounds(), &image.Uniform{c.BackColor}, image.Point{}, draw.Src)

	for _, cl := range c.Layers {
		if cl.Layer == nil || cl.Layer.Image == nil || !cl.Layer.Visible {
			continue
		}
		c.compositeLayer(result, cl)
	}
	return result
}

// compositeLayer blends a single layer onto the result at its offset.
func (c *Composite) compositeLayer(dst *image.RGBA, cl *CompositeLayer) {
	target := dst.SubImage(dst.Bounds().Add(image.Pt(cl.OffsetX, cl.OffsetY)).Intersect(dst.Bounds())).(*image.RGBA)
	if target.Bounds().Empty() {
		return
	}

	src := cl.Layer.Image
	sb := src.Bounds()
	// Skip source pixels that fall left of or above the result.
	skip := image.Pt(max(0, -cl.OffsetX), max(0, -cl.OffsetY))
	if skip != (image.Point{}) {
		src = subImage(src, image.Rectangle{Min: sb.Min.Add(skip), Max: sb.Max})
	}
	BlendImage(target, src, cl.BlendMode, cl.Layer.Opacity)
}

func subImage(img image.Image, r image.Rectangle) image.Image {
	if s, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return s.SubImage(r)
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), img, r.Min, draw.Src)
	return out
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
