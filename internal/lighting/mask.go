package lighting

import (
	"image"
	"image/color"
	"image/draw"

	"lightplan/internal/fixture"

	"github.com/disintegration/imaging"
)

// MaskOptions controls BuildMask.
type MaskOptions struct {
	// Footprint is the side of a fixture's square footprint as a fraction
	// of the image width.
	Footprint float64
	// Dilation grows each footprint by this fraction, split across both sides.
	Dilation float64
	// SpriteSize, when non-zero, replaces the square footprint so the mask
	// covers the pasted fixture sprites.
	SpriteSize image.Point
}

// DefaultMaskOptions returns the settings used for inpainting requests.
func DefaultMaskOptions() MaskOptions {
	return MaskOptions{Footprint: 0.05, Dilation: 0.30}
}

// BuildMask returns a grayscale inpainting mask the size of bounds: black
// everywhere except soft-edged white rectangles around each fixture.
func BuildMask(bounds image.Rectangle, fixtures []fixture.Fixture, opts MaskOptions) (*image.Gray, error) {
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyImage
	}
	mask := image.NewGray(image.Rect(0, 0, w, h))

	fw := max(1, int(opts.Footprint*float64(w)))
	fh := fw
	if opts.SpriteSize.X > 0 && opts.SpriteSize.Y > 0 {
		fw, fh = min(opts.SpriteSize.X, w), min(opts.SpriteSize.Y, h)
	}
	padX := int(float64(fw) * opts.Dilation / 2)
	padY := int(float64(fh) * opts.Dilation / 2)

	white := image.NewUniform(color.Gray{Y: 255})
	for _, f := range fixtures {
		f = f.Normalize()
		cx := int(f.X / 100 * float64(w))
		cy := int(f.Y / 100 * float64(h))
		// Footprint top-left, kept inside the image.
		x := max(0, min(cx-fw/2, w-fw))
		y := max(0, min(cy-fh/2, h-fh))

		r := image.Rect(x-padX, y-padY, x+fw+padX, y+fh+padY).Intersect(mask.Bounds())
		draw.Draw(mask, r, white, image.Point{}, draw.Src)
	}

	radius := max(padX, padY) / 2
	if radius < 1 {
		radius = 1
	}
	blurred := imaging.Blur(mask, float64(radius))

	out := image.NewGray(mask.Bounds())
	draw.Draw(out, out.Bounds(), blurred, image.Point{}, draw.Src)
	return out, nil
}
