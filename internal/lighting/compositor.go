// Package lighting renders a night-time preview of a lighting layout by
// painting additive glow for each fixture over a darkened photo.
package lighting

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"lightplan/internal/fixture"
	limage "lightplan/internal/image"
	"lightplan/internal/raster"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "lightplan/internal/lighting"

// ErrEmptyImage is returned when the base image has no pixels.
var ErrEmptyImage = errors.New("empty base image")

// Config controls a Compositor.
type Config struct {
	NightFilter bool
	Night       limage.NightFilter

	// GlowOpacity scales every glow layer.
	GlowOpacity float64
	// BlurFraction sets the glow blur sigma relative to the shorter image side.
	BlurFraction float64

	Format  limage.Format
	Quality int

	// Sprite, when set, is pasted at every fixture before the glow is added.
	Sprite      image.Image
	SpriteScale float64
}

// DefaultConfig returns the settings used for customer previews.
func DefaultConfig() Config {
	return Config{
		NightFilter:  true,
		Night:        limage.DefaultNightFilter(),
		GlowOpacity:  1,
		BlurFraction: 0.004,
		Format:       limage.FormatJPEG,
		Quality:      limage.DefaultJPEGQuality,
		SpriteScale:  0.2,
	}
}

// Result is a finished render.
type Result struct {
	Image   *image.RGBA
	Bytes   []byte
	Format  limage.Format
	Width   int
	Height  int
	Elapsed time.Duration
}

// Compositor renders lighting previews. It is safe for concurrent use;
// every render owns its canvases.
type Compositor struct {
	cfg      Config
	log      zerolog.Logger
	duration metric.Float64Histogram
}

// NewCompositor creates a compositor. Metrics go to the global OTel meter
// provider, a no-op unless one is installed.
func NewCompositor(cfg Config, log zerolog.Logger) (*Compositor, error) {
	duration, err := otel.Meter(instrumentationName).Float64Histogram(
		"lighting.render.duration",
		metric.WithDescription("Time spent rendering a lighting preview"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating render histogram: %w", err)
	}
	return &Compositor{
		cfg:      cfg,
		log:      log.With().Str("component", "lighting").Logger(),
		duration: duration,
	}, nil
}

// Config returns the compositor settings.
func (c *Compositor) Config() Config {
	return c.cfg
}

// Render composites the glow of every fixture onto base and encodes the
// result. Identical inputs produce identical bytes.
func (c *Compositor) Render(ctx context.Context, base image.Image, fixtures []fixture.Fixture) (*Result, error) {
	start := time.Now()
	if base == nil || base.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := c.Composite(ctx, base, fixtures)
	if err != nil {
		return nil, err
	}

	data, err := limage.Encode(img, c.cfg.Format, c.cfg.Quality)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	c.duration.Record(ctx, float64(elapsed.Microseconds())/1000,
		metric.WithAttributes(attribute.String("format", c.cfg.Format.String())))
	c.log.Info().
		Int("fixtures", len(fixtures)).
		Int("bytes", len(data)).
		Dur("elapsed", elapsed).
		Msg("rendered lighting preview")

	b := img.Bounds()
	return &Result{
		Image:   img,
		Bytes:   data,
		Format:  c.cfg.Format,
		Width:   b.Dx(),
		Height:  b.Dy(),
		Elapsed: elapsed,
	}, nil
}

// Composite produces the unencoded preview image.
func (c *Compositor) Composite(ctx context.Context, base image.Image, fixtures []fixture.Fixture) (*image.RGBA, error) {
	if base == nil || base.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	night := limage.ToRGBA(base)
	if c.cfg.NightFilter {
		night = c.cfg.Night.Apply(base)
	}
	w, h := night.Bounds().Dx(), night.Bounds().Dy()

	bg, err := raster.FromImage(night)
	if err != nil {
		return nil, err
	}
	if c.cfg.Sprite != nil {
		pasteSprites(bg, c.cfg.Sprite, c.cfg.SpriteScale, fixtures)
	}

	glow, err := raster.NewCanvas(w, h)
	if err != nil {
		return nil, err
	}
	for i, f := range fixtures {
		if i%16 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		PaintGlow(glow, f, w, h, c.cfg.GlowOpacity)
	}

	blurred := limage.Blur(glow.Image(), c.blurSigma(w, h))

	comp := limage.NewComposite(w, h)
	comp.AddLayer(limage.NewLayer(bg.Image()), limage.BlendNormal, 0, 0)
	comp.AddLayer(limage.NewLayer(blurred), limage.BlendScreen, 0, 0)
	return comp.Render(), nil
}

func (c *Compositor) blurSigma(w, h int) float64 {
	if c.cfg.BlurFraction <= 0 {
		return 0
	}
	return max(1, c.cfg.BlurFraction*float64(min(w, h)))
}

// SpriteSize returns the pasted size of sprite at scale, or the zero point
// when nothing would be pasted.
func SpriteSize(sprite image.Image, scale float64) image.Point {
	if sprite == nil || scale <= 0 || sprite.Bounds().Empty() {
		return image.Point{}
	}
	sb := sprite.Bounds()
	return image.Pt(max(1, int(float64(sb.Dx())*scale)), max(1, int(float64(sb.Dy())*scale)))
}

// pasteSprites draws a scaled fixture image centered on each fixture,
// kept inside the canvas.
func pasteSprites(dst *raster.Canvas, sprite image.Image, scale float64, fixtures []fixture.Fixture) {
	size := SpriteSize(sprite, scale)
	if size == (image.Point{}) {
		return
	}
	sw, sh := size.X, size.Y
	small := imaging.Resize(sprite, sw, sh, imaging.Lanczos)

	b := dst.Bounds()
	for _, f := range fixtures {
		f = f.Normalize()
		cx := int(f.X / 100 * float64(b.Dx()))
		cy := int(f.Y / 100 * float64(b.Dy()))
		x := max(0, min(cx-sw/2, b.Dx()-sw))
		y := max(0, min(cy-sh/2, b.Dy()-sh))

		target := dst.Image().SubImage(image.Rect(x, y, x+sw, y+sh)).(*image.RGBA)
		limage.BlendImage(target, small, limage.BlendNormal, 1)
	}
}
