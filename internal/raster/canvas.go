package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	limage "lightplan/internal/image"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// MaxDimension bounds either side of a canvas.
const MaxDimension = 16384

// ErrNoSurface is returned when a drawing surface cannot be created.
var ErrNoSurface = errors.New("drawing surface unavailable")

// Stroke describes how a path outline is drawn.
type Stroke struct {
	Width  float64
	Dashes []float64 // alternating on/off lengths in pixels, nil for solid
	Butt   bool      // square line ends instead of round
}

// TextStyle describes how a text run is drawn.
type TextStyle struct {
	Size  float64 // pixel height of the em square
	Color color.Color
	Bold  bool
}

// Surface is the drawing target used by the renderers.
type Surface interface {
	Bounds() image.Rectangle
	Fill(p *Path, paint Paint, mode limage.BlendMode)
	Stroke(p *Path, paint Paint, st Stroke, mode limage.BlendMode)
	// Text draws s with its top-left corner at (x, y).
	Text(x, y float64, s string, style TextStyle)
	MeasureText(s string, style TextStyle) (w, h float64)
}

// Canvas is a Surface backed by an RGBA buffer.
type Canvas struct {
	img   *image.RGBA
	faces map[faceKey]font.Face
}

type faceKey struct {
	size float64
	bold bool
}

var _ Surface = (*Canvas)(nil)

// NewCanvas allocates a transparent w x h canvas.
func NewCanvas(w, h int) (*Canvas, error) {
	if w <= 0 || h <= 0 || w > MaxDimension || h > MaxDimension {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrNoSurface, w, h)
	}
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}, nil
}

// FromImage creates a canvas holding a copy of img.
func FromImage(img image.Image) (*Canvas, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: no image", ErrNoSurface)
	}
	b := img.Bounds()
	c, err := NewCanvas(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	draw.Draw(c.img, c.img.Bounds(), img, b.Min, draw.Src)
	return c, nil
}

// Image returns the backing buffer.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Bounds returns the canvas rectangle.
func (c *Canvas) Bounds() image.Rectangle {
	return c.img.Bounds()
}

// Clear fills the whole canvas with col.
func (c *Canvas) Clear(col color.Color) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// DrawImage blends img over the canvas, aligned at the origin.
func (c *Canvas) DrawImage(img image.Image, mode limage.BlendMode, opacity float64) {
	limage.BlendImage(c.img, img, mode, opacity)
}

// Fill paints the interior of p using the non-zero winding rule.
func (c *Canvas) Fill(p *Path, paint Paint, mode limage.BlendMode) {
	c.paint(p, 1, paint, mode, func(w, h int, sc rasterx.Scanner) drawer {
		return rasterx.NewFiller(w, h, sc)
	})
}

// Stroke paints the outline of p.
func (c *Canvas) Stroke(p *Path, paint Paint, st Stroke, mode limage.BlendMode) {
	if st.Width <= 0 {
		return
	}
	capFn := rasterx.RoundCap
	if st.Butt {
		capFn = rasterx.ButtCap
	}
	c.paint(p, st.Width/2+2, paint, mode, func(w, h int, sc rasterx.Scanner) drawer {
		d := rasterx.NewDasher(w, h, sc)
		d.SetStroke(fixed.Int26_6(st.Width*64), 4<<6, capFn, nil, rasterx.RoundGap, rasterx.ArcClip, st.Dashes, 0)
		return d
	})
}

// drawer is satisfied by rasterx fillers and dashers.
type drawer interface {
	rasterx.Adder
	Draw()
}

// paint rasterizes p into a coverage mask sized to its bounds, then shades
// and blends every covered pixel.
func (c *Canvas) paint(p *Path, pad float64, paint Paint, mode limage.BlendMode, newAdder func(w, h int, sc rasterx.Scanner) drawer) {
	if p.Empty() || paint == nil {
		return
	}
	r := p.Bounds(pad).Intersect(c.img.Bounds())
	if r.Empty() {
		return
	}

	w, h := r.Dx(), r.Dy()
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	sc := rasterx.NewScannerGV(w, h, mask, mask.Bounds())
	sc.SetColor(color.Alpha{A: 0xff})

	adder := newAdder(w, h, sc)
	p.p.AddTo(&rasterx.MatrixAdder{
		Adder: adder,
		M:     rasterx.Identity.Translate(float64(-r.Min.X), float64(-r.Min.Y)),
	})
	adder.Draw()

	shade := paint.shader()
	for y := 0; y < h; y++ {
		mi := mask.PixOffset(0, y)
		di := c.img.PixOffset(r.Min.X, r.Min.Y+y)
		for x := 0; x < w; x, mi, di = x+1, mi+1, di+4 {
			a := mask.Pix[mi]
			if a == 0 {
				continue
			}
			s := limage.Premultiplied(shade(r.Min.X+x, r.Min.Y+y), float64(a)/255)
			limage.BlendPixel(c.img.Pix[di:di+4], s, mode)
		}
	}
}

var (
	fontsOnce sync.Once
	regular   *opentype.Font
	bold      *opentype.Font
	fontsErr  error
)

func loadFonts() error {
	fontsOnce.Do(func() {
		regular, fontsErr = opentype.Parse(goregular.TTF)
		if fontsErr != nil {
			return
		}
		bold, fontsErr = opentype.Parse(gobold.TTF)
	})
	return fontsErr
}

// face returns a cached face for the style. Faces are not safe for
// concurrent use, so each canvas keeps its own.
func (c *Canvas) face(style TextStyle) (font.Face, error) {
	if err := loadFonts(); err != nil {
		return nil, err
	}
	size := style.Size
	if size <= 0 || math.IsNaN(size) {
		size = 12
	}
	key := faceKey{size: size, bold: style.Bold}
	if f, ok := c.faces[key]; ok {
		return f, nil
	}
	src := regular
	if style.Bold {
		src = bold
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	if c.faces == nil {
		c.faces = make(map[faceKey]font.Face)
	}
	c.faces[key] = f
	return f, nil
}

// Text draws s with its top-left corner at (x, y). Text is composited
// with normal blending.
func (c *Canvas) Text(x, y float64, s string, style TextStyle) {
	if s == "" {
		return
	}
	f, err := c.face(style)
	if err != nil {
		return
	}
	col := style.Color
	if col == nil {
		col = color.White
	}
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: f,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y*64) + f.Metrics().Ascent},
	}
	d.DrawString(s)
}

// MeasureText returns the advance width and line height of s.
func (c *Canvas) MeasureText(s string, style TextStyle) (w, h float64) {
	f, err := c.face(style)
	if err != nil {
		return 0, 0
	}
	m := f.Metrics()
	adv := font.MeasureString(f, s)
	return float64(adv) / 64, float64(m.Ascent+m.Descent) / 64
}
