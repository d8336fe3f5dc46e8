package raster

import (
	"image"
	"image/color"
	"testing"

	limage "lightplan/internal/image"
	"lightplan/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCanvas(t *testing.T, w, h int) *Canvas {
	t.Helper()
	c, err := NewCanvas(w, h)
	require.NoError(t, err)
	c.Clear(color.RGBA{0, 0, 0, 255})
	return c
}

func TestNewCanvas_InvalidSize(t *testing.T) {
	for _, sz := range [][2]int{{0, 10}, {10, -1}, {MaxDimension + 1, 10}} {
		_, err := NewCanvas(sz[0], sz[1])
		assert.ErrorIs(t, err, ErrNoSurface)
	}
	_, err := FromImage(nil)
	assert.ErrorIs(t, err, ErrNoSurface)
}

func TestFromImage_Copies(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 9, 8))
	src.SetRGBA(5, 5, color.RGBA{9, 9, 9, 255})

	c, err := FromImage(src)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), c.Bounds())
	assert.Equal(t, color.RGBA{9, 9, 9, 255}, c.Image().RGBAAt(0, 0))
}

func TestFill_Rect(t *testing.T) {
	c := newCanvas(t, 40, 40)
	c.Fill(NewPath().Rect(10, 10, 20, 20), Solid{Color: color.RGBA{255, 0, 0, 255}}, limage.BlendNormal)

	img := c.Image()
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(20, 20))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(5, 5))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(35, 20))
}

func TestFill_ClipsToCanvas(t *testing.T) {
	c := newCanvas(t, 20, 20)
	c.Fill(NewPath().Circle(0, 0, 15), Solid{Color: color.White}, limage.BlendNormal)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, c.Image().RGBAAt(2, 2))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, c.Image().RGBAAt(19, 19))

	// Entirely outside: no panic, no change.
	c.Fill(NewPath().Circle(-100, -100, 5), Solid{Color: color.White}, limage.BlendNormal)
	c.Fill(NewPath(), Solid{Color: color.White}, limage.BlendNormal)
}

func TestFill_ScreenAccumulates(t *testing.T) {
	c := newCanvas(t, 20, 20)
	p := NewPath().Rect(0, 0, 20, 20)
	half := Solid{Color: color.NRGBA{200, 100, 0, 128}}

	c.Fill(p, half, limage.BlendScreen)
	first := c.Image().RGBAAt(10, 10)
	c.Fill(p, half, limage.BlendScreen)
	second := c.Image().RGBAAt(10, 10)

	assert.Greater(t, first.R, uint8(0))
	assert.Greater(t, second.R, first.R)
	assert.Equal(t, uint8(0), second.B)
}

func TestLinearGradient(t *testing.T) {
	c := newCanvas(t, 100, 10)
	g := LinearGradient{
		X1: 0, Y1: 0, X2: 100, Y2: 0,
		Stops: []Stop{
			{Offset: 0, Color: color.RGBA{0, 0, 0, 255}, Opacity: 1},
			{Offset: 1, Color: color.RGBA{255, 255, 255, 255}, Opacity: 1},
		},
	}
	c.Fill(NewPath().Rect(0, 0, 100, 10), g, limage.BlendNormal)

	left := c.Image().RGBAAt(5, 5)
	mid := c.Image().RGBAAt(50, 5)
	right := c.Image().RGBAAt(95, 5)
	assert.Less(t, left.R, mid.R)
	assert.Less(t, mid.R, right.R)
	assert.InDelta(t, 128, int(mid.R), 6)
}

func TestRadialGradient_Falloff(t *testing.T) {
	c := newCanvas(t, 100, 100)
	g := RadialGradient{
		CX: 50, CY: 50, R: 40, ScaleY: 0.5,
		Stops: []Stop{
			{Offset: 0, Color: color.RGBA{255, 200, 100, 255}, Opacity: 1},
			{Offset: 1, Color: color.RGBA{255, 200, 100, 255}, Opacity: 0},
		},
	}
	c.Fill(NewPath().Rect(0, 0, 100, 100), g, limage.BlendScreen)

	img := c.Image()
	center := img.RGBAAt(50, 50)
	near := img.RGBAAt(70, 50)
	assert.Greater(t, center.R, near.R)

	// ScaleY halves the vertical radius: 20px down is already at the edge.
	assert.Equal(t, uint8(0), img.RGBAAt(50, 72).R)
	assert.Greater(t, img.RGBAAt(72, 50).R, uint8(0))
}

func TestStroke_Dashed(t *testing.T) {
	c := newCanvas(t, 100, 20)
	p := NewPath().Polyline(geometry.Point2D{X: 0, Y: 10}, geometry.Point2D{X: 100, Y: 10})
	c.Stroke(p, Solid{Color: color.White}, Stroke{Width: 4, Dashes: []float64{10, 10}, Butt: true}, limage.BlendNormal)

	img := c.Image()
	assert.Equal(t, uint8(255), img.RGBAAt(5, 10).R, "inside first dash")
	assert.Equal(t, uint8(0), img.RGBAAt(15, 10).R, "inside first gap")
	assert.Equal(t, uint8(0), img.RGBAAt(5, 2).R, "outside stroke width")
}

func TestStroke_ZeroWidthIsNoop(t *testing.T) {
	c := newCanvas(t, 10, 10)
	before := append([]uint8(nil), c.Image().Pix...)
	c.Stroke(NewPath().Rect(1, 1, 8, 8), Solid{Color: color.White}, Stroke{}, limage.BlendNormal)
	assert.Equal(t, before, c.Image().Pix)
}

func TestText(t *testing.T) {
	c := newCanvas(t, 120, 40)
	style := TextStyle{Size: 16, Color: color.White}

	w1, h := c.MeasureText("1", style)
	w2, _ := c.MeasureText("1234", style)
	assert.Greater(t, w2, w1)
	assert.Greater(t, h, 10.0)

	c.Text(4, 4, "Uplight", style)
	lit := 0
	for i := 0; i < len(c.Image().Pix); i += 4 {
		if c.Image().Pix[i] > 128 {
			lit++
		}
	}
	assert.Greater(t, lit, 20)
}

func TestPathBounds(t *testing.T) {
	p := NewPath().MoveTo(10, 20).QuadTo(40, 0, 30, 30)
	assert.Equal(t, image.Rect(10, 0, 41, 31), p.Bounds(0))
	assert.Equal(t, image.Rectangle{}, NewPath().Bounds(5))
	assert.True(t, NewPath().Polygon(geometry.Point2D{}).Empty())
}
