package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLetterbox_FitsByWidthForWideImage(t *testing.T) {
	r, ok := Letterbox(NewRect(0, 0, 400, 400), 2.0)
	require.True(t, ok)
	assert.Equal(t, NewRect(0, 100, 400, 200), r)
}

func TestLetterbox_FitsByHeightForTallImage(t *testing.T) {
	r, ok := Letterbox(NewRect(10, 20, 800, 400), 1.0)
	require.True(t, ok)
	assert.Equal(t, NewRect(210, 20, 400, 400), r)
}

func TestLetterbox_RejectsInvalidInput(t *testing.T) {
	_, ok := Letterbox(NewRect(0, 0, 0, 100), 1.5)
	assert.False(t, ok)
	_, ok = Letterbox(NewRect(0, 0, 100, 100), 0)
	assert.False(t, ok)
	_, ok = Letterbox(NewRect(0, 0, 100, 100), math.NaN())
	assert.False(t, ok)
}

func TestScreenToImagePercent_RoundTrip(t *testing.T) {
	containers := []Rect{
		NewRect(0, 0, 1024, 768),
		NewRect(13, 7, 375, 812),
		NewRect(-40, 100, 1920, 1080),
	}
	aspects := []float64{4.0 / 3.0, 16.0 / 9.0, 0.75, 1}

	for _, c := range containers {
		for _, aspect := range aspects {
			img, ok := Letterbox(c, aspect)
			require.True(t, ok)
			for i := 1; i < 10; i++ {
				for j := 1; j < 10; j++ {
					sx := img.X + img.Width*float64(i)/10
					sy := img.Y + img.Height*float64(j)/10

					p, ok := ScreenToImagePercent(sx, sy, c, aspect)
					require.True(t, ok)
					back, ok := ImagePercentToScreen(p, c, aspect)
					require.True(t, ok)

					assert.InDelta(t, sx, back.X, 1e-9)
					assert.InDelta(t, sy, back.Y, 1e-9)
				}
			}
		}
	}
}

func TestScreenToImagePercent_ToleranceAndClamp(t *testing.T) {
	c := NewRect(0, 0, 1000, 1000)

	// 1% outside the left edge is tolerated and clamped.
	p, ok := ScreenToImagePercent(-10, 500, c, 1)
	require.True(t, ok)
	assert.Equal(t, 0.0, p.X)
	assert.Equal(t, 50.0, p.Y)

	// 5% outside is rejected.
	_, ok = ScreenToImagePercent(-50, 500, c, 1)
	assert.False(t, ok)

	// Letterbox bars are outside the image.
	_, ok = ScreenToImagePercent(500, 10, c, 2)
	assert.False(t, ok)
}

func TestScreenToImagePercent_Deterministic(t *testing.T) {
	c := NewRect(3.3, 7.7, 641.1, 479.9)
	a, _ := ScreenToImagePercent(123.456, 234.567, c, 1.5)
	b, _ := ScreenToImagePercent(123.456, 234.567, c, 1.5)
	assert.Equal(t, math.Float64bits(a.X), math.Float64bits(b.X))
	assert.Equal(t, math.Float64bits(a.Y), math.Float64bits(b.Y))
}

func TestProjectOntoSegment(t *testing.T) {
	a := NewPoint2D(0, 0)
	b := NewPoint2D(10, 0)

	proj, tt, dist := ProjectOntoSegment(NewPoint2D(5, 3), a, b)
	assert.Equal(t, NewPoint2D(5, 0), proj)
	assert.Equal(t, 0.5, tt)
	assert.Equal(t, 3.0, dist)

	proj, tt, dist = ProjectOntoSegment(NewPoint2D(-4, 3), a, b)
	assert.Equal(t, a, proj)
	assert.Equal(t, 0.0, tt)
	assert.Equal(t, 5.0, dist)

	proj, tt, _ = ProjectOntoSegment(NewPoint2D(20, -1), a, b)
	assert.Equal(t, b, proj)
	assert.Equal(t, 1.0, tt)
}

func TestProjectOntoSegment_Degenerate(t *testing.T) {
	a := NewPoint2D(2, 2)
	proj, tt, dist := ProjectOntoSegment(NewPoint2D(5, 6), a, a)
	assert.Equal(t, a, proj)
	assert.Equal(t, 0.0, tt)
	assert.Equal(t, 5.0, dist)
}

func TestNormalizeDegrees(t *testing.T) {
	assert.Equal(t, 0.0, NormalizeDegrees(360))
	assert.Equal(t, 270.0, NormalizeDegrees(-90))
	assert.Equal(t, 30.0, NormalizeDegrees(750))
	assert.Equal(t, 0.0, NormalizeDegrees(math.Inf(1)))
	assert.Less(t, NormalizeDegrees(-1e-15), 360.0)
}

func TestRotationAround(t *testing.T) {
	pivot := NewPoint2D(10, 10)
	up := NewPoint2D(10, 0)

	right := RotationAround(pivot, 90).Apply(up)
	assert.InDelta(t, 20, right.X, 1e-9)
	assert.InDelta(t, 10, right.Y, 1e-9)

	down := RotationAround(pivot, 180).Apply(up)
	assert.InDelta(t, 10, down.X, 1e-9)
	assert.InDelta(t, 20, down.Y, 1e-9)
}
