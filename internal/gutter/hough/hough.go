// Package hough provides an OpenCV line detector for the gutter chain.
package hough

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"math"
	"sort"

	"lightplan/internal/fixture"

	"gocv.io/x/gocv"
)

// Options tunes the probabilistic Hough transform.
type Options struct {
	BandTop, BandBottom float64 // vertical band kept, fractions of height
	MaxAngle            float64 // degrees from horizontal
	MinLength           float64 // fraction of width
	MaxGap              float64 // fraction of width
	Threshold           int     // accumulator votes
}

// DefaultOptions matches the heuristic's band.
func DefaultOptions() Options {
	return Options{
		BandTop:    0.08,
		BandBottom: 0.55,
		MaxAngle:   12,
		MinLength:  0.12,
		MaxGap:     0.02,
		Threshold:  40,
	}
}

// Stage detects near-horizontal segments with Canny and HoughLinesP.
type Stage struct {
	opts Options
}

// New creates the stage.
func New(opts Options) *Stage {
	return &Stage{opts: opts}
}

// Name returns "hough".
func (s *Stage) Name() string {
	return "hough"
}

// Detect returns up to maxLines segments, longest first.
func (s *Stage) Detect(ctx context.Context, img image.Image, maxLines int) ([]fixture.MountingLine, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty image")
	}

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) || rgba.Stride != 4*w {
		rgba = image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC4, rgba.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to create mat: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorRGBAToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: 5, Y: 5}, 1.5, 1.5, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, 30, 100)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(edges, &lines, 1, float32(math.Pi/180), s.opts.Threshold,
		float32(s.opts.MinLength*float64(w)), float32(s.opts.MaxGap*float64(w)))

	top := s.opts.BandTop * float64(h)
	bottom := s.opts.BandBottom * float64(h)
	maxTan := math.Tan(s.opts.MaxAngle * math.Pi / 180)

	var out []fixture.MountingLine
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		x1, y1, x2, y2 := float64(v[0]), float64(v[1]), float64(v[2]), float64(v[3])
		dx := math.Abs(x2 - x1)
		if dx == 0 || math.Abs(y2-y1)/dx > maxTan {
			continue
		}
		mid := (y1 + y2) / 2
		if mid < top || mid > bottom {
			continue
		}
		out = append(out, fixture.MountingLine{
			StartX: x1 / float64(w) * 100,
			StartY: y1 / float64(h) * 100,
			EndX:   x2 / float64(w) * 100,
			EndY:   y2 / float64(h) * 100,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Length() > out[j].Length() })
	if maxLines > 0 && len(out) > maxLines*4 {
		// The chain dedups; keep enough candidates for it to choose from.
		out = out[:maxLines*4]
	}
	return out, nil
}
