package gutter

import (
	"context"
	"image"
	"math"
	"sort"

	"lightplan/internal/fixture"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/stat"
)

// HeuristicOptions tunes the local edge scan. Fractions are of image height
// unless noted.
type HeuristicOptions struct {
	WorkWidth  int     // images are downscaled to at most this width
	BandTop    float64 // rows above this fraction are ignored
	BandBottom float64 // rows below this fraction are ignored
	Sigma      float64 // peak threshold is mean + Sigma*stddev
	MinSpacing float64 // minimum distance between picked rows
	MinExtent  float64 // shortest accepted run, fraction of width
	MaxGap     float64 // gaps up to this fraction of width join runs
	MaxSlope   float64 // fitted slopes beyond this (dy/dx in pixels) are flattened
}

// DefaultHeuristicOptions returns the tuned scan settings.
func DefaultHeuristicOptions() HeuristicOptions {
	return HeuristicOptions{
		WorkWidth:  320,
		BandTop:    0.08,
		BandBottom: 0.55,
		Sigma:      1.0,
		MinSpacing: 0.04,
		MinExtent:  0.15,
		MaxGap:     0.05,
		MaxSlope:   0.2,
	}
}

// Heuristic finds strong horizontal edges in the upper part of the image.
// It always returns at least one line.
type Heuristic struct {
	opts HeuristicOptions
}

// NewHeuristic creates the stage.
func NewHeuristic(opts HeuristicOptions) *Heuristic {
	if opts.WorkWidth <= 0 {
		opts.WorkWidth = DefaultHeuristicOptions().WorkWidth
	}
	if opts.BandBottom <= opts.BandTop {
		d := DefaultHeuristicOptions()
		opts.BandTop, opts.BandBottom = d.BandTop, d.BandBottom
	}
	return &Heuristic{opts: opts}
}

// Name returns "heuristic".
func (h *Heuristic) Name() string {
	return "heuristic"
}

// edgeMap holds vertical gradient magnitudes of the working image.
type edgeMap struct {
	w, h int
	mag  []float64
}

func (e *edgeMap) at(x, y int) float64 {
	return e.mag[y*e.w+x]
}

// Detect scans the row profile of horizontal edges and fits a line to each
// picked row.
func (h *Heuristic) Detect(ctx context.Context, img image.Image, maxLines int) ([]fixture.MountingLine, error) {
	if maxLines <= 0 {
		maxLines = 1
	}
	edges := h.edges(img)
	if edges == nil {
		return []fixture.MountingLine{defaultLine()}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	top := max(1, int(h.opts.BandTop*float64(edges.h)))
	bottom := min(edges.h-2, int(h.opts.BandBottom*float64(edges.h)))
	if bottom <= top {
		return []fixture.MountingLine{defaultLine()}, nil
	}

	profile := make([]float64, bottom-top+1)
	for y := top; y <= bottom; y++ {
		sum := 0.0
		for x := 0; x < edges.w; x++ {
			sum += edges.at(x, y)
		}
		profile[y-top] = sum / float64(edges.w)
	}
	profile = smooth(profile)

	rows := h.pickRows(profile, top, edges.h, maxLines)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var lines []fixture.MountingLine
	for _, r := range rows {
		if l, ok := h.fitRow(edges, r); ok {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		best := top + argmax(profile)
		if profile[best-top] > 0 {
			y := float64(best) / float64(edges.h) * 100
			lines = append(lines, fixture.MountingLine{StartX: 10, StartY: y, EndX: 90, EndY: y})
		} else {
			lines = append(lines, defaultLine())
		}
	}
	return lines, nil
}

// edges downsamples img to grayscale and takes the absolute central
// difference along y.
func (h *Heuristic) edges(img image.Image) *edgeMap {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	if b.Dx() < 3 || b.Dy() < 3 {
		return nil
	}
	w, ht := b.Dx(), b.Dy()
	if w > h.opts.WorkWidth {
		ht = max(3, ht*h.opts.WorkWidth/w)
		w = h.opts.WorkWidth
	}
	gray := image.NewGray(image.Rect(0, 0, w, ht))
	draw.ApproxBiLinear.Scale(gray, gray.Bounds(), img, b, draw.Src, nil)

	e := &edgeMap{w: w, h: ht, mag: make([]float64, w*ht)}
	for y := 1; y < ht-1; y++ {
		up := gray.Pix[(y-1)*gray.Stride:]
		down := gray.Pix[(y+1)*gray.Stride:]
		for x := 0; x < w; x++ {
			e.mag[y*w+x] = math.Abs(float64(down[x]) - float64(up[x]))
		}
	}
	return e
}

// pickRows returns local maxima above the threshold, strongest first,
// at least MinSpacing apart.
func (h *Heuristic) pickRows(profile []float64, top, height, maxLines int) []int {
	mean, sd := stat.MeanStdDev(profile, nil)
	if sd == 0 || math.IsNaN(sd) {
		return nil
	}
	thresh := mean + h.opts.Sigma*sd

	type peak struct {
		row int
		v   float64
	}
	var peaks []peak
	for i := 1; i < len(profile)-1; i++ {
		v := profile[i]
		if v >= thresh && v >= profile[i-1] && v > profile[i+1] {
			peaks = append(peaks, peak{row: top + i, v: v})
		}
	}
	sort.SliceStable(peaks, func(i, j int) bool { return peaks[i].v > peaks[j].v })

	spacing := max(1, int(h.opts.MinSpacing*float64(height)))
	var rows []int
	for _, p := range peaks {
		if len(rows) == maxLines {
			break
		}
		ok := true
		for _, r := range rows {
			if abs(p.row-r) < spacing {
				ok = false
				break
			}
		}
		if ok {
			rows = append(rows, p.row)
		}
	}
	return rows
}

// fitRow finds the longest strong run near row r and fits a line through
// the per-column edge maxima within it.
func (h *Heuristic) fitRow(e *edgeMap, r int) (fixture.MountingLine, bool) {
	const reach = 2

	strength := make([]float64, e.w)
	ys := make([]float64, e.w)
	for x := 0; x < e.w; x++ {
		best, by := 0.0, r
		for y := max(1, r-reach); y <= min(e.h-2, r+reach); y++ {
			if v := e.at(x, y); v > best {
				best, by = v, y
			}
		}
		strength[x] = best
		ys[x] = float64(by)
	}

	mean := stat.Mean(strength, nil)
	if mean == 0 {
		return fixture.MountingLine{}, false
	}
	maxGap := int(h.opts.MaxGap * float64(e.w))
	x0, x1 := longestRun(strength, mean, maxGap)
	if x1-x0+1 < int(h.opts.MinExtent*float64(e.w)) {
		return fixture.MountingLine{}, false
	}

	var xs, fy, wt []float64
	for x := x0; x <= x1; x++ {
		if strength[x] >= mean {
			xs = append(xs, float64(x))
			fy = append(fy, ys[x])
			wt = append(wt, strength[x])
		}
	}
	alpha, beta := float64(r), 0.0
	if len(xs) >= 2 {
		alpha, beta = stat.LinearRegression(xs, fy, wt, false)
		if math.IsNaN(beta) || math.Abs(beta) > h.opts.MaxSlope {
			alpha, beta = float64(r), 0
		}
	}

	px := func(x float64) float64 { return x / float64(e.w) * 100 }
	py := func(y float64) float64 { return y / float64(e.h) * 100 }
	return fixture.MountingLine{
		StartX: px(float64(x0)),
		StartY: py(alpha + beta*float64(x0)),
		EndX:   px(float64(x1 + 1)),
		EndY:   py(alpha + beta*float64(x1+1)),
	}, true
}

// longestRun returns the widest span of values at or above thresh,
// bridging gaps of up to maxGap columns.
func longestRun(v []float64, thresh float64, maxGap int) (int, int) {
	bestStart, bestEnd := 0, -1
	start, last := -1, -1
	for x, s := range v {
		if s < thresh {
			continue
		}
		if start < 0 || x-last-1 > maxGap {
			start = x
		}
		last = x
		if last-start > bestEnd-bestStart {
			bestStart, bestEnd = start, last
		}
	}
	return bestStart, bestEnd
}

// smooth applies a 3-tap box filter.
func smooth(p []float64) []float64 {
	if len(p) < 3 {
		return p
	}
	out := make([]float64, len(p))
	out[0] = (p[0] + p[1]) / 2
	out[len(p)-1] = (p[len(p)-2] + p[len(p)-1]) / 2
	for i := 1; i < len(p)-1; i++ {
		out[i] = (p[i-1] + p[i] + p[i+1]) / 3
	}
	return out
}

func argmax(v []float64) int {
	best := 0
	for i := range v {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// defaultLine is a typical roofline position used when the image has no
// usable edges.
func defaultLine() fixture.MountingLine {
	return fixture.MountingLine{StartX: 10, StartY: 25, EndX: 90, EndY: 25}
}
