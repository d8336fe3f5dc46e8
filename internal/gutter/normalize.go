package gutter

import (
	"math"
	"sort"

	"lightplan/internal/fixture"
	"lightplan/pkg/geometry"
)

// NormalizeOptions controls Normalize. Lengths are in percent of the image.
type NormalizeOptions struct {
	MinLength  float64
	MinSpacing float64 // lines closer than this vertically are duplicates
	MountDepth float64 // assigned when a line has none
	MaxLines   int     // hard cap applied when the caller passes 0
}

// DefaultNormalizeOptions matches the store's line rules.
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{
		MinLength:  5,
		MinSpacing: 3,
		MountDepth: 2,
		MaxLines:   10,
	}
}

// Normalize clamps lines to the image, drops short and non-finite ones,
// removes near-duplicates (keeping the longer line), assigns missing ids
// and returns at most maxLines lines ordered top to bottom.
func Normalize(lines []fixture.MountingLine, maxLines int, opts NormalizeOptions) []fixture.MountingLine {
	if maxLines <= 0 {
		maxLines = opts.MaxLines
	}
	if maxLines <= 0 {
		return nil
	}

	cands := make([]fixture.MountingLine, 0, len(lines))
	for _, l := range lines {
		if !finite(l.StartX, l.StartY, l.EndX, l.EndY) {
			continue
		}
		l = l.Clamp()
		// Left to right.
		if l.StartX > l.EndX {
			l.StartX, l.EndX = l.EndX, l.StartX
			l.StartY, l.EndY = l.EndY, l.StartY
		}
		if l.Length() < opts.MinLength {
			continue
		}
		if l.MountDepth <= 0 || math.IsNaN(l.MountDepth) {
			l.MountDepth = opts.MountDepth
		}
		cands = append(cands, l)
	}

	// Longest first so duplicates resolve in favor of the better line.
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Length() > cands[j].Length()
	})

	var kept []fixture.MountingLine
	for _, l := range cands {
		if len(kept) == maxLines {
			break
		}
		dup := false
		for _, k := range kept {
			if duplicate(l, k, opts.MinSpacing) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, l)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return midY(kept[i]) < midY(kept[j])
	})
	seen := make(map[string]bool, len(kept))
	for i := range kept {
		if kept[i].ID == "" || seen[kept[i].ID] {
			kept[i].ID = fixture.NewID()
		}
		seen[kept[i].ID] = true
	}
	return kept
}

// duplicate reports whether two lines overlap horizontally and sit within
// spacing of each other vertically.
func duplicate(a, b fixture.MountingLine, spacing float64) bool {
	overlap := math.Min(a.EndX, b.EndX) - math.Max(a.StartX, b.StartX)
	if overlap <= 0 {
		return false
	}
	return math.Abs(midY(a)-midY(b)) < spacing
}

func midY(l fixture.MountingLine) float64 {
	return (l.StartY + l.EndY) / 2
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// toPercent converts a point to percent space given its coordinate space.
func toPercent(p geometry.Point2D, space Space, w, h int) geometry.Point2D {
	switch space {
	case SpaceFraction:
		return p.Scale(100)
	case SpacePixels:
		if w <= 0 || h <= 0 {
			return p
		}
		return geometry.Point2D{X: p.X / float64(w) * 100, Y: p.Y / float64(h) * 100}
	default:
		return p
	}
}
