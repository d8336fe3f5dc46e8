// Package snap resolves fixture positions against mounting lines and
// enforces the upper-facade placement rule.
package snap

import (
	"errors"

	"lightplan/internal/fixture"
	"lightplan/pkg/geometry"
)

// Defaults used when no configuration overrides them.
const (
	DefaultThreshold   = 15.0
	DefaultFirstStoryY = 45.0
)

// ErrNoMountingLine is returned when a mount-eligible fixture is placed
// above the first story with no mounting line in reach.
var ErrNoMountingLine = errors.New("fixture must be placed on a mounting line")

// Result is a snapped position on a mounting line.
type Result struct {
	Point    geometry.Point2D
	Distance float64
	LineID   string
}

// Resolver finds the nearest point on a set of mounting lines.
type Resolver struct {
	// Threshold is the maximum snap distance in percent units.
	Threshold float64
}

// Nearest projects p onto every line and returns the closest projection if
// it lies within the threshold. When several lines are equally close, the
// first one in slice order wins.
func (r Resolver) Nearest(p geometry.Point2D, lines []fixture.MountingLine) (Result, bool) {
	best := Result{}
	found := false

	for _, l := range lines {
		proj, _, dist := geometry.ProjectOntoSegment(p, l.Start(), l.End())
		if !found || dist < best.Distance {
			best = Result{Point: proj, Distance: dist, LineID: l.ID}
			found = true
		}
	}

	if !found || best.Distance > r.Threshold {
		return Result{}, false
	}
	return best, true
}

// Constraint applies the mounting rule on top of a Resolver.
type Constraint struct {
	Resolver    Resolver
	FirstStoryY float64
}

// DefaultConstraint returns a constraint using the default threshold and
// first-story line.
func DefaultConstraint() Constraint {
	return Constraint{
		Resolver:    Resolver{Threshold: DefaultThreshold},
		FirstStoryY: DefaultFirstStoryY,
	}
}

// RequiresMount reports whether a fixture of category c at height y must sit
// on a mounting line.
func (c Constraint) RequiresMount(cat fixture.Category, y float64) bool {
	return cat.MountEligible() && y < c.FirstStoryY
}

// Place resolves the position for a new fixture. Positions that require a
// mount but have no line within reach are rejected.
func (c Constraint) Place(cat fixture.Category, p geometry.Point2D, lines []fixture.MountingLine) (geometry.Point2D, error) {
	if !c.RequiresMount(cat, p.Y) {
		return p, nil
	}
	res, ok := c.Resolver.Nearest(p, lines)
	if !ok {
		return geometry.Point2D{}, ErrNoMountingLine
	}
	return res.Point, nil
}

// Drag resolves the position for an existing fixture being moved. Instead of
// rejecting, an unmountable position is pushed down to the first-story line.
func (c Constraint) Drag(cat fixture.Category, p geometry.Point2D, lines []fixture.MountingLine) (geometry.Point2D, bool) {
	if !c.RequiresMount(cat, p.Y) {
		return p, false
	}
	if res, ok := c.Resolver.Nearest(p, lines); ok {
		return res.Point, true
	}
	return geometry.Point2D{X: p.X, Y: c.FirstStoryY}, false
}
