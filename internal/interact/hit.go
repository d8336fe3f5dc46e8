package interact

import (
	"math"

	"lightplan/internal/fixture"
	"lightplan/pkg/geometry"
)

// hitFixture returns the topmost fixture within radius pixels of sp.
// Fixtures later in the list are drawn on top.
func (e Env) hitFixture(sp geometry.Point2D, radius float64) (fixture.Fixture, bool) {
	for i := len(e.Fixtures) - 1; i >= 0; i-- {
		f := e.Fixtures[i]
		fp, ok := e.toScreen(f.Position())
		if ok && fp.Distance(sp) <= radius {
			return f, true
		}
	}
	return fixture.Fixture{}, false
}

// hitLine returns the first mounting line within radius pixels of sp.
func (e Env) hitLine(sp geometry.Point2D, radius float64) (fixture.MountingLine, bool) {
	for _, l := range e.Lines {
		a, okA := e.toScreen(l.Start())
		b, okB := e.toScreen(l.End())
		if !okA || !okB {
			continue
		}
		if _, _, d := geometry.ProjectOntoSegment(sp, a, b); d <= radius {
			return l, true
		}
	}
	return fixture.MountingLine{}, false
}

// nominalBeamPixels is the on-screen length of an unscaled beam.
func (e Env) nominalBeamPixels(f fixture.Fixture) float64 {
	img, ok := e.imageRect()
	if !ok {
		return 0
	}
	return fixture.PresetFor(f.Category).Glow.BaseHeight * img.Height
}

// HandlePosition returns the screen position of a fixture's beam handle:
// the end of its beam, but never closer to the fixture than HandleMinOffset.
func (e Env) HandlePosition(f fixture.Fixture) (geometry.Point2D, bool) {
	fp, ok := e.toScreen(f.Position())
	if !ok {
		return geometry.Point2D{}, false
	}
	length := math.Max(e.nominalBeamPixels(f)*f.BeamLengthScale(), e.Config.HandleMinOffset)
	tip := geometry.Point2D{X: fp.X, Y: fp.Y - length}
	return geometry.RotationAround(fp, f.BeamDirection()).Apply(tip), true
}

// hitHandle reports whether sp grabs the beam handle of the selected fixture.
// Locked fixtures have no handle.
func (e Env) hitHandle(s State, sp geometry.Point2D) (fixture.Fixture, bool) {
	if s.Selected == "" {
		return fixture.Fixture{}, false
	}
	f, ok := e.fixture(s.Selected)
	if !ok || f.Locked {
		return fixture.Fixture{}, false
	}
	hp, ok := e.HandlePosition(f)
	if !ok || hp.Distance(sp) > e.Config.HandleRadius {
		return fixture.Fixture{}, false
	}
	return f, true
}

func roundToGrid(p geometry.Point2D, step float64) geometry.Point2D {
	if step <= 0 {
		return p
	}
	return geometry.Point2D{
		X: geometry.Clamp(math.Round(p.X/step)*step, 0, 100),
		Y: geometry.Clamp(math.Round(p.Y/step)*step, 0, 100),
	}
}

func clampPercent(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{X: geometry.Clamp(p.X, 0, 100), Y: geometry.Clamp(p.Y, 0, 100)}
}
