package snap

import (
	"testing"

	"lightplan/internal/fixture"
	"lightplan/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gutter(id string, x1, y1, x2, y2 float64) fixture.MountingLine {
	return fixture.MountingLine{ID: id, StartX: x1, StartY: y1, EndX: x2, EndY: y2}
}

func TestNearest_NoLines(t *testing.T) {
	_, ok := Resolver{Threshold: 15}.Nearest(geometry.NewPoint2D(50, 50), nil)
	assert.False(t, ok)
}

func TestNearest_OutsideThreshold(t *testing.T) {
	lines := []fixture.MountingLine{gutter("a", 10, 10, 90, 10)}
	_, ok := Resolver{Threshold: 15}.Nearest(geometry.NewPoint2D(50, 40), lines)
	assert.False(t, ok)
}

func TestNearest_PointLiesOnSegment(t *testing.T) {
	lines := []fixture.MountingLine{
		gutter("far", 0, 90, 100, 90),
		gutter("slanted", 10, 10, 90, 30),
	}
	res, ok := Resolver{Threshold: 15}.Nearest(geometry.NewPoint2D(50, 25), lines)
	require.True(t, ok)
	assert.Equal(t, "slanted", res.LineID)

	// The snapped point must be on the slanted segment.
	_, _, dist := geometry.ProjectOntoSegment(res.Point, lines[1].Start(), lines[1].End())
	assert.InDelta(t, 0, dist, 1e-9)
	assert.LessOrEqual(t, res.Distance, 15.0)
}

func TestNearest_FirstMinimumWins(t *testing.T) {
	lines := []fixture.MountingLine{
		gutter("upper", 0, 20, 100, 20),
		gutter("lower", 0, 30, 100, 30),
	}
	res, ok := Resolver{Threshold: 15}.Nearest(geometry.NewPoint2D(50, 25), lines)
	require.True(t, ok)
	assert.Equal(t, "upper", res.LineID)
	assert.Equal(t, geometry.NewPoint2D(50, 20), res.Point)
}

func TestPlace_UplightAboveFirstStoryNeedsLine(t *testing.T) {
	c := DefaultConstraint()

	_, err := c.Place(fixture.Uplight, geometry.NewPoint2D(50, 20), nil)
	assert.ErrorIs(t, err, ErrNoMountingLine)

	p, err := c.Place(fixture.Uplight, geometry.NewPoint2D(50, 80), nil)
	require.NoError(t, err)
	assert.Equal(t, geometry.NewPoint2D(50, 80), p)

	p, err = c.Place(fixture.Uplight, geometry.NewPoint2D(50, 20), []fixture.MountingLine{gutter("g", 0, 15, 100, 15)})
	require.NoError(t, err)
	assert.Equal(t, geometry.NewPoint2D(50, 15), p)
}

func TestPlace_GroundFixturesIgnoreRule(t *testing.T) {
	p, err := DefaultConstraint().Place(fixture.PathLight, geometry.NewPoint2D(30, 10), nil)
	require.NoError(t, err)
	assert.Equal(t, geometry.NewPoint2D(30, 10), p)
}

func TestDrag_ClampsToFirstStory(t *testing.T) {
	c := DefaultConstraint()

	p, snapped := c.Drag(fixture.Spotlight, geometry.NewPoint2D(40, 10), nil)
	assert.False(t, snapped)
	assert.Equal(t, geometry.NewPoint2D(40, 45), p)

	p, snapped = c.Drag(fixture.Spotlight, geometry.NewPoint2D(40, 10), []fixture.MountingLine{gutter("g", 0, 12, 100, 12)})
	assert.True(t, snapped)
	assert.Equal(t, geometry.NewPoint2D(40, 12), p)
}
