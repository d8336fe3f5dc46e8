package fixture

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory_TextRoundTrip(t *testing.T) {
	for _, c := range Categories() {
		text, err := c.MarshalText()
		require.NoError(t, err)

		var back Category
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, c, back)
	}

	var c Category
	assert.Error(t, c.UnmarshalText([]byte("lava_lamp")))
	_, err := Category(42).MarshalText()
	assert.Error(t, err)
}

func TestCategory_MountEligible(t *testing.T) {
	assert.True(t, Uplight.MountEligible())
	assert.True(t, GutterMount.MountEligible())
	assert.False(t, PathLight.MountEligible())
	assert.False(t, StepLight.MountEligible())
}

func TestNew_UsesPreset(t *testing.T) {
	f := New("a", Spotlight, 120, -4)
	p := PresetFor(Spotlight)

	assert.Equal(t, 100.0, f.X)
	assert.Equal(t, 0.0, f.Y)
	assert.Equal(t, p.Intensity, f.Intensity)
	assert.Equal(t, p.ColorTemperature, f.ColorTemperature)
	assert.Equal(t, p.BeamAngle, f.BeamAngle)
	assert.Nil(t, f.Rotation)
	assert.Equal(t, 1.0, f.BeamLengthScale())
}

func TestPresets_HaveDistinctMarkers(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range Categories() {
		p := PresetFor(c)
		assert.NotEmpty(t, p.Abbrev)
		assert.Greater(t, p.Glow.Layers, 0, c.String())
		assert.Greater(t, p.Glow.BaseHeight, 0.0)
		assert.Equal(t, uint8(255), p.MarkerColor.A)
		assert.False(t, seen[p.Abbrev], "duplicate abbrev %s", p.Abbrev)
		seen[p.Abbrev] = true
	}
}

func TestPatch_ApplyNormalizes(t *testing.T) {
	f := New("a", Uplight, 50, 50)
	got := Patch{X: Float(-3), Rotation: Float(-90), Intensity: Float(7)}.Apply(f)

	assert.Equal(t, 0.0, got.X)
	assert.Equal(t, 50.0, got.Y)
	assert.Equal(t, 1.0, got.Intensity)
	require.NotNil(t, got.Rotation)
	assert.Equal(t, 270.0, *got.Rotation)
	assert.Nil(t, f.Rotation, "original untouched")
}

func TestClone_DoesNotShare(t *testing.T) {
	f := New("a", Uplight, 1, 2)
	f.Rotation = Float(10)
	c := f.Clone()
	*c.Rotation = 20
	assert.Equal(t, 10.0, *f.Rotation)
}

func TestBeamDirection(t *testing.T) {
	down := New("d", Downlight, 50, 50)
	assert.Equal(t, 180.0, down.BeamDirection())
	assert.Equal(t, 0.0, New("u", Uplight, 50, 50).BeamDirection())

	down.Rotation = Float(0)
	assert.Equal(t, 0.0, down.BeamDirection(), "a set rotation is absolute")
	down.Rotation = Float(180)
	assert.Equal(t, 180.0, down.BeamDirection())
}

func TestFixture_JSON(t *testing.T) {
	f := New("fx-1", WallWash, 12.5, 40)
	f.Rotation = Float(45)

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"category":"wall_wash"`)
	assert.Contains(t, string(data), `"rotationDegrees":45`)
	assert.NotContains(t, string(data), "beamLengthScale")

	var back Fixture
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, f, back)
}

func TestFixture_Validate(t *testing.T) {
	ok := New("a", Bollard, 10, 10)
	assert.NoError(t, ok.Validate())

	noID := ok
	noID.ID = ""
	assert.ErrorIs(t, noID.Validate(), ErrInvalid)

	nan := ok
	nan.X = math.NaN()
	assert.ErrorIs(t, nan.Validate(), ErrInvalid)

	badScale := ok
	badScale.BeamScale = Float(0)
	assert.ErrorIs(t, badScale.Validate(), ErrInvalid)
}

func TestMountingLine(t *testing.T) {
	l := MountingLine{ID: "l", StartX: 0, StartY: 0, EndX: 3, EndY: 4}
	assert.Equal(t, 5.0, l.Length())
	assert.NoError(t, l.Validate())

	c := MountingLine{ID: "l", StartX: -5, EndX: 120, StartY: 50, EndY: 50}.Clamp()
	assert.Equal(t, 0.0, c.StartX)
	assert.Equal(t, 100.0, c.EndX)

	l.EndY = math.Inf(1)
	assert.ErrorIs(t, l.Validate(), ErrInvalid)
}
