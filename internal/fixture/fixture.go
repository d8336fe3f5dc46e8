// Package fixture defines placed light fixtures, mounting lines, and the
// per-category presets that drive placement defaults and glow rendering.
package fixture

import (
	"errors"
	"fmt"
	"math"

	"lightplan/pkg/geometry"

	"github.com/google/uuid"
)

// ErrInvalid is returned by Validate for malformed fixtures and lines.
var ErrInvalid = errors.New("invalid fixture data")

// Fixture is a single placed light source. Positions are percentages of the
// image size.
type Fixture struct {
	ID               string   `json:"id"`
	X                float64  `json:"x"`
	Y                float64  `json:"y"`
	Category         Category `json:"category"`
	Intensity        float64  `json:"intensity"`
	ColorTemperature float64  `json:"colorTemperatureKelvin"`
	BeamAngle        float64  `json:"beamAngleDegrees"`
	Rotation         *float64 `json:"rotationDegrees,omitempty"`
	BeamScale        *float64 `json:"beamLengthScale,omitempty"`
	Locked           bool     `json:"locked"`
	Label            string   `json:"label,omitempty"`
}

// New creates a fixture at (x, y) with the category's preset defaults.
func New(id string, c Category, x, y float64) Fixture {
	p := PresetFor(c)
	f := Fixture{
		ID:               id,
		X:                x,
		Y:                y,
		Category:         c,
		Intensity:        p.Intensity,
		ColorTemperature: p.ColorTemperature,
		BeamAngle:        p.BeamAngle,
	}
	return f.Normalize()
}

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.NewString()
}

// Position returns the fixture position in percent coordinates.
func (f Fixture) Position() geometry.Point2D {
	return geometry.Point2D{X: f.X, Y: f.Y}
}

// BeamLengthScale returns the beam length multiplier, 1 when unset.
func (f Fixture) BeamLengthScale() float64 {
	if f.BeamScale == nil {
		return 1
	}
	return *f.BeamScale
}

// NaturalDirection returns the beam direction, in degrees clockwise from
// straight up, of a fixture of category c with no rotation set.
func NaturalDirection(c Category) float64 {
	if PresetFor(c).Glow.Direction == DirectionDown {
		return 180
	}
	return 0
}

// BeamDirection returns the beam direction in degrees clockwise from
// straight up: the rotation when set, else the category's natural direction.
func (f Fixture) BeamDirection() float64 {
	if f.Rotation == nil {
		return NaturalDirection(f.Category)
	}
	return geometry.NormalizeDegrees(*f.Rotation)
}

// Clone returns a copy that shares no pointers with f.
func (f Fixture) Clone() Fixture {
	if f.Rotation != nil {
		r := *f.Rotation
		f.Rotation = &r
	}
	if f.BeamScale != nil {
		s := *f.BeamScale
		f.BeamScale = &s
	}
	return f
}

// Normalize clamps position and intensity and wraps rotation into [0, 360).
func (f Fixture) Normalize() Fixture {
	f = f.Clone()
	f.X = geometry.Clamp(f.X, 0, 100)
	f.Y = geometry.Clamp(f.Y, 0, 100)
	f.Intensity = geometry.Clamp(f.Intensity, 0, 1)
	if f.Rotation != nil {
		*f.Rotation = geometry.NormalizeDegrees(*f.Rotation)
	}
	return f
}

// Validate checks that every field holds a usable value.
func (f Fixture) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("%w: fixture without id", ErrInvalid)
	}
	if !f.Category.Valid() {
		return fmt.Errorf("%w: fixture %s: unknown category", ErrInvalid, f.ID)
	}
	nums := []float64{f.X, f.Y, f.Intensity, f.ColorTemperature, f.BeamAngle}
	if f.Rotation != nil {
		nums = append(nums, *f.Rotation)
	}
	if f.BeamScale != nil {
		nums = append(nums, *f.BeamScale)
	}
	for _, v := range nums {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: fixture %s: non-finite value", ErrInvalid, f.ID)
		}
	}
	if f.ColorTemperature <= 0 {
		return fmt.Errorf("%w: fixture %s: color temperature %v", ErrInvalid, f.ID, f.ColorTemperature)
	}
	if f.BeamScale != nil && *f.BeamScale <= 0 {
		return fmt.Errorf("%w: fixture %s: beam scale %v", ErrInvalid, f.ID, *f.BeamScale)
	}
	return nil
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	X                *float64
	Y                *float64
	Category         *Category
	Intensity        *float64
	ColorTemperature *float64
	BeamAngle        *float64
	Rotation         *float64
	BeamScale        *float64
	Locked           *bool
	Label            *string
}

// Apply returns f with the patch applied and normalized.
func (p Patch) Apply(f Fixture) Fixture {
	f = f.Clone()
	if p.X != nil {
		f.X = *p.X
	}
	if p.Y != nil {
		f.Y = *p.Y
	}
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.Intensity != nil {
		f.Intensity = *p.Intensity
	}
	if p.ColorTemperature != nil {
		f.ColorTemperature = *p.ColorTemperature
	}
	if p.BeamAngle != nil {
		f.BeamAngle = *p.BeamAngle
	}
	if p.Rotation != nil {
		r := *p.Rotation
		f.Rotation = &r
	}
	if p.BeamScale != nil {
		s := *p.BeamScale
		f.BeamScale = &s
	}
	if p.Locked != nil {
		f.Locked = *p.Locked
	}
	if p.Label != nil {
		f.Label = *p.Label
	}
	return f.Normalize()
}

// Float returns a pointer to v, for building patches.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v, for building patches.
func Bool(v bool) *bool { return &v }

// MountingLine is a roofline or gutter segment fixtures can snap to.
// Coordinates are percentages of the image size.
type MountingLine struct {
	ID         string  `json:"id"`
	StartX     float64 `json:"startX"`
	StartY     float64 `json:"startY"`
	EndX       float64 `json:"endX"`
	EndY       float64 `json:"endY"`
	MountDepth float64 `json:"mountDepthPercent"`
}

// Start returns the first endpoint.
func (l MountingLine) Start() geometry.Point2D {
	return geometry.Point2D{X: l.StartX, Y: l.StartY}
}

// End returns the second endpoint.
func (l MountingLine) End() geometry.Point2D {
	return geometry.Point2D{X: l.EndX, Y: l.EndY}
}

// Length returns the Euclidean length in percent units.
func (l MountingLine) Length() float64 {
	return l.Start().Distance(l.End())
}

// Clamp returns the line with all endpoints clamped to [0, 100].
func (l MountingLine) Clamp() MountingLine {
	l.StartX = geometry.Clamp(l.StartX, 0, 100)
	l.StartY = geometry.Clamp(l.StartY, 0, 100)
	l.EndX = geometry.Clamp(l.EndX, 0, 100)
	l.EndY = geometry.Clamp(l.EndY, 0, 100)
	return l
}

// Validate checks the line's id and coordinates.
func (l MountingLine) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("%w: mounting line without id", ErrInvalid)
	}
	for _, v := range []float64{l.StartX, l.StartY, l.EndX, l.EndY, l.MountDepth} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: line %s: non-finite value", ErrInvalid, l.ID)
		}
	}
	return nil
}
