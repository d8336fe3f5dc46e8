// Package interact implements fixture placement gestures as a pure state
// machine. Reduce consumes one input event and returns the next state plus
// the effects the host must apply; Controller wires it to a store.
package interact

import (
	"time"

	"lightplan/internal/fixture"
	"lightplan/internal/snap"
	"lightplan/pkg/geometry"
)

// Mode is the current gesture.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDragging
	ModeRotatingBeam
	ModeDrawingLine
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeDragging:
		return "dragging"
	case ModeRotatingBeam:
		return "rotating_beam"
	case ModeDrawingLine:
		return "drawing_line"
	default:
		return "unknown"
	}
}

// Config holds the tuned interaction constants. Distances named Radius or
// Tolerance are screen pixels; everything else is in image percent.
type Config struct {
	Snap snap.Constraint

	MinLineLength float64
	MaxLines      int
	MountDepth    float64

	TapTolerance      float64
	TouchTapTolerance float64
	HitRadius         float64
	TouchHitRadius    float64
	HandleRadius      float64
	HandleMinOffset   float64

	LongPress time.Duration

	MinBeamScale float64
	MaxBeamScale float64

	GridStep        float64
	DuplicateOffset float64
}

// DefaultConfig returns the standard interaction tuning.
func DefaultConfig() Config {
	return Config{
		Snap:              snap.DefaultConstraint(),
		MinLineLength:     5,
		MaxLines:          10,
		MountDepth:        2,
		TapTolerance:      6,
		TouchTapTolerance: 12,
		HitRadius:         16,
		TouchHitRadius:    26,
		HandleRadius:      14,
		HandleMinOffset:   40,
		LongPress:         500 * time.Millisecond,
		MinBeamScale:      0.3,
		MaxBeamScale:      2.5,
		GridStep:          5,
		DuplicateOffset:   3,
	}
}

func (c Config) tapTolerance(touch bool) float64 {
	if touch {
		return c.TouchTapTolerance
	}
	return c.TapTolerance
}

func (c Config) hitRadius(touch bool) float64 {
	if touch {
		return c.TouchHitRadius
	}
	return c.HitRadius
}

// State is the interaction state. It is a plain value; Reduce never mutates
// its input.
type State struct {
	Mode Mode
	// Target is the fixture being dragged or rotated.
	Target string

	Selected     string
	SelectedLine string

	Armed         bool
	ArmedCategory fixture.Category

	DrawMode  bool
	LineStart geometry.Point2D
	LineEnd   geometry.Point2D

	Grid bool

	press      press
	seq        uint64
	dragOffset geometry.Point2D
	changed    bool
}

// press tracks the pointer between down and up.
type press struct {
	active  bool
	screen  geometry.Point2D
	percent geometry.Point2D
	valid   bool
	touch   bool
	target  string
	hit     bool
	token   uint64
	timer   bool
	moved   bool
}

// Button identifies a mouse button. Touch input always reports ButtonPrimary.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

// Event is an input to Reduce.
type Event interface{ isEvent() }

type PointerDown struct {
	X, Y   float64
	Button Button
	Touch  bool
}

type PointerMove struct {
	X, Y  float64
	Touch bool
}

type PointerUp struct {
	X, Y  float64
	Touch bool
}

type PointerCancel struct{}

// LongPress is delivered by the host when a timer started with StartTimer fires.
type LongPress struct {
	Token uint64
}

type Key struct {
	Key              string
	Ctrl             bool
	Shift            bool
	Meta             bool
	TextInputFocused bool
}

// Arm selects (or clears) the category placed by the next tap.
type Arm struct {
	Category fixture.Category
	On       bool
}

type SetDrawMode struct {
	On bool
}

func (PointerDown) isEvent()   {}
func (PointerMove) isEvent()   {}
func (PointerUp) isEvent()     {}
func (PointerCancel) isEvent() {}
func (LongPress) isEvent()     {}
func (Key) isEvent()           {}
func (Arm) isEvent()           {}
func (SetDrawMode) isEvent()   {}

// HapticStrength grades feedback vibration.
type HapticStrength int

const (
	HapticLight HapticStrength = iota
	HapticMedium
	HapticStrong
)

// Effect is an action Reduce asks the host to perform.
type Effect interface{ isEffect() }

type AddFixture struct{ Fixture fixture.Fixture }

// MoveFixture is a live position update; it does not record history.
type MoveFixture struct {
	ID   string
	X, Y float64
}

// SetBeam is a live beam update; it does not record history.
type SetBeam struct {
	ID       string
	Rotation float64
	Scale    float64
}

// CommitGesture records the live updates of a finished gesture.
type CommitGesture struct{}

type UpdateFixture struct {
	ID    string
	Patch fixture.Patch
}

type RemoveFixture struct{ ID string }

type AddLine struct{ Line fixture.MountingLine }

type RemoveLine struct{ ID string }

type Undo struct{}

type Redo struct{}

type Haptic struct{ Strength HapticStrength }

// Reject reports a refused action to the user.
type Reject struct{ Err error }

type StartTimer struct {
	Token uint64
	After time.Duration
}

type CancelTimer struct{ Token uint64 }

func (AddFixture) isEffect()    {}
func (MoveFixture) isEffect()   {}
func (SetBeam) isEffect()       {}
func (CommitGesture) isEffect() {}
func (UpdateFixture) isEffect() {}
func (RemoveFixture) isEffect() {}
func (AddLine) isEffect()       {}
func (RemoveLine) isEffect()    {}
func (Undo) isEffect()          {}
func (Redo) isEffect()          {}
func (Haptic) isEffect()        {}
func (Reject) isEffect()        {}
func (StartTimer) isEffect()    {}
func (CancelTimer) isEffect()   {}

// Env is everything Reduce reads besides the state itself. The host passes
// the latest values on every call.
type Env struct {
	Fixtures    []fixture.Fixture
	Lines       []fixture.MountingLine
	Container   geometry.Rect
	ImageAspect float64
	Config      Config
	NewID       func() string
}

func (e Env) imageRect() (geometry.Rect, bool) {
	return geometry.Letterbox(e.Container, e.ImageAspect)
}

func (e Env) toPercent(sp geometry.Point2D) (geometry.Point2D, bool) {
	return geometry.ScreenToImagePercent(sp.X, sp.Y, e.Container, e.ImageAspect)
}

func (e Env) toScreen(p geometry.Point2D) (geometry.Point2D, bool) {
	return geometry.ImagePercentToScreen(p, e.Container, e.ImageAspect)
}

func (e Env) fixture(id string) (fixture.Fixture, bool) {
	for _, f := range e.Fixtures {
		if f.ID == id {
			return f, true
		}
	}
	return fixture.Fixture{}, false
}

func (e Env) hasLine(id string) bool {
	for _, l := range e.Lines {
		if l.ID == id {
			return true
		}
	}
	return false
}

func (e Env) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return fixture.NewID()
}
