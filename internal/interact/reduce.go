package interact

import (
	"math"
	"strings"

	"lightplan/internal/fixture"
	"lightplan/internal/store"
	"lightplan/pkg/geometry"
)

// Reduce applies one event to the state. It is pure: the returned effects
// describe every change the host has to make.
func Reduce(s State, ev Event, env Env) (State, []Effect) {
	s = prune(s, env)

	switch e := ev.(type) {
	case PointerDown:
		return pointerDown(s, e, env)
	case PointerMove:
		return pointerMove(s, e, env)
	case PointerUp:
		return pointerUp(s, e, env)
	case PointerCancel:
		return pointerCancel(s)
	case LongPress:
		return longPress(s, e)
	case Key:
		return key(s, e, env)
	case Arm:
		s.Armed = e.On
		s.ArmedCategory = e.Category
		if e.On {
			s = leaveDrawMode(s)
		}
		return s, nil
	case SetDrawMode:
		if e.On {
			s.DrawMode = true
			s.Armed = false
			return s, nil
		}
		return leaveDrawMode(s), nil
	}
	return s, nil
}

// prune drops references to entities that no longer exist, for example
// after an undo removed the selected fixture.
func prune(s State, env Env) State {
	if s.Selected != "" {
		if _, ok := env.fixture(s.Selected); !ok {
			s.Selected = ""
		}
	}
	if s.SelectedLine != "" && !env.hasLine(s.SelectedLine) {
		s.SelectedLine = ""
	}
	if (s.Mode == ModeDragging || s.Mode == ModeRotatingBeam) && s.Target != "" {
		if _, ok := env.fixture(s.Target); !ok {
			s.Mode = ModeIdle
			s.Target = ""
			s.changed = false
		}
	}
	return s
}

func leaveDrawMode(s State) State {
	s.DrawMode = false
	if s.Mode == ModeDrawingLine {
		s.Mode = ModeIdle
	}
	return s
}

// endPress clears the tracked press and cancels its long-press timer.
func endPress(s State, fx []Effect) (State, []Effect) {
	if s.press.timer {
		fx = append(fx, CancelTimer{Token: s.press.token})
	}
	s.press = press{}
	return s, fx
}

// endGesture finishes a drag or rotation, committing it if anything moved.
func endGesture(s State, fx []Effect) (State, []Effect) {
	if s.Mode != ModeDragging && s.Mode != ModeRotatingBeam {
		return s, fx
	}
	if s.changed {
		fx = append(fx, CommitGesture{})
	}
	s.Mode = ModeIdle
	s.Target = ""
	s.changed = false
	return s, fx
}

func pointerDown(s State, e PointerDown, env Env) (State, []Effect) {
	var fx []Effect
	s, fx = endPress(s, fx)
	s, fx = endGesture(s, fx)

	cfg := env.Config
	sp := geometry.Point2D{X: e.X, Y: e.Y}
	p, ok := env.toPercent(sp)

	if e.Button == ButtonSecondary {
		if f, hit := env.hitFixture(sp, cfg.hitRadius(e.Touch)); hit {
			return deleteFixture(s, f.ID, fx)
		}
		return s, fx
	}

	s.seq++
	s.press = press{
		active:  true,
		screen:  sp,
		percent: p,
		valid:   ok,
		touch:   e.Touch,
		token:   s.seq,
	}

	if s.DrawMode {
		if !ok {
			s.press = press{}
			return s, fx
		}
		if s.Mode == ModeDrawingLine {
			// Second click of a click-click line.
			s.press = press{}
			return finishLine(s, p, env, fx)
		}
		s.Mode = ModeDrawingLine
		s.LineStart, s.LineEnd = p, p
		return s, fx
	}

	if f, hit := env.hitHandle(s, sp); hit {
		s.Mode = ModeRotatingBeam
		s.Target = f.ID
		s.press.hit = true
		return s, append(fx, Haptic{Strength: HapticLight})
	}

	if f, hit := env.hitFixture(sp, cfg.hitRadius(e.Touch)); hit {
		s.Selected = f.ID
		s.SelectedLine = ""
		s.press.hit = true
		s.press.target = f.ID
		if e.Touch {
			s.press.timer = true
			fx = append(fx, StartTimer{Token: s.press.token, After: cfg.LongPress})
		}
		if f.Locked {
			return s, fx
		}
		s.Mode = ModeDragging
		s.Target = f.ID
		s.dragOffset = geometry.Point2D{}
		if ok {
			s.dragOffset = f.Position().Sub(p)
		}
		return s, fx
	}

	if l, hit := env.hitLine(sp, cfg.hitRadius(e.Touch)); hit {
		s.SelectedLine = l.ID
		s.Selected = ""
		s.press.hit = true
	}
	return s, fx
}

func pointerMove(s State, e PointerMove, env Env) (State, []Effect) {
	var fx []Effect
	cfg := env.Config
	sp := geometry.Point2D{X: e.X, Y: e.Y}
	p, ok := env.toPercent(sp)

	if s.press.active && !s.press.moved && sp.Distance(s.press.screen) > cfg.tapTolerance(s.press.touch) {
		s.press.moved = true
		if s.press.timer {
			s.press.timer = false
			fx = append(fx, CancelTimer{Token: s.press.token})
		}
	}

	switch s.Mode {
	case ModeDragging:
		if !s.press.moved || !ok {
			return s, fx
		}
		f, found := env.fixture(s.Target)
		if !found {
			return s, fx
		}
		pos := constrainDrag(s, env, f.Category, clampPercent(p.Add(s.dragOffset)))
		s.changed = true
		fx = append(fx, MoveFixture{ID: f.ID, X: pos.X, Y: pos.Y})

	case ModeRotatingBeam:
		f, found := env.fixture(s.Target)
		if !found {
			return s, fx
		}
		fp, fok := env.toScreen(f.Position())
		nominal := env.nominalBeamPixels(f)
		dx, dy := sp.X-fp.X, sp.Y-fp.Y
		if !fok || nominal <= 0 || (dx == 0 && dy == 0) {
			return s, fx
		}
		rotation := geometry.NormalizeDegrees(math.Atan2(dx, -dy) * 180 / math.Pi)
		scale := geometry.Clamp(math.Hypot(dx, dy)/nominal, cfg.MinBeamScale, cfg.MaxBeamScale)
		s.changed = true
		fx = append(fx, SetBeam{ID: f.ID, Rotation: rotation, Scale: scale})

	case ModeDrawingLine:
		if ok {
			s.LineEnd = p
		}
	}
	return s, fx
}

func constrainDrag(s State, env Env, cat fixture.Category, pos geometry.Point2D) geometry.Point2D {
	c := env.Config.Snap
	pos, snapped := c.Drag(cat, pos, env.Lines)
	if s.Grid && !snapped {
		if g := roundToGrid(pos, env.Config.GridStep); !c.RequiresMount(cat, g.Y) {
			pos = g
		}
	}
	return pos
}

func pointerUp(s State, e PointerUp, env Env) (State, []Effect) {
	var fx []Effect
	pr := s.press
	s, fx = endPress(s, fx)

	switch s.Mode {
	case ModeDragging, ModeRotatingBeam:
		return endGesture(s, fx)
	case ModeDrawingLine:
		if !pr.active || !pr.moved {
			// A click sets the start point; the next click ends the line.
			return s, fx
		}
		end := s.LineEnd
		if p, ok := env.toPercent(geometry.Point2D{X: e.X, Y: e.Y}); ok {
			end = p
		}
		return finishLine(s, end, env, fx)
	}

	if !pr.active || pr.moved || pr.hit || s.DrawMode {
		return s, fx
	}
	if !s.Armed {
		s.Selected = ""
		s.SelectedLine = ""
		return s, fx
	}
	if !pr.valid {
		return s, fx
	}
	return place(s, pr.percent, env, fx)
}

func pointerCancel(s State) (State, []Effect) {
	var fx []Effect
	s, fx = endPress(s, fx)
	s, fx = endGesture(s, fx)
	if s.Mode == ModeDrawingLine {
		s.Mode = ModeIdle
	}
	return s, fx
}

func longPress(s State, e LongPress) (State, []Effect) {
	pr := s.press
	if !pr.active || !pr.timer || pr.token != e.Token || pr.moved || pr.target == "" {
		return s, nil
	}
	s.press = press{}
	if s.Mode == ModeDragging {
		s.Mode = ModeIdle
		s.Target = ""
		s.changed = false
	}
	return deleteFixture(s, pr.target, nil)
}

// place creates a fixture of the armed category at p, subject to the
// mounting constraint.
func place(s State, p geometry.Point2D, env Env, fx []Effect) (State, []Effect) {
	c := env.Config.Snap
	cat := s.ArmedCategory

	pos, err := c.Place(cat, p, env.Lines)
	if err != nil {
		return s, append(fx, Haptic{Strength: HapticStrong}, Reject{Err: err})
	}
	if s.Grid && !c.RequiresMount(cat, p.Y) {
		if g := roundToGrid(pos, env.Config.GridStep); !c.RequiresMount(cat, g.Y) {
			pos = g
		}
	}

	f := fixture.New(env.newID(), cat, pos.X, pos.Y)
	s.Selected = f.ID
	s.SelectedLine = ""
	return s, append(fx, AddFixture{Fixture: f}, Haptic{Strength: HapticMedium})
}

// finishLine commits the line from LineStart to end. The draw mode stays on.
func finishLine(s State, end geometry.Point2D, env Env, fx []Effect) (State, []Effect) {
	cfg := env.Config
	s.Mode = ModeIdle
	s.LineEnd = end

	l := fixture.MountingLine{
		ID:         env.newID(),
		StartX:     s.LineStart.X,
		StartY:     s.LineStart.Y,
		EndX:       end.X,
		EndY:       end.Y,
		MountDepth: cfg.MountDepth,
	}
	switch {
	case l.Length() < cfg.MinLineLength:
		return s, append(fx, Haptic{Strength: HapticStrong}, Reject{Err: store.ErrLineTooShort})
	case len(env.Lines) >= cfg.MaxLines:
		return s, append(fx, Haptic{Strength: HapticStrong}, Reject{Err: store.ErrLineLimit})
	}
	s.SelectedLine = l.ID
	return s, append(fx, AddLine{Line: l}, Haptic{Strength: HapticLight})
}

func deleteFixture(s State, id string, fx []Effect) (State, []Effect) {
	s, fx = endPress(s, fx)
	if s.Selected == id {
		s.Selected = ""
	}
	if s.Target == id {
		s.Mode = ModeIdle
		s.Target = ""
		s.changed = false
	}
	return s, append(fx, RemoveFixture{ID: id}, Haptic{Strength: HapticMedium})
}

func key(s State, e Key, env Env) (State, []Effect) {
	if e.TextInputFocused {
		return s, nil
	}
	mod := e.Ctrl || e.Meta
	k := strings.ToLower(e.Key)
	busy := s.Mode == ModeDragging || s.Mode == ModeRotatingBeam

	switch {
	case k == "delete" || k == "backspace":
		if busy {
			return s, nil
		}
		if s.Selected != "" {
			return deleteFixture(s, s.Selected, nil)
		}
		if s.SelectedLine != "" {
			id := s.SelectedLine
			s.SelectedLine = ""
			return s, []Effect{RemoveLine{ID: id}, Haptic{Strength: HapticMedium}}
		}

	case k == "escape":
		var fx []Effect
		s, fx = endPress(s, fx)
		s, fx = endGesture(s, fx)
		s = leaveDrawMode(s)
		s.Armed = false
		s.Selected = ""
		s.SelectedLine = ""
		return s, fx

	case mod && k == "z":
		if busy {
			return s, nil
		}
		if e.Shift {
			return s, []Effect{Redo{}}
		}
		return s, []Effect{Undo{}}

	case mod && k == "y":
		if busy {
			return s, nil
		}
		return s, []Effect{Redo{}}

	case mod && k == "d":
		return duplicate(s, env)

	case !mod && k == "l":
		f, ok := env.fixture(s.Selected)
		if !ok {
			return s, nil
		}
		return s, []Effect{UpdateFixture{ID: f.ID, Patch: fixture.Patch{Locked: fixture.Bool(!f.Locked)}}}

	case !mod && k == "g":
		s.Grid = !s.Grid
		return s, nil
	}
	return s, nil
}

func duplicate(s State, env Env) (State, []Effect) {
	src, ok := env.fixture(s.Selected)
	if !ok {
		return s, nil
	}
	off := env.Config.DuplicateOffset
	p := clampPercent(src.Position().Add(geometry.Point2D{X: off, Y: off}))

	pos, err := env.Config.Snap.Place(src.Category, p, env.Lines)
	if err != nil {
		return s, []Effect{Haptic{Strength: HapticStrong}, Reject{Err: err}}
	}

	f := src.Clone()
	f.ID = env.newID()
	f.X, f.Y = pos.X, pos.Y
	f.Locked = false
	s.Selected = f.ID
	return s, []Effect{AddFixture{Fixture: f.Normalize()}, Haptic{Strength: HapticLight}}
}
