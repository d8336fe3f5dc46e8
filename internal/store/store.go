// Package store holds the canonical set of placed fixtures and mounting
// lines together with a bounded undo/redo history.
package store

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"lightplan/internal/fixture"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateID  = errors.New("duplicate id")
	ErrLineTooShort = errors.New("mounting line too short")
	ErrLineLimit    = errors.New("mounting line limit reached")
)

// Config bounds the store.
type Config struct {
	HistoryLimit  int
	MaxLines      int
	MinLineLength float64
}

// DefaultConfig returns the standard limits.
func DefaultConfig() Config {
	return Config{
		HistoryLimit:  50,
		MaxLines:      10,
		MinLineLength: 5,
	}
}

// Store owns fixtures and mounting lines. Every committed mutation records a
// history snapshot; live drag updates do not until CommitGesture.
type Store struct {
	mu sync.RWMutex

	cfg      Config
	fixtures []fixture.Fixture
	lines    []fixture.MountingLine
	history  *History

	// Set by live updates, cleared when a snapshot is pushed or restored.
	live bool

	onChange func()
}

// New creates an empty store.
func New(cfg Config) *Store {
	if cfg.HistoryLimit < 1 {
		cfg.HistoryLimit = DefaultConfig().HistoryLimit
	}
	return &Store{
		cfg:     cfg,
		history: NewHistory(cfg.HistoryLimit, Snapshot{}),
	}
}

// OnChange registers a callback invoked after every mutation, outside the lock.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Config returns the store limits.
func (s *Store) Config() Config {
	return s.cfg
}

// Fixtures returns a copy of all fixtures in placement order.
func (s *Store) Fixtures() []fixture.Fixture {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current().clone().Fixtures
}

// Lines returns a copy of all mounting lines.
func (s *Store) Lines() []fixture.MountingLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]fixture.MountingLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Snapshot returns a copy of the current contents.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current().clone()
}

// Fixture looks up a fixture by id.
func (s *Store) Fixture(id string) (fixture.Fixture, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.fixtureIndex(id); i >= 0 {
		return s.fixtures[i].Clone(), true
	}
	return fixture.Fixture{}, false
}

func (s *Store) current() Snapshot {
	return Snapshot{Fixtures: s.fixtures, Lines: s.lines}
}

func (s *Store) fixtureIndex(id string) int {
	for i := range s.fixtures {
		if s.fixtures[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) lineIndex(id string) int {
	for i := range s.lines {
		if s.lines[i].ID == id {
			return i
		}
	}
	return -1
}

// commit pushes the current contents onto the history. Caller holds the lock.
func (s *Store) commit() {
	s.history.Push(s.current())
	s.live = false
}

// restore replaces the contents with a snapshot. Caller holds the lock.
func (s *Store) restore(snap Snapshot) {
	c := snap.clone()
	s.fixtures = c.Fixtures
	s.lines = c.Lines
	s.live = false
}

// Add inserts a new fixture.
func (s *Store) Add(f fixture.Fixture) error {
	if err := f.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.fixtureIndex(f.ID) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("fixture %s: %w", f.ID, ErrDuplicateID)
	}
	s.fixtures = append(s.fixtures, f.Normalize())
	s.commit()
	s.mu.Unlock()

	s.notify()
	return nil
}

// Remove deletes a fixture.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	i := s.fixtureIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("fixture %s: %w", id, ErrNotFound)
	}
	s.fixtures = append(s.fixtures[:i:i], s.fixtures[i+1:]...)
	s.commit()
	s.mu.Unlock()

	s.notify()
	return nil
}

// Update applies a partial change to a fixture.
func (s *Store) Update(id string, p fixture.Patch) error {
	s.mu.Lock()
	i := s.fixtureIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("fixture %s: %w", id, ErrNotFound)
	}
	updated := p.Apply(s.fixtures[i])
	if err := updated.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.fixtures = replaceAt(s.fixtures, i, updated)
	s.commit()
	s.mu.Unlock()

	s.notify()
	return nil
}

// AddLine inserts a mounting line after clamping it into the image. Lines
// shorter than the minimum or beyond the limit are rejected unchanged.
func (s *Store) AddLine(l fixture.MountingLine) error {
	if err := l.Validate(); err != nil {
		return err
	}
	l = l.Clamp()
	if l.Length() < s.cfg.MinLineLength {
		return fmt.Errorf("length %.2f: %w", l.Length(), ErrLineTooShort)
	}

	s.mu.Lock()
	if len(s.lines) >= s.cfg.MaxLines {
		s.mu.Unlock()
		return fmt.Errorf("%d lines: %w", s.cfg.MaxLines, ErrLineLimit)
	}
	if s.lineIndex(l.ID) >= 0 {
		s.mu.Unlock()
		return fmt.Errorf("line %s: %w", l.ID, ErrDuplicateID)
	}
	s.lines = append(s.lines[:len(s.lines):len(s.lines)], l)
	s.commit()
	s.mu.Unlock()

	s.notify()
	return nil
}

// RemoveLine deletes a mounting line.
func (s *Store) RemoveLine(id string) error {
	s.mu.Lock()
	i := s.lineIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("line %s: %w", id, ErrNotFound)
	}
	s.lines = append(s.lines[:i:i], s.lines[i+1:]...)
	s.commit()
	s.mu.Unlock()

	s.notify()
	return nil
}

// Clear removes every fixture and mounting line.
func (s *Store) Clear() {
	s.mu.Lock()
	s.fixtures = nil
	s.lines = nil
	s.commit()
	s.mu.Unlock()

	s.notify()
}

// MoveLive repositions a fixture without recording history.
func (s *Store) MoveLive(id string, x, y float64) error {
	return s.patchLive(id, fixture.Patch{X: &x, Y: &y})
}

// SetBeamLive changes a fixture's beam rotation and length scale without
// recording history.
func (s *Store) SetBeamLive(id string, rotation, scale float64) error {
	return s.patchLive(id, fixture.Patch{Rotation: &rotation, BeamScale: &scale})
}

func (s *Store) patchLive(id string, p fixture.Patch) error {
	s.mu.Lock()
	i := s.fixtureIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("fixture %s: %w", id, ErrNotFound)
	}
	updated := p.Apply(s.fixtures[i])
	if err := updated.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.fixtures = replaceAt(s.fixtures, i, updated)
	s.live = true
	s.mu.Unlock()

	s.notify()
	return nil
}

// CommitGesture records one snapshot for the live updates made since the
// last commit. It reports whether a snapshot was pushed; a gesture that left
// everything where it started pushes nothing.
func (s *Store) CommitGesture() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live {
		return false
	}
	s.live = false
	if reflect.DeepEqual(normalizeEmpty(s.current()), normalizeEmpty(s.history.Current())) {
		return false
	}
	s.commit()
	return true
}

// Undo restores the previous snapshot.
func (s *Store) Undo() bool {
	s.mu.Lock()
	snap, ok := s.history.Undo()
	if ok {
		s.restore(snap)
	}
	s.mu.Unlock()

	if ok {
		s.notify()
	}
	return ok
}

// Redo restores the next snapshot.
func (s *Store) Redo() bool {
	s.mu.Lock()
	snap, ok := s.history.Redo()
	if ok {
		s.restore(snap)
	}
	s.mu.Unlock()

	if ok {
		s.notify()
	}
	return ok
}

// CanUndo reports whether Undo would succeed.
func (s *Store) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanUndo()
}

// CanRedo reports whether Redo would succeed.
func (s *Store) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.CanRedo()
}

// HistoryLen returns the number of recorded snapshots.
func (s *Store) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Len()
}

// AppendDetectedLines adds detector results after whatever the user already
// drew. Lines that are too short, would exceed the limit, or reuse an id are
// skipped. One snapshot is recorded if anything was added.
func (s *Store) AppendDetectedLines(lines []fixture.MountingLine) int {
	s.mu.Lock()
	added := 0
	for _, l := range lines {
		if len(s.lines) >= s.cfg.MaxLines {
			break
		}
		if l.Validate() != nil || s.lineIndex(l.ID) >= 0 {
			continue
		}
		l = l.Clamp()
		if l.Length() < s.cfg.MinLineLength {
			continue
		}
		s.lines = append(s.lines[:len(s.lines):len(s.lines)], l)
		added++
	}
	if added > 0 {
		s.commit()
	}
	s.mu.Unlock()

	if added > 0 {
		s.notify()
	}
	return added
}

// replaceAt returns a copy of list with element i replaced, so slices held
// by earlier snapshots are never written through.
func replaceAt(list []fixture.Fixture, i int, f fixture.Fixture) []fixture.Fixture {
	out := make([]fixture.Fixture, len(list))
	copy(out, list)
	out[i] = f
	return out
}

func normalizeEmpty(s Snapshot) Snapshot {
	if len(s.Fixtures) == 0 {
		s.Fixtures = nil
	}
	if len(s.Lines) == 0 {
		s.Lines = nil
	}
	return s
}
