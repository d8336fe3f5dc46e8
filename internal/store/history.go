package store

import (
	"lightplan/internal/fixture"
)

// Snapshot is an immutable copy of the store contents. Snapshots handed out
// by History must not be modified.
type Snapshot struct {
	Fixtures []fixture.Fixture
	Lines    []fixture.MountingLine
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{
		Fixtures: make([]fixture.Fixture, len(s.Fixtures)),
		Lines:    make([]fixture.MountingLine, len(s.Lines)),
	}
	for i, f := range s.Fixtures {
		out.Fixtures[i] = f.Clone()
	}
	copy(out.Lines, s.Lines)
	return out
}

// History is a capped arena of snapshots indexed by a cursor. Pushing past
// the cap evicts the oldest entry.
type History struct {
	entries []Snapshot
	cursor  int
	limit   int
}

// NewHistory creates a history holding initial as its only entry.
func NewHistory(limit int, initial Snapshot) *History {
	if limit < 1 {
		limit = 1
	}
	h := &History{
		entries: make([]Snapshot, 0, limit),
		limit:   limit,
	}
	h.entries = append(h.entries, initial.clone())
	return h
}

// Push records s after the cursor, discarding any redo entries.
func (h *History) Push(s Snapshot) {
	h.entries = h.entries[:h.cursor+1]
	if len(h.entries) == h.limit {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:len(h.entries)-1]
	}
	h.entries = append(h.entries, s.clone())
	h.cursor = len(h.entries) - 1
}

// Undo moves the cursor back one entry.
func (h *History) Undo() (Snapshot, bool) {
	if !h.CanUndo() {
		return Snapshot{}, false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Redo moves the cursor forward one entry.
func (h *History) Redo() (Snapshot, bool) {
	if !h.CanRedo() {
		return Snapshot{}, false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

// Current returns the entry at the cursor.
func (h *History) Current() Snapshot {
	return h.entries[h.cursor]
}

func (h *History) CanUndo() bool { return h.cursor > 0 }
func (h *History) CanRedo() bool { return h.cursor < len(h.entries)-1 }
func (h *History) Len() int      { return len(h.entries) }
func (h *History) Cursor() int   { return h.cursor }
