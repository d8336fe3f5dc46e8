package store

import (
	"fmt"
	"testing"

	"lightplan/internal/fixture"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(id string, x1, y1, x2, y2 float64) fixture.MountingLine {
	return fixture.MountingLine{ID: id, StartX: x1, StartY: y1, EndX: x2, EndY: y2, MountDepth: 2}
}

func TestHistory_EvictsOldest(t *testing.T) {
	h := NewHistory(3, Snapshot{})
	for i := 0; i < 4; i++ {
		h.Push(Snapshot{Lines: []fixture.MountingLine{line(fmt.Sprint(i), 0, 0, 10, 0)}})
	}
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 2, h.Cursor())

	snap, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, "2", snap.Lines[0].ID)
	snap, ok = h.Undo()
	require.True(t, ok)
	assert.Equal(t, "1", snap.Lines[0].ID)

	_, ok = h.Undo()
	assert.False(t, ok, "entry 0 and the initial state were evicted")
	assert.False(t, h.CanUndo())
	assert.True(t, h.CanRedo())
}

func TestHistory_PushTruncatesRedo(t *testing.T) {
	h := NewHistory(10, Snapshot{})
	h.Push(Snapshot{})
	h.Push(Snapshot{})
	h.Undo()
	h.Push(Snapshot{})
	assert.Equal(t, 3, h.Len())
	assert.False(t, h.CanRedo())
}

func TestStore_AddRemoveUpdate(t *testing.T) {
	s := New(DefaultConfig())

	require.NoError(t, s.Add(fixture.New("a", fixture.Uplight, 10, 80)))
	assert.ErrorIs(t, s.Add(fixture.New("a", fixture.Uplight, 10, 80)), ErrDuplicateID)

	require.NoError(t, s.Update("a", fixture.Patch{Locked: fixture.Bool(true), X: fixture.Float(250)}))
	f, ok := s.Fixture("a")
	require.True(t, ok)
	assert.True(t, f.Locked)
	assert.Equal(t, 100.0, f.X)

	assert.ErrorIs(t, s.Update("missing", fixture.Patch{}), ErrNotFound)
	require.NoError(t, s.Remove("a"))
	assert.ErrorIs(t, s.Remove("a"), ErrNotFound)
	assert.Empty(t, s.Fixtures())
	assert.Equal(t, 4, s.HistoryLen())
}

func TestStore_AddLineRules(t *testing.T) {
	s := New(DefaultConfig())

	assert.ErrorIs(t, s.AddLine(line("short", 10, 10, 13, 10)), ErrLineTooShort)
	assert.Empty(t, s.Lines())

	require.NoError(t, s.AddLine(line("ok", 10, 10, 20, 10)))
	assert.Len(t, s.Lines(), 1)

	for i := 1; i < 10; i++ {
		require.NoError(t, s.AddLine(line(fmt.Sprint("l", i), 0, float64(i*5), 50, float64(i*5))))
	}
	assert.ErrorIs(t, s.AddLine(line("eleventh", 0, 90, 50, 90)), ErrLineLimit)
	assert.Len(t, s.Lines(), 10)
}

func TestStore_LiveDragPushesOnce(t *testing.T) {
	s := New(DefaultConfig())
	require.NoError(t, s.Add(fixture.New("a", fixture.PathLight, 10, 80)))
	before := s.HistoryLen()

	for i := 0; i < 200; i++ {
		require.NoError(t, s.MoveLive("a", 10+float64(i)*0.1, 80))
	}
	assert.Equal(t, before, s.HistoryLen())
	assert.True(t, s.CommitGesture())
	assert.Equal(t, before+1, s.HistoryLen())

	assert.False(t, s.CommitGesture(), "nothing live since last commit")
}

func TestStore_GestureWithoutNetChange(t *testing.T) {
	s := New(DefaultConfig())
	require.NoError(t, s.Add(fixture.New("a", fixture.PathLight, 10, 80)))
	before := s.HistoryLen()

	require.NoError(t, s.MoveLive("a", 30, 80))
	require.NoError(t, s.MoveLive("a", 10, 80))
	assert.False(t, s.CommitGesture())
	assert.Equal(t, before, s.HistoryLen())
}

func TestStore_UndoRedoLossless(t *testing.T) {
	s := New(DefaultConfig())

	const n = 8
	for i := 0; i < n; i++ {
		f := fixture.New(fmt.Sprint("f", i), fixture.Category(i%10), float64(i*10), 60)
		f.Rotation = fixture.Float(float64(i * 40))
		require.NoError(t, s.Add(f))
	}
	final, err := s.Export()
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		require.True(t, s.Undo())
	}
	assert.Empty(t, s.Fixtures())
	assert.False(t, s.Undo())

	for i := 0; i < n; i++ {
		require.True(t, s.Redo())
	}
	assert.False(t, s.Redo())

	again, err := s.Export()
	require.NoError(t, err)
	assert.Equal(t, string(final), string(again))
}

func TestStore_HistoryCap(t *testing.T) {
	s := New(Config{HistoryLimit: 5, MaxLines: 10, MinLineLength: 5})
	for i := 0; i < 6; i++ {
		require.NoError(t, s.Add(fixture.New(fmt.Sprint(i), fixture.Bollard, 50, 90)))
	}
	assert.Equal(t, 5, s.HistoryLen())

	undos := 0
	for s.Undo() {
		undos++
	}
	assert.Equal(t, 4, undos)
	// The empty initial state and the first add are gone.
	assert.Len(t, s.Fixtures(), 2)
}

func TestStore_InvariantsAfterMutations(t *testing.T) {
	s := New(DefaultConfig())
	require.NoError(t, s.Add(fixture.New("a", fixture.Uplight, -20, 140)))
	require.NoError(t, s.SetBeamLive("a", -725, 1.5))
	require.NoError(t, s.MoveLive("a", 300, -1))
	require.NoError(t, s.Update("a", fixture.Patch{Rotation: fixture.Float(720)}))

	for _, f := range s.Fixtures() {
		assert.GreaterOrEqual(t, f.X, 0.0)
		assert.LessOrEqual(t, f.X, 100.0)
		assert.GreaterOrEqual(t, f.Y, 0.0)
		assert.LessOrEqual(t, f.Y, 100.0)
		require.NotNil(t, f.Rotation)
		assert.GreaterOrEqual(t, *f.Rotation, 0.0)
		assert.Less(t, *f.Rotation, 360.0)
	}
}

func TestStore_AppendDetectedLines(t *testing.T) {
	s := New(DefaultConfig())
	require.NoError(t, s.AddLine(line("user", 0, 20, 40, 20)))
	before := s.HistoryLen()

	added := s.AppendDetectedLines([]fixture.MountingLine{
		line("user", 0, 30, 40, 30),
		line("tiny", 0, 30, 1, 30),
		line("d1", 10, 25, 90, 25),
		line("d2", -10, 35, 120, 35),
	})
	assert.Equal(t, 2, added)
	assert.Equal(t, before+1, s.HistoryLen())

	lines := s.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "user", lines[0].ID)
	assert.Equal(t, 0.0, lines[2].StartX)
	assert.Equal(t, 100.0, lines[2].EndX)
}

func TestStore_OnChange(t *testing.T) {
	s := New(DefaultConfig())
	calls := 0
	s.OnChange(func() { calls++ })

	require.NoError(t, s.Add(fixture.New("a", fixture.Bollard, 1, 90)))
	require.NoError(t, s.MoveLive("a", 2, 90))
	s.Undo()
	assert.Equal(t, 3, calls)
}
