package app

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lightplan/internal/config"
	"lightplan/internal/fixture"
	limage "lightplan/internal/image"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	t.Cleanup(viper.Reset)
	chdir(t, t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)
	s, err := NewState(cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	return s
}

// housePhoto is a dark sky over a lit wall with the roofline at row edge.
func housePhoto(w, h, edge int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		v := uint8(190)
		if y < edge {
			v = 30
		}
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func TestRenderAll(t *testing.T) {
	s := newTestState(t)

	_, err := s.RenderAll(context.Background())
	assert.ErrorIs(t, err, ErrNoPhoto)

	s.SetPhoto(limage.NewLayer(housePhoto(160, 120, 40)))
	require.NoError(t, s.Store.Add(fixture.New("a", fixture.PathLight, 40, 85)))

	var rendered int
	s.On(EventRendered, func(interface{}) { rendered++ })

	out, err := s.RenderAll(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out.Composite)
	require.NotNil(t, out.Guide)
	require.NotNil(t, out.Mask)
	assert.Equal(t, 160, out.Composite.Width)
	assert.Equal(t, 120, out.Guide.Height)
	assert.Equal(t, image.Rect(0, 0, 160, 120), out.Mask.Bounds())
	assert.NotEmpty(t, out.Composite.Bytes)
	assert.Equal(t, 1, rendered)
}

func TestLoadSprite_SizesMask(t *testing.T) {
	s := newTestState(t)
	data, err := limage.Encode(housePhoto(50, 40, 0), limage.FormatPNG, 0)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile("sprite.png", data, 0644))

	require.NoError(t, s.LoadSprite("sprite.png"))
	scale := s.renderCfg.SpriteScale
	assert.Equal(t, image.Pt(int(50*scale), int(40*scale)), s.MaskOptions.SpriteSize)
}

func TestRenderAll_Canceled(t *testing.T) {
	s := newTestState(t)
	s.SetPhoto(limage.NewLayer(housePhoto(64, 48, 10)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.RenderAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetectLines_AppendsAfterUserLines(t *testing.T) {
	s := newTestState(t)

	_, err := s.DetectLines(context.Background())
	assert.ErrorIs(t, err, ErrNoPhoto)

	s.SetPhoto(limage.NewLayer(housePhoto(200, 200, 60)))
	user := fixture.MountingLine{ID: "mine", StartX: 5, StartY: 45, EndX: 60, EndY: 45, MountDepth: 2}
	require.NoError(t, s.Store.AddLine(user))

	var got Detection
	s.On(EventLinesDetected, func(data interface{}) { got = data.(Detection) })

	d, err := s.DetectLines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "heuristic", d.Source)
	assert.GreaterOrEqual(t, d.Added, 1)
	assert.Equal(t, d, got)

	lines := s.Store.Lines()
	require.Len(t, lines, 1+d.Added)
	assert.Equal(t, "mine", lines[0].ID)
	assert.InDelta(t, 30, lines[1].StartY, 2)
}

func TestModifiedTracksLayout(t *testing.T) {
	s := newTestState(t)

	var changes int
	s.On(EventLayoutChanged, func(interface{}) { changes++ })

	assert.False(t, s.Modified)
	require.NoError(t, s.Store.Add(fixture.New("a", fixture.Bollard, 50, 90)))
	assert.True(t, s.Modified)
	assert.Equal(t, 1, changes)
}

func TestSaveLoadProject(t *testing.T) {
	s := newTestState(t)
	dir := t.TempDir()

	data, err := limage.Encode(housePhoto(80, 60, 20), limage.FormatPNG, 0)
	require.NoError(t, err)
	photoPath := filepath.Join(dir, "house.png")
	require.NoError(t, os.WriteFile(photoPath, data, 0644))

	require.NoError(t, s.LoadPhoto(photoPath))
	require.NoError(t, s.Store.Add(fixture.New("a", fixture.WellLight, 20, 90)))

	projPath := filepath.Join(dir, "house.lightplan")
	require.NoError(t, s.SaveProject(projPath))
	assert.False(t, s.Modified)

	other := newTestState(t)
	var loaded string
	other.On(EventProjectLoaded, func(data interface{}) { loaded = data.(string) })
	require.NoError(t, other.LoadProject(projPath))

	assert.Equal(t, projPath, loaded)
	assert.False(t, other.Modified)
	assert.Equal(t, 80, other.Photo.Width())
	assert.Equal(t, s.Store.Fixtures(), other.Store.Fixtures())
}

func TestFileWatcher_Poll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "house.lightplan")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	w := NewFileWatcher(time.Hour, path)
	assert.Empty(t, w.Poll())

	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))
	changed := w.Poll()
	require.Len(t, changed, 1)
	assert.Equal(t, filepath.Base(path), filepath.Base(changed[0]))
	assert.Empty(t, w.Poll(), "baseline advanced")
}

func TestFileWatcher_Run(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	w := NewFileWatcher(10*time.Millisecond, path)
	hit := make(chan string, 1)
	w.OnChange(func(p string) {
		select {
		case hit <- p:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))

	select {
	case <-hit:
	case <-time.After(5 * time.Second):
		t.Fatal("change not reported")
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

// chdir changes the working directory for the duration of the test,
// standing in for testing.T.Chdir on toolchains older than Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
