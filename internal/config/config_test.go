package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	limage "lightplan/internal/image"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 15.0, cfg.Snap.Threshold)
	assert.Equal(t, 45.0, cfg.Snap.FirstStoryY)
	assert.Equal(t, 50, cfg.Store.HistoryLimit)
	assert.Equal(t, 10, cfg.Store.MaxLines)
	assert.Equal(t, 500*time.Millisecond, cfg.Interact.LongPress)
	assert.Equal(t, 0.3, cfg.Interact.MinBeamScale)
	assert.Equal(t, 2.5, cfg.Interact.MaxBeamScale)
	assert.Equal(t, "jpeg", cfg.Render.Format)
	assert.Equal(t, 92, cfg.Render.Quality)
	assert.Equal(t, "clean", cfg.Guide.Style)
	assert.Equal(t, 20*time.Second, cfg.Detector.Timeout)
	assert.False(t, cfg.Detector.Hough)
}

func TestLoad_WithConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	path := filepath.Join(dir, "lightplan.json")
	body := `{
		"logLevel": "debug",
		"snap": {"threshold": 8},
		"render": {"format": "png", "nightFilter": false},
		"guide": {"style": "verbose", "darken": 0.2},
		"detector": {"linesUrl": "http://localhost:9000/lines", "timeout": "3s"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8.0, cfg.Snap.Threshold)
	assert.Equal(t, 45.0, cfg.Snap.FirstStoryY)
	assert.Equal(t, "http://localhost:9000/lines", cfg.Detector.LinesURL)
	assert.Equal(t, 3*time.Second, cfg.Detector.Timeout)

	lc := cfg.LightingConfig()
	assert.Equal(t, limage.FormatPNG, lc.Format)
	assert.False(t, lc.NightFilter)

	g := cfg.GuideOptions()
	assert.Equal(t, 0.2, g.Darken)
	assert.True(t, g.TypeLabels, "verbose style")
	assert.Equal(t, 0.8, g.GlowOpacity, "style default kept")

	assert.Equal(t, 8.0, cfg.SnapConstraint().Resolver.Threshold)
	assert.Equal(t, 8.0, cfg.InteractConfig().Snap.Resolver.Threshold)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Cleanup(viper.Reset)
	chdir(t, t.TempDir())
	t.Setenv("LIGHTPLAN_SNAP_FIRSTSTORYY", "60")
	t.Setenv("LIGHTPLAN_STORE_HISTORYLIMIT", "5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 60.0, cfg.Snap.FirstStoryY)
	assert.Equal(t, 5, cfg.StoreConfig().HistoryLimit)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	_, err := Load("/nonexistent/lightplan.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_Invalid(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	path := filepath.Join(dir, "lightplan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("render:\n  format: gif\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render.format")
}

func TestValidate(t *testing.T) {
	t.Cleanup(viper.Reset)
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	bad := *cfg
	bad.Interact.MaxBeamScale = 0.1
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Guide.Style = "loud"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Snap.Threshold = 0
	assert.Error(t, bad.Validate())
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
