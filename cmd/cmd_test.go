package cmd

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	limage "lightplan/internal/image"
	"lightplan/internal/project"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(viper.Reset)
	t.Cleanup(func() {
		layoutPath, renderOut, renderAll = "", "", false
		guideStyle, guideFormat, guideOut = "", "", ""
		detectSave, detectJSON, versionJSON = false, false, false
		maskOut, renderWatch = "", 0
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--log-level", "disabled"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writePhoto(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 150))
	for y := 0; y < 150; y++ {
		v := uint8(200)
		if y < 45 {
			v = 35
		}
		for x := 0; x < 200; x++ {
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	data, err := limage.Encode(img, limage.FormatPNG, 0)
	require.NoError(t, err)
	path := filepath.Join(dir, "house.png")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestVersion(t *testing.T) {
	chdir(t, t.TempDir())
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lightplan")
}

func TestWorkflow(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	photo := writePhoto(t, dir)
	proj := filepath.Join(dir, "house"+project.Extension)

	out, err := run(t, "new", proj, "--photo", photo)
	require.NoError(t, err)
	assert.Contains(t, out, "Created")

	out, err = run(t, "detect", proj, "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "Source: heuristic")

	p, err := project.Load(proj)
	require.NoError(t, err)
	assert.Contains(t, string(p.Layout), "startX")

	_, err = run(t, "render", proj, "--all")
	require.NoError(t, err)
	for _, name := range []string{"house_composite.jpeg", "house_guide.jpeg", "house_mask.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	guidePath := filepath.Join(dir, "verbose.png")
	_, err = run(t, "guide", proj, "--style", "verbose", "--out", guidePath)
	require.NoError(t, err)
	layer, err := limage.Load(guidePath)
	require.NoError(t, err)
	assert.Equal(t, 200, layer.Width())
}

func TestPhotoWithLayout(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	photo := writePhoto(t, dir)

	layout := filepath.Join(dir, "layout.json")
	doc := `{"version":1,"fixtures":[{"id":"a","x":30,"y":80,"category":"path_light","intensity":0.8,"colorTemperatureKelvin":2700,"beamAngleDegrees":120,"locked":false}],"mountingLines":[]}`
	require.NoError(t, os.WriteFile(layout, []byte(doc), 0644))

	maskPath := filepath.Join(dir, "mask.png")
	_, err := run(t, "mask", photo, "--layout", layout, "--out", maskPath)
	require.NoError(t, err)
	_, err = os.Stat(maskPath)
	assert.NoError(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"fixtures": "nope"}`), 0644))
	_, err = run(t, "mask", photo, "--layout", bad)
	assert.ErrorContains(t, err, "not a valid layout")
}

func TestGuide_UnknownStyle(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	photo := writePhoto(t, dir)

	_, err := run(t, "guide", photo, "--style", "loud")
	assert.ErrorContains(t, err, "unknown guide style")
}

func TestDetect_SaveNeedsProject(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	photo := writePhoto(t, dir)

	_, err := run(t, "detect", photo, "--save")
	assert.ErrorContains(t, err, "--save needs")
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
