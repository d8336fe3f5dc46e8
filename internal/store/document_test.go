package store

import (
	"testing"

	"lightplan/internal/fixture"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImport_RoundTrip(t *testing.T) {
	src := New(DefaultConfig())
	f := fixture.New("a", fixture.WellLight, 25, 75)
	f.Label = "oak tree"
	f.BeamScale = fixture.Float(1.25)
	require.NoError(t, src.Add(f))
	require.NoError(t, src.AddLine(line("g", 5, 20, 95, 22)))

	data, err := src.Export()
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"fixtures\"")
	assert.Contains(t, string(data), `"mountingLines"`)

	dst := New(DefaultConfig())
	require.True(t, dst.Import(data))
	assert.Equal(t, src.Fixtures(), dst.Fixtures())
	assert.Equal(t, src.Lines(), dst.Lines())
	assert.True(t, dst.CanUndo())
}

func TestExport_EmptyStore(t *testing.T) {
	data, err := New(DefaultConfig()).Export()
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"fixtures":[],"mountingLines":[]}`, string(data))
}

func TestImport_RejectsMalformedWithoutMutation(t *testing.T) {
	payloads := map[string]string{
		"not json":         `fixtures: []`,
		"wrong shape":      `{"version":1,"fixtures":{},"mountingLines":[]}`,
		"unknown field":    `{"version":1,"fixtures":[],"mountingLines":[],"extra":true}`,
		"bad version":      `{"version":7,"fixtures":[],"mountingLines":[]}`,
		"unknown kind":     `{"version":1,"fixtures":[{"id":"x","x":1,"y":1,"category":"torch","intensity":1,"colorTemperatureKelvin":2700,"beamAngleDegrees":30,"locked":false}],"mountingLines":[]}`,
		"missing id":       `{"version":1,"fixtures":[{"x":1,"y":1,"category":"uplight","intensity":1,"colorTemperatureKelvin":2700,"beamAngleDegrees":30,"locked":false}],"mountingLines":[]}`,
		"duplicate ids":    `{"version":1,"fixtures":[{"id":"x","x":1,"y":1,"category":"uplight","intensity":1,"colorTemperatureKelvin":2700,"beamAngleDegrees":30,"locked":false},{"id":"x","x":2,"y":2,"category":"uplight","intensity":1,"colorTemperatureKelvin":2700,"beamAngleDegrees":30,"locked":false}],"mountingLines":[]}`,
		"short line":       `{"version":1,"fixtures":[],"mountingLines":[{"id":"l","startX":1,"startY":1,"endX":2,"endY":1,"mountDepthPercent":0}]}`,
		"trailing data":    `{"version":1,"fixtures":[],"mountingLines":[]} {}`,
		"zero kelvin":      `{"version":1,"fixtures":[{"id":"x","x":1,"y":1,"category":"uplight","intensity":1,"colorTemperatureKelvin":0,"beamAngleDegrees":30,"locked":false}],"mountingLines":[]}`,
		"empty document":   ``,
		"numeric category": `{"version":1,"fixtures":[{"id":"x","x":1,"y":1,"category":3,"intensity":1,"colorTemperatureKelvin":2700,"beamAngleDegrees":30,"locked":false}],"mountingLines":[]}`,
	}

	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			s := New(DefaultConfig())
			require.NoError(t, s.Add(fixture.New("keep", fixture.Bollard, 50, 90)))
			before, err := s.Export()
			require.NoError(t, err)
			historyBefore := s.HistoryLen()

			assert.False(t, s.Import([]byte(payload)))

			after, err := s.Export()
			require.NoError(t, err)
			assert.Equal(t, string(before), string(after))
			assert.Equal(t, historyBefore, s.HistoryLen())
		})
	}
}

func TestImport_TooManyLines(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLines = 1
	doc := `{"version":1,"fixtures":[],"mountingLines":[` +
		`{"id":"a","startX":0,"startY":10,"endX":50,"endY":10,"mountDepthPercent":0},` +
		`{"id":"b","startX":0,"startY":20,"endX":50,"endY":20,"mountDepthPercent":0}]}`

	_, err := Decode([]byte(doc), cfg)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.False(t, New(cfg).Import([]byte(doc)))
}
