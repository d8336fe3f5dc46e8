package fixture

import (
	"image/color"

	"lightplan/pkg/colorutil"
)

// Direction is the primary shape of a fixture's light.
type Direction int

const (
	DirectionUp Direction = iota
	DirectionDown
	DirectionOmni
	DirectionSpread
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	case DirectionOmni:
		return "omni"
	case DirectionSpread:
		return "spread"
	default:
		return "unknown"
	}
}

// GlowConfig describes the simulated light shape of a category.
// BaseHeight and BaseWidth are fractions of the image height and width.
type GlowConfig struct {
	Direction      Direction
	BaseHeight     float64
	BaseWidth      float64
	Layers         int
	CoreBrightness float64
	Falloff        float64
}

// Preset holds the defaults applied to newly placed fixtures of a category.
type Preset struct {
	Name             string
	Abbrev           string
	Intensity        float64
	ColorTemperature float64
	BeamAngle        float64
	MarkerColor      color.RGBA
	Glow             GlowConfig
}

var presets = [numCategories]Preset{
	Uplight: {
		Name: "Uplight", Abbrev: "UP",
		Intensity: 0.8, ColorTemperature: 2700, BeamAngle: 36,
		Glow: GlowConfig{Direction: DirectionUp, BaseHeight: 0.35, BaseWidth: 0.12, Layers: 4, CoreBrightness: 0.9, Falloff: 0.6},
	},
	Downlight: {
		Name: "Downlight", Abbrev: "DN",
		Intensity: 0.7, ColorTemperature: 2700, BeamAngle: 45,
		Glow: GlowConfig{Direction: DirectionDown, BaseHeight: 0.25, BaseWidth: 0.12, Layers: 4, CoreBrightness: 0.85, Falloff: 0.55},
	},
	Spotlight: {
		Name: "Spotlight", Abbrev: "SP",
		Intensity: 0.9, ColorTemperature: 3000, BeamAngle: 15,
		Glow: GlowConfig{Direction: DirectionUp, BaseHeight: 0.4, BaseWidth: 0.07, Layers: 5, CoreBrightness: 1, Falloff: 0.7},
	},
	WallWash: {
		Name: "Wall Wash", Abbrev: "WW",
		Intensity: 0.6, ColorTemperature: 2700, BeamAngle: 120,
		Glow: GlowConfig{Direction: DirectionSpread, BaseHeight: 0.3, BaseWidth: 0.25, Layers: 3, CoreBrightness: 0.7, Falloff: 0.45},
	},
	FloodLight: {
		Name: "Flood Light", Abbrev: "FL",
		Intensity: 0.85, ColorTemperature: 4000, BeamAngle: 90,
		Glow: GlowConfig{Direction: DirectionSpread, BaseHeight: 0.35, BaseWidth: 0.3, Layers: 4, CoreBrightness: 0.9, Falloff: 0.5},
	},
	GutterMount: {
		Name: "Gutter Mount", Abbrev: "GM",
		Intensity: 0.7, ColorTemperature: 2700, BeamAngle: 40,
		Glow: GlowConfig{Direction: DirectionDown, BaseHeight: 0.3, BaseWidth: 0.14, Layers: 4, CoreBrightness: 0.85, Falloff: 0.6},
	},
	PathLight: {
		Name: "Path Light", Abbrev: "PL",
		Intensity: 0.5, ColorTemperature: 2700, BeamAngle: 360,
		Glow: GlowConfig{Direction: DirectionOmni, BaseHeight: 0.06, BaseWidth: 0.1, Layers: 3, CoreBrightness: 0.8, Falloff: 0.5},
	},
	WellLight: {
		Name: "Well Light", Abbrev: "WL",
		Intensity: 0.75, ColorTemperature: 3000, BeamAngle: 30,
		Glow: GlowConfig{Direction: DirectionUp, BaseHeight: 0.38, BaseWidth: 0.1, Layers: 4, CoreBrightness: 0.9, Falloff: 0.65},
	},
	Bollard: {
		Name: "Bollard", Abbrev: "BL",
		Intensity: 0.55, ColorTemperature: 3000, BeamAngle: 360,
		Glow: GlowConfig{Direction: DirectionOmni, BaseHeight: 0.07, BaseWidth: 0.12, Layers: 3, CoreBrightness: 0.8, Falloff: 0.5},
	},
	StepLight: {
		Name: "Step Light", Abbrev: "ST",
		Intensity: 0.4, ColorTemperature: 2700, BeamAngle: 120,
		Glow: GlowConfig{Direction: DirectionOmni, BaseHeight: 0.04, BaseWidth: 0.08, Layers: 2, CoreBrightness: 0.7, Falloff: 0.45},
	},
}

func init() {
	// Marker hues are spread evenly around the color wheel.
	for i := range presets {
		hue := float64(i) * 360 / float64(numCategories)
		presets[i].MarkerColor = colorutil.HSVToRGB(hue, 0.85, 0.95)
	}
}

// PresetFor returns the preset for a category. Unknown categories fall back
// to the uplight preset.
func PresetFor(c Category) Preset {
	if !c.Valid() {
		return presets[Uplight]
	}
	return presets[c]
}
