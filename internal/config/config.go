// Package config loads lightplan settings from defaults, an optional file
// and LIGHTPLAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"lightplan/internal/guide"
	limage "lightplan/internal/image"
	"lightplan/internal/interact"
	"lightplan/internal/lighting"
	"lightplan/internal/snap"
	"lightplan/internal/store"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. LIGHTPLAN_SNAP_THRESHOLD.
const EnvPrefix = "LIGHTPLAN"

// SnapConfig holds the mounting constraint tuning.
type SnapConfig struct {
	Threshold   float64 `mapstructure:"threshold"`
	FirstStoryY float64 `mapstructure:"firstStoryY"`
}

// StoreConfig holds store limits.
type StoreConfig struct {
	HistoryLimit  int     `mapstructure:"historyLimit"`
	MaxLines      int     `mapstructure:"maxLines"`
	MinLineLength float64 `mapstructure:"minLineLength"`
	MountDepth    float64 `mapstructure:"mountDepth"`
}

// InteractConfig holds gesture tuning. Distances are screen pixels.
type InteractConfig struct {
	TapTolerance      float64       `mapstructure:"tapTolerance"`
	TouchTapTolerance float64       `mapstructure:"touchTapTolerance"`
	HitRadius         float64       `mapstructure:"hitRadius"`
	TouchHitRadius    float64       `mapstructure:"touchHitRadius"`
	HandleRadius      float64       `mapstructure:"handleRadius"`
	HandleMinOffset   float64       `mapstructure:"handleMinOffset"`
	LongPress         time.Duration `mapstructure:"longPress"`
	MinBeamScale      float64       `mapstructure:"minBeamScale"`
	MaxBeamScale      float64       `mapstructure:"maxBeamScale"`
	GridStep          float64       `mapstructure:"gridStep"`
	DuplicateOffset   float64       `mapstructure:"duplicateOffset"`
}

// RenderConfig holds compositor settings.
type RenderConfig struct {
	NightFilter  bool    `mapstructure:"nightFilter"`
	Brightness   float64 `mapstructure:"brightness"`
	GlowOpacity  float64 `mapstructure:"glowOpacity"`
	BlurFraction float64 `mapstructure:"blurFraction"`
	Format       string  `mapstructure:"format"`
	Quality      int     `mapstructure:"quality"`
	SpriteScale  float64 `mapstructure:"spriteScale"`
}

// GuideConfig holds guide image settings.
type GuideConfig struct {
	Style       string  `mapstructure:"style"`
	Darken      float64 `mapstructure:"darken"`
	GlowOpacity float64 `mapstructure:"glowOpacity"`
	Format      string  `mapstructure:"format"`
}

// DetectorConfig holds the gutter detector chain settings.
type DetectorConfig struct {
	SegmentationURL string        `mapstructure:"segmentationUrl"`
	LinesURL        string        `mapstructure:"linesUrl"`
	APIKey          string        `mapstructure:"apiKey"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxLines        int           `mapstructure:"maxLines"`
	Hough           bool          `mapstructure:"hough"`
}

// Config is the full typed configuration.
type Config struct {
	LogLevel string         `mapstructure:"logLevel"`
	Snap     SnapConfig     `mapstructure:"snap"`
	Store    StoreConfig    `mapstructure:"store"`
	Interact InteractConfig `mapstructure:"interact"`
	Render   RenderConfig   `mapstructure:"render"`
	Guide    GuideConfig    `mapstructure:"guide"`
	Detector DetectorConfig `mapstructure:"detector"`
}

// SetDefaults registers every default with viper.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")

	viper.SetDefault("snap.threshold", snap.DefaultThreshold)
	viper.SetDefault("snap.firstStoryY", snap.DefaultFirstStoryY)

	sd := store.DefaultConfig()
	viper.SetDefault("store.historyLimit", sd.HistoryLimit)
	viper.SetDefault("store.maxLines", sd.MaxLines)
	viper.SetDefault("store.minLineLength", sd.MinLineLength)
	viper.SetDefault("store.mountDepth", 2.0)

	id := interact.DefaultConfig()
	viper.SetDefault("interact.tapTolerance", id.TapTolerance)
	viper.SetDefault("interact.touchTapTolerance", id.TouchTapTolerance)
	viper.SetDefault("interact.hitRadius", id.HitRadius)
	viper.SetDefault("interact.touchHitRadius", id.TouchHitRadius)
	viper.SetDefault("interact.handleRadius", id.HandleRadius)
	viper.SetDefault("interact.handleMinOffset", id.HandleMinOffset)
	viper.SetDefault("interact.longPress", id.LongPress.String())
	viper.SetDefault("interact.minBeamScale", id.MinBeamScale)
	viper.SetDefault("interact.maxBeamScale", id.MaxBeamScale)
	viper.SetDefault("interact.gridStep", id.GridStep)
	viper.SetDefault("interact.duplicateOffset", id.DuplicateOffset)

	ld := lighting.DefaultConfig()
	viper.SetDefault("render.nightFilter", ld.NightFilter)
	viper.SetDefault("render.brightness", ld.Night.Brightness)
	viper.SetDefault("render.glowOpacity", ld.GlowOpacity)
	viper.SetDefault("render.blurFraction", ld.BlurFraction)
	viper.SetDefault("render.format", ld.Format.String())
	viper.SetDefault("render.quality", ld.Quality)
	viper.SetDefault("render.spriteScale", ld.SpriteScale)

	// Negative guide values keep the style's own setting.
	viper.SetDefault("guide.style", "clean")
	viper.SetDefault("guide.darken", -1.0)
	viper.SetDefault("guide.glowOpacity", -1.0)
	viper.SetDefault("guide.format", "")

	viper.SetDefault("detector.segmentationUrl", "")
	viper.SetDefault("detector.linesUrl", "")
	viper.SetDefault("detector.apiKey", "")
	viper.SetDefault("detector.timeout", "20s")
	viper.SetDefault("detector.maxLines", sd.MaxLines)
	viper.SetDefault("detector.hough", false)
}

// Load reads configuration. An empty path looks for lightplan.{yaml,json,toml}
// in the working directory and the user config dir, and a missing file is
// not an error; an explicit path must exist.
func Load(path string) (*Config, error) {
	SetDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		viper.SetConfigName("lightplan")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/lightplan")
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	if c.Snap.Threshold <= 0 {
		return fmt.Errorf("snap.threshold must be positive, got %v", c.Snap.Threshold)
	}
	if c.Store.HistoryLimit < 1 {
		return fmt.Errorf("store.historyLimit must be at least 1, got %d", c.Store.HistoryLimit)
	}
	if c.Store.MaxLines < 1 {
		return fmt.Errorf("store.maxLines must be at least 1, got %d", c.Store.MaxLines)
	}
	if c.Interact.MinBeamScale <= 0 || c.Interact.MaxBeamScale < c.Interact.MinBeamScale {
		return fmt.Errorf("invalid beam scale range [%v, %v]", c.Interact.MinBeamScale, c.Interact.MaxBeamScale)
	}
	if _, err := limage.ParseFormat(c.Render.Format); err != nil {
		return fmt.Errorf("render.format: %w", err)
	}
	if c.Guide.Format != "" {
		if _, err := limage.ParseFormat(c.Guide.Format); err != nil {
			return fmt.Errorf("guide.format: %w", err)
		}
	}
	switch c.Guide.Style {
	case "clean", "verbose":
	default:
		return fmt.Errorf("guide.style must be clean or verbose, got %q", c.Guide.Style)
	}
	return nil
}

// SnapConstraint returns the mounting constraint.
func (c *Config) SnapConstraint() snap.Constraint {
	return snap.Constraint{
		Resolver:    snap.Resolver{Threshold: c.Snap.Threshold},
		FirstStoryY: c.Snap.FirstStoryY,
	}
}

// StoreConfig returns the store limits.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		HistoryLimit:  c.Store.HistoryLimit,
		MaxLines:      c.Store.MaxLines,
		MinLineLength: c.Store.MinLineLength,
	}
}

// InteractConfig returns the gesture tuning.
func (c *Config) InteractConfig() interact.Config {
	i := c.Interact
	return interact.Config{
		Snap:              c.SnapConstraint(),
		MinLineLength:     c.Store.MinLineLength,
		MaxLines:          c.Store.MaxLines,
		MountDepth:        c.Store.MountDepth,
		TapTolerance:      i.TapTolerance,
		TouchTapTolerance: i.TouchTapTolerance,
		HitRadius:         i.HitRadius,
		TouchHitRadius:    i.TouchHitRadius,
		HandleRadius:      i.HandleRadius,
		HandleMinOffset:   i.HandleMinOffset,
		LongPress:         i.LongPress,
		MinBeamScale:      i.MinBeamScale,
		MaxBeamScale:      i.MaxBeamScale,
		GridStep:          i.GridStep,
		DuplicateOffset:   i.DuplicateOffset,
	}
}

// LightingConfig returns the compositor settings.
func (c *Config) LightingConfig() lighting.Config {
	cfg := lighting.DefaultConfig()
	r := c.Render
	cfg.NightFilter = r.NightFilter
	cfg.Night.Brightness = r.Brightness
	cfg.GlowOpacity = r.GlowOpacity
	cfg.BlurFraction = r.BlurFraction
	if f, err := limage.ParseFormat(r.Format); err == nil {
		cfg.Format = f
	}
	cfg.Quality = r.Quality
	cfg.SpriteScale = r.SpriteScale
	return cfg
}

// GuideOptions returns the guide style with overrides applied.
func (c *Config) GuideOptions() guide.Options {
	opts := guide.CleanOptions()
	if c.Guide.Style == "verbose" {
		opts = guide.VerboseOptions()
	}
	if c.Guide.Darken >= 0 {
		opts.Darken = c.Guide.Darken
	}
	if c.Guide.GlowOpacity >= 0 {
		opts.GlowOpacity = c.Guide.GlowOpacity
	}
	if f, err := limage.ParseFormat(c.Guide.Format); err == nil {
		opts.Format = f
	}
	return opts
}
