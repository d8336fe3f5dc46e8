// Package app ties the layout store, the interaction controller, the
// detector chain and the renderers into one application state.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"lightplan/internal/config"
	"lightplan/internal/fixture"
	"lightplan/internal/guide"
	"lightplan/internal/gutter"
	"lightplan/internal/gutter/hough"
	limage "lightplan/internal/image"
	"lightplan/internal/interact"
	"lightplan/internal/lighting"
	"lightplan/internal/project"
	"lightplan/internal/store"
	"lightplan/pkg/geometry"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrNoPhoto is returned by operations that need a photo before one is loaded.
var ErrNoPhoto = errors.New("no photo loaded")

// State holds the application state: project, photo, layout and renderers.
type State struct {
	mu sync.RWMutex

	// Project
	ProjectPath string
	Modified    bool
	Project     *project.File

	// Images
	Photo  *limage.Layer
	Sprite *limage.Layer

	// Layout and interaction
	Store      *store.Store
	Controller *interact.Controller

	// Detection and rendering
	Detector     *gutter.Chain
	Compositor   *lighting.Compositor
	GuideOptions guide.Options
	MaskOptions  lighting.MaskOptions

	renderCfg lighting.Config
	maxLines  int
	container geometry.Rect
	log       zerolog.Logger

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectSaved
	EventPhotoLoaded
	EventLayoutChanged
	EventModified
	EventLinesDetected
	EventRendered
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// Detection is the payload of EventLinesDetected.
type Detection struct {
	Source string
	Found  int
	Added  int
}

// Renders holds one pass of every output image.
type Renders struct {
	Composite *lighting.Result
	Guide     *lighting.Result
	Mask      *image.Gray
}

// NewState creates the application state from configuration. A nil host
// ignores haptics, rejections and timers.
func NewState(cfg *config.Config, host interact.Host, log zerolog.Logger) (*State, error) {
	st := store.New(cfg.StoreConfig())

	renderCfg := cfg.LightingConfig()
	comp, err := lighting.NewCompositor(renderCfg, log)
	if err != nil {
		return nil, err
	}

	s := &State{
		Project:      project.New("untitled"),
		Store:        st,
		Controller:   interact.NewController(st, cfg.InteractConfig(), host, log),
		Detector:     NewDetector(cfg, log),
		Compositor:   comp,
		GuideOptions: cfg.GuideOptions(),
		MaskOptions:  lighting.DefaultMaskOptions(),
		renderCfg:    renderCfg,
		maxLines:     cfg.Detector.MaxLines,
		log:          log.With().Str("component", "app").Logger(),
		listeners:    make(map[EventType][]EventListener),
	}
	st.OnChange(func() {
		s.SetModified(true)
		s.Emit(EventLayoutChanged, nil)
	})
	return s, nil
}

// NewDetector builds the stage chain: segmentation service, generic line
// service, optional Hough stage, then the heuristic.
func NewDetector(cfg *config.Config, log zerolog.Logger) *gutter.Chain {
	d := cfg.Detector
	var stages []gutter.Stage
	if d.SegmentationURL != "" {
		stages = append(stages, gutter.NewRemoteStage("segmentation", d.SegmentationURL, d.APIKey, d.Timeout))
	}
	if d.LinesURL != "" {
		stages = append(stages, gutter.NewRemoteStage("line-service", d.LinesURL, d.APIKey, d.Timeout))
	}
	if d.Hough {
		stages = append(stages, hough.New(hough.DefaultOptions()))
	}
	stages = append(stages, gutter.NewHeuristic(gutter.DefaultHeuristicOptions()))

	chain := gutter.NewChain(log, stages...)
	norm := gutter.DefaultNormalizeOptions()
	norm.MinLength = cfg.Store.MinLineLength
	norm.MountDepth = cfg.Store.MountDepth
	norm.MaxLines = cfg.Store.MaxLines
	chain.SetNormalizeOptions(norm)
	return chain
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the project as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// SetViewport records the on-screen container the photo is letterboxed into.
func (s *State) SetViewport(container geometry.Rect) {
	s.mu.Lock()
	s.container = container
	aspect := 0.0
	if s.Photo != nil {
		aspect = s.Photo.Aspect()
	}
	s.mu.Unlock()
	s.Controller.SetViewport(container, aspect)
}

// LoadPhoto loads the house photo.
func (s *State) LoadPhoto(path string) error {
	layer, err := limage.Load(path)
	if err != nil {
		return err
	}
	s.SetPhoto(layer)
	return nil
}

// SetPhoto replaces the photo with an already decoded layer.
func (s *State) SetPhoto(layer *limage.Layer) {
	s.mu.Lock()
	s.Photo = layer
	container := s.container
	s.mu.Unlock()

	s.Controller.SetViewport(container, layer.Aspect())
	s.log.Info().Str("path", layer.Path).Int("width", layer.Width()).Int("height", layer.Height()).Msg("photo loaded")
	s.Emit(EventPhotoLoaded, layer.Path)
}

// LoadSprite loads the fixture sprite pasted by the compositor.
func (s *State) LoadSprite(path string) error {
	layer, err := limage.Load(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.Sprite = layer
	s.renderCfg.Sprite = layer.Image
	s.MaskOptions.SpriteSize = lighting.SpriteSize(layer.Image, s.renderCfg.SpriteScale)
	cfg := s.renderCfg
	s.mu.Unlock()
	return s.rebuildCompositor(cfg)
}

func (s *State) rebuildCompositor(cfg lighting.Config) error {
	comp, err := lighting.NewCompositor(cfg, s.log)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.Compositor = comp
	s.mu.Unlock()
	return nil
}

// LoadProject loads a project and its images from the specified path.
func (s *State) LoadProject(path string) error {
	proj, err := project.Load(path)
	if err != nil {
		return err
	}

	photoPath, err := proj.GetPhotoPath(path)
	if err != nil {
		return err
	}
	photo, err := limage.Load(photoPath)
	if err != nil {
		return err
	}
	if err := proj.Apply(s.Store); err != nil {
		return err
	}
	s.SetPhoto(photo)

	if sp := proj.GetSpritePath(path); sp != "" {
		if err := s.LoadSprite(sp); err != nil {
			return err
		}
	}
	if err := s.applySettings(proj.Settings); err != nil {
		return err
	}

	s.mu.Lock()
	s.Project = proj
	s.ProjectPath = path
	s.mu.Unlock()
	s.SetModified(false)

	s.Emit(EventProjectLoaded, path)
	return nil
}

func (s *State) applySettings(set project.Settings) error {
	s.mu.Lock()
	switch set.GuideStyle {
	case "verbose":
		s.GuideOptions = guide.VerboseOptions()
	case "clean":
		s.GuideOptions = guide.CleanOptions()
	}
	cfg := s.renderCfg
	changed := false
	if set.NightFilter != nil {
		cfg.NightFilter = *set.NightFilter
		changed = true
	}
	if set.Quality > 0 {
		cfg.Quality = set.Quality
		changed = true
	}
	s.renderCfg = cfg
	s.mu.Unlock()

	if changed {
		return s.rebuildCompositor(cfg)
	}
	return nil
}

// SaveProject saves the project to the specified path.
func (s *State) SaveProject(path string) error {
	s.mu.RLock()
	proj := s.Project
	photo := s.Photo
	sprite := s.Sprite
	s.mu.RUnlock()

	if photo != nil && photo.Path != "" {
		proj.SetPhoto(path, photo.Path)
	}
	if sprite != nil && sprite.Path != "" {
		proj.SetSprite(path, sprite.Path)
	}
	if err := proj.Capture(s.Store); err != nil {
		return err
	}
	if err := proj.Save(path); err != nil {
		return err
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.mu.Unlock()
	s.SetModified(false)

	s.Emit(EventProjectSaved, path)
	return nil
}

func (s *State) photo() (image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Photo == nil || s.Photo.Image == nil {
		return nil, ErrNoPhoto
	}
	return s.Photo.Image, nil
}

// DetectLines runs the detector chain on the photo and appends what it
// finds after any lines already in the store. A newer call cancels an
// older one still waiting on the network.
func (s *State) DetectLines(ctx context.Context) (Detection, error) {
	img, err := s.photo()
	if err != nil {
		return Detection{}, err
	}
	lines, source, err := s.Detector.Detect(ctx, img, s.maxLines)
	if err != nil {
		return Detection{}, err
	}
	d := Detection{
		Source: source,
		Found:  len(lines),
		Added:  s.Store.AppendDetectedLines(lines),
	}
	s.log.Info().Str("source", d.Source).Int("found", d.Found).Int("added", d.Added).Msg("detection applied")
	s.Emit(EventLinesDetected, d)
	return d, nil
}

// RenderAll produces the composite, the guide image and the inpaint mask
// from one layout snapshot. The three renders run concurrently; each owns
// its output buffer.
func (s *State) RenderAll(ctx context.Context) (*Renders, error) {
	img, err := s.photo()
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	comp := s.Compositor
	guideOpts := s.GuideOptions
	maskOpts := s.MaskOptions
	s.mu.RUnlock()

	snap := s.Store.Snapshot()
	fixtures := append([]fixture.Fixture(nil), snap.Fixtures...)
	lines := append([]fixture.MountingLine(nil), snap.Lines...)

	out := &Renders{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := comp.Render(gctx, img, fixtures)
		if err != nil {
			return fmt.Errorf("composite: %w", err)
		}
		out.Composite = res
		return nil
	})
	g.Go(func() error {
		res, err := guide.Render(img, fixtures, lines, guideOpts)
		if err != nil {
			return fmt.Errorf("guide: %w", err)
		}
		out.Guide = res
		return gctx.Err()
	})
	g.Go(func() error {
		mask, err := lighting.BuildMask(img.Bounds(), fixtures, maskOpts)
		if err != nil {
			return fmt.Errorf("mask: %w", err)
		}
		out.Mask = mask
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.Emit(EventRendered, out)
	return out, nil
}
