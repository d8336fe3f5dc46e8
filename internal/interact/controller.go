package interact

import (
	"sync"
	"time"

	"lightplan/internal/fixture"
	"lightplan/internal/store"
	"lightplan/pkg/geometry"

	"github.com/rs/zerolog"
)

// Host provides the platform capabilities the controller forwards to.
type Host interface {
	Haptic(strength HapticStrength)
	Rejected(err error)
	StartTimer(token uint64, after time.Duration)
	CancelTimer(token uint64)
}

// NopHost ignores every request.
type NopHost struct{}

func (NopHost) Haptic(HapticStrength) {}
func (NopHost) Rejected(error) {}
func (NopHost) StartTimer(uint64, time.Duration) {}
func (NopHost) CancelTimer(uint64) {}

// Controller runs Reduce against a store and applies the resulting effects.
type Controller struct {
	mu sync.Mutex

	store *store.Store
	host  Host
	cfg   Config
	log   zerolog.Logger
	newID func() string

	container geometry.Rect
	aspect    float64

	state State
}

// NewController creates a controller bound to st. A nil host is replaced
// with NopHost.
func NewController(st *store.Store, cfg Config, host Host, log zerolog.Logger) *Controller {
	if host == nil {
		host = NopHost{}
	}
	return &Controller{
		store: st,
		host:  host,
		cfg:   cfg,
		log:   log.With().Str("component", "interact").Logger(),
		newID: fixture.NewID,
	}
}

// SetIDSource replaces the identifier generator.
func (c *Controller) SetIDSource(fn func() string) {
	c.mu.Lock()
	c.newID = fn
	c.mu.Unlock()
}

// SetViewport records where the image is shown and its aspect ratio.
func (c *Controller) SetViewport(container geometry.Rect, imageAspect float64) {
	c.mu.Lock()
	c.container = container
	c.aspect = imageAspect
	c.mu.Unlock()
}

// State returns the current interaction state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Env builds the reducer environment from the latest store contents.
func (c *Controller) Env() Env {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.env()
}

func (c *Controller) env() Env {
	snap := c.store.Snapshot()
	return Env{
		Fixtures:    snap.Fixtures,
		Lines:       snap.Lines,
		Container:   c.container,
		ImageAspect: c.aspect,
		Config:      c.cfg,
		NewID:       c.newID,
	}
}

// Handle processes one input event and returns the resulting state.
func (c *Controller) Handle(ev Event) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.state.Mode
	next, effects := Reduce(c.state, ev, c.env())
	c.state = next

	if next.Mode != before {
		c.log.Debug().Str("from", before.String()).Str("to", next.Mode.String()).Msg("mode change")
	}
	for _, eff := range effects {
		c.apply(eff)
	}
	return c.state
}

func (c *Controller) apply(eff Effect) {
	var err error

	switch e := eff.(type) {
	case AddFixture:
		err = c.store.Add(e.Fixture)
	case MoveFixture:
		err = c.store.MoveLive(e.ID, e.X, e.Y)
	case SetBeam:
		err = c.store.SetBeamLive(e.ID, e.Rotation, e.Scale)
	case CommitGesture:
		c.store.CommitGesture()
	case UpdateFixture:
		err = c.store.Update(e.ID, e.Patch)
	case RemoveFixture:
		err = c.store.Remove(e.ID)
	case AddLine:
		err = c.store.AddLine(e.Line)
	case RemoveLine:
		err = c.store.RemoveLine(e.ID)
	case Undo:
		c.store.Undo()
	case Redo:
		c.store.Redo()
	case Haptic:
		c.host.Haptic(e.Strength)
	case Reject:
		c.log.Debug().Err(e.Err).Msg("action rejected")
		c.host.Rejected(e.Err)
	case StartTimer:
		c.host.StartTimer(e.Token, e.After)
	case CancelTimer:
		c.host.CancelTimer(e.Token)
	}

	if err != nil {
		// The store can still refuse, e.g. when detector lines filled the
		// line limit after the event was reduced.
		c.log.Warn().Err(err).Msg("store rejected effect")
		c.host.Rejected(err)
	}
}
