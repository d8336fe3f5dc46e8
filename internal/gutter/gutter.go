// Package gutter finds roofline and gutter mounting lines in a house photo.
// Detection runs an ordered chain of stages: remote services first, then a
// local heuristic that always produces a result.
package gutter

import (
	"context"
	"errors"
	"image"
	"sync"

	"lightplan/internal/fixture"

	"github.com/rs/zerolog"
)

// ErrNoLines is returned when no stage produced a usable line.
var ErrNoLines = errors.New("no mounting lines detected")

// Stage is one detection strategy. Lines may be in any order; the chain
// normalizes them.
type Stage interface {
	Name() string
	Detect(ctx context.Context, img image.Image, maxLines int) ([]fixture.MountingLine, error)
}

// Chain tries its stages in order until one yields lines. Starting a new
// detection cancels the one in flight.
type Chain struct {
	stages []Stage
	norm   NormalizeOptions
	log    zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	seq    uint64
}

// NewChain creates a chain over stages, tried in the given order.
func NewChain(log zerolog.Logger, stages ...Stage) *Chain {
	return &Chain{
		stages: stages,
		norm:   DefaultNormalizeOptions(),
		log:    log.With().Str("component", "gutter").Logger(),
	}
}

// SetNormalizeOptions replaces the normalization settings.
func (c *Chain) SetNormalizeOptions(opts NormalizeOptions) {
	c.mu.Lock()
	c.norm = opts
	c.mu.Unlock()
}

// Stages returns the stage names in order.
func (c *Chain) Stages() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name()
	}
	return names
}

// Detect runs the chain and returns normalized lines and the name of the
// stage that produced them. A superseded call returns context.Canceled.
func (c *Chain) Detect(ctx context.Context, img image.Image, maxLines int) ([]fixture.MountingLine, string, error) {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.seq++
	seq := c.seq
	norm := c.norm
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.seq == seq {
			c.cancel = nil
		}
		c.mu.Unlock()
		cancel()
	}()

	if img == nil || img.Bounds().Empty() {
		return nil, "", ErrNoLines
	}

	for _, stage := range c.stages {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		lines, err := stage.Detect(ctx, img, maxLines)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, "", ctxErr
			}
			c.log.Warn().Err(err).Str("stage", stage.Name()).Msg("detector stage failed, trying next")
			continue
		}
		lines = Normalize(lines, maxLines, norm)
		if len(lines) == 0 {
			c.log.Debug().Str("stage", stage.Name()).Msg("detector stage found nothing")
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		c.log.Info().Str("stage", stage.Name()).Int("lines", len(lines)).Msg("mounting lines detected")
		return lines, stage.Name(), nil
	}
	return nil, "", ErrNoLines
}

// Cancel aborts the detection in flight, if any.
func (c *Chain) Cancel() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
}
