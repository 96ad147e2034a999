// Package engine provides the timestep loop that drives a run.
package engine

import (
	"context"
	"log/slog"

	"github.com/talgya/valleysim/internal/timeline"
)

// Engine drives the model clock forward.
type Engine struct {
	Clock *timeline.Clock

	// Callbacks for each layer, populated during setup. An error stops the
	// run.
	OnStep func(ctx context.Context, now timeline.Instant) error // every timestep
	OnYear func(ctx context.Context, now timeline.Instant) error // after the last timestep of each model year
}

// NewEngine creates an engine over clock.
func NewEngine(clock *timeline.Clock) *Engine {
	return &Engine{Clock: clock}
}

// Run steps until the clock leaves its bounds, the context is cancelled, or
// a callback fails. Cancellation is checked between timesteps only, so a
// step is never left half done.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("simulation engine started",
		"clock", e.Clock.String(),
		"steps", e.Clock.Steps(),
	)

	for e.Clock.InBounds() {
		if err := ctx.Err(); err != nil {
			slog.Warn("simulation engine interrupted", "step", e.Clock.Now().Step, "error", err)
			return err
		}
		if err := e.step(ctx); err != nil {
			return err
		}
	}

	slog.Info("simulation engine stopped", "step", e.Clock.Now().Step-1)
	return nil
}

// step runs one timestep and advances the clock.
func (e *Engine) step(ctx context.Context) error {
	now := e.Clock.Now()

	if e.OnStep != nil {
		if err := e.OnStep(ctx, now); err != nil {
			return err
		}
	}

	// Year end: the next timestep falls in a later year, or this is the
	// last one.
	next := now.AddMonths(e.Clock.TimestepMonths())
	if (next.Year != now.Year || e.Clock.IsLast()) && e.OnYear != nil {
		if err := e.OnYear(ctx, now); err != nil {
			return err
		}
	}

	e.Clock.Advance()
	return nil
}
