// Package reaper force-folds hands whose player stopped acting.
package reaper

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/fairdeal/internal/game"
)

// Engine is the part of game.Engine the reaper drives.
type Engine interface {
	ActiveHands(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id string) (*game.Hand, error)
	ForceFold(ctx context.Context, id string) (*game.Hand, error)
}

// Config controls how often hands are checked and when they expire.
type Config struct {
	Timeout     time.Duration
	Interval    time.Duration
	Concurrency int
	Clock       quartz.Clock
}

// Result counts what one sweep did.
type Result struct {
	Checked int
	Folded  int
	Busy    int
	Failed  int
}

// Reaper periodically resolves hands idle for longer than Timeout.
type Reaper struct {
	engine Engine
	cfg    Config
	logger zerolog.Logger
}

// New returns a reaper. Timeout defaults to five minutes and Interval to a
// quarter of Timeout.
func New(logger zerolog.Logger, engine Engine, cfg Config) *Reaper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.Interval <= 0 {
		cfg.Interval = cfg.Timeout / 4
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	return &Reaper{
		engine: engine,
		cfg:    cfg,
		logger: logger.With().Str("component", "reaper").Logger(),
	}
}

// Sweep checks every active hand once. Hands busy with a player action are
// skipped until the next sweep.
func (r *Reaper) Sweep(ctx context.Context) (Result, error) {
	ids, err := r.engine.ActiveHands(ctx)
	if err != nil {
		return Result{}, err
	}

	var folded, busy, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for _, id := range ids {
		g.Go(func() error {
			h, err := r.engine.Get(gctx, id)
			if errors.Is(err, game.ErrHandNotFound) {
				return nil
			}
			if err != nil {
				failed.Add(1)
				r.logger.Error().Err(err).Str("hand_id", id).Msg("Failed to load hand")
				return nil
			}

			idle := r.cfg.Clock.Since(h.UpdatedAt)
			if idle < r.cfg.Timeout {
				return nil
			}

			h, err = r.engine.ForceFold(gctx, id)
			switch {
			case errors.Is(err, game.ErrHandBusy):
				busy.Add(1)
				return nil
			case errors.Is(err, game.ErrInvalidStateTransition):
				return nil
			case h == nil && err != nil:
				failed.Add(1)
				r.logger.Error().Err(err).Str("hand_id", id).Msg("Failed to force fold hand")
				return nil
			}

			folded.Add(1)
			ev := r.logger.Info()
			if err != nil {
				ev = r.logger.Warn().Err(err)
			}
			ev.Str("hand_id", id).
				Str("player", h.Player).
				Dur("idle", idle).
				Str("reason", string(h.Outcome.Reason)).
				Msg("Reaped idle hand")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	return Result{
		Checked: len(ids),
		Folded:  int(folded.Load()),
		Busy:    int(busy.Load()),
		Failed:  int(failed.Load()),
	}, ctx.Err()
}

// Run sweeps every Interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) error {
	ticker := r.cfg.Clock.NewTicker(r.cfg.Interval, "reaper")
	defer ticker.Stop()

	r.logger.Info().Dur("timeout", r.cfg.Timeout).Dur("interval", r.cfg.Interval).Msg("Reaper started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			res, err := r.Sweep(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				r.logger.Error().Err(err).Msg("Sweep failed")
				continue
			}
			if res.Folded > 0 || res.Failed > 0 {
				r.logger.Info().
					Int("checked", res.Checked).
					Int("folded", res.Folded).
					Int("busy", res.Busy).
					Int("failed", res.Failed).
					Msg("Sweep complete")
			}
		}
	}
}
