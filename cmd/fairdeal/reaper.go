package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lox/fairdeal/cmd/fairdeal/shared"
	"github.com/lox/fairdeal/internal/reaper"
)

// ReaperCmd resolves hands that have been idle past the configured timeout.
// It is only useful against a shared store such as Redis. Store writes are
// versioned, so when the player acts on a hand while it is being reaped only
// one of the two lands.
type ReaperCmd struct {
	Once bool `help:"Run a single sweep and exit"`
}

func (c *ReaperCmd) Run(g *Globals) error {
	rt, err := openRuntime(context.Background(), g, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.cfg.Store.Backend == "memory" {
		rt.logger.Warn().Msg("Memory store holds no hands from other processes")
	}

	r := reaper.New(rt.logger, rt.engine, reaper.Config{
		Timeout:  rt.cfg.Reaper.TimeoutDuration,
		Interval: rt.cfg.Reaper.IntervalDuration,
	})

	if c.Once {
		res, err := r.Sweep(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("checked %d, folded %d, busy %d, failed %d\n", res.Checked, res.Folded, res.Busy, res.Failed)
		return nil
	}

	ctx := shared.SetupSignalHandlerWithLogger(rt.logger)
	rt.logger.Info().
		Dur("timeout", rt.cfg.Reaper.TimeoutDuration).
		Dur("interval", rt.cfg.Reaper.IntervalDuration).
		Msg("Starting reaper")
	return r.Run(ctx)
}
