package main

import (
	"fmt"
	"os"
	"time"

	"github.com/lox/fairdeal/cmd/fairdeal/shared"
	"github.com/lox/fairdeal/internal/ranking"
	"github.com/lox/fairdeal/internal/simulator"
)

// SimulateCmd plays scripted strategies against the house policy.
type SimulateCmd struct {
	Hands       int    `short:"n" default:"10000" help:"Number of hands to simulate"`
	Strategy    string `short:"s" default:"mixed" help:"Player strategy: passive, aggressive, random, tight or mixed"`
	Seed        *int64 `help:"Deterministic seed (optional)"`
	Wager       int64  `default:"10" help:"Chips wagered per hand"`
	Stack       int64  `help:"Player stack per hand (defaults to engine.default_stack)"`
	Concurrency int    `short:"j" default:"4" help:"Hands played in parallel"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	logger, closer, err := shared.SetupLogger(cfg.Log, g.Debug, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	ranker, err := ranking.ByName(cfg.Engine.Ranker)
	if err != nil {
		return err
	}

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info().Int64("seed", seed).Msg("Using deterministic seed")
	} else {
		logger.Info().Int64("seed", seed).Msg("Using random seed")
	}

	stack := c.Stack
	if stack <= 0 {
		stack = cfg.Engine.DefaultStack
	}

	sim, err := simulator.New(simulator.Config{
		Hands:       c.Hands,
		Strategy:    c.Strategy,
		Seed:        seed,
		Wager:       c.Wager,
		Stack:       stack,
		Concurrency: c.Concurrency,
		Ranker:      ranker,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	ctx := shared.SetupSignalHandlerWithLogger(logger)
	start := time.Now()
	stats, err := sim.Run(ctx)
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	logger.Info().
		Int("hands", stats.Hands).
		Dur("elapsed", time.Since(start)).
		Msg("Simulation complete")
	simulator.PrintSummary(os.Stdout, stats, sim.Label())
	return stats.Validate()
}
