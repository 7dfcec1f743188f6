package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/fairdeal/internal/display"
	"github.com/lox/fairdeal/internal/tui"
)

// PlayCmd starts an interactive session against the house.
type PlayCmd struct {
	Player   string `short:"p" default:"player" env:"FAIRDEAL_PLAYER,USER" help:"Player identity recorded with each hand"`
	Wager    int64  `short:"w" default:"10" help:"Chips wagered at the start of each hand"`
	Bankroll int64  `help:"Starting bankroll (defaults to engine.default_stack)"`
}

func (c *PlayCmd) Run(g *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The terminal belongs to the play screen, so logs only go to a file.
	rt, err := openRuntime(ctx, g, io.Discard)
	if err != nil {
		return err
	}
	defer rt.Close()

	bankroll := c.Bankroll
	if bankroll <= 0 {
		bankroll = rt.cfg.Engine.DefaultStack
	}

	var logOut io.Writer = io.Discard
	if rt.cfg.Log.File != "" {
		f, err := os.OpenFile(rt.cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	level := log.InfoLevel
	if g.Debug {
		level = log.DebugLevel
	}
	uiLogger := log.NewWithOptions(logOut, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})

	model := tui.New(ctx, rt.engine, uiLogger, tui.Config{
		Player:   c.Player,
		Wager:    c.Wager,
		Bankroll: bankroll,
	})
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("play screen: %w", err)
	}

	fmt.Printf("%s hands played, net %s, bankroll %d\n",
		display.HandInfoStyle.Render(fmt.Sprint(model.Hands())), display.Chips(model.Net()), model.Bankroll())
	return nil
}
