package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lox/fairdeal/internal/display"
	"github.com/lox/fairdeal/internal/history"
	"github.com/lox/fairdeal/internal/phh"
)

// HistoryCmd is the root command for recorded hands.
type HistoryCmd struct {
	List   HistoryListCmd   `cmd:"" default:"withargs" help:"List recorded hands from the database"`
	Stats  HistoryStatsCmd  `cmd:"" help:"Show a player's totals from the database"`
	Render HistoryRenderCmd `cmd:"" help:"Render a PHH session file"`
}

// HistoryListCmd lists recent hands.
type HistoryListCmd struct {
	Player string `help:"Only hands for this player"`
	Audit  bool   `help:"Only hands flagged for audit"`
	Limit  int    `short:"n" default:"20" help:"Maximum number of hands"`
}

func (c *HistoryListCmd) Run(g *Globals) error {
	ctx := context.Background()
	rt, err := openRuntime(ctx, g, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	sql, err := rt.requireSQL()
	if err != nil {
		return err
	}
	rows, err := sql.List(ctx, history.Query{Player: c.Player, AuditOnly: c.Audit, Limit: c.Limit})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No hands recorded")
		return nil
	}
	fmt.Println(display.HistoryTable(rows))
	return nil
}

// HistoryStatsCmd prints aggregate results for a player.
type HistoryStatsCmd struct {
	Player string `arg:"" help:"Player identity"`
}

func (c *HistoryStatsCmd) Run(g *Globals) error {
	ctx := context.Background()
	rt, err := openRuntime(ctx, g, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	sql, err := rt.requireSQL()
	if err != nil {
		return err
	}
	stats, err := sql.Stats(ctx, c.Player)
	if err != nil {
		return err
	}
	printStats(os.Stdout, c.Player, stats)
	return nil
}

func printStats(w io.Writer, player string, s history.PlayerStats) {
	fmt.Fprintln(w, display.HeaderStyle.Render(" "+player+" "))
	fmt.Fprintf(w, "Hands:   %d\n", s.Hands)
	fmt.Fprintf(w, "Results: %d W / %d L / %d D / %d F\n", s.Wins, s.Losses, s.Draws, s.Folds)
	fmt.Fprintf(w, "Wagered: %d\n", s.Wagered)
	fmt.Fprintf(w, "Net:     %s\n", display.Chips(s.NetProfit))
	if s.Wagered > 0 {
		fmt.Fprintf(w, "Return:  %+.2f%% of wagers\n", float64(s.NetProfit)/float64(s.Wagered)*100)
	}
}

// HistoryRenderCmd prints the hands of a PHH session file.
type HistoryRenderCmd struct {
	File  string `arg:"" name:"file" type:"existingfile" help:"Path to a session.phhs file"`
	Limit int    `help:"Maximum number of hands to render (0 = all)"`
}

func (c *HistoryRenderCmd) Run() error {
	f, err := os.Open(filepath.Clean(c.File))
	if err != nil {
		return err
	}
	defer f.Close()

	hands, err := phh.DecodeSession(f)
	if err != nil {
		return err
	}
	if len(hands) == 0 {
		return fmt.Errorf("no hands found in %s", c.File)
	}
	return renderSession(os.Stdout, hands, c.Limit)
}

func renderSession(w io.Writer, hands []phh.HandHistory, limit int) error {
	if limit <= 0 || limit > len(hands) {
		limit = len(hands)
	}
	for i := range limit {
		if err := renderHand(w, &hands[i]); err != nil {
			return fmt.Errorf("rendering hand %d: %w", i+1, err)
		}
	}
	fmt.Fprintf(w, "%d of %d hands\n", limit, len(hands))
	return nil
}

func renderHand(w io.Writer, h *phh.HandHistory) error {
	if len(h.Players) != 2 || len(h.Winnings) != 2 || len(h.BlindsOrStraddles) != 2 {
		return errors.New("expected a heads-up hand with winnings")
	}

	title := " Hand " + h.HandID + " "
	if h.Time != "" {
		title += fmt.Sprintf("%04d-%02d-%02d %s %s ", h.Year, h.Month, h.Day, h.Time, h.TimeZone)
	}
	fmt.Fprintln(w, display.HeaderStyle.Render(title))
	fmt.Fprintf(w, "%s vs %s  wager %d  reason %s\n", h.Players[0], h.Players[1], h.BlindsOrStraddles[0], h.Reason)

	for _, action := range h.Actions {
		fmt.Fprintln(w, "  "+prettyAction(action, h.Players))
	}

	fmt.Fprintf(w, "Winnings: %s %d, %s %d\n", h.Players[0], h.Winnings[0], h.Players[1], h.Winnings[1])
	if h.AuditRequired {
		fmt.Fprintln(w, display.WarningStyle.Render("Flagged for audit"))
	}
	fmt.Fprintln(w, display.InfoStyle.Render("Commitment "+h.Commitment))
	fmt.Fprintln(w)
	return nil
}

// prettyAction renders a PHH action line with player names and card glyphs.
func prettyAction(action string, players []string) string {
	fields := strings.Fields(action)
	if len(fields) < 2 {
		return action
	}
	for i, f := range fields {
		switch f {
		case "p1":
			fields[i] = players[0]
		case "p2":
			fields[i] = players[1]
		case "d":
			fields[i] = "dealer"
		}
	}

	switch fields[1] {
	case "dh", "db", "sm":
		last := len(fields) - 1
		if cards, err := phh.ParseCards(fields[last]); err == nil && last >= 2 {
			fields[last] = display.Cards(cards)
		}
	}
	return strings.Join(fields, " ")
}
