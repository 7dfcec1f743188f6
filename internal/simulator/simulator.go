// Package simulator plays batches of hands between scripted player
// strategies and the house to measure the house edge.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/fairdeal/internal/fairness"
	"github.com/lox/fairdeal/internal/game"
	"github.com/lox/fairdeal/internal/gameid"
	"github.com/lox/fairdeal/internal/randutil"
	"github.com/lox/fairdeal/internal/ranking"
	"github.com/lox/fairdeal/internal/statistics"
)

// maxActions bounds a hand so a misbehaving strategy cannot spin forever.
const maxActions = 64

// Config holds configuration for running simulations.
type Config struct {
	Hands       int
	Strategy    string // a name from Strategies, or "mixed"
	Seed        int64
	Wager       int64
	Stack       int64
	Concurrency int
	Ranker      ranking.Ranker
	Logger      zerolog.Logger
}

// Simulator runs hand simulations.
type Simulator struct {
	config Config
	mix    []Strategy
}

// New creates a simulator. It fails on an unknown strategy name.
func New(config Config) (*Simulator, error) {
	if config.Wager <= 0 {
		config.Wager = 10
	}
	if config.Stack <= 0 {
		config.Stack = game.DefaultStack
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.Ranker == nil {
		config.Ranker = ranking.Hankin{}
	}

	names := []string{config.Strategy}
	if config.Strategy == "mixed" {
		names = Strategies()
	}
	s := &Simulator{config: config}
	for _, name := range names {
		st, err := NewStrategy(name)
		if err != nil {
			return nil, err
		}
		s.mix = append(s.mix, st)
	}
	return s, nil
}

// Label describes the strategy mix for reports.
func (s *Simulator) Label() string {
	if len(s.mix) == 1 {
		return s.mix[0].Name()
	}
	names := make([]string, len(s.mix))
	for i, st := range s.mix {
		names[i] = st.Name()
	}
	return fmt.Sprintf("mixed(%s)", strings.Join(names, ","))
}

// Run plays every hand and returns the aggregated results. Hands run in
// parallel but are added to the statistics in order, so a seed always
// produces the same report.
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, error) {
	results := make([]statistics.HandResult, s.config.Hands)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)
	for i := range s.config.Hands {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			seed := randutil.Derive(s.config.Seed, i)
			result, err := s.playHand(ctx, seed, s.mix[i%len(s.mix)])
			if err != nil {
				return fmt.Errorf("hand %d (seed %d): %w", i+1, seed, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &statistics.Statistics{}
	for _, r := range results {
		stats.Add(r, s.config.Wager)
	}
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	return stats, nil
}

func (s *Simulator) playHand(ctx context.Context, seed int64, strategy Strategy) (statistics.HandResult, error) {
	rng := randutil.New(seed)
	engine := game.NewEngine(s.config.Logger, nil, nil,
		game.WithDealer(fairness.SecureDealer{Rand: randutil.NewReader(seed)}),
		game.WithRanker(s.config.Ranker),
		game.WithIDGenerator(gameid.NewGenerator(randutil.NewReader(^seed)).Generate),
	)

	h, err := engine.CreateHand(ctx, strategy.Name(), s.config.Wager, game.WithStack(s.config.Stack))
	if err != nil {
		return statistics.HandResult{}, err
	}

	for n := 0; h.Street.Betting(); n++ {
		if n == maxActions {
			return statistics.HandResult{}, fmt.Errorf("hand %s did not finish after %d actions", h.ID, maxActions)
		}
		action, amount := strategy.Act(h, rng)
		next, err := engine.ProcessAction(ctx, h.ID, action, amount)
		if errors.Is(err, game.ErrInvalidRaise) {
			next, err = engine.ProcessAction(ctx, h.ID, game.Call, 0)
		}
		if next == nil {
			return statistics.HandResult{}, err
		}
		h = next
		if err != nil && h.Outcome == nil {
			return statistics.HandResult{}, err
		}
	}

	if h.Outcome == nil {
		return statistics.HandResult{}, fmt.Errorf("hand %s ended at %s without an outcome", h.ID, h.Street)
	}
	o := h.Outcome
	return statistics.HandResult{
		Net:            float64(o.Profit) / float64(h.Wager),
		Seed:           seed,
		Strategy:       strategy.Name(),
		WentToShowdown: o.Reason == game.ReasonShowdown,
		Draw:           o.Player == game.Draw,
		AuditRequired:  o.AuditRequired,
		Pot:            h.Pot,
		StreetReached:  streetReached(h),
	}, nil
}

func streetReached(h *game.Hand) string {
	switch len(h.Board) {
	case 0:
		return game.Preflop.String()
	case 3:
		return game.Flop.String()
	case 4:
		return game.Turn.String()
	}
	return game.River.String()
}

// PrintSummary writes a report of the simulation results to w.
func PrintSummary(w io.Writer, stats *statistics.Statistics, label string) {
	low, high := stats.ConfidenceInterval95()

	fmt.Fprintf(w, "\n=== RESULTS for %s vs house ===\n", label)
	fmt.Fprintf(w, "Hands played: %d\n", stats.Hands)
	fmt.Fprintf(w, "Player mean: %.4f wagers/hand\n", stats.Mean())
	fmt.Fprintf(w, "House edge: %.2f%%\n", stats.HouseEdge()*100)
	fmt.Fprintf(w, "Median: %.4f, Std Dev: %.4f, Std Error: %.4f\n", stats.Median(), stats.StdDev(), stats.StdError())
	fmt.Fprintf(w, "95%% CI: [%.4f, %.4f] wagers/hand\n", low, high)
	fmt.Fprintf(w, "Percentiles: P5=%.3f, P25=%.3f, P75=%.3f, P95=%.3f\n",
		stats.Percentile(0.05), stats.Percentile(0.25), stats.Percentile(0.75), stats.Percentile(0.95))

	fmt.Fprintf(w, "\n=== PROFIT SOURCE ===\n")
	fmt.Fprintf(w, "Player wins: %d at showdown, %d by house fold\n", stats.ShowdownWins, stats.NonShowdownWins)
	fmt.Fprintf(w, "Draws: %d (%d flagged for audit)\n", stats.Draws, stats.Audits)
	if stats.Hands > 0 {
		fmt.Fprintf(w, "Showdown: %.3f wagers/hand, non-showdown: %.3f wagers/hand\n",
			stats.ShowdownNet/float64(stats.Hands), stats.NonShowdownNet/float64(stats.Hands))
	}
	fmt.Fprintf(w, "Max pot: %d chips, big pots: %d (%.2f wagers)\n", stats.MaxPot, stats.BigPots, stats.BigPotNet)

	fmt.Fprintf(w, "\n=== BY STRATEGY ===\n")
	for _, name := range stats.StrategyNames() {
		st := stats.Strategies[name]
		fmt.Fprintf(w, "%-10s %6d hands  %4d W / %4d L / %4d D  %+.3f wagers/hand\n",
			name, st.Hands, st.Wins, st.Losses, st.Draws, st.Mean())
	}
}
