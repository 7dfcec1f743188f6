package game

import (
	"github.com/coder/quartz"

	"github.com/lox/fairdeal/internal/fairness"
	"github.com/lox/fairdeal/internal/house"
	"github.com/lox/fairdeal/internal/ranking"
)

// DefaultStack is the player bankroll for a hand when none is configured.
const DefaultStack = 1000

// Decider chooses the house response. house.Policy is the production Decider.
type Decider interface {
	Decide(v house.View) house.Decision
}

// Option configures an Engine.
type Option func(*Engine)

// WithDealer sets the deck source. The default is fairness.SecureDealer.
func WithDealer(d fairness.Dealer) Option {
	return func(e *Engine) { e.dealer = d }
}

// WithRanker sets the showdown ranker. The default is ranking.Hankin.
func WithRanker(r ranking.Ranker) Option {
	return func(e *Engine) { e.ranker = r }
}

// WithDecider replaces the house policy.
func WithDecider(d Decider) Option {
	return func(e *Engine) { e.decider = d }
}

// WithClock sets the clock used for hand timestamps.
func WithClock(c quartz.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithIDGenerator sets the hand id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithDefaultStack sets the stack used when CreateHand gets no WithStack.
func WithDefaultStack(chips int64) Option {
	return func(e *Engine) { e.defaultStack = chips }
}

// HandOption configures a single hand during creation.
type HandOption func(*handConfig)

type handConfig struct {
	stack int64
}

// WithStack sets the player's bankroll for the hand, wager included.
func WithStack(chips int64) HandOption {
	return func(c *handConfig) { c.stack = chips }
}
