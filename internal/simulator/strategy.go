package simulator

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/fairdeal/internal/game"
	"github.com/lox/fairdeal/internal/house"
	"github.com/lox/fairdeal/poker"
)

// Strategy picks the simulated player's next action from their view of the
// hand.
type Strategy interface {
	Name() string
	Act(h *game.Hand, rng *rand.Rand) (game.Action, int64)
}

// Strategies lists the built-in strategy names accepted by NewStrategy.
func Strategies() []string {
	return []string{"passive", "aggressive", "random", "tight"}
}

// NewStrategy returns the named built-in strategy.
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "passive":
		return passive{}, nil
	case "aggressive":
		return aggressive{}, nil
	case "random":
		return random{}, nil
	case "tight":
		return tight{}, nil
	}
	return nil, fmt.Errorf("unknown strategy %q", name)
}

// raiseOrCall raises by amount when the stack covers it.
func raiseOrCall(h *game.Hand, amount int64) (game.Action, int64) {
	if amount > 0 && h.PlayerToCall()+amount <= h.Stack {
		return game.Raise, amount
	}
	return game.Call, 0
}

// passive calls down every street.
type passive struct{}

func (passive) Name() string { return "passive" }

func (passive) Act(*game.Hand, *rand.Rand) (game.Action, int64) {
	return game.Call, 0
}

// aggressive raises half the wager whenever it can.
type aggressive struct{}

func (aggressive) Name() string { return "aggressive" }

func (aggressive) Act(h *game.Hand, _ *rand.Rand) (game.Action, int64) {
	return raiseOrCall(h, max(h.Wager/2, 1))
}

type random struct{}

func (random) Name() string { return "random" }

func (random) Act(h *game.Hand, rng *rand.Rand) (game.Action, int64) {
	roll := rng.IntN(100)
	switch {
	case roll < 10:
		return game.Fold, 0
	case roll < 70:
		return game.Call, 0
	case roll < 95:
		room := h.Stack - h.PlayerToCall()
		if room <= 0 {
			return game.Call, 0
		}
		return game.Raise, rng.Int64N(room) + 1
	default:
		if h.Stack == 0 {
			return game.Call, 0
		}
		return game.AllIn, 0
	}
}

// tight folds trash preflop and weak holdings facing a bet, and raises
// premium and strong hands.
type tight struct{}

func (tight) Name() string { return "tight" }

func (tight) Act(h *game.Hand, _ *rand.Rand) (game.Action, int64) {
	if len(h.Board) < 3 {
		switch poker.CategorizeHoleCards(h.PlayerCards[0], h.PlayerCards[1]) {
		case poker.CategoryTrash:
			return game.Fold, 0
		case poker.CategoryPremium:
			return raiseOrCall(h, h.Wager)
		}
		return game.Call, 0
	}

	strength, _, err := house.Evaluate([2]poker.Card{h.PlayerCards[0], h.PlayerCards[1]}, h.Board)
	if err != nil {
		return game.Call, 0
	}
	switch {
	case strength >= house.Strong:
		return raiseOrCall(h, h.Pot/2)
	case strength == house.VeryWeak && h.PlayerToCall() > 0:
		return game.Fold, 0
	}
	return game.Call, 0
}
