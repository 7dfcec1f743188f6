// Package house implements the Pontiff's betting policy: a hand-strength and
// pot-odds heuristic evaluated only against cards the house can legitimately
// see.
package house

import (
	"fmt"
	"math/bits"

	"github.com/rs/zerolog"

	"github.com/lox/fairdeal/poker"
)

// Action is a house betting decision.
type Action int

const (
	Fold Action = iota
	Call
	Raise
	AllIn
)

var actionNames = [...]string{"fold", "call", "raise", "allin"}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return actionNames[a]
}

// Round mirrors the betting round the decision is made in.
type Round int

const (
	Preflop Round = iota
	Flop
	Turn
	River
)

var roundNames = [...]string{"preflop", "flop", "turn", "river"}

func (r Round) String() string {
	if r < 0 || int(r) >= len(roundNames) {
		return fmt.Sprintf("round(%d)", int(r))
	}
	return roundNames[r]
}

// Strength is a coarse hand-strength tier.
type Strength int

const (
	VeryWeak Strength = iota
	Weak
	Medium
	Strong
	VeryStrong
)

var strengthNames = [...]string{"very weak", "weak", "medium", "strong", "very strong"}

func (s Strength) String() string {
	if s < 0 || int(s) >= len(strengthNames) {
		return fmt.Sprintf("strength(%d)", int(s))
	}
	return strengthNames[s]
}

// View is the read-only snapshot the policy decides from. Community holds
// only the revealed board.
type View struct {
	Community   []poker.Card
	Hole        [2]poker.Card
	Pot         int64 // includes the bet being faced
	CurrentBet  int64 // chips the house must add to continue
	Round       Round
	PlayerAllIn bool
}

// Decision is the policy output. Amount is the raise size on top of the call
// for Raise and zero otherwise.
type Decision struct {
	Action    Action
	Amount    int64
	Rationale string
	Strength  Strength
	Fallback  bool
}

// Policy decides house actions.
type Policy struct {
	logger zerolog.Logger
}

// NewPolicy returns a policy that logs fallback substitutions to logger.
func NewPolicy(logger zerolog.Logger) *Policy {
	return &Policy{logger: logger.With().Str("component", "house_policy").Logger()}
}

const (
	weakCallOdds   = 0.25
	mediumCallOdds = 0.40
)

// Decide returns the house action for v. It has no side effects beyond
// logging and returns the same decision for the same view.
func (p *Policy) Decide(v View) Decision {
	if len(v.Community) < 3 {
		category := poker.CategorizeHoleCards(v.Hole[0], v.Hole[1])
		p.logger.Info().
			Str("round", v.Round.String()).
			Int("visible_cards", len(v.Community)).
			Str("hole_category", string(category)).
			Msg("Hand strength unavailable before the flop, defaulting to call")
		return Decision{
			Action:    Call,
			Rationale: fmt.Sprintf("The Pontiff calls preflop holding a %s hand.", category),
			Strength:  Medium,
			Fallback:  true,
		}
	}

	strength, made, err := Evaluate(v.Hole, v.Community)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Hand strength evaluation failed, defaulting to call")
		return Decision{
			Action:    Call,
			Rationale: "The Pontiff cannot read the board and calls.",
			Strength:  Medium,
			Fallback:  true,
		}
	}

	scary := ScaryBoard(v.Community)
	if scary && (strength == Weak || strength == Medium) {
		strength--
	}

	d := decide(v, strength)
	d.Strength = strength
	d.Rationale = rationale(d, made, scary, v)
	return d
}

func decide(v View, s Strength) Decision {
	canRaise := v.Round < River && !v.PlayerAllIn

	if v.CurrentBet <= 0 {
		if canRaise && s >= Strong {
			return Decision{Action: Raise, Amount: max(v.Pot/2, 1)}
		}
		return Decision{Action: Call}
	}

	odds := PotOdds(v.Pot, v.CurrentBet)
	switch s {
	case VeryWeak:
		return Decision{Action: Fold}
	case Weak:
		if odds <= weakCallOdds {
			return Decision{Action: Call}
		}
		return Decision{Action: Fold}
	case Medium:
		if odds <= mediumCallOdds {
			return Decision{Action: Call}
		}
		return Decision{Action: Fold}
	case Strong:
		return Decision{Action: Call}
	default:
		switch {
		case v.PlayerAllIn:
			return Decision{Action: AllIn}
		case canRaise:
			return Decision{Action: Raise, Amount: max(v.Pot/2, 1)}
		}
		return Decision{Action: Call}
	}
}

func rationale(d Decision, made poker.HandRank, scary bool, v View) string {
	board := ""
	if scary {
		board = " on a dangerous board"
	}
	switch d.Action {
	case Fold:
		return fmt.Sprintf("The Pontiff lays down a %s hand%s rather than pay %d into %d.", d.Strength, board, v.CurrentBet, v.Pot)
	case Raise:
		return fmt.Sprintf("The Pontiff raises %d with %s.", d.Amount, made)
	case AllIn:
		return fmt.Sprintf("The Pontiff meets the shove with %s.", made)
	default:
		if v.CurrentBet == 0 {
			return fmt.Sprintf("The Pontiff checks along with a %s hand%s.", d.Strength, board)
		}
		return fmt.Sprintf("The Pontiff calls %d with a %s hand%s.", v.CurrentBet, d.Strength, board)
	}
}

// PotOdds returns the share of the final pot the caller must contribute.
func PotOdds(pot, bet int64) float64 {
	if bet <= 0 {
		return 0
	}
	return float64(bet) / float64(pot+bet)
}

// Evaluate grades hole cards against a board of three to five cards. Hands
// whose made part comes only from the board grade as if unpaired.
func Evaluate(hole [2]poker.Card, board []poker.Card) (Strength, poker.HandRank, error) {
	cards := append([]poker.Card{hole[0], hole[1]}, board...)
	made, err := poker.Evaluate(cards...)
	if err != nil {
		return VeryWeak, 0, err
	}

	holeRanks := uint16(1)<<hole[0].Rank() | uint16(1)<<hole[1].Rank()
	ranks := made.Ranks()
	uses := func(r poker.Rank) bool { return holeRanks&(1<<r) != 0 }
	pocketPair := hole[0].Rank() == hole[1].Rank()

	switch made.Type() {
	case poker.StraightFlush, poker.FourOfAKind, poker.FullHouse, poker.Flush, poker.Straight:
		if len(board) == 5 && playsTheBoard(made, board) {
			return VeryWeak, made, nil
		}
		return VeryStrong, made, nil
	case poker.ThreeOfAKind:
		if pocketPair && uses(ranks[0]) {
			return VeryStrong, made, nil
		}
		if uses(ranks[0]) {
			return Strong, made, nil
		}
	case poker.TwoPair:
		if uses(ranks[0]) || uses(ranks[1]) {
			return Strong, made, nil
		}
	case poker.Pair:
		if uses(ranks[0]) {
			if ranks[0] >= poker.Jack {
				return Medium, made, nil
			}
			return Weak, made, nil
		}
	}

	if hole[0].Rank() == poker.Ace || hole[1].Rank() == poker.Ace {
		return Weak, made, nil
	}
	return VeryWeak, made, nil
}

func playsTheBoard(made poker.HandRank, board []poker.Card) bool {
	onBoard, err := poker.Evaluate(board...)
	return err == nil && onBoard == made
}

// ScaryBoard reports three or more cards of a suit, three ranks inside a
// five-rank window, or a paired board.
func ScaryBoard(board []poker.Card) bool {
	var suits [4]int
	var ranks uint16
	for _, c := range board {
		suits[c.Suit()]++
		if ranks&(1<<c.Rank()) != 0 {
			return true
		}
		ranks |= 1 << c.Rank()
	}
	for _, n := range suits {
		if n >= 3 {
			return true
		}
	}

	// Bit 0 is the ace playing low, bits 1-13 are deuce through ace.
	wide := uint32(ranks) << 1
	if ranks&(1<<poker.Ace) != 0 {
		wide |= 1
	}
	for low := 0; low+5 <= 14; low++ {
		if bits.OnesCount32(wide>>low&0x1F) >= 3 {
			return true
		}
	}
	return false
}
