package game

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/lox/fairdeal/internal/fairness"
	"github.com/lox/fairdeal/poker"
)

// Street is the lifecycle stage of a hand.
type Street int

const (
	Created Street = iota
	Preflop
	Flop
	Turn
	River
	Showdown
	Resolved
)

var streetNames = [...]string{"created", "preflop", "flop", "turn", "river", "showdown", "resolved"}

func (s Street) String() string {
	if s < 0 || int(s) >= len(streetNames) {
		return fmt.Sprintf("street(%d)", int(s))
	}
	return streetNames[s]
}

// Betting reports whether the street accepts player actions.
func (s Street) Betting() bool {
	return s >= Preflop && s <= River
}

// boardSize is the number of community cards visible on the street.
func (s Street) boardSize() int {
	switch s {
	case Flop:
		return 3
	case Turn:
		return 4
	case River, Showdown:
		return 5
	}
	return 0
}

func (s Street) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Street) UnmarshalText(text []byte) error {
	for i, name := range streetNames {
		if name == string(text) {
			*s = Street(i)
			return nil
		}
	}
	return fmt.Errorf("game: unknown street %q", text)
}

// Action is a betting action.
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

// ParseAction parses an action name. "check" is accepted as Call and
// "all-in" as AllIn.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fold", "f":
		return Fold, nil
	case "call", "check", "c":
		return Call, nil
	case "raise", "bet", "r":
		return Raise, nil
	case "allin", "all-in", "a":
		return AllIn, nil
	}
	return 0, fmt.Errorf("game: unknown action %q", s)
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Result is one side's terminal outcome.
type Result string

const (
	Win  Result = "win"
	Loss Result = "loss"
	Draw Result = "draw"
	// Folded marks the side that gave up the pot.
	Folded Result = "fold"
)

// Reason records how a hand was resolved.
type Reason string

const (
	ReasonShowdown   Reason = "showdown"
	ReasonPlayerFold Reason = "player_fold"
	ReasonHouseFold  Reason = "house_fold"
	ReasonTimeout    Reason = "timeout"
)

// Actor identifies who took an action.
type Actor string

const (
	ActorPlayer Actor = "player"
	ActorHouse  Actor = "house"
)

// ActionEntry is one line of a hand's action log.
type ActionEntry struct {
	Street    Street `json:"street"`
	Actor     Actor  `json:"actor"`
	Action    Action `json:"action"`
	Amount    int64  `json:"amount,omitempty"`
	Rationale string `json:"rationale,omitempty"`
}

func (e ActionEntry) String() string {
	if e.Amount > 0 {
		return fmt.Sprintf("%s %s %d", e.Actor, e.Action, e.Amount)
	}
	return fmt.Sprintf("%s %s", e.Actor, e.Action)
}

// Summarize renders an action log compactly, grouped by street:
//
//	preflop: player call, house call | flop: player raise 50, house fold
func Summarize(entries []ActionEntry) string {
	var b strings.Builder
	current := Created
	for i, e := range entries {
		switch {
		case i == 0:
			fmt.Fprintf(&b, "%s: ", e.Street)
		case e.Street != current:
			fmt.Fprintf(&b, " | %s: ", e.Street)
		default:
			b.WriteString(", ")
		}
		current = e.Street
		b.WriteString(e.String())
	}
	return b.String()
}

// Outcome is the terminal result of a hand. Profit and Payout are from the
// player's side: Payout is what the player takes back from the pot.
type Outcome struct {
	Player        Result    `json:"player"`
	House         Result    `json:"house"`
	Reason        Reason    `json:"reason"`
	PlayerHand    string    `json:"player_hand,omitempty"`
	HouseHand     string    `json:"house_hand,omitempty"`
	Payout        int64     `json:"payout"`
	Profit        int64     `json:"profit"`
	AuditRequired bool      `json:"audit_required,omitempty"`
	ResolvedAt    time.Time `json:"resolved_at"`
}

// Hand is the public view of a hand. HouseCards, Salt and Deck stay empty
// until the hand is Resolved.
type Hand struct {
	ID     string `json:"id"`
	Player string `json:"player"`
	Street Street `json:"street"`

	Wager           int64 `json:"wager"`
	Stack           int64 `json:"stack"` // player chips behind
	Pot             int64 `json:"pot"`
	PlayerCommitted int64 `json:"player_committed"`
	HouseCommitted  int64 `json:"house_committed"`
	PlayerAllIn     bool  `json:"player_all_in,omitempty"`

	PlayerCards []poker.Card `json:"player_cards"`
	HouseCards  []poker.Card `json:"house_cards,omitempty"`
	Board       []poker.Card `json:"board"`

	Commitment string `json:"commitment"`
	Salt       string `json:"salt,omitempty"`
	Deck       string `json:"deck,omitempty"`

	Actions   []ActionEntry `json:"actions"`
	Outcome   *Outcome      `json:"outcome,omitempty"`
	Persisted bool          `json:"persisted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlayerToCall returns the chips the player must add to match the house.
func (h *Hand) PlayerToCall() int64 {
	return max(h.HouseCommitted-h.PlayerCommitted, 0)
}

// HouseToCall returns the chips the house must add to match the player.
func (h *Hand) HouseToCall() int64 {
	return max(h.PlayerCommitted-h.HouseCommitted, 0)
}

// Clone returns a deep copy of h.
func (h *Hand) Clone() *Hand {
	c := *h
	c.PlayerCards = slices.Clone(h.PlayerCards)
	c.HouseCards = slices.Clone(h.HouseCards)
	c.Board = slices.Clone(h.Board)
	c.Actions = slices.Clone(h.Actions)
	if h.Outcome != nil {
		o := *h.Outcome
		c.Outcome = &o
	}
	return &c
}

// State is the authoritative server-side record of a hand. Only the engine
// and stores handle State; callers receive Hand views.
type State struct {
	Hand       Hand          `json:"hand"`
	HouseCards [2]poker.Card `json:"house_cards"`
	Deal       fairness.Deal `json:"deal"`
	// Next is the index of the next undealt card in Deal.Cards.
	Next int `json:"next"`
	// Version counts successful writes. Stores reject a Put whose Version
	// no longer matches what they hold.
	Version int64 `json:"version"`
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	c := *s
	c.Hand = *s.Hand.Clone()
	c.Deal.Cards = slices.Clone(s.Deal.Cards)
	return &c
}

// View returns the caller-facing copy of the hand.
func (s *State) View() *Hand {
	return s.Hand.Clone()
}

// deck resumes the committed deck at the next undealt card.
func (s *State) deck() (*poker.Deck, error) {
	return poker.ResumeDeck(s.Deal.Cards, s.Next)
}
