package game

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/fairdeal/internal/fairness"
	"github.com/lox/fairdeal/internal/gameid"
	"github.com/lox/fairdeal/internal/house"
	"github.com/lox/fairdeal/internal/ranking"
	"github.com/lox/fairdeal/poker"
)

// Engine runs hands between players and the house. Operations on one hand
// are serialized; a second operation arriving while one is in flight fails
// with ErrHandBusy. Different hands proceed in parallel.
//
// Within a process the inFlight set rejects overlapping operations up front.
// Across processes sharing a Store, the store's versioned Put rejects the
// later writer with ErrStaleWrite, so a hand resolved elsewhere is never
// overwritten with an older street.
type Engine struct {
	logger  zerolog.Logger
	store   Store
	sink    Sink
	dealer  fairness.Dealer
	ranker  ranking.Ranker
	decider Decider
	clock   quartz.Clock
	newID   func() string

	defaultStack int64

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewEngine creates an engine. A nil store uses a fresh MemoryStore and a nil
// sink discards records.
func NewEngine(logger zerolog.Logger, store Store, sink Sink, opts ...Option) *Engine {
	logger = logger.With().Str("component", "engine").Logger()
	if store == nil {
		store = NewMemoryStore()
	}
	if sink == nil {
		sink = discardSink{}
	}
	e := &Engine{
		logger:       logger,
		store:        store,
		sink:         sink,
		dealer:       fairness.SecureDealer{},
		ranker:       ranking.Hankin{},
		decider:      house.NewPolicy(logger),
		clock:        quartz.NewReal(),
		newID:        gameid.Generate,
		defaultStack: DefaultStack,
		inFlight:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) acquire(id string) (func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[id]; busy {
		return nil, fmt.Errorf("%w: %s", ErrHandBusy, id)
	}
	e.inFlight[id] = struct{}{}
	return func() {
		e.mu.Lock()
		delete(e.inFlight, id)
		e.mu.Unlock()
	}, nil
}

// Get returns the current view of a hand.
func (e *Engine) Get(ctx context.Context, id string) (*Hand, error) {
	s, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.View(), nil
}

// ActiveHands returns the ids of hands that are not yet Resolved.
func (e *Engine) ActiveHands(ctx context.Context) ([]string, error) {
	return e.store.ListActive(ctx)
}

// CreateHand deals a new hand for player. The returned view carries the deck
// commitment; the salt stays in the store until the hand resolves.
func (e *Engine) CreateHand(ctx context.Context, player string, wager int64, opts ...HandOption) (*Hand, error) {
	cfg := handConfig{stack: e.defaultStack}
	for _, opt := range opts {
		opt(&cfg)
	}

	if player == "" {
		return nil, ErrInvalidPlayer
	}
	if wager <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWager, wager)
	}
	if wager > cfg.stack {
		return nil, fmt.Errorf("%w: %d exceeds stack %d", ErrInvalidWager, wager, cfg.stack)
	}

	deal, err := e.dealer.Deal()
	if err != nil {
		return nil, fmt.Errorf("deal: %w", err)
	}
	deck, err := poker.NewDeck(deal.Cards)
	if err != nil {
		return nil, fmt.Errorf("deal: %w", err)
	}
	playerCards, err := deck.Deal(2)
	if err != nil {
		return nil, err
	}
	houseCards, err := deck.Deal(2)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	s := &State{
		Hand: Hand{
			ID:              e.newID(),
			Player:          player,
			Street:          Preflop,
			Wager:           wager,
			Stack:           cfg.stack - wager,
			Pot:             wager,
			PlayerCommitted: wager,
			PlayerAllIn:     cfg.stack == wager,
			PlayerCards:     playerCards,
			Board:           []poker.Card{},
			Commitment:      deal.Commitment,
			Actions:         []ActionEntry{},
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		HouseCards: [2]poker.Card{houseCards[0], houseCards[1]},
		Deal:       deal,
		Next:       deck.Dealt(),
	}
	if err := e.store.Put(ctx, s); err != nil {
		return nil, fmt.Errorf("store hand: %w", err)
	}

	e.logger.Info().
		Str("hand_id", s.Hand.ID).
		Str("player", player).
		Int64("wager", wager).
		Str("commitment", deal.Commitment).
		Msg("Hand created")

	return s.View(), nil
}

// ProcessAction applies the player's action, lets the house respond and
// advances the hand. amount is the raise size on top of any call and is only
// read for Raise. A hand that reaches showdown is resolved before returning;
// resolution errors are returned alongside the resolved hand.
func (e *Engine) ProcessAction(ctx context.Context, id string, action Action, amount int64) (*Hand, error) {
	release, err := e.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	s, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	h := &s.Hand
	if !h.Street.Betting() {
		return nil, fmt.Errorf("%w: hand %s is %s", ErrInvalidStateTransition, id, h.Street)
	}

	var pay int64
	switch action {
	case Fold:
		h.Actions = append(h.Actions, ActionEntry{Street: h.Street, Actor: ActorPlayer, Action: Fold})
		return e.resolveFold(ctx, s, ReasonPlayerFold)
	case Call:
		pay = min(h.PlayerToCall(), h.Stack)
	case Raise:
		if amount <= 0 {
			return nil, fmt.Errorf("%w: raise amount must be positive, got %d", ErrInvalidRaise, amount)
		}
		pay = h.PlayerToCall() + amount
		if pay > h.Stack {
			return nil, fmt.Errorf("%w: raise needs %d, stack is %d", ErrInvalidRaise, pay, h.Stack)
		}
	case AllIn:
		if h.Stack == 0 {
			return nil, fmt.Errorf("%w: no chips behind", ErrInvalidRaise)
		}
		pay = h.Stack
	default:
		return nil, fmt.Errorf("%w: unknown action %s", ErrInvalidStateTransition, action)
	}

	entry := ActionEntry{Street: h.Street, Actor: ActorPlayer, Action: action, Amount: pay}
	if action == Raise {
		entry.Amount = amount
	}
	h.Actions = append(h.Actions, entry)
	h.Stack -= pay
	h.PlayerCommitted += pay
	h.Pot += pay
	if h.Stack == 0 {
		h.PlayerAllIn = true
	}

	if folded := e.houseResponds(s); folded {
		return e.resolveFold(ctx, s, ReasonHouseFold)
	}

	if err := e.advance(s); err != nil {
		return nil, err
	}
	h.UpdatedAt = e.clock.Now()
	if err := e.store.Put(ctx, s); err != nil {
		return nil, fmt.Errorf("store hand %s: %w", id, err)
	}
	if h.Street == Showdown {
		return e.resolveShowdown(ctx, s)
	}
	return s.View(), nil
}

// houseResponds asks the decider for the house action against the visible
// board only and applies it. It reports whether the house folded.
func (e *Engine) houseResponds(s *State) bool {
	h := &s.Hand
	view := house.View{
		Community:   slices.Clone(h.Board),
		Hole:        s.HouseCards,
		Pot:         h.Pot,
		CurrentBet:  h.HouseToCall(),
		Round:       roundOf(h.Street),
		PlayerAllIn: h.PlayerAllIn,
	}
	d := e.decider.Decide(view)

	e.logger.Debug().
		Str("hand_id", h.ID).
		Str("street", h.Street.String()).
		Str("action", d.Action.String()).
		Int64("amount", d.Amount).
		Str("strength", d.Strength.String()).
		Str("rationale", d.Rationale).
		Msg("House decision")

	entry := ActionEntry{Street: h.Street, Actor: ActorHouse, Rationale: d.Rationale}
	toCall := h.HouseToCall()

	switch d.Action {
	case house.Fold:
		entry.Action = Fold
		h.Actions = append(h.Actions, entry)
		return true
	case house.Raise, house.AllIn:
		raise := min(d.Amount, h.Stack)
		if d.Action == house.AllIn {
			raise = h.Stack
		}
		if raise > 0 && h.Street < River {
			entry.Action, entry.Amount = Raise, raise
			h.HouseCommitted += toCall + raise
			h.Pot += toCall + raise
			break
		}
		entry.Action, entry.Amount = Call, toCall
		if d.Action == house.AllIn {
			entry.Action = AllIn
		}
		h.HouseCommitted += toCall
		h.Pot += toCall
	default:
		entry.Action, entry.Amount = Call, toCall
		h.HouseCommitted += toCall
		h.Pot += toCall
	}
	h.Actions = append(h.Actions, entry)
	return false
}

// advance reveals the next street, or every remaining street when the player
// is all-in. After the river the hand moves to Showdown.
func (e *Engine) advance(s *State) error {
	h := &s.Hand
	for {
		if h.Street == River {
			h.Street = Showdown
			return nil
		}
		if err := e.reveal(s, h.Street+1); err != nil {
			return err
		}
		if !h.PlayerAllIn {
			return nil
		}
	}
}

func (e *Engine) reveal(s *State, street Street) error {
	h := &s.Hand
	deck, err := s.deck()
	if err != nil {
		return err
	}
	cards, err := deck.Deal(street.boardSize() - len(h.Board))
	if err != nil {
		return err
	}
	h.Board = append(h.Board, cards...)
	h.Street = street
	s.Next = deck.Dealt()
	return nil
}

// ResolveShowdown resolves a hand waiting at showdown. Calling it on a
// Resolved hand returns the recorded outcome unchanged, retrying the record
// hand-off if an earlier attempt failed.
func (e *Engine) ResolveShowdown(ctx context.Context, id string) (Outcome, error) {
	release, err := e.acquire(id)
	if err != nil {
		return Outcome{}, err
	}
	defer release()

	s, err := e.store.Get(ctx, id)
	if err != nil {
		return Outcome{}, err
	}

	switch s.Hand.Street {
	case Resolved:
		var err error
		if !s.Hand.Persisted {
			err = e.persist(ctx, s)
		}
		return *s.Hand.Outcome, err
	case Showdown:
		h, err := e.resolveShowdown(ctx, s)
		if h == nil {
			return Outcome{}, err
		}
		return *h.Outcome, err
	}
	return Outcome{}, fmt.Errorf("%w: hand %s is %s", ErrInvalidStateTransition, id, s.Hand.Street)
}

// ForceFold resolves an abandoned hand as a timeout fold, house wins. A hand
// already waiting at showdown is resolved normally instead.
func (e *Engine) ForceFold(ctx context.Context, id string) (*Hand, error) {
	release, err := e.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	s, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	h := &s.Hand
	switch {
	case h.Street == Showdown:
		return e.resolveShowdown(ctx, s)
	case !h.Street.Betting():
		return nil, fmt.Errorf("%w: hand %s is %s", ErrInvalidStateTransition, id, h.Street)
	}

	h.Actions = append(h.Actions, ActionEntry{
		Street:    h.Street,
		Actor:     ActorPlayer,
		Action:    Fold,
		Rationale: "action timeout",
	})
	return e.resolveFold(ctx, s, ReasonTimeout)
}

func (e *Engine) resolveFold(ctx context.Context, s *State, reason Reason) (*Hand, error) {
	o := Outcome{Reason: reason, Player: Folded, House: Win}
	if reason == ReasonHouseFold {
		o.Player, o.House = Win, Folded
	}
	return e.finish(ctx, s, o, nil)
}

func (e *Engine) resolveShowdown(ctx context.Context, s *State) (*Hand, error) {
	h := &s.Hand
	playerSet := append(slices.Clone(h.PlayerCards), h.Board...)
	houseSet := append([]poker.Card{s.HouseCards[0], s.HouseCards[1]}, h.Board...)

	o := Outcome{Reason: ReasonShowdown}
	r, err := e.ranker.Rank(playerSet, houseSet)
	if err == nil && (len(r.Places) != 2 || len(r.Labels) != 2) {
		err = fmt.Errorf("ranked %d sets, want 2", len(r.Places))
	}
	if err != nil {
		if !errors.Is(err, ranking.ErrEvaluation) {
			err = fmt.Errorf("%w: %v", ranking.ErrEvaluation, err)
		}
		err = fmt.Errorf("showdown %s: %w", h.ID, err)
		e.logger.Error().Err(err).Str("hand_id", h.ID).Bool("audit_required", true).
			Msg("Hand ranking failed, resolving as draw")
		o.Player, o.House, o.AuditRequired = Draw, Draw, true
		return e.finish(ctx, s, o, err)
	}

	o.PlayerHand, o.HouseHand = r.Labels[0], r.Labels[1]
	switch {
	case r.Tied(0, 1):
		o.Player, o.House = Draw, Draw
	case r.Places[0] < r.Places[1]:
		o.Player, o.House = Win, Loss
	default:
		o.Player, o.House = Loss, Win
	}
	return e.finish(ctx, s, o, nil)
}

// finish settles the pot, discloses the deck and salt, stores the resolved
// hand and hands it to the sink. cause is returned alongside the hand.
func (e *Engine) finish(ctx context.Context, s *State, o Outcome, cause error) (*Hand, error) {
	h := &s.Hand
	switch o.Player {
	case Win:
		o.Payout = h.Pot
		o.Profit = h.Pot - h.PlayerCommitted
	case Draw:
		o.Payout = h.PlayerCommitted
	default:
		o.Profit = -h.PlayerCommitted
	}

	now := e.clock.Now()
	o.ResolvedAt = now
	h.Outcome = &o
	h.Street = Resolved
	h.HouseCards = s.HouseCards[:]
	h.Salt = s.Deal.Salt
	h.Deck = s.Deal.Serialized
	h.UpdatedAt = now

	if err := e.store.Put(ctx, s); err != nil {
		return nil, errors.Join(cause, fmt.Errorf("store hand %s: %w", h.ID, err))
	}

	e.logger.Info().
		Str("hand_id", h.ID).
		Str("reason", string(o.Reason)).
		Str("player_result", string(o.Player)).
		Str("house_result", string(o.House)).
		Int64("pot", h.Pot).
		Int64("profit", o.Profit).
		Bool("audit_required", o.AuditRequired).
		Msg("Hand resolved")

	if err := e.persist(ctx, s); err != nil {
		return s.View(), errors.Join(cause, err)
	}
	return s.View(), cause
}

// persist hands a resolved hand to the sink and marks it persisted.
func (e *Engine) persist(ctx context.Context, s *State) error {
	if err := e.sink.Record(ctx, NewRecord(&s.Hand)); err != nil {
		e.logger.Error().Err(err).Str("hand_id", s.Hand.ID).Msg("Failed to record hand")
		return fmt.Errorf("record hand %s: %w", s.Hand.ID, err)
	}
	s.Hand.Persisted = true
	if err := e.store.Put(ctx, s); err != nil {
		return fmt.Errorf("store hand %s: %w", s.Hand.ID, err)
	}
	return nil
}

func roundOf(s Street) house.Round {
	switch s {
	case Flop:
		return house.Flop
	case Turn:
		return house.Turn
	case River:
		return house.River
	}
	return house.Preflop
}
