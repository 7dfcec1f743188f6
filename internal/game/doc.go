// Package game implements the heads-up hand lifecycle between a player and
// the house.
//
// The main type is Engine, which owns hand creation, betting, showdown and
// the hand-off of finished hands to a Sink. Hand state lives in an injected
// Store; the engine keeps no package level state.
//
// # Basic Usage
//
//	engine := game.NewEngine(logger, game.NewMemoryStore(), sink)
//	h, err := engine.CreateHand(ctx, "alice", 100)
//	// Publish h.Commitment to the player before anything else.
//	h, err = engine.ProcessAction(ctx, h.ID, game.Call, 0)
//	...
//	if h.Street == game.Resolved {
//	    ok := fairness.VerifyCommitment(h.Deck, h.Salt, h.Commitment)
//	}
//
// # Deterministic Testing
//
// Inject a fairness.StackedDealer to fix the hole cards and board:
//
//	dealer := fairness.StackedDealer{Top: poker.MustParseCards("AS AD KS KD 3C 8H 9D 2S JC")}
//	engine := game.NewEngine(logger, nil, nil, game.WithDealer(dealer))
//
// # Lifecycle
//
// A hand moves Preflop, Flop, Turn, River, Showdown, Resolved and never
// backwards. Each betting round is one player action followed by the house
// response; a fold by either side resolves the hand immediately.
package game
