package game

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWager is returned for a non-positive wager, or a wager larger
	// than the player's stack.
	ErrInvalidWager = errors.New("game: invalid wager")
	// ErrInvalidPlayer is returned when a hand is created without a player identity.
	ErrInvalidPlayer = errors.New("game: player identity required")
	// ErrHandNotFound is returned for unknown hand ids.
	ErrHandNotFound = errors.New("game: hand not found")
	// ErrInvalidStateTransition is returned for actions on a hand that cannot take them.
	ErrInvalidStateTransition = errors.New("game: invalid state transition")
	// ErrInvalidRaise is returned for missing, non-positive or unaffordable raises.
	ErrInvalidRaise = errors.New("game: invalid raise")
	// ErrHandBusy is returned when another operation on the same hand is in flight.
	ErrHandBusy = errors.New("game: hand busy")
	// ErrStaleWrite is returned by a Store when the hand changed after it was
	// read, typically because another process acted on it. It wraps
	// ErrHandBusy so callers can treat both the same way.
	ErrStaleWrite = fmt.Errorf("%w: changed concurrently", ErrHandBusy)
)
