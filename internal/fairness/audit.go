package fairness

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lox/fairdeal/poker"
)

// ErrDealMismatch is returned when the cards shown in a hand are not the top
// of the committed deck in deal order.
var ErrDealMismatch = errors.New("fairness: dealt cards do not follow the committed deck")

// VerifyDeal checks that a hand was dealt from the top of deck: two cards to
// the player, two to the house, then the board in order.
func VerifyDeal(deck, player, house, board []poker.Card) error {
	if len(player) != 2 || len(house) != 2 {
		return fmt.Errorf("%w: want 2 hole cards each, got %d and %d", ErrDealMismatch, len(player), len(house))
	}
	if !slices.Contains([]int{0, 3, 4, 5}, len(board)) {
		return fmt.Errorf("%w: board of %d cards", ErrDealMismatch, len(board))
	}

	dealt := slices.Concat(player, house, board)
	if len(deck) < len(dealt) {
		return fmt.Errorf("%w: deck has %d cards", ErrDealMismatch, len(deck))
	}
	for i, c := range dealt {
		if deck[i] != c {
			return fmt.Errorf("%w: card %d is %s, deck has %s", ErrDealMismatch, i+1, c, deck[i])
		}
	}
	return nil
}
