// Package phh writes and reads hands in the Poker Hand History (PHH) format.
package phh

import (
	"errors"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"

	"github.com/lox/fairdeal/poker"
)

// ErrNilHand is returned when encoding a nil hand.
var ErrNilHand = errors.New("phh: hand history is nil")

// Encode writes hand to w as PHH TOML.
func Encode(w io.Writer, hand *HandHistory) error {
	if hand == nil {
		return ErrNilHand
	}
	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(hand)
}

// Seats are zero-based in code and one-based ("p1") on the wire.
func seat(i int) string {
	return fmt.Sprintf("p%d", i+1)
}

// Fold is a fold by seat.
func Fold(i int) string {
	return seat(i) + " f"
}

// CheckCall is a check or call by seat. PHH does not distinguish them.
func CheckCall(i int) string {
	return seat(i) + " cc"
}

// BetRaise is a bet, raise or shove by seat to total chips on this street.
func BetRaise(i int, total int64) string {
	return fmt.Sprintf("%s cbr %d", seat(i), total)
}

// ShowMuck shows seat's hole cards at showdown.
func ShowMuck(i int, cards []poker.Card) string {
	return fmt.Sprintf("%s sm %s", seat(i), Cards(cards))
}

// DealHole returns the dealer action giving cards to seat.
func DealHole(i int, cards []poker.Card) string {
	return fmt.Sprintf("d dh %s %s", seat(i), Cards(cards))
}

// DealBoard returns the dealer action revealing board cards.
func DealBoard(cards []poker.Card) string {
	return "d db " + Cards(cards)
}
