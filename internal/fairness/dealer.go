package fairness

import (
	"fmt"
	"io"

	"github.com/lox/fairdeal/poker"
)

// Dealer produces a committed deck for each new hand.
type Dealer interface {
	Deal() (Deal, error)
}

// SecureDealer shuffles with a cryptographically secure source.
type SecureDealer struct {
	// Rand defaults to crypto/rand when nil.
	Rand io.Reader
}

// Deal implements Dealer.
func (d SecureDealer) Deal() (Deal, error) {
	return GenerateFairDeck(d.Rand)
}

// StackedDealer places Top at the top of the deck and the remaining cards
// below in FullDeck order. It is used to replay or construct known hands; the
// commitment is computed exactly as for a shuffled deck.
type StackedDealer struct {
	Top []poker.Card
	// Salt is generated from crypto/rand when empty.
	Salt string
}

// Deal implements Dealer.
func (d StackedDealer) Deal() (Deal, error) {
	if !poker.Distinct(d.Top) || len(d.Top) > poker.DeckSize {
		return Deal{}, fmt.Errorf("%w: stacked cards %s", poker.ErrMalformedDeck, poker.JoinCards(d.Top))
	}
	order := append(make([]poker.Card, 0, poker.DeckSize), d.Top...)
	used := make(map[poker.Card]bool, len(d.Top))
	for _, c := range d.Top {
		used[c] = true
	}
	for _, c := range poker.FullDeck() {
		if !used[c] {
			order = append(order, c)
		}
	}

	salt := d.Salt
	if salt == "" {
		var err error
		if salt, err = NewSalt(nil); err != nil {
			return Deal{}, err
		}
	}
	return NewDeal(order, salt)
}
