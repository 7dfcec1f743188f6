package poker

import (
	"errors"
	"fmt"
)

var (
	// ErrDeckExhausted is returned when more cards are requested than remain.
	ErrDeckExhausted = errors.New("poker: deck exhausted")
	// ErrMalformedDeck is returned when a deck order is not a permutation of the 52 cards.
	ErrMalformedDeck = errors.New("poker: malformed deck")
)

// Deck is a fixed order of the 52 cards consumed from the top. Dealt cards are
// never returned to the deck.
type Deck struct {
	cards [DeckSize]Card
	next  int
}

// NewDeck creates a deck with the given order. The order must contain each of
// the 52 cards exactly once.
func NewDeck(order []Card) (*Deck, error) {
	return ResumeDeck(order, 0)
}

// ResumeDeck recreates a deck that already had dealt cards removed from the top.
func ResumeDeck(order []Card, dealt int) (*Deck, error) {
	if len(order) != DeckSize || !Distinct(order) {
		return nil, ErrMalformedDeck
	}
	if dealt < 0 || dealt > DeckSize {
		return nil, fmt.Errorf("%w: dealt %d", ErrMalformedDeck, dealt)
	}
	d := &Deck{next: dealt}
	copy(d.cards[:], order)
	return d, nil
}

// Shuffle permutes cards in place with Fisher-Yates. intn must return a
// uniformly distributed value in [0, n); any error aborts the shuffle.
func Shuffle(cards []Card, intn func(n int) (int, error)) error {
	for i := len(cards) - 1; i > 0; i-- {
		j, err := intn(i + 1)
		if err != nil {
			return err
		}
		if j < 0 || j > i {
			return fmt.Errorf("poker: shuffle index %d out of range [0,%d]", j, i)
		}
		cards[i], cards[j] = cards[j], cards[i]
	}
	return nil
}

// Deal removes n cards from the top of the deck.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 || d.next+n > DeckSize {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrDeckExhausted, n, d.CardsRemaining())
	}
	cards := make([]Card, n)
	copy(cards, d.cards[d.next:d.next+n])
	d.next += n
	return cards, nil
}

// Dealt returns how many cards have left the deck.
func (d *Deck) Dealt() int {
	return d.next
}

// CardsRemaining returns the number of cards left in the deck.
func (d *Deck) CardsRemaining() int {
	return DeckSize - d.next
}

// Order returns a copy of the full deck order, dealt cards included.
func (d *Deck) Order() []Card {
	order := make([]Card, DeckSize)
	copy(order, d.cards[:])
	return order
}

// String returns the comma-joined serialization of the full order.
func (d *Deck) String() string {
	return JoinCards(d.cards[:])
}
