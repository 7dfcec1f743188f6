package poker

import (
	"errors"
	"fmt"
	"strings"
)

// Rank is a card rank. Two is 0 and Ace is 12 so a rank doubles as its bit
// position in the evaluator's rank masks.
type Rank uint8

const (
	Two Rank = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

const rankChars = "23456789TJQKA"

// String returns the single-character rank token.
func (r Rank) String() string {
	if r > Ace {
		return "?"
	}
	return rankChars[r : r+1]
}

// Suit is a card suit.
type Suit uint8

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

const suitChars = "SHDC"

// String returns the single-character suit token.
func (s Suit) String() string {
	if s > Clubs {
		return "?"
	}
	return suitChars[s : s+1]
}

// Symbol returns the unicode glyph for the suit.
func (s Suit) Symbol() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// IsRed reports whether the suit is hearts or diamonds.
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Card is an immutable playing card. The zero value is not a card.
type Card uint8

// DeckSize is the number of distinct cards.
const DeckSize = 52

// ErrInvalidCard is returned when a token does not name a card.
var ErrInvalidCard = errors.New("poker: invalid card")

// NewCard returns the card with the given rank and suit.
func NewCard(rank Rank, suit Suit) Card {
	return Card(uint8(rank)*4 + uint8(suit) + 1)
}

// Rank returns the card's rank.
func (c Card) Rank() Rank {
	return Rank((c - 1) / 4)
}

// Suit returns the card's suit.
func (c Card) Suit() Suit {
	return Suit((c - 1) % 4)
}

// Valid reports whether c is one of the 52 cards.
func (c Card) Valid() bool {
	return c >= 1 && c <= DeckSize
}

// String returns the canonical two-character token, e.g. "AS" or "TD".
func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return c.Rank().String() + c.Suit().String()
}

// Pretty returns the card with a suit glyph, e.g. "A♠".
func (c Card) Pretty() string {
	if !c.Valid() {
		return "??"
	}
	return c.Rank().String() + c.Suit().Symbol()
}

// MarshalText encodes the card as its token.
func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCard, uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a card token.
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCard parses a two-character token. Suits are accepted in either case.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	r := strings.IndexByte(rankChars, s[0])
	if r < 0 {
		return 0, fmt.Errorf("%w: bad rank in %q", ErrInvalidCard, s)
	}
	st := strings.IndexByte(suitChars, strings.ToUpper(s[1:])[0])
	if st < 0 {
		return 0, fmt.Errorf("%w: bad suit in %q", ErrInvalidCard, s)
	}
	return NewCard(Rank(r), Suit(st)), nil
}

// MustParseCards parses space or comma separated tokens and panics on error.
// Intended for tests and fixtures.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}

// ParseCards parses a list of tokens separated by commas and/or spaces.
func ParseCards(s string) ([]Card, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// JoinCards serializes cards as comma-joined tokens.
func JoinCards(cards []Card) string {
	var b strings.Builder
	b.Grow(len(cards) * 3)
	for i, c := range cards {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(c.String())
	}
	return b.String()
}

// FullDeck returns the 52 cards in rank-major order.
func FullDeck() []Card {
	cards := make([]Card, 0, DeckSize)
	for rank := Two; rank <= Ace; rank++ {
		for suit := Spades; suit <= Clubs; suit++ {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	return cards
}

// Distinct reports whether every card is valid and appears once.
func Distinct(cards []Card) bool {
	var seen uint64
	for _, c := range cards {
		if !c.Valid() {
			return false
		}
		bit := uint64(1) << (c - 1)
		if seen&bit != 0 {
			return false
		}
		seen |= bit
	}
	return true
}
