package poker

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrHandSize is returned when an evaluation is asked for fewer than five or
// more than seven cards.
var ErrHandSize = errors.New("poker: hand must have 5 to 7 cards")

// HandRank is the strength of the best five-card hand. Higher values are
// stronger; equal values tie. The category sits above five 4-bit rank slots.
type HandRank uint32

// HandType enumerates the categories of poker hands ordered from weakest to strongest.
type HandType uint8

const (
	HighCard HandType = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

var handTypeNames = [...]string{
	"High Card",
	"Pair",
	"Two Pair",
	"Three of a Kind",
	"Straight",
	"Flush",
	"Full House",
	"Four of a Kind",
	"Straight Flush",
}

func (t HandType) String() string {
	if int(t) >= len(handTypeNames) {
		return "Unknown"
	}
	return handTypeNames[t]
}

const categoryShift = 20

// Type returns the category of the hand.
func (hr HandRank) Type() HandType {
	return HandType(hr >> categoryShift)
}

// Ranks returns the significant ranks in order of importance, e.g. the pair
// rank followed by the kickers.
func (hr HandRank) Ranks() []Rank {
	ranks := make([]Rank, 0, 5)
	for shift := categoryShift - 4; shift >= 0; shift -= 4 {
		ranks = append(ranks, Rank((hr>>shift)&0xF))
	}
	return ranks
}

// String returns a human-readable hand description.
func (hr HandRank) String() string {
	r := hr.Ranks()
	switch hr.Type() {
	case HighCard:
		return fmt.Sprintf("High Card, %s", r[0])
	case Pair:
		return fmt.Sprintf("Pair of %ss", r[0])
	case TwoPair:
		return fmt.Sprintf("Two Pair, %ss and %ss", r[0], r[1])
	case ThreeOfAKind:
		return fmt.Sprintf("Three %ss", r[0])
	case Straight:
		return fmt.Sprintf("Straight, %s high", r[0])
	case Flush:
		return fmt.Sprintf("Flush, %s high", r[0])
	case FullHouse:
		return fmt.Sprintf("Full House, %ss over %ss", r[0], r[1])
	case FourOfAKind:
		return fmt.Sprintf("Four %ss", r[0])
	case StraightFlush:
		return fmt.Sprintf("Straight Flush, %s high", r[0])
	default:
		return "Unknown"
	}
}

// CompareHands returns 1 if a wins, -1 if b wins, 0 for a tie.
func CompareHands(a, b HandRank) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}

// Evaluate returns the rank of the best five-card hand among 5 to 7 cards.
func Evaluate(cards ...Card) (HandRank, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return 0, fmt.Errorf("%w: got %d", ErrHandSize, len(cards))
	}
	if !Distinct(cards) {
		return 0, fmt.Errorf("%w: duplicate or invalid card in %s", ErrInvalidCard, JoinCards(cards))
	}
	var suitMasks [4]uint16
	for _, c := range cards {
		suitMasks[c.Suit()] |= 1 << c.Rank()
	}
	return rankFromMasks(suitMasks), nil
}

func rankFromMasks(s [4]uint16) HandRank {
	all := s[0] | s[1] | s[2] | s[3]

	// At most one suit can hold five of seven cards.
	for _, suited := range s {
		if bits.OnesCount16(suited) < 5 {
			continue
		}
		if high, ok := straightHigh(suited); ok {
			return pack(StraightFlush, high)
		}
		return pack(Flush, topRanks(suited, 5)...)
	}

	quads := s[0] & s[1] & s[2] & s[3]
	trips := (s[0]&s[1]&s[2] | s[0]&s[1]&s[3] | s[0]&s[2]&s[3] | s[1]&s[2]&s[3]) &^ quads
	pairs := (s[0]&s[1] | s[0]&s[2] | s[0]&s[3] | s[1]&s[2] | s[1]&s[3] | s[2]&s[3]) &^ trips &^ quads

	if quads != 0 {
		q := highest(quads)
		return pack(FourOfAKind, q, highest(all&^bit(q)))
	}

	if trips != 0 {
		t := highest(trips)
		if rest := pairs | trips&^bit(t); rest != 0 {
			return pack(FullHouse, t, highest(rest))
		}
	}

	if high, ok := straightHigh(all); ok {
		return pack(Straight, high)
	}

	if trips != 0 {
		t := highest(trips)
		return pack(ThreeOfAKind, append([]Rank{t}, topRanks(all&^bit(t), 2)...)...)
	}

	if pairs != 0 {
		hi := highest(pairs)
		if rest := pairs &^ bit(hi); rest != 0 {
			lo := highest(rest)
			return pack(TwoPair, hi, lo, highest(all&^bit(hi)&^bit(lo)))
		}
		return pack(Pair, append([]Rank{hi}, topRanks(all&^bit(hi), 3)...)...)
	}

	return pack(HighCard, topRanks(all, 5)...)
}

func pack(t HandType, ranks ...Rank) HandRank {
	hr := HandRank(t) << categoryShift
	shift := categoryShift - 4
	for _, r := range ranks {
		hr |= HandRank(r) << shift
		shift -= 4
	}
	return hr
}

func bit(r Rank) uint16 {
	return 1 << r
}

// highest returns the highest rank present in a non-empty mask.
func highest(mask uint16) Rank {
	return Rank(bits.Len16(mask) - 1)
}

func topRanks(mask uint16, n int) []Rank {
	ranks := make([]Rank, 0, n)
	for mask != 0 && len(ranks) < n {
		r := highest(mask)
		ranks = append(ranks, r)
		mask &^= bit(r)
	}
	return ranks
}

// straightHigh returns the top rank of the best straight in the mask.
func straightHigh(mask uint16) (Rank, bool) {
	const wheel = 1<<Ace | 1<<Two | 1<<Three | 1<<Four | 1<<Five
	mask &= 0x1FFF

	// Each surviving bit marks the low card of five consecutive ranks.
	seq := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4)
	if seq != 0 {
		return highest(seq) + 4, true
	}
	if mask&wheel == wheel {
		return Five, true
	}
	return 0, false
}
