package ranking

import (
	"fmt"

	hankin "github.com/paulhankin/poker"

	"github.com/lox/fairdeal/poker"
)

// Hankin ranks hands with github.com/paulhankin/poker's seven-card evaluator.
type Hankin struct{}

var _ Ranker = Hankin{}

// Rank implements Ranker.
func (Hankin) Rank(sets ...[]poker.Card) (Ranking, error) {
	if err := validate(sets); err != nil {
		return Ranking{}, err
	}

	scores := make([]int64, len(sets))
	labels := make([]string, len(sets))
	for i, set := range sets {
		var hand [SetSize]hankin.Card
		for j, c := range set {
			hc, err := toHankin(c)
			if err != nil {
				return Ranking{}, fmt.Errorf("%w: set %d: %v", ErrEvaluation, i, err)
			}
			hand[j] = hc
		}
		scores[i] = int64(hankin.Eval7(&hand))

		label, err := hankin.Describe(hand[:])
		if err != nil {
			return Ranking{}, fmt.Errorf("%w: set %d: %v", ErrEvaluation, i, err)
		}
		labels[i] = label
	}

	return Ranking{Places: places(scores), Labels: labels}, nil
}

// toHankin maps a card onto paulhankin's ranks (Ace=1 .. King=13) and suits
// (clubs, diamonds, hearts, spades).
func toHankin(c poker.Card) (hankin.Card, error) {
	rank := hankin.Rank(c.Rank() + 2)
	if c.Rank() == poker.Ace {
		rank = 1
	}

	var suit hankin.Suit
	switch c.Suit() {
	case poker.Clubs:
		suit = hankin.Club
	case poker.Diamonds:
		suit = hankin.Diamond
	case poker.Hearts:
		suit = hankin.Heart
	case poker.Spades:
		suit = hankin.Spade
	}
	return hankin.MakeCard(suit, rank)
}
