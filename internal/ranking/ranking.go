// Package ranking provides the hand-ranking collaborator used at showdown.
//
// A Ranker orders two or more seven-card sets (two hole cards plus the five
// board cards) and reports ties explicitly. The engine never compares hands
// itself.
package ranking

import (
	"errors"
	"fmt"

	"github.com/lox/fairdeal/poker"
)

// ErrEvaluation is returned when a card set cannot be evaluated.
var ErrEvaluation = errors.New("ranking: cannot evaluate hand")

// SetSize is the number of cards in each ranked set.
const SetSize = 7

// Ranking is the result of ordering card sets.
type Ranking struct {
	// Places holds 0 for the strongest set(s); equal places tie.
	Places []int
	// Labels describes each set's best five-card hand.
	Labels []string
}

// Tied reports whether sets i and j share a place.
func (r Ranking) Tied(i, j int) bool {
	return r.Places[i] == r.Places[j]
}

// Ranker orders seven-card sets.
type Ranker interface {
	Rank(sets ...[]poker.Card) (Ranking, error)
}

// validate checks set shapes shared by every ranker.
func validate(sets [][]poker.Card) error {
	if len(sets) < 2 {
		return fmt.Errorf("%w: need at least two sets, got %d", ErrEvaluation, len(sets))
	}
	for i, set := range sets {
		if len(set) != SetSize {
			return fmt.Errorf("%w: set %d has %d cards", ErrEvaluation, i, len(set))
		}
		if !poker.Distinct(set) {
			return fmt.Errorf("%w: set %d has invalid or repeated cards: %s", ErrEvaluation, i, poker.JoinCards(set))
		}
	}
	return nil
}

// places converts scores (higher is stronger) into dense places.
func places(scores []int64) []int {
	out := make([]int, len(scores))
	for i, s := range scores {
		above := make(map[int64]struct{})
		for _, v := range scores {
			if v > s {
				above[v] = struct{}{}
			}
		}
		out[i] = len(above)
	}
	return out
}
