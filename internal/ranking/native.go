package ranking

import (
	"fmt"

	"github.com/lox/fairdeal/poker"
)

// Native ranks hands with the bitmask evaluator in the poker package.
type Native struct{}

var _ Ranker = Native{}

// Rank implements Ranker.
func (Native) Rank(sets ...[]poker.Card) (Ranking, error) {
	if err := validate(sets); err != nil {
		return Ranking{}, err
	}

	scores := make([]int64, len(sets))
	labels := make([]string, len(sets))
	for i, set := range sets {
		hr, err := poker.Evaluate(set...)
		if err != nil {
			return Ranking{}, fmt.Errorf("%w: set %d: %v", ErrEvaluation, i, err)
		}
		scores[i] = int64(hr)
		labels[i] = hr.String()
	}
	return Ranking{Places: places(scores), Labels: labels}, nil
}

// ByName returns the ranker for a configuration value.
func ByName(name string) (Ranker, error) {
	switch name {
	case "", "hankin":
		return Hankin{}, nil
	case "native":
		return Native{}, nil
	default:
		return nil, fmt.Errorf("ranking: unknown ranker %q", name)
	}
}
