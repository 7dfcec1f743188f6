// Package statistics aggregates simulated hand results from the player's side.
// Results are measured in wagers: a net of -1 means the player lost exactly
// their opening wager.
package statistics

import (
	"fmt"
	"math"
	"sort"
)

// HandResult is the outcome of one simulated hand.
type HandResult struct {
	Net            float64 // Player profit divided by the opening wager
	Seed           int64   // Seed that reproduces the hand
	Strategy       string  // Player strategy that played the hand
	WentToShowdown bool
	Draw           bool
	AuditRequired  bool
	Pot            int64
	StreetReached  string
}

// StrategyStats tracks results for one player strategy.
type StrategyStats struct {
	Hands  int
	Sum    float64
	SumSq  float64
	Wins   int
	Losses int
	Draws  int
}

// Mean returns the average net per hand for the strategy.
func (s StrategyStats) Mean() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.Sum / float64(s.Hands)
}

// Statistics accumulates simulation results.
type Statistics struct {
	Hands  int
	Sum    float64
	SumSq  float64   // Sum of squares for variance calculation
	Values []float64 // All values, for median and percentiles

	ShowdownWins    int     // Player wins at showdown
	NonShowdownWins int     // Player wins because the house folded
	Draws           int     // Split pots
	Audits          int     // Hands resolved as audited draws
	ShowdownNet     float64 // Net from hands that reached showdown
	NonShowdownNet  float64 // Net from hands decided by a fold
	AllNet          float64 // Total net, for the ledger check

	Strategies map[string]*StrategyStats

	MaxPot    int64
	BigPots   int // Pots of at least ten wagers
	BigPotNet float64
}

// Mean returns the arithmetic mean of all results in wagers per hand.
func (s *Statistics) Mean() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.Sum / float64(s.Hands)
}

// HouseEdge is the house's expected gain per wager.
func (s *Statistics) HouseEdge() float64 {
	return -s.Mean()
}

// Variance returns the sample variance of all results.
func (s *Statistics) Variance() float64 {
	if s.Hands < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumSq - float64(s.Hands)*mean*mean) / float64(s.Hands-1)
}

// StdDev returns the sample standard deviation of all results.
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean.
func (s *Statistics) StdError() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Hands))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean.
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Add incorporates a hand result. potUnit is the wager used to classify big
// pots; pass zero to skip that bucket.
func (s *Statistics) Add(result HandResult, potUnit int64) {
	net := result.Net
	s.Hands++
	s.Sum += net
	s.SumSq += net * net
	s.Values = append(s.Values, net)

	if net > 0 {
		if result.WentToShowdown {
			s.ShowdownWins++
		} else {
			s.NonShowdownWins++
		}
	}
	if result.Draw {
		s.Draws++
	}
	if result.AuditRequired {
		s.Audits++
	}

	if result.WentToShowdown {
		s.ShowdownNet += net
	} else {
		s.NonShowdownNet += net
	}
	s.AllNet += net

	if s.Strategies == nil {
		s.Strategies = make(map[string]*StrategyStats)
	}
	st := s.Strategies[result.Strategy]
	if st == nil {
		st = &StrategyStats{}
		s.Strategies[result.Strategy] = st
	}
	st.Hands++
	st.Sum += net
	st.SumSq += net * net
	switch {
	case result.Draw:
		st.Draws++
	case net > 0:
		st.Wins++
	default:
		st.Losses++
	}

	if result.Pot > s.MaxPot {
		s.MaxPot = result.Pot
	}
	if potUnit > 0 && result.Pot >= 10*potUnit {
		s.BigPots++
		s.BigPotNet += net
	}
}

// Median returns the median value of all results.
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the value at the given percentile (0.0 to 1.0),
// interpolating between neighbours.
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// StrategyNames returns the strategies seen, sorted.
func (s *Statistics) StrategyNames() []string {
	names := make([]string, 0, len(s.Strategies))
	for name := range s.Strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsLedgerBalanced checks that showdown and fold buckets add up to the total.
func (s *Statistics) IsLedgerBalanced() bool {
	return math.Abs(s.AllNet-s.ShowdownNet-s.NonShowdownNet) <= 1e-6
}

// Validate checks the accumulated data for internal consistency.
func (s *Statistics) Validate() error {
	if !s.IsLedgerBalanced() {
		return fmt.Errorf("ledger mismatch: all=%.6f, showdown=%.6f, non-showdown=%.6f",
			s.AllNet, s.ShowdownNet, s.NonShowdownNet)
	}
	if s.Hands <= 0 {
		return fmt.Errorf("invalid hands count: %d", s.Hands)
	}
	if len(s.Values) != s.Hands {
		return fmt.Errorf("values array length (%d) does not match hands count (%d)",
			len(s.Values), s.Hands)
	}
	if wins := s.ShowdownWins + s.NonShowdownWins; wins+s.Draws > s.Hands {
		return fmt.Errorf("wins (%d) and draws (%d) exceed total hands (%d)", wins, s.Draws, s.Hands)
	}

	total := 0
	for _, st := range s.Strategies {
		total += st.Hands
	}
	if total != s.Hands {
		return fmt.Errorf("strategy hands total (%d) does not match total hands (%d)", total, s.Hands)
	}
	return nil
}
