package poker

// HoleCardCategory represents the strength category of hole cards
type HoleCardCategory string

const (
	CategoryPremium HoleCardCategory = "Premium"
	CategoryStrong  HoleCardCategory = "Strong"
	CategoryMedium  HoleCardCategory = "Medium"
	CategoryWeak    HoleCardCategory = "Weak"
	CategoryTrash   HoleCardCategory = "Trash"
	CategoryUnknown HoleCardCategory = "Unknown"
)

// CategorizeHoleCards provides a simple preflop hand categorization.
// Premium (JJ+, AK), Strong (TT, AQ, AJ), Medium (77-99, suited broadway),
// Weak (22-66, suited connectors), Trash (everything else).
func CategorizeHoleCards(a, b Card) HoleCardCategory {
	if !a.Valid() || !b.Valid() || a == b {
		return CategoryUnknown
	}

	lo, hi := a.Rank(), b.Rank()
	if lo > hi {
		lo, hi = hi, lo
	}
	pair := lo == hi
	suited := a.Suit() == b.Suit()

	switch {
	case pair && lo >= Jack, lo == King && hi == Ace:
		return CategoryPremium
	case pair && lo == Ten, hi == Ace && (lo == Queen || lo == Jack):
		return CategoryStrong
	case pair && lo >= Seven, suited && lo >= Ten:
		return CategoryMedium
	case pair, suited && hi-lo <= 2:
		return CategoryWeak
	}
	return CategoryTrash
}
