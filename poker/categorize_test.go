package poker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorizeHoleCards(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		cards    string
		expected HoleCardCategory
	}{
		{"pocket aces", "AS AH", CategoryPremium},
		{"pocket jacks", "JH JD", CategoryPremium},
		{"ace king offsuit", "AC KH", CategoryPremium},

		{"pocket tens", "TC TH", CategoryStrong},
		{"ace queen offsuit", "AC QH", CategoryStrong},
		{"ace jack suited", "AS JS", CategoryStrong},

		{"pocket nines", "9C 9H", CategoryMedium},
		{"pocket sevens", "7H 7C", CategoryMedium},
		{"king queen suited", "KS QS", CategoryMedium},
		{"queen jack suited", "QD JD", CategoryMedium},

		{"pocket sixes", "6C 6H", CategoryWeak},
		{"pocket twos", "2C 2H", CategoryWeak},
		{"suited connectors", "7H 6H", CategoryWeak},
		{"suited one-gapper", "5D 3D", CategoryWeak},

		{"seven two offsuit", "7C 2H", CategoryTrash},
		{"jack four offsuit", "JH 4C", CategoryTrash},
		{"king queen offsuit", "KS QD", CategoryTrash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cards := MustParseCards(tt.cards)
			require.Len(t, cards, 2)
			assert.Equal(t, tt.expected, CategorizeHoleCards(cards[0], cards[1]))
		})
	}
}

func TestCategorizeHoleCardsInvalid(t *testing.T) {
	t.Parallel()
	ace := NewCard(Ace, Spades)
	assert.Equal(t, CategoryUnknown, CategorizeHoleCards(ace, ace))
	assert.Equal(t, CategoryUnknown, CategorizeHoleCards(ace, Card(0)))
}
