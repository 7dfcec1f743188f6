package phh

import (
	"fmt"
	"strings"

	"github.com/lox/fairdeal/poker"
)

// Card converts a card to PHH notation: rank then lower-case suit (e.g. Th).
func Card(c poker.Card) string {
	token := c.String()
	return token[:1] + strings.ToLower(token[1:])
}

// Cards joins cards in PHH notation without separators (e.g. AhKd).
func Cards(cards []poker.Card) string {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(Card(c))
	}
	return b.String()
}

// ParseCards parses concatenated PHH cards.
func ParseCards(s string) ([]poker.Card, error) {
	s = strings.TrimSpace(s)
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("phh: odd card string %q", s)
	}
	cards := make([]poker.Card, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		c, err := poker.ParseCard(s[i : i+2])
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}
