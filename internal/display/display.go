// Package display renders cards, hands and history records for the terminal.
package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lox/fairdeal/internal/game"
	"github.com/lox/fairdeal/internal/history"
	"github.com/lox/fairdeal/poker"
)

// Static styles shared by the CLI and the play screen.
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true)

	HandInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	RedCardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	BlackCardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// Card renders a card with its suit glyph, red for hearts and diamonds.
func Card(c poker.Card) string {
	if c.Valid() && c.Suit().IsRed() {
		return RedCardStyle.Render(c.Pretty())
	}
	return BlackCardStyle.Render(c.Pretty())
}

// Cards renders cards separated by spaces, or "--" when there are none.
func Cards(cards []poker.Card) string {
	if len(cards) == 0 {
		return InfoStyle.Render("--")
	}
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = Card(c)
	}
	return strings.Join(parts, " ")
}

// Result renders a result word in its colour.
func Result(r game.Result) string {
	switch r {
	case game.Win:
		return SuccessStyle.Render("WIN")
	case game.Draw:
		return WarningStyle.Render("DRAW")
	case game.Folded:
		return ErrorStyle.Render("FOLD")
	}
	return ErrorStyle.Render("LOSS")
}

// Chips renders a signed chip delta.
func Chips(n int64) string {
	switch {
	case n > 0:
		return SuccessStyle.Render(fmt.Sprintf("+%d", n))
	case n < 0:
		return ErrorStyle.Render(fmt.Sprintf("%d", n))
	}
	return InfoStyle.Render("0")
}

// Outcome summarises a resolved hand over several lines.
func Outcome(h *game.Hand) string {
	o := h.Outcome
	if o == nil {
		return InfoStyle.Render("hand in progress")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s by %s  pot %d  payout %d  profit %s\n",
		Result(o.Player), o.Reason, h.Pot, o.Payout, Chips(o.Profit))
	fmt.Fprintf(&b, "Board:  %s\n", Cards(h.Board))
	fmt.Fprintf(&b, "You:    %s", Cards(h.PlayerCards))
	if o.PlayerHand != "" {
		fmt.Fprintf(&b, "  (%s)", o.PlayerHand)
	}
	fmt.Fprintf(&b, "\nHouse:  %s", Cards(h.HouseCards))
	if o.HouseHand != "" {
		fmt.Fprintf(&b, "  (%s)", o.HouseHand)
	}
	if o.AuditRequired {
		b.WriteString("\n" + WarningStyle.Render("Flagged for audit"))
	}
	return b.String()
}

// Verification renders the outcome of a commitment check.
func Verification(commitment string, ok bool) string {
	if ok {
		return SuccessStyle.Render("✓ deck matches commitment ") + InfoStyle.Render(commitment)
	}
	return ErrorStyle.Render("✗ deck does NOT match commitment ") + InfoStyle.Render(commitment)
}

// DealVerification renders whether the shown cards follow the revealed deck.
func DealVerification(err error) string {
	if err == nil {
		return SuccessStyle.Render("✓ dealt cards follow the committed deck")
	}
	return ErrorStyle.Render("✗ dealt cards do NOT follow the committed deck ") + InfoStyle.Render(err.Error())
}

// HistoryTable renders hand records as a bordered table.
func HistoryTable(rows []history.HandRecord) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(InfoStyle).
		Headers("HAND", "PLAYER", "WAGER", "RESULT", "REASON", "PROFIT", "BOARD", "RESOLVED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HandInfoStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, r := range rows {
		board, _ := poker.ParseCards(r.Board)
		result := Result(game.Result(r.PlayerResult))
		if r.AuditRequired {
			result += WarningStyle.Render("*")
		}
		t.Row(
			r.HandID,
			r.Player,
			fmt.Sprintf("%d", r.Wager),
			result,
			r.Reason,
			Chips(r.Profit),
			Cards(board),
			r.ResolvedAt.Local().Format("2006-01-02 15:04:05"),
		)
	}
	return t.Render()
}
