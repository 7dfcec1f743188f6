package tui

import "github.com/charmbracelet/lipgloss"

// Pane and prompt styles. Card and result styles live in the display package.
var (
	ActionsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	focusedBorder = lipgloss.Color("#04B575")
	blurredBorder = lipgloss.Color("#626262")

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(blurredBorder)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)
