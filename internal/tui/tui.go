// Package tui is the interactive play screen: one player against the house,
// a hand at a time, with the deck commitment checked after every hand.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/fairdeal/internal/display"
	"github.com/lox/fairdeal/internal/fairness"
	"github.com/lox/fairdeal/internal/game"
	"github.com/lox/fairdeal/poker"
)

// HandEngine is the part of game.Engine the play screen drives.
type HandEngine interface {
	CreateHand(ctx context.Context, player string, wager int64, opts ...game.HandOption) (*game.Hand, error)
	ProcessAction(ctx context.Context, id string, action game.Action, amount int64) (*game.Hand, error)
}

// Config sets up a play session.
type Config struct {
	Player   string
	Wager    int64
	Bankroll int64
}

// handMsg carries the engine's answer to a deal or an action.
type handMsg struct {
	hand *game.Hand
	err  error
}

// Model is the Bubble Tea model for a play session.
type Model struct {
	ctx    context.Context
	engine HandEngine
	logger *log.Logger

	player   string
	wager    int64
	bankroll int64
	hands    int
	net      int64

	hand    *game.Hand
	street  game.Street // last street announced in the log
	seen    int         // action log entries already shown
	pending bool

	// UI components
	logViewport viewport.Model
	actionInput textinput.Model

	gameLog     []string
	focusedPane int // 0 = log, 1 = input
	quitting    bool

	width       int
	height      int
	initialized bool
}

// New creates a play session model. The first hand is dealt by Init.
func New(ctx context.Context, engine HandEngine, logger *log.Logger, cfg Config) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(focusedBorder).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &Model{
		ctx:         ctx,
		engine:      engine,
		logger:      logger.WithPrefix("tui"),
		player:      cfg.Player,
		wager:       cfg.Wager,
		bankroll:    cfg.Bankroll,
		logViewport: vp,
		actionInput: ti,
		focusedPane: 1,
	}
}

// Init deals the first hand.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.deal())
}

// Bankroll returns the player's chips between hands.
func (m *Model) Bankroll() int64 { return m.bankroll }

// Net returns the player's profit over the session.
func (m *Model) Net() int64 { return m.net }

// Hands returns the number of resolved hands.
func (m *Model) Hands() int { return m.hands }

// Log returns a copy of the game log.
func (m *Model) Log() []string {
	return append([]string(nil), m.gameLog...)
}

func (m *Model) inHand() bool {
	return m.hand != nil && m.hand.Street.Betting()
}

func (m *Model) deal() tea.Cmd {
	if m.bankroll < m.wager {
		m.AddLogEntry(display.ErrorStyle.Render(
			fmt.Sprintf("Bankroll %d cannot cover a wager of %d", m.bankroll, m.wager)))
		return nil
	}
	m.pending = true
	ctx, engine, player, wager, stack := m.ctx, m.engine, m.player, m.wager, m.bankroll
	return func() tea.Msg {
		h, err := engine.CreateHand(ctx, player, wager, game.WithStack(stack))
		return handMsg{hand: h, err: err}
	}
}

func (m *Model) act(action game.Action, amount int64) tea.Cmd {
	m.pending = true
	ctx, engine, id := m.ctx, m.engine, m.hand.ID
	return func() tea.Msg {
		h, err := engine.ProcessAction(ctx, id, action, amount)
		return handMsg{hand: h, err: err}
	}
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case handMsg:
		m.handle(msg)
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, m.quit()
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.actionInput.Focus()
			} else {
				m.focusedPane = 0
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane != 1 {
				break
			}
			input := strings.TrimSpace(m.actionInput.Value())
			m.actionInput.SetValue("")
			return m, m.submit(input)
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup", "b":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown", "f":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) quit() tea.Cmd {
	if m.inHand() {
		m.logger.Warn("Quitting with a hand in progress", "hand_id", m.hand.ID)
	}
	m.quitting = true
	return tea.Sequence(tea.ClearScreen, tea.Quit)
}

// submit handles a line of input.
func (m *Model) submit(input string) tea.Cmd {
	if m.pending {
		return nil
	}

	fields := strings.Fields(strings.ToLower(input))
	if len(fields) > 0 && (fields[0] == "quit" || fields[0] == "exit") {
		return m.quit()
	}

	if !m.inHand() {
		if len(fields) == 2 && fields[0] == "wager" {
			n, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil || n <= 0 {
				m.AddLogEntry(display.ErrorStyle.Render("Wager must be a positive number of chips"))
				return nil
			}
			m.wager = n
			m.AddLogEntry(display.InfoStyle.Render(fmt.Sprintf("Wager set to %d", n)))
			return nil
		}
		return m.deal()
	}

	action, amount, err := ParseCommand(input)
	if err != nil {
		m.AddLogEntry(display.ErrorStyle.Render(err.Error()))
		return nil
	}
	return m.act(action, amount)
}

func (m *Model) handle(msg handMsg) {
	m.pending = false
	h := msg.hand
	if h == nil {
		m.logger.Error("Engine request failed", "error", msg.err)
		m.AddLogEntry(display.ErrorStyle.Render(describe(msg.err)))
		return
	}

	if m.hand == nil || m.hand.ID != h.ID {
		m.startHand(h)
	}
	m.hand = h
	m.logHand(h)

	if h.Street == game.Resolved {
		m.finishHand(h)
	}
	if msg.err != nil {
		m.logger.Warn("Hand resolved with error", "hand_id", h.ID, "error", msg.err)
		m.AddLogEntry(display.WarningStyle.Render("Warning: " + msg.err.Error()))
	}
}

func (m *Model) startHand(h *game.Hand) {
	m.street = game.Preflop
	m.seen = 0
	m.AddLogEntry("")
	m.AddLogEntry(display.HeaderStyle.Render(" Hand " + h.ID + " "))
	m.AddLogEntry(display.InfoStyle.Render("Commitment " + h.Commitment))
	m.AddLogEntry(fmt.Sprintf("Wager %d, stack %d. You hold %s", h.Wager, h.Stack, display.Cards(h.PlayerCards)))
}

func (m *Model) logHand(h *game.Hand) {
	for _, e := range h.Actions[m.seen:] {
		m.announce(e.Street, h.Board)
		m.AddLogEntry(formatEntry(e))
	}
	m.seen = len(h.Actions)

	switch {
	case h.Street.Betting():
		m.announce(h.Street, h.Board)
	case len(h.Board) == 5:
		m.announce(game.River, h.Board)
	}
}

// announce logs the board for each street after the last one shown.
func (m *Model) announce(s game.Street, board []poker.Card) {
	for m.street < s {
		m.street++
		n := boardSize(m.street)
		if n == 0 || n > len(board) {
			continue
		}
		header := fmt.Sprintf("*** %s ***", strings.ToUpper(m.street.String()))
		m.AddLogEntry(display.HandInfoStyle.Render(header) + " " + display.Cards(board[:n]))
	}
}

func (m *Model) finishHand(h *game.Hand) {
	o := h.Outcome
	m.hands++
	m.net += o.Profit
	m.bankroll = h.Stack + o.Payout

	m.AddLogEntry(display.Outcome(h))
	ok := fairness.VerifyCommitment(h.Deck, h.Salt, h.Commitment)
	if !ok {
		m.logger.Error("Commitment mismatch", "hand_id", h.ID, "commitment", h.Commitment)
	}
	m.AddLogEntry(display.Verification(h.Commitment, ok))
	if ok {
		err := verifyDealt(h)
		if err != nil {
			m.logger.Error("Dealt cards do not follow the committed deck", "hand_id", h.ID, "err", err)
		}
		m.AddLogEntry(display.DealVerification(err))
	}
	m.AddLogEntry(display.InfoStyle.Render(fmt.Sprintf("Bankroll %d", m.bankroll)))
}

func verifyDealt(h *game.Hand) error {
	deck, err := poker.ParseCards(h.Deck)
	if err != nil {
		return fmt.Errorf("%w: %v", fairness.ErrDealMismatch, err)
	}
	return fairness.VerifyDeal(deck, h.PlayerCards, h.HouseCards, h.Board)
}

func boardSize(s game.Street) int {
	switch s {
	case game.Flop:
		return 3
	case game.Turn:
		return 4
	case game.River:
		return 5
	}
	return 0
}

func formatEntry(e game.ActionEntry) string {
	who := "House"
	if e.Actor == game.ActorPlayer {
		who = "You"
	}
	s := fmt.Sprintf("%s %s", who, e.Action)
	if e.Amount > 0 {
		s += fmt.Sprintf(" %d", e.Amount)
	}
	if e.Rationale != "" {
		s += display.InfoStyle.Render(" (" + e.Rationale + ")")
	}
	return s
}

func describe(err error) string {
	switch {
	case errors.Is(err, game.ErrInvalidRaise):
		return "Invalid raise: " + err.Error()
	case errors.Is(err, game.ErrInvalidWager):
		return "Invalid wager: " + err.Error()
	case errors.Is(err, game.ErrHandNotFound):
		return "Hand expired: " + err.Error()
	}
	return "Error: " + err.Error()
}

// ParseCommand parses an action typed at the prompt: "fold", "call" or
// "check", "raise N" and "allin". N is the raise on top of any call.
func ParseCommand(input string) (game.Action, int64, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return 0, 0, errors.New("enter an action: fold, call, raise N or allin")
	}
	action, err := game.ParseAction(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("unknown action %q", fields[0])
	}

	if action != game.Raise {
		if len(fields) > 1 {
			return 0, 0, fmt.Errorf("%s takes no amount", action)
		}
		return action, 0, nil
	}
	if len(fields) != 2 {
		return 0, 0, errors.New("raise needs an amount, e.g. raise 20")
	}
	amount, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || amount <= 0 {
		return 0, 0, fmt.Errorf("invalid raise amount %q", fields[1])
	}
	return game.Raise, amount, nil
}

// AddLogEntry adds an entry to the game log and scrolls to it.
func (m *Model) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))

	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionStyle := paneStyle.
		Width(max(m.width-2, 1)).
		Height(max(actionHeight-2, 1))
	if m.focusedPane == 1 {
		actionStyle = actionStyle.BorderForeground(focusedBorder)
	}
	actionPane := actionStyle.Render(actionContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 25)
	paneHeight := max(m.height-actionHeight-4, 1)
	sidebarPane := paneStyle.Width(sidebarWidth).Height(paneHeight).Render(sidebarContent)

	logWidth := max(m.width-sidebarWidth-4, 1)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight
	if !m.initialized && logWidth > 1 && paneHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logStyle := paneStyle.Width(logWidth).Height(paneHeight)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(focusedBorder)
	}
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

func (m *Model) renderSidebarPane() string {
	var b strings.Builder
	b.WriteString(display.HandInfoStyle.Render(m.player))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Bankroll: %d\n", m.bankroll)
	fmt.Fprintf(&b, "Wager:    %d\n", m.wager)
	fmt.Fprintf(&b, "Hands:    %d\n", m.hands)
	fmt.Fprintf(&b, "Net:      %s\n", display.Chips(m.net))

	if m.inHand() {
		b.WriteString("\n")
		b.WriteString(display.WarningStyle.Render(fmt.Sprintf("Pot: %d", m.hand.Pot)))
		b.WriteString("\n")
		fmt.Fprintf(&b, "Street: %s\n", m.hand.Street)
		b.WriteString(display.InfoStyle.Render("Commitment " + short(m.hand.Commitment)))
	}
	return b.String()
}

func (m *Model) renderActionPane() string {
	var b strings.Builder

	if m.inHand() {
		h := m.hand
		b.WriteString(display.HandInfoStyle.Render("Hand: ") + display.Cards(h.PlayerCards))
		b.WriteString(display.HandInfoStyle.Render("  Board: ") + display.Cards(h.Board))
		fmt.Fprintf(&b, "  Pot: %d  Stack: %d\n", h.Pot, h.Stack)
		b.WriteString(m.renderAvailableActions())
		b.WriteString("\n")
		m.actionInput.Placeholder = "fold, call, raise N, allin"
	} else {
		b.WriteString(display.HandInfoStyle.Render("Between hands"))
		b.WriteString("\n")
		m.actionInput.Placeholder = fmt.Sprintf("Enter to deal (wager %d), 'wager N' to change, 'quit' to exit", m.wager)
	}

	b.WriteString(m.actionInput.View())
	b.WriteString("\n")

	if m.focusedPane == 0 {
		b.WriteString(helpStyle.Render("Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"))
	} else {
		b.WriteString(helpStyle.Render("Tab to scroll log • Enter to submit • Ctrl+C to quit"))
	}
	return b.String()
}

func (m *Model) renderAvailableActions() string {
	h := m.hand
	toCall := min(h.PlayerToCall(), h.Stack)

	actions := []string{display.ErrorStyle.Render("[fold]")}
	if toCall == 0 {
		actions = append(actions, display.SuccessStyle.Render("[check]"))
	} else {
		actions = append(actions, display.SuccessStyle.Render(fmt.Sprintf("[call %d]", toCall)))
	}
	if h.Stack > toCall {
		actions = append(actions, display.WarningStyle.Render(fmt.Sprintf("[raise 1-%d]", h.Stack-toCall)))
	}
	if h.Stack > 0 {
		actions = append(actions, display.WarningStyle.Render(fmt.Sprintf("[allin %d]", h.Stack)))
	}
	return ActionsStyle.Render("Actions: ") + strings.Join(actions, " ")
}

func short(commitment string) string {
	if len(commitment) > 16 {
		return commitment[:16] + "…"
	}
	return commitment
}
