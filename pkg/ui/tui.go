package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/options-arb/pkg/ui/components"
)

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"
	PhaseDashboard Phase = "dashboard"
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

const maxErrors = 3

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	legs   *components.LegsComponent
	stats  *components.StatsComponent
	venues *components.StatusComponent

	keys KeyMap
	help help.Model

	phase        Phase
	welcomeStart time.Time
	started      bool

	quitting   bool
	width      int
	height     int
	lastUpdate time.Time
	lastStatus string
	lastLabel  string
	inFlight   map[string]string // attempt id -> label
	errors     []ErrorEntry
	logs       []string
}

// New creates a new TUI model.
func New() Model {
	return Model{
		legs:         components.NewLegsComponent(100, 12),
		stats:        components.NewStatsComponent(),
		venues:       components.NewStatusComponent(),
		keys:         DefaultKeyMap(),
		help:         help.New(),
		phase:        PhaseWelcome,
		welcomeStart: time.Now(),
		inFlight:     make(map[string]string),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.phase == PhaseWelcome {
			m = m.enterDashboard()
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Clear):
			m.legs.Clear()
		case key.Matches(msg, m.keys.Errors):
			m.errors = nil
		case key.Matches(msg, m.keys.Up):
			m.legs.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.legs.ScrollDown()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m = m.enterDashboard()
		}
		return m, tickCmd()

	case LegMsg:
		m.legs.Add(components.LegRow{
			Time:     msg.At.Format("15:04:05"),
			Attempt:  shortID(msg.AttemptID),
			Label:    msg.Label,
			Leg:      msg.LegNumber,
			Side:     msg.Side,
			Provider: msg.Provider,
			Success:  msg.Success,
			Price:    msg.Price,
			Reason:   msg.Reason,
		})
		if msg.Last {
			delete(m.inFlight, msg.AttemptID)
		} else {
			m.inFlight[msg.AttemptID] = msg.Label
		}
		m.lastUpdate = time.Now()

	case ExecutionMsg:
		m.stats.Record(msg.Status, msg.PnL)
		delete(m.inFlight, msg.AttemptID)
		m.lastStatus, m.lastLabel = msg.Status, msg.Label
		m.logs = addLog(m.logs, "info", fmt.Sprintf("%s %s in %s", msg.Label, msg.Status, msg.Duration.Round(time.Millisecond)))
		m.lastUpdate = time.Now()

	case VenueStatusMsg:
		m.venues.Update(components.VenueStatus{Name: msg.Name, Ready: msg.Ready, Note: msg.Note})
		m.lastUpdate = time.Now()

	case ErrorMsg:
		if msg.Error == nil {
			return m, nil
		}
		m.logs = addLog(m.logs, "error", msg.Error.Error())
		m.errors = append(m.errors, ErrorEntry{Message: msg.Error.Error(), Timestamp: time.Now()})
		if len(m.errors) > maxErrors {
			m.errors = m.errors[len(m.errors)-maxErrors:]
		}

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)
	}

	return m, nil
}

// enterDashboard leaves the welcome screen and fires OnStartModules once.
func (m Model) enterDashboard() Model {
	m.phase = PhaseDashboard
	if !m.started {
		m.started = true
		if OnStartModules != nil {
			// Not Send(): Update must not block on the program's channel.
			go OnStartModules()
		}
	}
	return m
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// addLog adds a log message and returns the updated slice (keeps last 5).
func addLog(logs []string, level, message string) []string {
	line := fmt.Sprintf("[%s] %s: %s", time.Now().Format("15:04:05"), level, message)
	logs = append(logs, line)
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	return logs
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}
	if m.phase == PhaseWelcome {
		return m.renderWelcomeScreen()
	}

	width := m.width
	if width < 40 {
		width = 100
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(" Options Arbitrage Executor "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")
	b.WriteString(BoxStyle.Width(width - 4).Render(m.stats.View()))
	b.WriteString("\n")

	right := m.renderLogs()
	if width > 110 {
		left := BoxStyle.Width(width*2/3 - 2).Render(m.legs.View())
		right = BoxStyle.Width(width/3 - 4).Render(right)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		b.WriteString(BoxStyle.Width(width - 4).Render(m.legs.View()))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width - 4).Render(right))
	}
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		b.WriteString(HeaderStyle.Foreground(ColorLoss).Render("ERRORS"))
		b.WriteString(MutedValue.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, e := range m.errors {
			ago := time.Since(e.Timestamp).Round(time.Second)
			b.WriteString(NegativeValue.Render("  • " + e.Message + " "))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderStatusBar() string {
	parts := []string{m.venues.View()}

	if len(m.inFlight) > 0 {
		spinners := []string{"◐", "◓", "◑", "◒"}
		idx := int(time.Now().UnixMilli()/200) % len(spinners)
		labels := make([]string, 0, len(m.inFlight))
		for _, l := range m.inFlight {
			labels = append(labels, l)
		}
		parts = append(parts, BusyStyle.Render(spinners[idx]+" Executing "+strings.Join(labels, ", ")))
	} else {
		parts = append(parts, IdleStyle.Render("● Idle"))
	}

	if m.lastStatus != "" {
		parts = append(parts, MutedValue.Render("Last: ")+ExecutionStyle(m.lastStatus).Render(m.lastStatus)+MutedValue.Render(" "+m.lastLabel))
	}

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}
	return strings.Join(parts, "  │  ")
}

func (m Model) renderLogs() string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Padding(0).Render("ACTIVITY"))
	sb.WriteString("\n")
	if len(m.logs) == 0 {
		sb.WriteString(MutedValue.Render("  Waiting for attempts..."))
		return sb.String()
	}
	for _, l := range m.logs {
		style := MutedValue
		if strings.Contains(l, "] error:") {
			style = NegativeValue
		}
		sb.WriteString(style.Render("  " + l))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	goldStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPending)

	dots := strings.Repeat(".", int(time.Since(m.welcomeStart).Milliseconds()/300)%4)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")
	sb.WriteString(titleStyle.Render("        O P T I O N S   A R B"))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("        Deribit  ⇄  Lyra"))
	sb.WriteString("\n\n\n")
	sb.WriteString(goldStyle.Render("        Buy low, sell high, stay hedged"))
	sb.WriteString("\n\n\n")
	sb.WriteString(PositiveValue.Render("        Initializing" + dots))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("        Press any key to skip, or wait..."))
	sb.WriteString("\n")
	return sb.String()
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called once the welcome screen completes. main sets it
// to begin loading modules.
var OnStartModules func()

// Run starts the Bubble Tea program.
func Run() error {
	Program = tea.NewProgram(New(), tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send sends a message to the running program. It is a no-op when the
// dashboard is not running.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
