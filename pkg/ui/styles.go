package ui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	ColorPrimary = lipgloss.Color("#7C3AED")
	ColorProfit  = lipgloss.Color("#10B981")
	ColorLoss    = lipgloss.Color("#EF4444")
	ColorPending = lipgloss.Color("#F59E0B")
	ColorMuted   = lipgloss.Color("#6B7280")
	ColorBorder  = lipgloss.Color("#374151")
)

var (
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(ColorPrimary).
			Padding(0, 2)

	IdleStyle = lipgloss.NewStyle().Foreground(ColorProfit).Bold(true)
	BusyStyle = lipgloss.NewStyle().Foreground(ColorPending).Bold(true)

	PositiveValue = lipgloss.NewStyle().Foreground(ColorProfit)
	NegativeValue = lipgloss.NewStyle().Foreground(ColorLoss)
	MutedValue    = lipgloss.NewStyle().Foreground(ColorMuted)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)
)

// ExecutionStyle colours an attempt status. PARTIAL is an unhedged position
// and stands out the most.
func ExecutionStyle(status string) lipgloss.Style {
	switch status {
	case "COMPLETED":
		return PositiveValue.Bold(true)
	case "PARTIAL":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(ColorLoss).Bold(true)
	case "ABORTED":
		return lipgloss.NewStyle().Foreground(ColorPending)
	default:
		return MutedValue
	}
}
