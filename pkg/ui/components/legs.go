// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// LegRow is one executed leg.
type LegRow struct {
	Time     string
	Attempt  string
	Label    string
	Leg      int
	Side     string
	Provider string
	Success  bool
	Price    decimal.Decimal
	Reason   string
}

// LegsComponent renders the most recent legs, newest first.
type LegsComponent struct {
	rows    []LegRow
	maxRows int
	visible int
	offset  int
}

// NewLegsComponent keeps at most maxRows legs and shows visible at a time.
func NewLegsComponent(maxRows, visible int) *LegsComponent {
	return &LegsComponent{maxRows: maxRows, visible: visible}
}

// Add prepends row.
func (l *LegsComponent) Add(row LegRow) {
	l.rows = append([]LegRow{row}, l.rows...)
	if len(l.rows) > l.maxRows {
		l.rows = l.rows[:l.maxRows]
	}
	l.offset = 0
}

// Len returns the number of stored legs.
func (l *LegsComponent) Len() int { return len(l.rows) }

// Clear drops every leg.
func (l *LegsComponent) Clear() {
	l.rows = nil
	l.offset = 0
}

func (l *LegsComponent) ScrollUp() {
	if l.offset > 0 {
		l.offset--
	}
}

func (l *LegsComponent) ScrollDown() {
	if l.offset+l.visible < len(l.rows) {
		l.offset++
	}
}

// View renders the legs table.
func (l *LegsComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("LEGS (%d)", len(l.rows))))
	sb.WriteString("\n")

	if len(l.rows) == 0 {
		sb.WriteString(mutedStyle.Render("  No trades yet..."))
		return sb.String()
	}

	end := min(l.offset+l.visible, len(l.rows))
	for _, r := range l.rows[l.offset:end] {
		icon, style, detail := "✓", okStyle, "$"+r.Price.StringFixed(4)
		if !r.Success {
			icon, style, detail = "✗", failStyle, r.Reason
		}
		sb.WriteString(fmt.Sprintf("  %s %s %-8s #%d %-4s %-8s %s %s\n",
			mutedStyle.Render(r.Time),
			mutedStyle.Render(r.Attempt),
			r.Label,
			r.Leg,
			r.Side,
			r.Provider,
			style.Render(icon),
			style.Render(detail),
		))
	}
	if len(l.rows) > l.visible {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("  showing %d-%d of %d", l.offset+1, end, len(l.rows))))
	}
	return sb.String()
}
