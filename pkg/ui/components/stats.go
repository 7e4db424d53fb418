package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// Stats holds attempt counters for display.
type Stats struct {
	Attempts  int64
	Completed int64
	Aborted   int64
	Partial   int64
	PnL       decimal.Decimal
}

// Record folds a finished attempt into the counters.
func (s *Stats) Record(status string, pnl decimal.Decimal) {
	s.Attempts++
	switch status {
	case "COMPLETED":
		s.Completed++
		s.PnL = s.PnL.Add(pnl)
	case "ABORTED":
		s.Aborted++
	case "PARTIAL":
		s.Partial++
	}
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Record forwards to Stats.Record.
func (s *StatsComponent) Record(status string, pnl decimal.Decimal) {
	s.stats.Record(status, pnl)
}

// Stats returns a copy of the counters.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	pnlStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)

	partial := valueStyle.Render(fmt.Sprintf("%d", s.stats.Partial))
	if s.stats.Partial > 0 {
		partial = warnStyle.Render(fmt.Sprintf("%d", s.stats.Partial))
	}
	if s.stats.PnL.IsNegative() {
		pnlStyle = warnStyle
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Attempts: %s  │  Completed: %s  │  Aborted: %s  │  Unhedged: %s  │  PnL: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Attempts)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Completed)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Aborted)),
			partial,
			pnlStyle.Render("$"+s.stats.PnL.StringFixed(2)),
		)
}
