package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// VenueStatus is whether a venue can take orders.
type VenueStatus struct {
	Name  string
	Ready bool
	Note  string
}

// StatusComponent renders venue status in arrival order.
type StatusComponent struct {
	venues []VenueStatus
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{}
}

// Update replaces or appends a venue's status.
func (s *StatusComponent) Update(status VenueStatus) {
	for i, v := range s.venues {
		if v.Name == status.Name {
			s.venues[i] = status
			return
		}
	}
	s.venues = append(s.venues, status)
}

// View renders the status component on one line.
func (s *StatusComponent) View() string {
	if len(s.venues) == 0 {
		return "No venues"
	}

	ready := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	down := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	parts := make([]string, 0, len(s.venues))
	for _, v := range s.venues {
		text := "● " + v.Name
		style := ready
		if !v.Ready {
			text = "○ " + v.Name
			style = down
		}
		if v.Note != "" {
			text += fmt.Sprintf(" (%s)", v.Note)
		}
		parts = append(parts, style.Render(text))
	}
	return strings.Join(parts, "  ")
}
