package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/admincam/camwatch/internal/squadlog"
	"github.com/admincam/camwatch/internal/tui/client"
	"github.com/admincam/camwatch/internal/tui/theme"
)

// Model holds the status bar state.
type Model struct {
	Connected bool
	Server    string
	Active    int
	Pending   int
	Health    *client.Health
	Width     int
}

func New() Model {
	return Model{}
}

// SetCounts updates the active and pending-orphan counts.
func (m *Model) SetCounts(active, pending int) {
	m.Active = active
	m.Pending = pending
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	if m.Connected {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	} else {
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Connecting...")
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr
	if m.Server != "" {
		content += sep + theme.StyleHeader.Render(m.Server)
	}

	activeColor := theme.ColorDimmed
	if m.Active > 0 {
		activeColor = theme.ColorEntered
	}
	content += sep + lipgloss.NewStyle().Foreground(activeColor).Render(fmt.Sprintf("%d in camera", m.Active))
	if m.Pending > 0 {
		content += "  " + lipgloss.NewStyle().Foreground(theme.ColorOrphaned).Render(fmt.Sprintf("%d disconnected", m.Pending))
	}
	if h := m.healthView(); h != "" {
		content += sep + h
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

func (m Model) healthView() string {
	if m.Health == nil || m.Health.Source == "" {
		return ""
	}
	if m.Health.SourceHealth == nil {
		return theme.StyleDimmed.Render(m.Health.Source)
	}
	var color lipgloss.Color
	switch m.Health.SourceHealth.Status {
	case squadlog.StatusHealthy:
		color = theme.ColorHealthy
	case squadlog.StatusDegraded:
		color = theme.ColorWarning
	case squadlog.StatusFailed:
		color = theme.ColorDanger
	default:
		color = theme.ColorDimmed
	}
	return lipgloss.NewStyle().Foreground(color).Render(
		fmt.Sprintf("%s: %s", m.Health.Source, m.Health.SourceHealth.Status),
	)
}
