// Package matches renders the archived match browser overlay.
package matches

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/admincam/camwatch/internal/archive"
	"github.com/admincam/camwatch/internal/camera"
	"github.com/admincam/camwatch/internal/tui/theme"
)

// Model holds the archive browser state.
type Model struct {
	Matches  []archive.Match
	Selected int
	// Sessions belong to the match at Selected once loaded.
	Sessions []*camera.Session
	Err      string
	Loading  bool
}

func New() Model {
	return Model{Loading: true}
}

// SetMatches replaces the list and clears the loaded sessions.
func (m *Model) SetMatches(list []archive.Match) {
	m.Matches = list
	m.Loading = false
	m.Err = ""
	m.Sessions = nil
	if m.Selected >= len(list) {
		m.Selected = max(0, len(list)-1)
	}
}

func (m *Model) Up() {
	if m.Selected > 0 {
		m.Selected--
		m.Sessions = nil
	}
}

func (m *Model) Down() {
	if m.Selected < len(m.Matches)-1 {
		m.Selected++
		m.Sessions = nil
	}
}

// Current returns the highlighted match ID.
func (m Model) Current() (int64, bool) {
	if m.Selected < 0 || m.Selected >= len(m.Matches) {
		return 0, false
	}
	return m.Matches[m.Selected].ID, true
}

func panelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder)
}

// View renders the overlay.
func (m Model) View(width, height int) string {
	innerW := max(width-4, 40)
	title := theme.StyleHeader.Render(" MATCH ARCHIVE ")
	help := theme.StyleDimmed.Render("j/k:select  enter:sessions  esc:close")

	var body string
	switch {
	case m.Err != "":
		body = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("  " + m.Err)
	case m.Loading:
		body = theme.StyleDimmed.Render("  Loading...")
	case len(m.Matches) == 0:
		body = theme.StyleDimmed.Render("  No archived matches yet.")
	default:
		body = m.renderList(max(height-10, 3))
		if len(m.Sessions) > 0 {
			body += "\n\n" + m.renderSessions()
		}
	}
	return panelStyle(innerW).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", help))
}

func (m Model) renderList(visible int) string {
	start := 0
	if m.Selected >= visible {
		start = m.Selected - visible + 1
	}
	end := min(len(m.Matches), start+visible)

	var lines []string
	for i := start; i < end; i++ {
		mt := m.Matches[i]
		prefix := "  "
		style := lipgloss.NewStyle()
		if i == m.Selected {
			prefix = "> "
			style = theme.StyleSelected
		}
		layer := mt.Layer
		if layer == "" {
			layer = "unknown layer"
		}
		line := fmt.Sprintf("%s%s  %-28s %3d sessions  %-10s",
			prefix,
			mt.EndedAt.Local().Format("Jan 02 15:04"),
			layer,
			mt.Stats.TotalSessions,
			camera.FormatDuration(mt.Stats.TotalTimeMs),
		)
		if mt.Winner != "" {
			line += "  " + mt.Winner
		}
		lines = append(lines, style.Render(line))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderSessions() string {
	lines := []string{theme.StyleHeader.Render("Sessions")}
	for _, s := range m.Sessions {
		dur := s.Duration
		if s.IsOpen() {
			dur = "open at match end"
		}
		line := fmt.Sprintf("  %-22s %s  %s", s.Name, s.StartTime.Local().Format(time.TimeOnly), dur)
		if s.Orphaned {
			line = lipgloss.NewStyle().Foreground(theme.ColorOrphaned).Render(line + "  (disconnected)")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
