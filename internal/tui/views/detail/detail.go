// Package detail renders the admin flyout overlay.
package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/admincam/camwatch/internal/camera"
	"github.com/admincam/camwatch/internal/tui/theme"
	"github.com/admincam/camwatch/internal/tui/views/dashboard"
)

const (
	panelWidth = 64
	labelWidth = 14
	maxListed  = 10
)

var (
	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorBorder).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed).
			Width(labelWidth)

	styleValue = lipgloss.NewStyle().
			Foreground(theme.ColorBright)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorBright)

	styleFooter = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed)

	styleSectionHeader = lipgloss.NewStyle().
				Bold(true).
				Foreground(theme.ColorDimmed)
)

// Model holds the state for the detail overlay.
type Model struct {
	Row      dashboard.Row
	Sessions []*camera.Session
	Now      time.Time
}

// New builds the overlay for row, keeping only that admin's sessions.
func New(row dashboard.Row, history []*camera.Session, now time.Time) Model {
	m := Model{Row: row, Now: now}
	for _, s := range history {
		if s.AdminID == row.AdminID {
			m.Sessions = append(m.Sessions, s)
		}
	}
	return m
}

// View renders the detail panel. Returns an empty string if no admin is set.
func (m Model) View() string {
	if m.Row.AdminID == "" {
		return ""
	}
	return stylePanel.Width(panelWidth).Render(m.renderInner())
}

func (m Model) renderInner() string {
	var b strings.Builder
	r := m.Row

	b.WriteString(styleTitle.Render("Admin: "+r.Name) + "\n")
	b.WriteString(strings.Repeat("─", panelWidth-4) + "\n")

	writeRow(&b, "EOS ID", r.AdminID)
	if id := m.steamID(); id != "" {
		writeRow(&b, "Steam ID", id)
	}
	if r.InCamera {
		writeRow(&b, "State", lipgloss.NewStyle().Foreground(theme.ElapsedColor(r.Current)).
			Render("in camera for "+camera.FormatDuration(r.Current.Milliseconds())))
	} else {
		writeRow(&b, "State", "out of camera")
	}
	writeRow(&b, "Sessions", fmt.Sprintf("%d  (%d orphaned)", r.Sessions, r.Orphaned))
	writeRow(&b, "Total", camera.FormatDuration(r.Total.Milliseconds()))

	if len(m.Sessions) > 0 {
		b.WriteString("\n")
		b.WriteString(styleSectionHeader.Render(fmt.Sprintf("Sessions this match (%d)", len(m.Sessions))) + "\n")
		list := m.Sessions
		if len(list) > maxListed {
			list = list[len(list)-maxListed:]
		}
		for _, s := range list {
			b.WriteString(renderSession(s, m.Now) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styleFooter.Render("[esc] close"))
	return b.String()
}

// steamID returns the most recent Steam ID any session recorded. A session
// reopened after a reconnect may not carry one.
func (m Model) steamID() string {
	for i := len(m.Sessions) - 1; i >= 0; i-- {
		if id := m.Sessions[i].SteamID; id != "" {
			return id
		}
	}
	return ""
}

func renderSession(s *camera.Session, now time.Time) string {
	start := s.StartTime.Local().Format(time.TimeOnly)
	if s.IsOpen() {
		return lipgloss.NewStyle().Foreground(theme.ColorEntered).Render(
			fmt.Sprintf("  %s %s  active %s", theme.KindGlyph("entered"), start, camera.FormatDuration(s.Elapsed(now).Milliseconds())))
	}
	end := s.EndTime.Local().Format(time.TimeOnly)
	line := fmt.Sprintf("  %s %s - %s  %s", theme.KindGlyph("left"), start, end, s.Duration)
	if s.Orphaned {
		return lipgloss.NewStyle().Foreground(theme.ColorOrphaned).Render(line + "  (disconnected)")
	}
	return line
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(styleLabel.Render(label+":") + styleValue.Render(value) + "\n")
}
