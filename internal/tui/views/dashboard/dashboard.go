// Package dashboard provides the match stats row and the per-admin table
// for the camwatch TUI.
package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/admincam/camwatch/internal/archive"
	"github.com/admincam/camwatch/internal/camera"
	"github.com/admincam/camwatch/internal/tui/theme"
)

// Row is one admin's camera use in the current match.
type Row struct {
	AdminID  string
	Name     string
	Sessions int
	Total    time.Duration
	InCamera bool
	// Current is the elapsed time of the open session, if any.
	Current  time.Duration
	Orphaned int
	LastSeen time.Time
}

// Rows folds a snapshot's history into one row per admin. Admins in camera
// come first, then by total time.
func Rows(snap *camera.Snapshot, now time.Time) []Row {
	if snap == nil {
		return nil
	}
	byID := make(map[string]*Row)
	var order []string
	for _, s := range snap.History {
		r, ok := byID[s.AdminID]
		if !ok {
			r = &Row{AdminID: s.AdminID}
			byID[s.AdminID] = r
			order = append(order, s.AdminID)
		}
		r.Name = s.Name
		r.Sessions++
		elapsed := s.Elapsed(now)
		r.Total += elapsed
		if s.IsOpen() {
			r.InCamera = true
			r.Current = elapsed
			r.LastSeen = now
		} else if s.EndTime.After(r.LastSeen) {
			r.LastSeen = *s.EndTime
		}
		if s.Orphaned {
			r.Orphaned++
		}
	}

	rows := make([]Row, 0, len(order))
	for _, id := range order {
		rows = append(rows, *byID[id])
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].InCamera != rows[j].InCamera {
			return rows[i].InCamera
		}
		return rows[i].Total > rows[j].Total
	})
	return rows
}

// Model holds the dashboard state.
type Model struct {
	Width    int
	Selected int
	stats    camera.Stats
	rows     []Row
	allTime  []archive.AdminTotal
}

func New() Model {
	return Model{}
}

// SetSnapshot recomputes the table from a tracker snapshot.
func (m *Model) SetSnapshot(snap *camera.Snapshot, now time.Time) {
	m.rows = Rows(snap, now)
	if snap != nil {
		m.stats = snap.Stats
	}
	if m.Selected >= len(m.rows) {
		m.Selected = max(0, len(m.rows)-1)
	}
}

// SetAllTime replaces the archived per-admin totals.
func (m *Model) SetAllTime(totals []archive.AdminTotal) {
	m.allTime = totals
}

// Selection returns the highlighted row, if any.
func (m Model) Selection() (Row, bool) {
	if m.Selected < 0 || m.Selected >= len(m.rows) {
		return Row{}, false
	}
	return m.rows[m.Selected], true
}

func (m Model) Len() int { return len(m.rows) }

// View renders the full dashboard: stats row, match table and all-time totals.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}
	sections := []string{
		m.renderStatsRow(width),
		m.renderTable(width),
	}
	if len(m.allTime) > 0 {
		sections = append(sections, "", m.renderAllTime())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderStatsRow(width int) string {
	st := m.stats
	statStyle := lipgloss.NewStyle().Padding(0, 1)

	peak := "N/A"
	if st.PeakTime != nil {
		peak = st.PeakTime.Local().Format(time.TimeOnly)
	}
	stats := []string{
		statStyle.Foreground(theme.ColorBright).Render(
			fmt.Sprintf("Sessions: %d", st.TotalSessions)),
		statStyle.Foreground(theme.ColorAccent).Render(
			fmt.Sprintf("Total: %s", camera.FormatDuration(st.TotalTimeMs))),
		statStyle.Foreground(theme.ColorEntered).Render(
			fmt.Sprintf("Peak: %d @ %s", st.PeakUsers, peak)),
		statStyle.Foreground(theme.ColorOrphaned).Render(
			fmt.Sprintf("Orphaned: %d", st.OrphanedSessions)),
	}
	content := strings.Join(stats, lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | "))

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

func (m Model) renderTable(width int) string {
	header := theme.StyleHeader.Render("  This match")
	if len(m.rows) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			theme.StyleDimmed.Render("  No camera sessions this match"),
		)
	}

	colName := 24
	colState := 14
	colSessions := 9
	colTotal := 12
	colLast := 10

	dimStyle := lipgloss.NewStyle().Foreground(theme.ColorDimmed)
	tableHeader := fmt.Sprintf("  %-*s %-*s %*s %*s %*s",
		colName, "Admin",
		colState, "State",
		colSessions, "Sessions",
		colTotal, "Total",
		colLast, "Last seen",
	)
	lines := []string{
		header,
		dimStyle.Render(tableHeader),
		dimStyle.Render("  " + strings.Repeat("─", min(width-4, colName+colState+colSessions+colTotal+colLast+4))),
	}

	for i, r := range m.rows {
		prefix := "  "
		if i == m.Selected {
			prefix = "> "
		}
		name := r.Name
		if len(name) > colName-1 {
			name = name[:colName-2] + "…"
		}
		nameStyle := lipgloss.NewStyle().Width(colName)
		if i == m.Selected {
			nameStyle = nameStyle.Inherit(theme.StyleSelected)
		}

		state := "out"
		stateColor := theme.ColorDimmed
		if r.InCamera {
			state = theme.KindGlyph("entered") + " " + camera.FormatDuration(r.Current.Milliseconds())
			stateColor = theme.ElapsedColor(r.Current)
		}
		last := "-"
		if !r.InCamera && !r.LastSeen.IsZero() {
			last = r.LastSeen.Local().Format("15:04")
		}

		line := prefix +
			nameStyle.Render(name) + " " +
			lipgloss.NewStyle().Foreground(stateColor).Width(colState).Render(state) + " " +
			lipgloss.NewStyle().Width(colSessions).Align(lipgloss.Right).Render(fmt.Sprintf("%d", r.Sessions)) + " " +
			lipgloss.NewStyle().Width(colTotal).Align(lipgloss.Right).Render(camera.FormatDuration(r.Total.Milliseconds())) + " " +
			dimStyle.Width(colLast).Align(lipgloss.Right).Render(last)
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderAllTime() string {
	lines := []string{theme.StyleHeader.Render("  All time")}
	for i, t := range m.allTime {
		if i == 5 {
			break
		}
		line := fmt.Sprintf("  %d. %-22s %4d sessions  %s", i+1, t.Name, t.Sessions, camera.FormatDuration(t.TotalTimeMs))
		if t.Orphaned > 0 {
			line += fmt.Sprintf("  (%d orphaned)", t.Orphaned)
		}
		lines = append(lines, theme.StyleDimmed.Render(line))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
