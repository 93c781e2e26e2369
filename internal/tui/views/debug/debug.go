// Package debug provides the scrollable event log overlay: camera
// transitions, match ends, connection changes and command output.
package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/admincam/camwatch/internal/camera"
	"github.com/admincam/camwatch/internal/tui/theme"
	"github.com/admincam/camwatch/internal/ws"
)

const maxEntries = 200

// Entry is one line of the event log.
type Entry struct {
	Time    time.Time
	Kind    string // "cam", "mtch", "cmd", "ws", "err", "hlth"
	Message string
}

type Model struct {
	Entries []Entry
	// Offset counts entries hidden below the viewport.
	Offset int
}

func New() Model {
	return Model{}
}

// Add appends an entry, dropping the oldest past maxEntries, and jumps back
// to the newest line.
func (m *Model) Add(kind, message string) {
	m.Entries = append(m.Entries, Entry{Time: time.Now(), Kind: kind, Message: message})
	if over := len(m.Entries) - maxEntries; over > 0 {
		m.Entries = m.Entries[over:]
	}
	m.Offset = 0
}

// AddTransition logs a camera state change and what it delivered.
func (m *Model) AddTransition(p ws.TransitionPayload) {
	tr := p.Transition
	var b strings.Builder
	b.WriteString(theme.KindGlyph(tr.Kind.String()) + " " + tr.Admin.Name)
	switch tr.Kind {
	case camera.Entered:
		b.WriteString(" entered camera")
	case camera.Left:
		b.WriteString(" left camera")
	case camera.OrphanClosed:
		b.WriteString(" disconnected in camera")
	}
	if tr.Session != nil && tr.Session.Duration != "" {
		b.WriteString(" after " + tr.Session.Duration)
	}
	fmt.Fprintf(&b, " (%d active)", tr.ActiveCount)
	if !tr.Notify {
		reason := tr.Reason.String()
		if reason == "" {
			reason = "silent"
		}
		b.WriteString(" [" + reason + "]")
	} else {
		fmt.Fprintf(&b, " warned %d, embeds %d", p.Delivery.Warned, p.Delivery.Embeds)
		if p.Delivery.Failed > 0 {
			fmt.Fprintf(&b, ", %d failed", p.Delivery.Failed)
		}
	}
	m.Add("cam", b.String())
}

// AddMatchEnd logs the end of a round.
func (m *Model) AddMatchEnd(p ws.MatchEndPayload) {
	msg := "match ended"
	if p.Layer != "" {
		msg += " on " + p.Layer
	}
	if p.Winner != "" {
		msg += ", " + p.Winner + " won"
	}
	msg += fmt.Sprintf(": %d sessions, %s total", p.Stats.TotalSessions, camera.FormatDuration(p.Stats.TotalTimeMs))
	m.Add("mtch", msg)
}

// AddReplies logs the output of a chat command, one entry per line.
func (m *Model) AddReplies(command string, replies []string) {
	m.Add("cmd", command)
	for _, r := range replies {
		for _, line := range strings.Split(r, "\n") {
			if line != "" {
				m.Add("cmd", "  "+line)
			}
		}
	}
}

// ScrollUp moves towards older entries. The newest entry always stays
// reachable, so the offset is capped at len-1.
func (m *Model) ScrollUp(n int) {
	m.Offset = min(m.Offset+n, max(len(m.Entries)-1, 0))
}

// ScrollDown moves back towards the newest entry.
func (m *Model) ScrollDown(n int) {
	m.Offset = max(m.Offset-n, 0)
}

// window returns the half-open range of entries that fit in rows lines,
// ending Offset entries before the newest.
func (m Model) window(rows int) (start, end int) {
	end = max(len(m.Entries)-m.Offset, 0)
	start = max(end-rows, 0)
	return start, end
}

func (m Model) View(width, height int) string {
	inner := max(width-4, 20)
	rows := max(height-6, 3)

	title := theme.StyleHeader.Render(" EVENT LOG ")
	footer := theme.StyleDimmed.Render(fmt.Sprintf("j/k:scroll  esc:close  %d entries", len(m.Entries)))
	panel := lipgloss.NewStyle().
		Width(inner).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder)

	if len(m.Entries) == 0 {
		empty := theme.StyleDimmed.Render("  No events recorded yet.")
		return panel.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", empty, "", footer))
	}

	// Timestamp and tag take 18 cells.
	msgWidth := max(inner-18, 10)
	start, end := m.window(rows)
	lines := make([]string, 0, end-start)
	for _, e := range m.Entries[start:end] {
		lines = append(lines, renderEntry(e, msgWidth))
	}

	older := ""
	if m.Offset > 0 {
		older = theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d newer", m.Offset))
	}
	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"), older, footer))
}

func renderEntry(e Entry, msgWidth int) string {
	stamp := theme.StyleDimmed.Render(e.Time.Format("15:04:05.000"))
	tag := lipgloss.NewStyle().Foreground(tagColor(e.Kind)).Width(4).Render(e.Kind)
	msg := e.Message
	if r := []rune(msg); len(r) > msgWidth {
		msg = string(r[:msgWidth-1]) + "…"
	}
	return stamp + " " + tag + " " + msg
}

func tagColor(kind string) lipgloss.Color {
	switch kind {
	case "cam":
		return theme.ColorEntered
	case "mtch":
		return theme.ColorSummary
	case "cmd", "ws":
		return theme.ColorAccent
	case "err":
		return theme.ColorDanger
	case "hlth":
		return theme.ColorWarning
	default:
		return theme.ColorDimmed
	}
}
