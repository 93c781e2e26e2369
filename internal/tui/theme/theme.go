// Package theme provides the Lip Gloss color palette and reusable styles
// for the camwatch TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Transition colors, matching the Discord embed colors.
var (
	ColorEntered    = lipgloss.Color("#ff0000")
	ColorLeft       = lipgloss.Color("#00ff00")
	ColorOrphaned   = lipgloss.Color("#ffa500")
	ColorSuppressed = lipgloss.Color("#6b7280")
	ColorSummary    = lipgloss.Color("#ffff00")
)

// Session length thresholds.
var (
	ColorElapsedShort = lipgloss.Color("#22c55e") // <5m
	ColorElapsedMid   = lipgloss.Color("#d97706") // 5-15m
	ColorElapsedLong  = lipgloss.Color("#dc2626") // >15m
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorAccent  = lipgloss.Color("#3b82f6")
	ColorBg      = lipgloss.Color("#111827")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// KindColor returns the color for a transition kind ("entered", "left",
// "orphan_closed"). Transitions that did not notify are dimmed.
func KindColor(kind string, notified bool) lipgloss.Color {
	if !notified {
		return ColorSuppressed
	}
	switch kind {
	case "entered":
		return ColorEntered
	case "left":
		return ColorLeft
	case "orphan_closed":
		return ColorOrphaned
	default:
		return ColorDimmed
	}
}

// KindGlyph returns a Unicode glyph for a transition kind.
func KindGlyph(kind string) string {
	switch kind {
	case "entered":
		return "◉"
	case "left":
		return "○"
	case "orphan_closed":
		return "⚠"
	default:
		return "·"
	}
}

// ElapsedColor returns the color for how long a session has been open.
func ElapsedColor(d time.Duration) lipgloss.Color {
	switch {
	case d > 15*time.Minute:
		return ColorElapsedLong
	case d > 5*time.Minute:
		return ColorElapsedMid
	default:
		return ColorElapsedShort
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
		Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)
)
