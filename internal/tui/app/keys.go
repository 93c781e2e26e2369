package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard bindings for the TUI.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Enter      key.Binding
	Escape     key.Binding
	Quit       key.Binding
	Matches    key.Binding
	Log        key.Binding
	CameraStat key.Binding
	CameraDbg  key.Binding
	Refresh    key.Binding
	Reconnect  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev admin"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next admin"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "detail"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close overlay"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Matches: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "match archive"),
		),
		Log: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "event log"),
		),
		CameraStat: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "!camerastats"),
		),
		CameraDbg: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "!cameradebug"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh totals"),
		),
		Reconnect: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "reconnect"),
		),
	}
}
