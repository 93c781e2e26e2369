package app

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/admincam/camwatch/internal/archive"
	"github.com/admincam/camwatch/internal/camera"
	"github.com/admincam/camwatch/internal/events"
	"github.com/admincam/camwatch/internal/tui/client"
	"github.com/admincam/camwatch/internal/tui/theme"
	"github.com/admincam/camwatch/internal/tui/views/dashboard"
	"github.com/admincam/camwatch/internal/tui/views/debug"
	"github.com/admincam/camwatch/internal/tui/views/detail"
	"github.com/admincam/camwatch/internal/tui/views/matches"
	"github.com/admincam/camwatch/internal/tui/views/status"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayDetail
	OverlayMatches
	OverlayLog
)

const (
	tickInterval = time.Second
	// Health and all-time totals are polled every pollEvery ticks.
	pollEvery    = 15
	matchesLimit = 50
)

var errNoOperator = errors.New("no operator identity; start with -eos-id to run commands")

type tickMsg time.Time

type healthMsg struct {
	health *client.Health
	err    error
}

type statsMsg struct {
	stats *client.StatsResponse
	err   error
}

type matchesMsg struct {
	list []archive.Match
	err  error
}

type matchSessionsMsg struct {
	id       int64
	sessions []*camera.Session
	err      error
}

type commandMsg struct {
	text    string
	replies []string
	err     error
}

// Model is the root Bubble Tea model.
type Model struct {
	ws     *client.WSClient
	http   *client.HTTPClient
	ctx    context.Context
	cancel context.CancelFunc
	// operator is the identity chat commands are run as. Commands are
	// disabled when it has no EOS ID.
	operator events.Player

	keys   KeyMap
	width  int
	height int
	ticks  int

	snapshot *camera.Snapshot
	now      func() time.Time

	overlay   Overlay
	statusBar status.Model
	dashboard dashboard.Model
	detail    detail.Model
	matches   matches.Model
	log       debug.Model

	connected bool
}

// New creates the root model.
func New(ws *client.WSClient, http *client.HTTPClient, operator events.Player) Model {
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		ws:        ws,
		http:      http,
		ctx:       ctx,
		cancel:    cancel,
		operator:  operator,
		keys:      DefaultKeyMap(),
		now:       time.Now,
		statusBar: status.New(),
		dashboard: dashboard.New(),
		matches:   matches.New(),
		log:       debug.New(),
	}
}

// Init starts the WebSocket connection and the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.ws.Listen(m.ctx), tick(), m.fetchHealth(), m.fetchStats())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.dashboard.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.ticks++
		m.refresh()
		cmds := []tea.Cmd{tick()}
		if m.ticks%pollEvery == 0 {
			cmds = append(cmds, m.fetchHealth(), m.fetchStats())
		}
		return m, tea.Batch(cmds...)

	case client.WSConnectedMsg:
		m.connected = true
		m.statusBar.Connected = true
		m.log.Add("ws", "connected")
		return m, m.ws.ReadLoop(m.ctx)

	case client.WSDisconnectedMsg:
		m.connected = false
		m.statusBar.Connected = false
		if msg.Err != nil {
			m.log.Add("ws", "disconnected: "+msg.Err.Error())
		}
		return m, m.ws.Listen(m.ctx)

	case client.WSSnapshotMsg:
		m.snapshot = msg.Payload.Snapshot
		m.statusBar.Server = msg.Payload.Server
		m.refresh()
		return m, m.ws.ReadLoop(m.ctx)

	case client.WSTransitionMsg:
		m.log.AddTransition(msg.Payload)
		return m, m.ws.ReadLoop(m.ctx)

	case client.WSMatchEndMsg:
		m.log.AddMatchEnd(msg.Payload)
		return m, tea.Batch(m.ws.ReadLoop(m.ctx), m.fetchStats())

	case client.WSErrorMsg:
		m.log.Add("err", msg.Payload.Message)
		return m, m.ws.ReadLoop(m.ctx)

	case healthMsg:
		if msg.err != nil {
			m.log.Add("hlth", msg.err.Error())
			return m, nil
		}
		m.statusBar.Health = msg.health
		return m, nil

	case statsMsg:
		if msg.err != nil {
			m.log.Add("err", "stats: "+msg.err.Error())
			return m, nil
		}
		m.dashboard.SetAllTime(msg.stats.AllTime)
		return m, nil

	case matchesMsg:
		if msg.err != nil {
			m.matches.Err = msg.err.Error()
			m.matches.Loading = false
			return m, nil
		}
		m.matches.SetMatches(msg.list)
		return m, nil

	case matchSessionsMsg:
		if msg.err != nil {
			m.matches.Err = msg.err.Error()
			return m, nil
		}
		if id, ok := m.matches.Current(); ok && id == msg.id {
			m.matches.Sessions = msg.sessions
		}
		return m, nil

	case commandMsg:
		if msg.err != nil {
			m.log.Add("err", msg.text+": "+msg.err.Error())
		} else {
			m.log.AddReplies(msg.text, msg.replies)
		}
		m.overlay = OverlayLog
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.cancel()
		return m, tea.Quit
	}

	switch m.overlay {
	case OverlayNone:
	case OverlayMatches:
		return m.handleMatchesKey(msg)
	case OverlayLog:
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.overlay = OverlayNone
		case key.Matches(msg, m.keys.Up):
			m.log.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.log.ScrollDown(1)
		}
		return m, nil
	default:
		if key.Matches(msg, m.keys.Escape) {
			m.overlay = OverlayNone
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Down):
		if n := m.dashboard.Len(); n > 0 {
			m.dashboard.Selected = (m.dashboard.Selected + 1) % n
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if n := m.dashboard.Len(); n > 0 {
			m.dashboard.Selected = (m.dashboard.Selected - 1 + n) % n
		}
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		row, ok := m.dashboard.Selection()
		if !ok || m.snapshot == nil {
			return m, nil
		}
		m.detail = detail.New(row, m.snapshot.History, m.now())
		m.overlay = OverlayDetail
		return m, nil

	case key.Matches(msg, m.keys.Matches):
		m.overlay = OverlayMatches
		m.matches.Loading = true
		return m, m.fetchMatches()

	case key.Matches(msg, m.keys.Log):
		m.overlay = OverlayLog
		return m, nil

	case key.Matches(msg, m.keys.CameraStat):
		return m, m.runCommand("!camerastats")

	case key.Matches(msg, m.keys.CameraDbg):
		return m, m.runCommand("!cameradebug")

	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(m.fetchStats(), m.fetchHealth())

	case key.Matches(msg, m.keys.Reconnect):
		if m.ws != nil {
			m.ws.Reconnect()
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleMatchesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.overlay = OverlayNone
	case key.Matches(msg, m.keys.Up):
		m.matches.Up()
	case key.Matches(msg, m.keys.Down):
		m.matches.Down()
	case key.Matches(msg, m.keys.Enter):
		if id, ok := m.matches.Current(); ok {
			return m, m.fetchMatchSessions(id)
		}
	}
	return m, nil
}

// refresh recomputes everything derived from the snapshot. Elapsed times
// move with the clock, so it runs on every tick as well.
func (m *Model) refresh() {
	if m.snapshot == nil {
		return
	}
	now := m.now()
	m.dashboard.SetSnapshot(m.snapshot, now)
	m.statusBar.SetCounts(len(m.snapshot.Active), len(m.snapshot.PendingOrphans))
	if m.overlay == OverlayDetail {
		if row, ok := m.rowFor(m.detail.Row.AdminID, now); ok {
			m.detail = detail.New(row, m.snapshot.History, now)
		}
	}
}

func (m Model) rowFor(adminID string, now time.Time) (dashboard.Row, bool) {
	for _, r := range dashboard.Rows(m.snapshot, now) {
		if r.AdminID == adminID {
			return r, true
		}
	}
	return dashboard.Row{}, false
}

func (m Model) fetchHealth() tea.Cmd {
	if m.http == nil {
		return nil
	}
	return func() tea.Msg {
		h, err := m.http.GetHealth(m.ctx)
		return healthMsg{health: h, err: err}
	}
}

func (m Model) fetchStats() tea.Cmd {
	if m.http == nil {
		return nil
	}
	return func() tea.Msg {
		s, err := m.http.GetStats(m.ctx)
		return statsMsg{stats: s, err: err}
	}
}

func (m Model) fetchMatches() tea.Cmd {
	if m.http == nil {
		return nil
	}
	return func() tea.Msg {
		list, err := m.http.GetMatches(m.ctx, matchesLimit)
		return matchesMsg{list: list, err: err}
	}
}

func (m Model) fetchMatchSessions(id int64) tea.Cmd {
	if m.http == nil {
		return nil
	}
	return func() tea.Msg {
		sessions, err := m.http.GetMatchSessions(m.ctx, id)
		return matchSessionsMsg{id: id, sessions: sessions, err: err}
	}
}

func (m Model) runCommand(text string) tea.Cmd {
	if m.http == nil || m.operator.EOSID == "" {
		return func() tea.Msg {
			return commandMsg{text: text, err: errNoOperator}
		}
	}
	return func() tea.Msg {
		replies, err := m.http.RunCommand(m.ctx, m.operator, text)
		return commandMsg{text: text, replies: replies, err: err}
	}
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var body string
	switch m.overlay {
	case OverlayDetail:
		body = m.detail.View()
	case OverlayMatches:
		body = m.matches.View(m.width, m.height-4)
	case OverlayLog:
		body = m.log.View(m.width, m.height-4)
	default:
		body = m.dashboard.View()
	}

	sections := []string{m.statusBar.View()}
	if !m.connected {
		sections = append(sections, m.disconnectBanner())
	}
	sections = append(sections,
		body,
		theme.StyleDimmed.Render("  j/k:navigate  enter:detail  m:matches  l:log  s:stats  d:debug  r:refresh  q:quit"),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) disconnectBanner() string {
	return lipgloss.NewStyle().
		Width(max(m.width-2, 20)).
		Align(lipgloss.Center).
		Bold(true).
		Foreground(theme.ColorDanger).
		Render("DISCONNECTED: Reconnecting to camwatch...")
}
