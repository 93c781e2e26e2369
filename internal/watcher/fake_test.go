package watcher

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/admincam/camwatch/internal/admins"
	"github.com/admincam/camwatch/internal/archive"
	"github.com/admincam/camwatch/internal/camera"
	"github.com/admincam/camwatch/internal/config"
	"github.com/admincam/camwatch/internal/events"
	"github.com/admincam/camwatch/internal/ignorelist"
	"github.com/admincam/camwatch/internal/notify"
	"github.com/admincam/camwatch/internal/ws"
)

type warning struct {
	id   string
	text string
}

type fakeWarner struct {
	mu   sync.Mutex
	sent []warning
}

func (f *fakeWarner) Warn(_ context.Context, id, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, warning{id, text})
	return nil
}

func (f *fakeWarner) textFor(id string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, w := range f.sent {
		if w.id == id {
			out = append(out, w.text)
		}
	}
	return out
}

type fakeEmbeds struct {
	sent []notify.Embed
}

func (f *fakeEmbeds) SendEmbed(_ context.Context, e notify.Embed) error {
	f.sent = append(f.sent, e)
	return nil
}

func (f *fakeEmbeds) titles() []string {
	out := make([]string, len(f.sent))
	for i, e := range f.sent {
		out[i] = e.Title
	}
	return out
}

// fakeDirectory serves both as the notify.AdminLister and the Directory.
type fakeDirectory struct {
	online      []camera.Admin
	invalidated int
	countsErr   error
}

func (f *fakeDirectory) EligibleAdmins(context.Context) ([]camera.Admin, error) {
	return f.online, nil
}

func (f *fakeDirectory) IsAdmin(a camera.Admin) (bool, error) {
	for _, o := range f.online {
		if o.ID == a.ID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDirectory) Counts(context.Context) (admins.Counts, error) {
	if f.countsErr != nil {
		return admins.Counts{}, f.countsErr
	}
	return admins.Counts{WithPermission: len(f.online), OnlinePlayers: 50, OnlineAdmins: len(f.online)}, nil
}

func (f *fakeDirectory) Invalidate() { f.invalidated++ }

type memIgnore struct {
	entries map[string]ignorelist.Entry
	failAdd bool
}

func newMemIgnore() *memIgnore {
	return &memIgnore{entries: make(map[string]ignorelist.Entry)}
}

func (m *memIgnore) IDs() []string {
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *memIgnore) Entries() []ignorelist.Entry {
	out := make([]ignorelist.Entry, 0, len(m.entries))
	for _, id := range m.IDs() {
		out = append(out, m.entries[id])
	}
	return out
}

func (m *memIgnore) Add(id, addedBy string, now time.Time) (bool, error) {
	if m.failAdd {
		return false, errors.New("disk full")
	}
	if _, ok := m.entries[id]; ok {
		return false, nil
	}
	m.entries[id] = ignorelist.Entry{ID: id, AddedBy: addedBy, AddedAt: now}
	return true, nil
}

func (m *memIgnore) Remove(id string) (bool, error) {
	if _, ok := m.entries[id]; !ok {
		return false, nil
	}
	delete(m.entries, id)
	return true, nil
}

type fakeArchive struct {
	matches []archive.Match
}

func (f *fakeArchive) SaveMatch(_ context.Context, m archive.Match) (int64, error) {
	f.matches = append(f.matches, m)
	return int64(len(f.matches)), nil
}

type fakePublisher struct {
	mu          sync.Mutex
	snaps       []*camera.Snapshot
	transitions []camera.Transition
	matchEnds   []ws.MatchEndPayload
}

func (f *fakePublisher) Publish(s *camera.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snaps = append(f.snaps, s)
}

func (f *fakePublisher) QueueTransition(tr camera.Transition, _ notify.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitions = append(f.transitions, tr)
}

func (f *fakePublisher) QueueMatchEnd(p ws.MatchEndPayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matchEnds = append(f.matchEnds, p)
}

func (f *fakePublisher) last() *camera.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.snaps) == 0 {
		return nil
	}
	return f.snaps[len(f.snaps)-1]
}

// fakeScheduler holds cleanups until the test fires them.
type fakeScheduler struct {
	timers []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) camera.Timer {
	t := &fakeTimer{d: d, fn: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) fireAll() {
	for _, t := range s.timers {
		if !t.stopped {
			t.stopped = true
			t.fn()
		}
	}
}

var (
	t0    = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	alice = camera.Admin{ID: "0002aaaa", SteamID: "76561198000000001", Name: "Alice"}
	bob   = camera.Admin{ID: "0002bbbb", SteamID: "76561198000000002", Name: "Bob"}
	eve   = camera.Admin{ID: "0002eeee", Name: "Eve"}
)

type harness struct {
	w      *Watcher
	loop   *events.Loop
	warner *fakeWarner
	embeds *fakeEmbeds
	dir    *fakeDirectory
	ignore *memIgnore
	arch   *fakeArchive
	pub    *fakePublisher
	sched  *fakeScheduler
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Discord.ChannelID = "123"
	cfg.Squad.ServerName = "Test Server"
	return cfg
}

func newHarness(cfg *config.Config) *harness {
	h := &harness{
		loop:   events.NewLoop(16),
		warner: &fakeWarner{},
		embeds: &fakeEmbeds{},
		dir:    &fakeDirectory{online: []camera.Admin{alice, bob}},
		ignore: newMemIgnore(),
		arch:   &fakeArchive{},
		pub:    &fakePublisher{},
		sched:  &fakeScheduler{},
	}
	h.w = New(cfg, h.loop, Deps{
		Warner:    h.warner,
		Embeds:    h.embeds,
		Lister:    h.dir,
		Directory: h.dir,
		Ignore:    h.ignore,
		Archive:   h.arch,
		Publisher: h.pub,
		Scheduler: h.sched,
	})
	h.w.now = func() time.Time { return t0.Add(time.Hour) }
	return h
}

func player(a camera.Admin) events.Player {
	return events.Player{EOSID: a.ID, SteamID: a.SteamID, Name: a.Name}
}

// send runs ev through the registered handlers the way the loop would.
func (h *harness) send(ev events.Event) {
	ctx := context.Background()
	switch ev.Kind {
	case events.CameraEnter:
		h.w.onCameraEnter(ctx, ev)
	case events.CameraLeave:
		h.w.onCameraLeave(ctx, ev)
	case events.PlayerConnected:
		h.w.onPlayerConnected(ctx, ev)
	case events.PlayerDisconnected:
		h.w.onPlayerDisconnected(ctx, ev)
	case events.MatchEnded:
		h.w.onMatchEnded(ctx, ev)
	case events.NewMatch:
		h.w.onNewMatch(ctx, ev)
	case events.ChatCommand:
		h.w.onChatCommand(ctx, ev)
	}
	h.w.publish(ctx, ev)
}

func (h *harness) enter(a camera.Admin, d time.Duration) {
	h.send(events.Event{Kind: events.CameraEnter, Time: t0.Add(d), Player: player(a)})
}

func (h *harness) leave(a camera.Admin, d time.Duration) {
	h.send(events.Event{Kind: events.CameraLeave, Time: t0.Add(d), Player: player(a)})
}

func (h *harness) chat(a camera.Admin, text string) {
	c, ok := events.ParseChat("ChatAdmin", text)
	if !ok {
		panic("not a command: " + text)
	}
	h.send(events.Event{Kind: events.ChatCommand, Player: player(a), Chat: &c})
}
