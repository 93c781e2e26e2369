// Package watcher wires host events to the camera tracker and the
// notification dispatcher.
package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/admincam/camwatch/internal/admins"
	"github.com/admincam/camwatch/internal/archive"
	"github.com/admincam/camwatch/internal/camera"
	"github.com/admincam/camwatch/internal/config"
	"github.com/admincam/camwatch/internal/events"
	"github.com/admincam/camwatch/internal/ignorelist"
	"github.com/admincam/camwatch/internal/logger"
	"github.com/admincam/camwatch/internal/notify"
	"github.com/admincam/camwatch/internal/ws"
)

// Directory answers admin questions for chat commands and is told when the
// player roster changes.
type Directory interface {
	IsAdmin(a camera.Admin) (bool, error)
	Counts(ctx context.Context) (admins.Counts, error)
	Invalidate()
}

// IgnoreStore is the runtime ignore list edited by !cameraignore.
type IgnoreStore interface {
	camera.IDSource
	Entries() []ignorelist.Entry
	Add(id, addedBy string, now time.Time) (bool, error)
	Remove(id string) (bool, error)
}

type Archiver interface {
	SaveMatch(ctx context.Context, m archive.Match) (int64, error)
}

// Publisher receives state for the live feed.
type Publisher interface {
	Publish(snap *camera.Snapshot)
	QueueTransition(tr camera.Transition, res notify.Result)
	QueueMatchEnd(p ws.MatchEndPayload)
}

// Deps are the watcher's collaborators. Any of them may be left nil, which
// disables the behaviour that needs it.
type Deps struct {
	Warner    notify.Warner
	Embeds    notify.EmbedSender
	Lister    notify.AdminLister
	Directory Directory
	Ignore    IgnoreStore
	Archive   Archiver
	Publisher Publisher
	// Scheduler runs orphan cleanups. Defaults to the event loop.
	Scheduler camera.Scheduler
}

type matchInfo struct {
	layer     string
	winner    string
	startedAt time.Time
}

// Watcher owns the tracker. Every method except Reload and RunCommand must
// be called on the event loop goroutine; those two hop onto it themselves.
type Watcher struct {
	loop     *events.Loop
	cfg      *config.Config
	deps     Deps
	tracker  *camera.Tracker
	dispatch *notify.Dispatcher
	match    matchInfo
	now      func() time.Time
	log      *slog.Logger
}

// New builds a Watcher and registers its handlers on loop. It must be called
// before loop.Run.
func New(cfg *config.Config, loop *events.Loop, deps Deps) *Watcher {
	w := &Watcher{
		loop: loop,
		cfg:  cfg,
		deps: deps,
		now:  time.Now,
		log:  logger.With("component", "watcher"),
	}

	sched := deps.Scheduler
	if sched == nil {
		sched = events.Scheduler{Loop: loop}
	}
	w.tracker = camera.NewTracker(w.options(cfg), sched)
	w.tracker.OnOrphanClosed(w.onOrphanClosed)
	w.dispatch = notify.New(notify.SettingsFrom(cfg), deps.Warner, deps.Embeds, deps.Lister)

	loop.On(events.CameraEnter, w.onCameraEnter)
	loop.On(events.CameraLeave, w.onCameraLeave)
	loop.On(events.PlayerConnected, w.onPlayerConnected)
	loop.On(events.PlayerDisconnected, w.onPlayerDisconnected)
	loop.On(events.MatchEnded, w.onMatchEnded)
	loop.On(events.NewMatch, w.onNewMatch)
	loop.On(events.ChatCommand, w.onChatCommand)
	loop.After(w.publish)
	return w
}

func (w *Watcher) options(cfg *config.Config) camera.Options {
	n := cfg.Notifications
	eos := []camera.IDSource{camera.StaticIDs(cfg.Ignore.EOSIDs)}
	steam := []camera.IDSource{camera.StaticIDs(cfg.Ignore.SteamIDs)}
	if w.deps.Ignore != nil {
		// Runtime entries may be either kind of ID.
		eos = append(eos, w.deps.Ignore)
		steam = append(steam, w.deps.Ignore)
	}
	return camera.Options{
		Cooldown:        n.Cooldown,
		CooldownWindow:  n.CooldownWindow,
		TrackSuppressed: n.TrackSuppressed,
		Ignore: &camera.IgnoreFilter{
			Enabled:  cfg.Ignore.Enabled,
			EOSIDs:   eos,
			SteamIDs: steam,
		},
	}
}

// Reload applies a new configuration between events. It reports false if the
// loop has stopped.
func (w *Watcher) Reload(cfg *config.Config) bool {
	return w.loop.Do(func() {
		w.cfg = cfg
		w.tracker.SetOptions(w.options(cfg))
		w.dispatch.SetSettings(notify.SettingsFrom(cfg))
		w.log.Info("configuration reloaded")
	})
}

// Close archives the match in progress. It runs on the loop and returns
// once the archive write has finished.
func (w *Watcher) Close(ctx context.Context) error {
	done := make(chan struct{})
	if !w.loop.Do(func() {
		defer close(done)
		w.archiveMatch(ctx, w.now())
	}) {
		return events.ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Watcher) eventTime(ev events.Event) time.Time {
	if ev.Time.IsZero() {
		return w.now()
	}
	return ev.Time
}

func adminFrom(p events.Player) camera.Admin {
	return camera.Admin{ID: p.EOSID, SteamID: p.SteamID, Name: p.Name}
}

func (w *Watcher) onCameraEnter(ctx context.Context, ev events.Event) {
	if ev.Player.EOSID == "" {
		w.log.Warn("camera entry without player ID", "name", ev.Player.Name)
		return
	}
	w.deliver(ctx, w.tracker.Enter(adminFrom(ev.Player), w.eventTime(ev)))
}

func (w *Watcher) onCameraLeave(ctx context.Context, ev events.Event) {
	if ev.Player.EOSID == "" {
		return
	}
	w.deliver(ctx, w.tracker.Leave(adminFrom(ev.Player), w.eventTime(ev)))
}

func (w *Watcher) deliver(ctx context.Context, tr camera.Transition) {
	switch tr.Reason {
	case camera.ReasonDuplicate, camera.ReasonMissing:
		w.log.Debug("camera event ignored", "kind", tr.Kind.String(), "admin", tr.Admin.Name, "reason", tr.Reason.String())
		return
	}
	res := w.dispatch.Dispatch(ctx, tr, w.tracker.Active())
	if w.deps.Publisher != nil {
		w.deps.Publisher.QueueTransition(tr, res)
	}
}

func (w *Watcher) onOrphanClosed(tr camera.Transition) {
	w.log.Info("orphaned camera session closed",
		"admin", tr.Admin.Name,
		"id", tr.Admin.ID,
		"duration", tr.Session.Duration,
	)
	// Cleanups fire outside any event, so there is no request context.
	w.deliver(context.Background(), tr)
	w.publish(context.Background(), events.Event{})
}

func (w *Watcher) onPlayerConnected(_ context.Context, ev events.Event) {
	if w.deps.Directory != nil {
		w.deps.Directory.Invalidate()
	}
	if w.tracker.Reconnect(ev.Player.EOSID) {
		w.log.Info("admin reconnected; camera cleanup cancelled", "admin", ev.Player.Name, "id", ev.Player.EOSID)
	}
}

func (w *Watcher) onPlayerDisconnected(_ context.Context, ev events.Event) {
	if w.deps.Directory != nil {
		w.deps.Directory.Invalidate()
	}
	n := w.cfg.Notifications
	if !n.DisconnectTracking {
		return
	}
	if w.tracker.Disconnect(ev.Player.EOSID, w.eventTime(ev), n.DisconnectTimeout) {
		w.log.Info("admin disconnected while in camera",
			"id", ev.Player.EOSID,
			"timeout", n.DisconnectTimeout.String(),
		)
	}
}

func (w *Watcher) onMatchEnded(ctx context.Context, ev events.Event) {
	w.match.winner = ev.Winner
	snap := w.tracker.Snapshot(w.eventTime(ev))
	if w.dispatch.Summary(ctx, snap) {
		w.log.Info("session summary sent", "sessions", snap.Stats.TotalSessions)
	}
	if w.deps.Publisher != nil {
		w.deps.Publisher.QueueMatchEnd(ws.MatchEndPayload{
			Layer:  w.match.layer,
			Winner: ev.Winner,
			Stats:  snap.Stats,
		})
	}
}

func (w *Watcher) onNewMatch(ctx context.Context, ev events.Event) {
	at := w.eventTime(ev)
	w.archiveMatch(ctx, at)
	w.tracker.ResetForNewMatch()
	w.match = matchInfo{layer: ev.Layer, startedAt: at}
	w.log.Info("new match; camera tracking reset", "layer", ev.Layer)
}

// archiveMatch writes the current match to the archive. Matches without any
// camera session are not stored.
func (w *Watcher) archiveMatch(ctx context.Context, end time.Time) {
	if w.deps.Archive == nil {
		return
	}
	history := w.tracker.History()
	if len(history) == 0 {
		return
	}
	start := w.match.startedAt
	if start.IsZero() {
		start = history[0].StartTime
	}
	id, err := w.deps.Archive.SaveMatch(ctx, archive.Match{
		Layer:     w.match.layer,
		Winner:    w.match.winner,
		StartedAt: start,
		EndedAt:   end,
		Stats:     w.tracker.Stats(),
		Sessions:  history,
	})
	if err != nil {
		w.log.Error("archiving match", "error", err)
		return
	}
	w.log.Info("match archived", "id", id, "sessions", len(history))
}

func (w *Watcher) publish(context.Context, events.Event) {
	if w.deps.Publisher == nil {
		return
	}
	w.deps.Publisher.Publish(w.tracker.Snapshot(w.now()))
}
