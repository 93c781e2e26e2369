package camera

import (
	"fmt"
	"sort"
	"time"
)

// Kind is the type of state change a Transition describes.
type Kind int

const (
	Entered Kind = iota
	Left
	OrphanClosed
)

var kindNames = map[Kind]string{
	Entered:      "entered",
	Left:         "left",
	OrphanClosed: "orphan_closed",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown transition kind %q", b)
}

// Reason explains why a transition did not notify or did not change state.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonDuplicate
	ReasonMissing
	ReasonCooldown
	ReasonIgnored
)

var reasonNames = map[Reason]string{
	ReasonNone:      "",
	ReasonDuplicate: "duplicate",
	ReasonMissing:   "missing",
	ReasonCooldown:  "cooldown",
	ReasonIgnored:   "ignored",
}

func (r Reason) String() string {
	return reasonNames[r]
}

func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Reason) UnmarshalText(b []byte) error {
	for reason, name := range reasonNames {
		if name == string(b) {
			*r = reason
			return nil
		}
	}
	return fmt.Errorf("unknown transition reason %q", b)
}

// Transition is the outcome of feeding one event to the Tracker. Session is a
// copy and is nil when nothing was tracked.
type Transition struct {
	Kind        Kind      `json:"kind"`
	Admin       Admin     `json:"admin"`
	At          time.Time `json:"at"`
	Session     *Session  `json:"session,omitempty"`
	ActiveCount int       `json:"activeCount"`
	FirstEntry  bool      `json:"firstEntry,omitempty"`
	LastExit    bool      `json:"lastExit,omitempty"`
	Tracked     bool      `json:"tracked"`
	Notify      bool      `json:"notify"`
	Reason      Reason    `json:"reason,omitempty"`
}

// Options controls the notification policy the Tracker applies. It may be
// replaced between events with SetOptions.
type Options struct {
	Cooldown       bool
	CooldownWindow time.Duration
	// TrackSuppressed keeps cooldown-suppressed entries in the session model
	// instead of dropping them.
	TrackSuppressed bool
	Ignore          *IgnoreFilter
}

type orphan struct {
	session        *Session
	disconnectedAt time.Time
	timer          Timer
	gen            uint64
}

// Tracker owns every piece of per-match camera state: the active set, the
// history, the cooldown table, the orphan registry and the aggregate stats.
// It is not safe for concurrent use; all calls, including scheduled orphan
// cleanups, must come from one goroutine.
type Tracker struct {
	opts  Options
	sched Scheduler

	active   map[string]*Session
	history  []*Session
	cooldown *Cooldown
	orphans  map[string]*orphan
	stats    Stats

	gen      uint64
	onOrphan func(Transition)
}

func NewTracker(opts Options, sched Scheduler) *Tracker {
	return &Tracker{
		opts:     opts,
		sched:    sched,
		active:   make(map[string]*Session),
		cooldown: NewCooldown(),
		orphans:  make(map[string]*orphan),
	}
}

// OnOrphanClosed registers the handler that receives transitions produced
// when a disconnect cleanup fires. Must be called before the first Disconnect.
func (t *Tracker) OnOrphanClosed(fn func(Transition)) {
	t.onOrphan = fn
}

func (t *Tracker) SetOptions(opts Options) {
	t.opts = opts
}

func (t *Tracker) Options() Options {
	return t.opts
}

// Enter handles an admin possessing the camera.
func (t *Tracker) Enter(admin Admin, now time.Time) Transition {
	tr := Transition{Kind: Entered, Admin: admin, At: now, ActiveCount: len(t.active)}

	if _, ok := t.active[admin.ID]; ok {
		tr.Reason = ReasonDuplicate
		return tr
	}

	ignored := t.opts.Ignore.Ignored(admin)
	suppressed := !ignored && t.opts.Cooldown &&
		t.cooldown.Suppressed(admin.ID, now, t.opts.CooldownWindow)
	if suppressed && !t.opts.TrackSuppressed {
		tr.Reason = ReasonCooldown
		return tr
	}

	wasEmpty := len(t.active) == 0
	s := newSession(admin, now)
	t.active[admin.ID] = s
	t.history = append(t.history, s)
	t.stats.TotalSessions++

	if len(t.active) > t.stats.PeakUsers {
		t.stats.PeakUsers = len(t.active)
		t.stats.PeakTime = timePtr(now)
	}
	if wasEmpty {
		t.stats.FirstEntryTime = timePtr(now)
	}

	tr.Tracked = true
	tr.Session = s.Clone()
	tr.ActiveCount = len(t.active)
	tr.FirstEntry = wasEmpty

	switch {
	case ignored:
		tr.Reason = ReasonIgnored
	case suppressed:
		tr.Reason = ReasonCooldown
	default:
		tr.Notify = true
		if t.opts.Cooldown {
			t.cooldown.Record(admin.ID, now)
		}
	}
	return tr
}

// Leave handles an admin releasing the camera. Leaving is never subject to
// cooldown; ignore-listed admins are closed normally but not notified.
func (t *Tracker) Leave(admin Admin, now time.Time) Transition {
	s, ok := t.active[admin.ID]
	if !ok {
		return Transition{Kind: Left, Admin: admin, At: now, ActiveCount: len(t.active), Reason: ReasonMissing}
	}
	t.cancelOrphan(admin.ID)

	tr := t.closeSession(s, now, false)
	tr.Kind = Left
	tr.Admin = mergeAdmin(s.Admin(), admin)
	if t.opts.Ignore.Ignored(tr.Admin) {
		tr.Reason = ReasonIgnored
	} else {
		tr.Notify = true
	}
	return tr
}

// Disconnect records that an admin with an open session lost connection.
// The session stays open; it is force-closed after timeout unless the admin
// reconnects or leaves first. A timeout of zero or less closes it at once.
// It reports whether a cleanup was scheduled.
func (t *Tracker) Disconnect(adminID string, now time.Time, timeout time.Duration) bool {
	s, ok := t.active[adminID]
	if !ok {
		return false
	}
	t.cancelOrphan(adminID)

	t.gen++
	o := &orphan{session: s, disconnectedAt: now, gen: t.gen}
	t.orphans[adminID] = o

	if timeout <= 0 || t.sched == nil {
		t.reconcileOrphan(adminID, o.gen)
		return true
	}
	gen := o.gen
	o.timer = t.sched.AfterFunc(timeout, func() {
		t.reconcileOrphan(adminID, gen)
	})
	return true
}

// Reconnect cancels a pending cleanup for the admin. The open session is
// left untouched. It reports whether a cleanup was pending.
func (t *Tracker) Reconnect(adminID string) bool {
	return t.cancelOrphan(adminID)
}

// PendingOrphans returns the admin IDs with a scheduled cleanup.
func (t *Tracker) PendingOrphans() []string {
	ids := make([]string, 0, len(t.orphans))
	for id := range t.orphans {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// reconcileOrphan force-closes the session captured at disconnect time. A
// call whose generation no longer matches the registry entry belongs to a
// cancelled or superseded timer and does nothing.
func (t *Tracker) reconcileOrphan(adminID string, gen uint64) {
	o, ok := t.orphans[adminID]
	if !ok || o.gen != gen {
		return
	}
	delete(t.orphans, adminID)

	s, ok := t.active[adminID]
	if !ok || s != o.session {
		return
	}

	tr := t.closeSession(s, o.disconnectedAt, true)
	tr.Kind = OrphanClosed
	tr.Admin = s.Admin()
	tr.Notify = !t.opts.Ignore.Ignored(tr.Admin)
	if !tr.Notify {
		tr.Reason = ReasonIgnored
	}
	t.stats.OrphanedSessions++
	t.stats.DisconnectCleanups++

	if t.onOrphan != nil {
		t.onOrphan(tr)
	}
}

func (t *Tracker) closeSession(s *Session, end time.Time, orphaned bool) Transition {
	s.close(end, orphaned)
	delete(t.active, s.AdminID)
	t.stats.TotalTimeMs += s.DurationMs
	t.stats.LastExitTime = timePtr(end)

	return Transition{
		At:          end,
		Session:     s.Clone(),
		ActiveCount: len(t.active),
		LastExit:    len(t.active) == 0,
		Tracked:     true,
	}
}

func (t *Tracker) cancelOrphan(adminID string) bool {
	o, ok := t.orphans[adminID]
	if !ok {
		return false
	}
	delete(t.orphans, adminID)
	if o.timer != nil {
		o.timer.Stop()
	}
	return true
}

// ResetForNewMatch discards all per-match state and stops pending cleanups.
func (t *Tracker) ResetForNewMatch() {
	for id := range t.orphans {
		t.cancelOrphan(id)
	}
	clear(t.active)
	t.history = nil
	t.cooldown.Reset()
	t.stats = Stats{}
}

func (t *Tracker) ActiveCount() int {
	return len(t.active)
}

// IsActive reports whether the admin has an open session.
func (t *Tracker) IsActive(adminID string) bool {
	_, ok := t.active[adminID]
	return ok
}

// Active returns copies of the open sessions ordered by start time.
func (t *Tracker) Active() []*Session {
	out := make([]*Session, 0, len(t.active))
	for _, s := range t.active {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].AdminID < out[j].AdminID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// History returns copies of every session opened this match, in order.
func (t *Tracker) History() []*Session {
	out := make([]*Session, len(t.history))
	for i, s := range t.history {
		out[i] = s.Clone()
	}
	return out
}

// Recent returns copies of the last n sessions of the match history.
func (t *Tracker) Recent(n int) []*Session {
	h := t.history
	if n < len(h) {
		h = h[len(h)-n:]
	}
	out := make([]*Session, len(h))
	for i, s := range h {
		out[i] = s.Clone()
	}
	return out
}

func (t *Tracker) Stats() Stats {
	return t.stats.clone()
}

// Snapshot is an immutable view of the tracker for readers on other
// goroutines.
type Snapshot struct {
	Taken          time.Time  `json:"taken"`
	Active         []*Session `json:"active"`
	History        []*Session `json:"history"`
	Stats          Stats      `json:"stats"`
	PendingOrphans []string   `json:"pendingOrphans,omitempty"`
}

func (t *Tracker) Snapshot(now time.Time) *Snapshot {
	return &Snapshot{
		Taken:          now,
		Active:         t.Active(),
		History:        t.History(),
		Stats:          t.Stats(),
		PendingOrphans: t.PendingOrphans(),
	}
}

// mergeAdmin fills identity fields the leave event did not carry from the
// ones captured at entry.
func mergeAdmin(stored, ev Admin) Admin {
	if ev.Name != "" {
		stored.Name = ev.Name
	}
	if ev.SteamID != "" {
		stored.SteamID = ev.SteamID
	}
	return stored
}
