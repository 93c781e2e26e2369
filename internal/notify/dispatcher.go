package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/admincam/camwatch/internal/camera"
	"github.com/admincam/camwatch/internal/config"
	"github.com/admincam/camwatch/internal/logger"
)

const sendTimeout = 10 * time.Second

// Settings is the slice of configuration the dispatcher reads.
type Settings struct {
	Notifications config.NotificationsConfig
	Messages      config.MessagesConfig
	Discord       config.DiscordConfig
	ServerName    string
}

func SettingsFrom(cfg *config.Config) Settings {
	return Settings{
		Notifications: cfg.Notifications,
		Messages:      cfg.Messages,
		Discord:       cfg.Discord,
		ServerName:    cfg.Squad.ServerName,
	}
}

// Result counts what one Dispatch call delivered.
type Result struct {
	Warned   int  `json:"warned"`
	Failed   int  `json:"failed"`
	Embeds   int  `json:"embeds"`
	Stealthy bool `json:"stealthy,omitempty"`
}

// Dispatcher decides which notifications a transition produces and sends
// them. Every send is independent; a failure is logged and the remaining
// recipients still get their message. Tracked state is never touched.
type Dispatcher struct {
	warner Warner
	embeds EmbedSender
	admins AdminLister
	set    Settings
	now    func() time.Time
	log    *slog.Logger
}

// New creates a Dispatcher. Any collaborator may be nil, which disables the
// notifications that need it.
func New(set Settings, warner Warner, embeds EmbedSender, admins AdminLister) *Dispatcher {
	return &Dispatcher{
		warner: warner,
		embeds: embeds,
		admins: admins,
		set:    set,
		now:    time.Now,
		log:    logger.With("component", "notify"),
	}
}

// SetSettings replaces the settings. Call from the same goroutine as Dispatch.
func (d *Dispatcher) SetSettings(set Settings) {
	d.set = set
}

func (d *Dispatcher) Settings() Settings {
	return d.set
}

// Dispatch sends everything tr calls for. active is the tracker's open
// sessions after the transition.
func (d *Dispatcher) Dispatch(ctx context.Context, tr camera.Transition, active []*camera.Session) Result {
	var res Result
	n := d.set.Notifications

	if !tr.Notify {
		if tr.Kind == camera.Entered && (tr.Reason == camera.ReasonCooldown || tr.Reason == camera.ReasonIgnored) {
			res.Stealthy = d.stealthNotice(ctx, tr, &res)
		}
		d.log.Debug("notification suppressed", "admin", tr.Admin.Name, "kind", tr.Kind.String(), "reason", tr.Reason.String())
		return res
	}

	vars := Vars{Admin: tr.Admin.Name, Count: tr.ActiveCount}
	if tr.Session != nil {
		vars.Duration = tr.Session.Duration
	}

	switch tr.Kind {
	case camera.Entered:
		if tr.FirstEntry && n.FirstEntry && d.channel() {
			d.sendEmbed(ctx, d.firstEntryEmbed(vars), &res)
		}
		if n.InGameWarnings {
			d.warnAdmins(ctx, tr.Admin, active, d.enterMessages(vars), &res)
		}
		if n.Discord {
			d.sendEmbed(ctx, d.enterEmbed(vars), &res)
		}

	case camera.Left:
		if tr.LastExit && n.LastExit && d.channel() {
			d.sendEmbed(ctx, d.lastExitEmbed(vars), &res)
		}
		if n.InGameWarnings {
			d.warnAdmins(ctx, tr.Admin, active, d.leaveMessages(vars), &res)
		}
		if n.Discord {
			d.sendEmbed(ctx, d.leaveEmbed(vars), &res)
		}

	case camera.OrphanClosed:
		if tr.LastExit && n.LastExit && d.channel() {
			d.sendEmbed(ctx, d.lastExitEmbed(vars), &res)
		}
		if n.InGameWarnings {
			// The admin is gone, so there is no one to confirm to.
			msgs := messages{general: Render(d.set.Messages.Orphaned, vars)}
			d.warnAdmins(ctx, camera.Admin{}, active, msgs, &res)
		}
		if n.Discord {
			d.sendEmbed(ctx, d.orphanEmbed(vars), &res)
		}
	}

	d.log.Info("camera notification",
		"kind", tr.Kind.String(),
		"admin", tr.Admin.Name,
		"active", tr.ActiveCount,
		"warned", res.Warned,
		"failed", res.Failed,
		"embeds", res.Embeds,
	)
	return res
}

// channel reports whether a Discord channel is configured. The first-entry
// and last-exit specials only need a channel; the per-event embeds also need
// notifications.discord.
func (d *Dispatcher) channel() bool {
	return d.set.Discord.ChannelConfigured()
}

type messages struct {
	general      string
	confirmation string
}

func (d *Dispatcher) enterMessages(v Vars) messages {
	m := messages{general: Render(d.set.Messages.Enter, v)}
	if d.set.Notifications.Confirmations {
		m.confirmation = Render(d.set.Messages.EnterConfirmation, v)
	}
	return m
}

func (d *Dispatcher) leaveMessages(v Vars) messages {
	msg := d.set.Messages
	withDuration := v.Duration != "" && d.set.Notifications.IncludeDuration

	var m messages
	if withDuration {
		m.general = Render(msg.LeaveWithDuration, v)
	} else {
		m.general = Render(msg.Leave, v)
	}
	if d.set.Notifications.Confirmations {
		if withDuration {
			m.confirmation = Render(msg.LeaveConfirmationWithDuration, v)
		} else {
			m.confirmation = Render(msg.LeaveConfirmation, v)
		}
	}
	return m
}

// warnAdmins sends the general message to every eligible admin, replacing it
// with the confirmation for the admin who triggered the event.
func (d *Dispatcher) warnAdmins(ctx context.Context, trigger camera.Admin, active []*camera.Session, m messages, res *Result) {
	if d.warner == nil || d.admins == nil {
		return
	}
	recipients, err := d.admins.EligibleAdmins(ctx)
	if err != nil {
		d.log.Error("listing admins", "error", err)
		return
	}
	if d.set.Notifications.WarnOnlyInCamera {
		recipients = onlyInCamera(recipients, active, trigger)
	}
	if len(recipients) == 0 {
		d.log.Debug("no admins to warn", "permission", d.set.Notifications.AdminPermission)
		return
	}

	for _, a := range recipients {
		text := m.general
		if trigger.ID != "" && a.ID == trigger.ID && m.confirmation != "" {
			text = m.confirmation
		}
		if err := d.warn(ctx, a.ID, text); err != nil {
			res.Failed++
			d.log.Warn("failed to warn admin", "admin", a.Name, "id", a.ID, "error", err)
			continue
		}
		res.Warned++
	}
}

func onlyInCamera(admins []camera.Admin, active []*camera.Session, trigger camera.Admin) []camera.Admin {
	in := make(map[string]bool, len(active)+1)
	for _, s := range active {
		in[s.AdminID] = true
	}
	if trigger.ID != "" {
		in[trigger.ID] = true
	}
	out := admins[:0:0]
	for _, a := range admins {
		if in[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

func (d *Dispatcher) stealthNotice(ctx context.Context, tr camera.Transition, res *Result) bool {
	n := d.set.Notifications
	if !n.StealthNotices || !n.InGameWarnings || d.warner == nil {
		return false
	}
	tmpl := d.set.Messages.CooldownNotice
	if tr.Reason == camera.ReasonIgnored {
		tmpl = d.set.Messages.IgnoredNotice
	}
	if tmpl == "" {
		return false
	}
	text := Render(tmpl, Vars{Admin: tr.Admin.Name, Count: tr.ActiveCount})
	if err := d.warn(ctx, tr.Admin.ID, text); err != nil {
		res.Failed++
		d.log.Warn("failed to send stealth notice", "admin", tr.Admin.Name, "error", err)
		return false
	}
	res.Warned++
	return true
}

func (d *Dispatcher) warn(ctx context.Context, id, text string) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return d.warner.Warn(ctx, id, text)
}

func (d *Dispatcher) sendEmbed(ctx context.Context, e Embed, res *Result) {
	if d.embeds == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := d.embeds.SendEmbed(ctx, e); err != nil {
		res.Failed++
		d.log.Warn("failed to send discord embed", "title", e.Title, "error", err)
		return
	}
	res.Embeds++
}

// Summary posts the end-of-round session summary. It does nothing when
// summaries are disabled or no session was opened this match.
func (d *Dispatcher) Summary(ctx context.Context, snap *camera.Snapshot) bool {
	if !d.set.Notifications.SessionSummary || len(snap.History) == 0 {
		return false
	}
	var res Result
	d.sendEmbed(ctx, d.summaryEmbed(snap), &res)
	return res.Embeds == 1
}

// Test walks an admin through a simulated entry notification.
func (d *Dispatcher) Test(ctx context.Context, caller camera.Admin) Result {
	var res Result
	if d.warner == nil {
		return res
	}
	sample := Render(d.set.Messages.Enter, Vars{Admin: "TestAdmin", Count: 1})
	if err := d.warn(ctx, caller.ID, "Testing admin camera warnings: "+sample); err != nil {
		d.log.Warn("camera test failed", "admin", caller.Name, "error", err)
		res.Failed++
		return res
	}
	d.warnAdmins(ctx, caller, nil, d.enterMessages(Vars{Admin: caller.Name, Count: 1}), &res)
	if err := d.warn(ctx, caller.ID, "Admin camera test completed!"); err != nil {
		res.Failed++
	}
	return res
}

// Reply sends a command response to one player.
func (d *Dispatcher) Reply(ctx context.Context, playerID string, lines ...string) error {
	if d.warner == nil {
		return fmt.Errorf("no in-game transport configured")
	}
	return d.warn(ctx, playerID, strings.Join(lines, "\n"))
}
