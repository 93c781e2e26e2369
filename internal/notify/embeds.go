package notify

import (
	"fmt"
	"strings"

	"github.com/admincam/camwatch/internal/camera"
)

const recentSessions = 5

func (d *Dispatcher) baseEmbed(title string, color int) Embed {
	footer := d.set.ServerName
	if footer == "" {
		footer = "Squad Server"
	}
	return Embed{
		Title:     title,
		Color:     color,
		Timestamp: d.now(),
		Footer:    footer,
	}
}

func (d *Dispatcher) enterEmbed(v Vars) Embed {
	e := d.baseEmbed("📹 Admin Camera Activated", d.set.Discord.EnterColor)
	e.Description = fmt.Sprintf("**%s** entered admin camera\n**Active Admins:** %d", v.Admin, v.Count)
	e.PingRole = true
	return e
}

func (d *Dispatcher) leaveEmbed(v Vars) Embed {
	e := d.baseEmbed("📹 Admin Camera Deactivated", d.set.Discord.LeaveColor)
	if v.Duration != "" {
		e.Description = fmt.Sprintf("**%s** left admin camera after **%s**\n**Active Admins:** %d", v.Admin, v.Duration, v.Count)
	} else {
		e.Description = fmt.Sprintf("**%s** left admin camera\n**Active Admins:** %d", v.Admin, v.Count)
	}
	e.PingRole = true
	return e
}

func (d *Dispatcher) orphanEmbed(v Vars) Embed {
	e := d.baseEmbed("⚠️ Admin Camera Session Orphaned", d.set.Discord.OrphanColor)
	e.Description = fmt.Sprintf("**%s** disconnected while in admin camera. Session closed after **%s**\n**Active Admins:** %d", v.Admin, v.Duration, v.Count)
	e.PingRole = true
	return e
}

func (d *Dispatcher) firstEntryEmbed(v Vars) Embed {
	e := d.baseEmbed("🚨 ADMIN CAMERA ACTIVATED", d.set.Discord.EnterColor)
	e.Description = Render(d.set.Messages.FirstEntry, v)
	e.PingRole = true
	return e
}

func (d *Dispatcher) lastExitEmbed(v Vars) Embed {
	e := d.baseEmbed("✅ ADMIN CAMERA DEACTIVATED", d.set.Discord.LeaveColor)
	e.Description = Render(d.set.Messages.LastExit, v)
	e.PingRole = true
	return e
}

func (d *Dispatcher) summaryEmbed(snap *camera.Snapshot) Embed {
	e := d.baseEmbed("📹 Admin Camera Session Summary", d.set.Discord.SummaryColor)
	st := snap.Stats

	stats := fmt.Sprintf("**Total Sessions:** %d\n**Total Time:** %s\n**Peak Users:** %d",
		st.TotalSessions, camera.FormatDuration(st.TotalTimeMs), st.PeakUsers)
	if st.OrphanedSessions > 0 {
		stats += fmt.Sprintf("\n**Orphaned:** %d", st.OrphanedSessions)
	}
	e.Fields = append(e.Fields, Field{Name: "📊 Session Statistics", Value: stats, Inline: true})

	if len(snap.Active) > 0 {
		names := make([]string, len(snap.Active))
		for i, s := range snap.Active {
			names[i] = s.Name
		}
		e.Fields = append(e.Fields, Field{Name: "👥 Currently Active", Value: strings.Join(names, ", "), Inline: true})
	}

	hist := snap.History
	if len(hist) > recentSessions {
		hist = hist[len(hist)-recentSessions:]
	}
	lines := make([]string, 0, len(hist))
	for _, s := range hist {
		dur := s.Duration
		if s.IsOpen() {
			dur = "Active"
		}
		lines = append(lines, fmt.Sprintf("**%s** - %s", s.Name, dur))
	}
	if len(lines) > 0 {
		e.Fields = append(e.Fields, Field{Name: "🕒 Recent Sessions", Value: strings.Join(lines, "\n")})
	}
	return e
}
