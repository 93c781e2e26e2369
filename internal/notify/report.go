package notify

import (
	"fmt"
	"strconv"
	"time"

	"github.com/admincam/camwatch/internal/camera"
)

// StatsLines renders the camera statistics an admin sees after !camerastats.
func (d *Dispatcher) StatsLines(snap *camera.Snapshot) []string {
	st := snap.Stats
	peak := "N/A"
	if st.PeakTime != nil {
		peak = st.PeakTime.UTC().Format(time.TimeOnly)
	}

	lines := []string{
		"=== ADMIN CAMERA STATISTICS ===",
		"Active Sessions: " + strconv.Itoa(len(snap.Active)),
		"Total Sessions: " + strconv.Itoa(st.TotalSessions),
		"Total Time: " + camera.FormatDuration(st.TotalTimeMs),
		"Peak Users: " + strconv.Itoa(st.PeakUsers),
		"Peak Time: " + peak,
	}
	if st.OrphanedSessions > 0 {
		lines = append(lines, "Orphaned Sessions: "+strconv.Itoa(st.OrphanedSessions))
	}
	lines = append(lines, "", "=== ACTIVE ADMINS ===")

	if len(snap.Active) == 0 {
		return append(lines, "No active sessions")
	}
	now := snap.Taken
	if now.IsZero() {
		now = d.now()
	}
	for _, s := range snap.Active {
		lines = append(lines, fmt.Sprintf("%s - %s", s.Name, camera.FormatDuration(s.Elapsed(now).Milliseconds())))
	}
	return lines
}

// DebugCounts is the admin coverage shown by !cameradebug.
type DebugCounts struct {
	WithPermission int
	OnlinePlayers  int
	OnlineAdmins   int
}

// DebugLines renders the effective notification settings and admin coverage.
// A nil counts means the roster could not be read.
func (d *Dispatcher) DebugLines(counts *DebugCounts, ignored int) []string {
	n := d.set.Notifications
	lines := []string{
		"=== ADMIN CAMERA DEBUG ===",
		fmt.Sprintf("Enable In-Game Warnings: %t", n.InGameWarnings),
		fmt.Sprintf("Enable Discord Notifications: %t", n.Discord && d.set.Discord.ChannelConfigured()),
		fmt.Sprintf("Enable Cooldown: %t", n.Cooldown),
		fmt.Sprintf("Cooldown Seconds: %d", int(n.CooldownWindow/time.Second)),
		fmt.Sprintf("Enable Confirmation Messages: %t", n.Confirmations),
		fmt.Sprintf("Disconnect Timeout: %s", n.DisconnectTimeout),
		fmt.Sprintf("Ignored IDs: %d", ignored),
		"",
		"=== PERMISSIONS ===",
	}
	if counts == nil {
		return append(lines, "Admin roster unavailable")
	}
	return append(lines,
		fmt.Sprintf("Total Admins: %d", counts.WithPermission),
		fmt.Sprintf("Online Players: %d", counts.OnlinePlayers),
		fmt.Sprintf("Online Admins: %d", counts.OnlineAdmins),
	)
}
