package camera

import "time"

// Admin identifies a player who can possess the admin camera. ID is the
// player's EOS ID and is the key for every per-admin table in the tracker.
type Admin struct {
	ID      string `json:"id"`
	SteamID string `json:"steamId,omitempty"`
	Name    string `json:"name"`
}

// Session is one continuous interval an admin spent in admin camera.
type Session struct {
	AdminID    string     `json:"adminId"`
	SteamID    string     `json:"steamId,omitempty"`
	Name       string     `json:"name"`
	StartTime  time.Time  `json:"startTime"`
	EndTime    *time.Time `json:"endTime,omitempty"`
	DurationMs int64      `json:"durationMs"`
	Duration   string     `json:"duration,omitempty"`
	Orphaned   bool       `json:"orphaned,omitempty"`
}

func newSession(admin Admin, now time.Time) *Session {
	return &Session{
		AdminID:   admin.ID,
		SteamID:   admin.SteamID,
		Name:      admin.Name,
		StartTime: now,
	}
}

// Admin returns the identity the session was opened for.
func (s *Session) Admin() Admin {
	return Admin{ID: s.AdminID, SteamID: s.SteamID, Name: s.Name}
}

// IsOpen reports whether the session has not been closed yet.
func (s *Session) IsOpen() bool {
	return s.EndTime == nil
}

// Elapsed returns the closed duration, or the time since start for an open
// session.
func (s *Session) Elapsed(now time.Time) time.Duration {
	if s.EndTime != nil {
		return time.Duration(s.DurationMs) * time.Millisecond
	}
	return now.Sub(s.StartTime)
}

// close stamps the end of the session. It is called at most once.
func (s *Session) close(end time.Time, orphaned bool) {
	t := end
	s.EndTime = &t
	s.DurationMs = end.Sub(s.StartTime).Milliseconds()
	if s.DurationMs < 0 {
		s.DurationMs = 0
	}
	s.Duration = FormatDuration(s.DurationMs)
	s.Orphaned = orphaned
}

// Clone returns a deep copy of the Session so callers can hold it without
// observing later mutation.
func (s *Session) Clone() *Session {
	c := *s
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	return &c
}

// Stats aggregates camera activity for the current match. Counters only grow
// until ResetForNewMatch zeroes them.
type Stats struct {
	TotalSessions      int        `json:"totalSessions"`
	TotalTimeMs        int64      `json:"totalTimeMs"`
	PeakUsers          int        `json:"peakUsers"`
	PeakTime           *time.Time `json:"peakTime,omitempty"`
	FirstEntryTime     *time.Time `json:"firstEntryTime,omitempty"`
	LastExitTime       *time.Time `json:"lastExitTime,omitempty"`
	OrphanedSessions   int        `json:"orphanedSessions"`
	DisconnectCleanups int        `json:"disconnectCleanups"`
}

func (st Stats) clone() Stats {
	st.PeakTime = cloneTime(st.PeakTime)
	st.FirstEntryTime = cloneTime(st.FirstEntryTime)
	st.LastExitTime = cloneTime(st.LastExitTime)
	return st
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func timePtr(t time.Time) *time.Time {
	return &t
}
