package camera

import "time"

// Cooldown remembers when each admin last triggered a notification.
type Cooldown struct {
	last map[string]time.Time
}

func NewCooldown() *Cooldown {
	return &Cooldown{last: make(map[string]time.Time)}
}

// Suppressed reports whether a notification for adminID at now falls inside
// window of the last recorded one. An interval exactly equal to the window is
// not suppressed.
func (c *Cooldown) Suppressed(adminID string, now time.Time, window time.Duration) bool {
	last, ok := c.last[adminID]
	if !ok {
		return false
	}
	return now.Sub(last) < window
}

// Record overwrites the admin's last notification time.
func (c *Cooldown) Record(adminID string, now time.Time) {
	c.last[adminID] = now
}

// Last returns the recorded time for adminID, if any.
func (c *Cooldown) Last(adminID string) (time.Time, bool) {
	t, ok := c.last[adminID]
	return t, ok
}

func (c *Cooldown) Len() int {
	return len(c.last)
}

func (c *Cooldown) Reset() {
	clear(c.last)
}
