package squadlog

import (
	"sync"
	"time"
)

type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusDegraded HealthStatus = "degraded"
	StatusFailed   HealthStatus = "failed"

	// failedThreshold is the number of consecutive read failures after
	// which the source is reported failed rather than degraded.
	failedThreshold = 20
)

type HealthSnapshot struct {
	Status              HealthStatus `json:"status"`
	ConsecutiveFailures int          `json:"consecutiveFailures"`
	LastError           string       `json:"lastError,omitempty"`
	LastErrorAt         time.Time    `json:"lastErrorAt,omitzero"`
	LastEventAt         time.Time    `json:"lastEventAt,omitzero"`
	EventsRead          int64        `json:"eventsRead"`
}

// Health tracks consecutive failure counts for the tailer. Fields are
// protected by mu because Run writes them while the feed server reads them.
type Health struct {
	mu          sync.Mutex
	failures    int
	lastErr     string
	lastErrAt   time.Time
	lastEventAt time.Time
	events      int64
}

func newHealth() *Health {
	return &Health{}
}

// recordFailure counts a failed poll. It reports whether the failure should
// be logged: the first one, and every failedThreshold after that.
func (h *Health) recordFailure(err error) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures++
	h.lastErr = err.Error()
	h.lastErrAt = time.Now()
	return h.failures == 1 || h.failures%failedThreshold == 0
}

func (h *Health) recordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures = 0
}

func (h *Health) recordEvent(at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events++
	h.lastEventAt = at
}

func (h *Health) snapshot() HealthSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := HealthSnapshot{
		Status:              StatusHealthy,
		ConsecutiveFailures: h.failures,
		LastError:           h.lastErr,
		LastErrorAt:         h.lastErrAt,
		LastEventAt:         h.lastEventAt,
		EventsRead:          h.events,
	}
	switch {
	case h.failures >= failedThreshold:
		s.Status = StatusFailed
	case h.failures > 0:
		s.Status = StatusDegraded
	}
	return s
}
