package camera

import "time"

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. Implementations must invoke f on the same
// goroutine that drives the Tracker.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}
