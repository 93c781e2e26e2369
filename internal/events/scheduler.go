package events

import (
	"time"

	"github.com/admincam/camwatch/internal/camera"
)

// Scheduler adapts a Loop to camera.Scheduler.
type Scheduler struct {
	Loop *Loop
}

func (s Scheduler) AfterFunc(d time.Duration, f func()) camera.Timer {
	return s.Loop.AfterFunc(d, f)
}
