package camera

import (
	"sort"
	"time"
)

// fakeScheduler records callbacks so tests fire them explicitly.
type fakeScheduler struct {
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	ft := &fakeTimer{at: s.now + d, fn: f}
	s.timers = append(s.timers, ft)
	return ft
}

// Advance moves the fake clock forward and runs every live timer that is due.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.now += d
	sort.SliceStable(s.timers, func(i, j int) bool { return s.timers[i].at < s.timers[j].at })
	for _, ft := range s.timers {
		if ft.at <= s.now && !ft.stopped && !ft.fired {
			ft.fired = true
			ft.fn()
		}
	}
}

// FireStale invokes a callback even if it was stopped, simulating a timer
// whose callback was already queued when Stop was called.
func (s *fakeScheduler) FireStale(i int) {
	s.timers[i].fn()
}

func (s *fakeScheduler) live() int {
	n := 0
	for _, ft := range s.timers {
		if !ft.stopped && !ft.fired {
			n++
		}
	}
	return n
}

var epoch = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time {
	return epoch.Add(d)
}

func admin(id string) Admin {
	return Admin{ID: id, Name: "Admin " + id, SteamID: "7656" + id}
}
