package events

import (
	"context"
	"errors"
	"time"
)

// ErrStopped is returned by Post after the loop has exited.
var ErrStopped = errors.New("event loop stopped")

// Handler reacts to one event. Handlers run on the loop goroutine and must
// not block on the loop itself.
type Handler func(ctx context.Context, ev Event)

// Sink accepts events from a Source.
type Sink interface {
	Post(ctx context.Context, ev Event) error
}

// Source produces host events until ctx is cancelled.
type Source interface {
	Name() string
	Run(ctx context.Context, sink Sink) error
}

type item struct {
	ev *Event
	fn func()
}

// Loop serializes every event and scheduled callback onto one goroutine so
// the state they touch needs no locking.
type Loop struct {
	queue    chan item
	done     chan struct{}
	handlers map[Kind][]Handler
	after    []Handler
}

func NewLoop(buffer int) *Loop {
	return &Loop{
		queue:    make(chan item, buffer),
		done:     make(chan struct{}),
		handlers: make(map[Kind][]Handler),
	}
}

// On registers h for events of kind. Must be called before Run.
func (l *Loop) On(kind Kind, h Handler) {
	l.handlers[kind] = append(l.handlers[kind], h)
}

// After registers h to run after the per-kind handlers of every event.
func (l *Loop) After(h Handler) {
	l.after = append(l.after, h)
}

// Post enqueues ev, blocking while the queue is full.
func (l *Loop) Post(ctx context.Context, ev Event) error {
	select {
	case l.queue <- item{ev: &ev}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// Do runs fn on the loop goroutine. It reports false if the loop has exited.
func (l *Loop) Do(fn func()) bool {
	select {
	case l.queue <- item{fn: fn}:
		return true
	case <-l.done:
		return false
	}
}

// AfterFunc waits for d and then runs f on the loop goroutine. Stopping the
// returned timer after it has fired does not withdraw a callback that is
// already queued, so f must tolerate running late.
func (l *Loop) AfterFunc(d time.Duration, f func()) *time.Timer {
	return time.AfterFunc(d, func() { l.Do(f) })
}

// Run dispatches until ctx is cancelled. Items still queued at that point
// are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case it := <-l.queue:
			if it.fn != nil {
				it.fn()
				continue
			}
			l.dispatch(ctx, *it.ev)
		}
	}
}

func (l *Loop) dispatch(ctx context.Context, ev Event) {
	for _, h := range l.handlers[ev.Kind] {
		h(ctx, ev)
	}
	for _, h := range l.after {
		h(ctx, ev)
	}
}
