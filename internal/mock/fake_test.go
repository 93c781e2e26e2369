package mock

import (
	"context"
	"sync"

	"github.com/admincam/camwatch/internal/events"
)

type recordSink struct {
	mu  sync.Mutex
	got []events.Event
}

func (s *recordSink) Post(_ context.Context, ev events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, ev)
	return nil
}

func (s *recordSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func (s *recordSink) events() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Event(nil), s.got...)
}
