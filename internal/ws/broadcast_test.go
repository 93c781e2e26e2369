package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/admincam/camwatch/internal/camera"
	"github.com/admincam/camwatch/internal/notify"
)

// newTestBroadcaster builds a Broadcaster without the snapshot goroutine.
func newTestBroadcaster(throttle time.Duration) *Broadcaster {
	return &Broadcaster{
		clients:  make(map[*client]bool),
		server:   "test",
		latest:   &camera.Snapshot{},
		throttle: throttle,
		stop:     make(chan struct{}),
	}
}

// attach registers a client whose send channel the test reads directly.
func attach(b *Broadcaster, buf int) *client {
	c := &client{b: b, send: make(chan []byte, buf)}
	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()
	return c
}

func decode(t *testing.T, data []byte) (MessageType, json.RawMessage) {
	t.Helper()
	var msg struct {
		Type    MessageType     `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return msg.Type, msg.Payload
}

func snapshotWith(names ...string) *camera.Snapshot {
	snap := &camera.Snapshot{}
	for _, n := range names {
		snap.Active = append(snap.Active, &camera.Session{AdminID: n, Name: n})
	}
	snap.Stats.TotalSessions = len(names)
	return snap
}

func TestPublishWithoutThrottleSendsImmediately(t *testing.T) {
	b := newTestBroadcaster(0)
	c := attach(b, 4)

	b.Publish(snapshotWith("alice"))

	select {
	case data := <-c.send:
		typ, payload := decode(t, data)
		if typ != MsgSnapshot {
			t.Fatalf("type = %s, want snapshot", typ)
		}
		var p struct {
			Server string           `json:"server"`
			Active []camera.Session `json:"active"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			t.Fatal(err)
		}
		if p.Server != "test" || len(p.Active) != 1 || p.Active[0].Name != "alice" {
			t.Errorf("unexpected payload %s", payload)
		}
	default:
		t.Fatal("no message sent")
	}
}

func TestPublishCoalescesBursts(t *testing.T) {
	b := newTestBroadcaster(20 * time.Millisecond)
	c := attach(b, 8)

	b.Publish(snapshotWith("alice"))
	b.Publish(snapshotWith("alice", "bob"))
	b.Publish(snapshotWith("alice", "bob", "carol"))

	if got := b.Latest().Stats.TotalSessions; got != 3 {
		t.Fatalf("Latest TotalSessions = %d, want 3", got)
	}

	select {
	case data := <-c.send:
		_, payload := decode(t, data)
		var p camera.Snapshot
		if err := json.Unmarshal(payload, &p); err != nil {
			t.Fatal(err)
		}
		if len(p.Active) != 3 {
			t.Errorf("flushed snapshot has %d active, want 3", len(p.Active))
		}
	case <-time.After(time.Second):
		t.Fatal("throttled snapshot never flushed")
	}

	select {
	case <-c.send:
		t.Fatal("burst produced more than one message")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestQueueTransition(t *testing.T) {
	b := newTestBroadcaster(time.Hour)
	c := attach(b, 4)

	b.QueueTransition(camera.Transition{
		Kind:        camera.Entered,
		Admin:       camera.Admin{ID: "a", Name: "Alice"},
		ActiveCount: 1,
		Tracked:     true,
		Notify:      true,
	}, notify.Result{Warned: 2})

	typ, payload := decode(t, <-c.send)
	if typ != MsgTransition {
		t.Fatalf("type = %s, want transition", typ)
	}
	var p struct {
		Transition struct {
			Kind  string       `json:"kind"`
			Admin camera.Admin `json:"admin"`
		} `json:"transition"`
		Delivery notify.Result `json:"delivery"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		t.Fatal(err)
	}
	if p.Transition.Kind != "entered" || p.Transition.Admin.Name != "Alice" || p.Delivery.Warned != 2 {
		t.Errorf("unexpected payload %s", payload)
	}
}

func TestSlowClientDisconnected(t *testing.T) {
	b := newTestBroadcaster(0)
	slow := attach(b, 1)
	fast := attach(b, 8)

	b.QueueMatchEnd(MatchEndPayload{Layer: "one"})
	b.QueueMatchEnd(MatchEndPayload{Layer: "two"})

	if got := b.ClientCount(); got != 1 {
		t.Fatalf("ClientCount = %d, want 1", got)
	}
	if _, ok := b.clients[slow]; ok {
		t.Error("slow client still registered")
	}
	if len(fast.send) != 2 {
		t.Errorf("fast client got %d messages, want 2", len(fast.send))
	}
}

func TestStopClosesClients(t *testing.T) {
	b := NewBroadcaster("test", time.Hour, time.Hour, 0)
	c := attach(b, 1)

	b.Stop()
	b.Stop()

	if _, ok := <-c.send; ok {
		t.Error("send channel still open after Stop")
	}
	if b.ClientCount() != 0 {
		t.Error("clients remain after Stop")
	}
}
