package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/admincam/camwatch/internal/camera"
	"github.com/admincam/camwatch/internal/logger"
	"github.com/admincam/camwatch/internal/notify"
)

// ErrTooManyConnections is returned by AddClient when the connection limit
// is reached.
var ErrTooManyConnections = errors.New("too many websocket connections")

const writeWait = 10 * time.Second

type client struct {
	conn *websocket.Conn
	b    *Broadcaster
	send chan []byte
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.b.RemoveClient(c)
			// Drain until RemoveClient closes the channel.
			for range c.send {
			}
			return
		}
	}
}

// Broadcaster fans camera state out to websocket clients. The watcher
// publishes a snapshot after every event; bursts are coalesced into one
// message per throttle interval, and the latest snapshot is re-sent every
// snapshot interval so late or lossy clients converge.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	maxConns int
	server   string

	latestMu sync.RWMutex
	latest   *camera.Snapshot

	throttle       time.Duration
	snapshotTicker *time.Ticker
	stop           chan struct{}
	stopOnce       sync.Once
	flushTimer     *time.Timer
	flushMu        sync.Mutex
	dirty          bool
}

func NewBroadcaster(server string, throttle, snapshotInterval time.Duration, maxConns int) *Broadcaster {
	b := &Broadcaster{
		clients:  make(map[*client]bool),
		maxConns: maxConns,
		server:   server,
		latest:   &camera.Snapshot{},
		throttle: throttle,
		stop:     make(chan struct{}),
	}
	if snapshotInterval <= 0 {
		snapshotInterval = 30 * time.Second
	}
	b.snapshotTicker = time.NewTicker(snapshotInterval)
	go b.snapshotLoop()
	return b
}

// Stop halts the periodic snapshot loop and disconnects every client.
func (b *Broadcaster) Stop() {
	b.stopOnce.Do(func() {
		b.snapshotTicker.Stop()
		close(b.stop)

		b.mu.Lock()
		for c := range b.clients {
			delete(b.clients, c)
			close(c.send)
		}
		b.mu.Unlock()
	})
}

func (b *Broadcaster) AddClient(conn *websocket.Conn) (*client, error) {
	b.mu.Lock()
	if b.maxConns > 0 && len(b.clients) >= b.maxConns {
		b.mu.Unlock()
		return nil, ErrTooManyConnections
	}
	c := &client{conn: conn, b: b, send: make(chan []byte, 64)}
	b.clients[c] = true
	b.mu.Unlock()

	go c.writePump()

	if data, err := json.Marshal(b.snapshotMessage()); err == nil {
		b.trySend(c, data)
	}
	return c, nil
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Publish records snap as the current state and schedules a broadcast.
func (b *Broadcaster) Publish(snap *camera.Snapshot) {
	b.latestMu.Lock()
	b.latest = snap
	b.latestMu.Unlock()

	if b.throttle <= 0 {
		b.broadcast(b.snapshotMessage())
		return
	}

	b.flushMu.Lock()
	defer b.flushMu.Unlock()
	b.dirty = true
	if b.flushTimer == nil {
		b.flushTimer = time.AfterFunc(b.throttle, b.flush)
	}
}

// Latest returns the most recently published snapshot. Callers must not
// modify it.
func (b *Broadcaster) Latest() *camera.Snapshot {
	b.latestMu.RLock()
	defer b.latestMu.RUnlock()
	return b.latest
}

// QueueTransition sends one camera transition to every client immediately.
func (b *Broadcaster) QueueTransition(tr camera.Transition, res notify.Result) {
	b.broadcast(WSMessage{
		Type:    MsgTransition,
		Payload: TransitionPayload{Transition: tr, Delivery: res},
	})
}

func (b *Broadcaster) QueueMatchEnd(p MatchEndPayload) {
	b.broadcast(WSMessage{Type: MsgMatchEnd, Payload: p})
}

func (b *Broadcaster) flush() {
	b.flushMu.Lock()
	dirty := b.dirty
	b.dirty = false
	b.flushTimer = nil
	b.flushMu.Unlock()

	if dirty {
		b.broadcast(b.snapshotMessage())
	}
}

func (b *Broadcaster) snapshotMessage() WSMessage {
	return WSMessage{
		Type:    MsgSnapshot,
		Payload: SnapshotPayload{Server: b.server, Snapshot: b.Latest()},
	}
}

func (b *Broadcaster) snapshotLoop() {
	for {
		select {
		case <-b.stop:
			return
		case <-b.snapshotTicker.C:
			b.broadcast(b.snapshotMessage())
		}
	}
}

func (b *Broadcaster) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("broadcast marshal error", "type", string(msg.Type), "error", err)
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		if !b.trySend(c, data) {
			logger.Warn("ws client too slow, disconnecting")
			b.RemoveClient(c)
		}
	}
}

// trySend queues data without blocking. A client removed concurrently counts
// as delivered.
func (b *Broadcaster) trySend(c *client, data []byte) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.clients[c] {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}
