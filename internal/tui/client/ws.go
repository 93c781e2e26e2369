package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/admincam/camwatch/internal/logger"
	"github.com/admincam/camwatch/internal/ws"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	// The server pushes a snapshot at least every 30s, so a longer silence
	// means the connection is gone.
	readTimeout  = 75 * time.Second
	pingInterval = 30 * time.Second
)

// WSClient manages the live feed connection to the camwatch server.
type WSClient struct {
	url   string
	token string

	mu      sync.Mutex
	writeMu sync.Mutex
	conn    *websocket.Conn
	pingCtx context.CancelFunc
}

func NewWSClient(url, token string) *WSClient {
	return &WSClient{url: url, token: token}
}

// WSConnectedMsg is sent when the WebSocket connects.
type WSConnectedMsg struct{}

// WSDisconnectedMsg is sent when the connection drops.
type WSDisconnectedMsg struct{ Err error }

// WSSnapshotMsg delivers the full tracker state.
type WSSnapshotMsg struct{ Payload ws.SnapshotPayload }

// WSTransitionMsg reports one camera state change and what it delivered.
type WSTransitionMsg struct{ Payload ws.TransitionPayload }

// WSMatchEndMsg is sent when a round ends.
type WSMatchEndMsg struct{ Payload ws.MatchEndPayload }

// WSErrorMsg wraps a server-side error.
type WSErrorMsg struct{ Payload ws.ErrorPayload }

// Listen returns a Bubble Tea command that connects, retrying with backoff
// until it succeeds or ctx is cancelled.
func (c *WSClient) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		delay := reconnectBaseDelay
		for {
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			var header http.Header
			if c.token != "" {
				header = http.Header{"Authorization": []string{"Bearer " + c.token}}
			}
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
			if err != nil {
				logger.Warn("ws dial failed", "url", c.url, "retry", delay.String(), "error", err)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(delay):
				}
				delay = min(delay*2, reconnectMaxDelay)
				continue
			}

			c.mu.Lock()
			if c.pingCtx != nil {
				c.pingCtx()
			}
			pingCtx, pingCancel := context.WithCancel(ctx)
			c.conn = conn
			c.pingCtx = pingCancel
			c.mu.Unlock()

			go c.pingLoop(pingCtx, conn)
			return WSConnectedMsg{}
		}
	}
}

// ReadLoop returns a Bubble Tea command that reads until the next message
// the UI cares about. Start it after WSConnectedMsg and again after every
// message it delivers.
func (c *WSClient) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return WSDisconnectedMsg{Err: fmt.Errorf("no connection")}
		}

		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readTimeout))
		})
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				c.mu.Lock()
				if c.conn == conn {
					c.conn = nil
				}
				c.mu.Unlock()
				conn.Close()
				return WSDisconnectedMsg{Err: err}
			}
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

			var msg WSMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				logger.Debug("ws message not decoded", "error", err)
				continue
			}
			if teaMsg := decode(msg); teaMsg != nil {
				return teaMsg
			}
		}
	}
}

func (c *WSClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			cc := c.conn
			c.mu.Unlock()
			if cc != conn {
				return
			}
			c.writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Reconnect drops the current connection. The read loop reports the
// disconnect and the app dials again, which brings a fresh snapshot.
func (c *WSClient) Reconnect() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func decode(msg WSMessage) tea.Msg {
	switch msg.Type {
	case ws.MsgSnapshot:
		var p ws.SnapshotPayload
		if json.Unmarshal(msg.Payload, &p) == nil && p.Snapshot != nil {
			return WSSnapshotMsg{Payload: p}
		}
	case ws.MsgTransition:
		var p ws.TransitionPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return WSTransitionMsg{Payload: p}
		}
	case ws.MsgMatchEnd:
		var p ws.MatchEndPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return WSMatchEndMsg{Payload: p}
		}
	case ws.MsgError:
		var p ws.ErrorPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return WSErrorMsg{Payload: p}
		}
	}
	return nil
}
