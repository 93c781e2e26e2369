// Package client provides WebSocket and HTTP clients for the camwatch server.
package client

import (
	"encoding/json"

	"github.com/admincam/camwatch/internal/archive"
	"github.com/admincam/camwatch/internal/camera"
	"github.com/admincam/camwatch/internal/squadlog"
	"github.com/admincam/camwatch/internal/ws"
)

// WSMessage is the envelope for all WebSocket messages. The payload is
// decoded once the type is known.
type WSMessage struct {
	Type    ws.MessageType  `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// StatsResponse mirrors GET /api/stats.
type StatsResponse struct {
	Match          camera.Stats         `json:"match"`
	ActiveCount    int                  `json:"activeCount"`
	PendingOrphans []string             `json:"pendingOrphans,omitempty"`
	AllTime        []archive.AdminTotal `json:"allTime,omitempty"`
}

// Health mirrors GET /healthz. SourceHealth is only reported by the log
// tailer; the mock source has none.
type Health struct {
	Status       string                   `json:"status"`
	Clients      int                      `json:"clients"`
	Source       string                   `json:"source,omitempty"`
	SourceHealth *squadlog.HealthSnapshot `json:"sourceHealth,omitempty"`
}
