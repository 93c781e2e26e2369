package ws

import (
	"github.com/admincam/camwatch/internal/camera"
	"github.com/admincam/camwatch/internal/notify"
)

type MessageType string

const (
	MsgSnapshot   MessageType = "snapshot"
	MsgTransition MessageType = "transition"
	MsgMatchEnd   MessageType = "match_end"
	MsgError      MessageType = "error"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

type SnapshotPayload struct {
	Server string `json:"server,omitempty"`
	*camera.Snapshot
}

type TransitionPayload struct {
	Transition camera.Transition `json:"transition"`
	Delivery   notify.Result     `json:"delivery"`
}

type MatchEndPayload struct {
	Layer  string       `json:"layer,omitempty"`
	Winner string       `json:"winner,omitempty"`
	Stats  camera.Stats `json:"stats"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
