package events

import (
	"encoding/json"
	"strings"
	"time"
)

type Kind int

const (
	CameraEnter Kind = iota
	CameraLeave
	PlayerConnected
	PlayerDisconnected
	NewMatch
	MatchEnded
	ChatCommand
)

var kindNames = map[Kind]string{
	CameraEnter:        "camera_enter",
	CameraLeave:        "camera_leave",
	PlayerConnected:    "player_connected",
	PlayerDisconnected: "player_disconnected",
	NewMatch:           "new_match",
	MatchEnded:         "match_ended",
	ChatCommand:        "chat_command",
}

var kindFromName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, v := range kindNames {
		m[v] = k
	}
	return m
}()

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if v, ok := kindFromName[s]; ok {
		*k = v
	}
	return nil
}

// Player is the identity attached to a host event. Any field may be empty
// when the source line did not carry it.
type Player struct {
	EOSID   string `json:"eosId"`
	SteamID string `json:"steamId,omitempty"`
	Name    string `json:"name,omitempty"`
}

// Chat is the payload of a ChatCommand event, e.g. "!camerastats" with
// Command "camerastats" and no Args.
type Chat struct {
	Channel string   `json:"channel,omitempty"`
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

type Event struct {
	Kind   Kind      `json:"kind"`
	Time   time.Time `json:"time"`
	Player Player    `json:"player"`
	Chat   *Chat     `json:"chat,omitempty"`
	// Layer is set on NewMatch when the log names the map being loaded.
	Layer  string `json:"layer,omitempty"`
	Winner string `json:"winner,omitempty"`
}

// ParseChat splits an admin chat line such as "!cameraignore add 0002ab" into
// a Chat. It reports false for lines that are not "!" commands.
func ParseChat(channel, text string) (Chat, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "!") || len(fields[0]) == 1 {
		return Chat{}, false
	}
	c := Chat{Channel: channel, Command: strings.ToLower(fields[0][1:])}
	if len(fields) > 1 {
		c.Args = fields[1:]
	}
	return c, true
}
