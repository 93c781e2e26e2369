package rcon

import (
	"regexp"
	"strconv"
	"strings"
)

// Player is one row of the ListPlayers response.
type Player struct {
	ID       int    `json:"id"`
	EOSID    string `json:"eosId"`
	SteamID  string `json:"steamId,omitempty"`
	Name     string `json:"name"`
	TeamID   string `json:"teamId,omitempty"`
	SquadID  string `json:"squadId,omitempty"`
	IsLeader bool   `json:"isLeader,omitempty"`
	Role     string `json:"role,omitempty"`
}

var (
	playerLine   = regexp.MustCompile(`^ID: (\d+) \| Online IDs:([^|]+)\| Name: (.+?) \| Team ID: (\d+|N/A) \| Squad ID: (\d+|N/A) \| Is Leader: (True|False) \| Role: (.*)$`)
	eosPattern   = regexp.MustCompile(`EOS: ([0-9a-f]{32})`)
	steamPattern = regexp.MustCompile(`steam: (\d{17})`)
)

const disconnectedHeader = "----- Recently Disconnected Players"

// ParsePlayers extracts the connected players from a ListPlayers response.
// The recently disconnected section is skipped.
func ParsePlayers(resp string) []Player {
	var players []Player
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, disconnectedHeader) {
			break
		}
		m := playerLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		id, _ := strconv.Atoi(m[1])
		p := Player{
			ID:       id,
			Name:     m[3],
			TeamID:   m[4],
			SquadID:  m[5],
			IsLeader: m[6] == "True",
			Role:     strings.TrimSpace(m[7]),
		}
		if e := eosPattern.FindStringSubmatch(m[2]); e != nil {
			p.EOSID = e[1]
		}
		if s := steamPattern.FindStringSubmatch(m[2]); s != nil {
			p.SteamID = s[1]
		}
		if p.EOSID == "" {
			continue
		}
		players = append(players, p)
	}
	return players
}
