// Package squadlog turns SquadGame.log lines into host events.
package squadlog

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/admincam/camwatch/internal/events"
)

// Every Squad log line starts with "[2026.03.14-20.31.45:123][456]".
var linePrefix = regexp.MustCompile(`^\[(\d{4}\.\d{2}\.\d{2}-\d{2}\.\d{2}\.\d{2}):(\d{3})\]\[\s*\d*\]`)

var (
	possessRe    = regexp.MustCompile(`LogSquadTrace: \[DedicatedServer\](?:ASQPlayerController::)?OnPossess\(\): PC=(.+?) \(Online IDs:([^)]*)\) Pawn=([A-Za-z0-9_]+)_C_\d+`)
	unpossessRe  = regexp.MustCompile(`LogSquadTrace: \[DedicatedServer\](?:ASQPlayerController::)?OnUnPossess\(\): PC=(.+?) \(Online IDs:([^)]*)\)`)
	postLoginRe  = regexp.MustCompile(`LogSquad: PostLogin: NewPlayer: \S+ \S+\.(\S+) \(IP: [\d.]+ \| Online IDs:([^)]*)\)`)
	joinRe       = regexp.MustCompile(`LogNet: Join succeeded: (.+)$`)
	closeRe      = regexp.MustCompile(`LogNet: UChannel::Close: .*UniqueId: RedpointEOS:([0-9a-f]+)`)
	newWorldRe   = regexp.MustCompile(`LogWorld: Bringing World (\S+) up for play`)
	matchStateRe = regexp.MustCompile(`LogGameState: Match State Changed from InProgress to WaitingPostMatch`)
	winnerRe     = regexp.MustCompile(`LogSquadGameEvents: Display: Team \d, (.*?) \( ?.*? ?\) has won the match`)
	eosRe        = regexp.MustCompile(`EOS: ([0-9a-f]{32})`)
	steamRe      = regexp.MustCompile(`steam: (\d{17})`)
)

const (
	cameraPawn     = "CameraMan"
	transitionMap  = "TransitionMap"
	timestampStyle = "2006.01.02-15.04.05"
)

// Parser converts log lines to events. It remembers which players possessed
// the admin camera, because the matching unpossess line does not name the
// pawn being released.
type Parser struct {
	inCamera map[string]bool
	winner   string
	// pending holds a join name until PostLogin supplies the IDs.
	pending string
}

func NewParser() *Parser {
	return &Parser{inCamera: make(map[string]bool)}
}

// Parse returns the event a line describes, if any.
func (p *Parser) Parse(line string) (events.Event, bool) {
	line = strings.TrimRight(line, "\r\n")
	m := linePrefix.FindStringSubmatch(line)
	if m == nil {
		return events.Event{}, false
	}
	ts := parseTimestamp(m[1], m[2])
	body := line[len(m[0]):]

	if sm := possessRe.FindStringSubmatch(body); sm != nil {
		player := playerFrom(sm[1], sm[2])
		if !strings.Contains(sm[3], cameraPawn) {
			// Possessing anything else ends a camera session the log
			// never closed explicitly.
			if p.inCamera[player.EOSID] {
				delete(p.inCamera, player.EOSID)
				return events.Event{Kind: events.CameraLeave, Time: ts, Player: player}, true
			}
			return events.Event{}, false
		}
		p.inCamera[player.EOSID] = true
		return events.Event{Kind: events.CameraEnter, Time: ts, Player: player}, true
	}

	if sm := unpossessRe.FindStringSubmatch(body); sm != nil {
		player := playerFrom(sm[1], sm[2])
		if !p.inCamera[player.EOSID] {
			return events.Event{}, false
		}
		delete(p.inCamera, player.EOSID)
		return events.Event{Kind: events.CameraLeave, Time: ts, Player: player}, true
	}

	if sm := joinRe.FindStringSubmatch(body); sm != nil {
		p.pending = strings.TrimSpace(sm[1])
		return events.Event{}, false
	}

	if sm := postLoginRe.FindStringSubmatch(body); sm != nil {
		player := playerFrom(p.pending, sm[2])
		p.pending = ""
		if player.EOSID == "" {
			return events.Event{}, false
		}
		return events.Event{Kind: events.PlayerConnected, Time: ts, Player: player}, true
	}

	if sm := closeRe.FindStringSubmatch(body); sm != nil {
		return events.Event{Kind: events.PlayerDisconnected, Time: ts, Player: events.Player{EOSID: sm[1]}}, true
	}

	if sm := winnerRe.FindStringSubmatch(body); sm != nil {
		p.winner = strings.TrimSpace(sm[1])
		return events.Event{}, false
	}

	if matchStateRe.MatchString(body) {
		ev := events.Event{Kind: events.MatchEnded, Time: ts, Winner: p.winner}
		p.winner = ""
		return ev, true
	}

	if sm := newWorldRe.FindStringSubmatch(body); sm != nil {
		if strings.Contains(sm[1], transitionMap) {
			return events.Event{}, false
		}
		clear(p.inCamera)
		return events.Event{Kind: events.NewMatch, Time: ts, Layer: layerName(sm[1])}, true
	}

	return events.Event{}, false
}

func playerFrom(name, ids string) events.Player {
	pl := events.Player{Name: strings.TrimSpace(name)}
	if m := eosRe.FindStringSubmatch(ids); m != nil {
		pl.EOSID = m[1]
	}
	if m := steamRe.FindStringSubmatch(ids); m != nil {
		pl.SteamID = m[1]
	}
	return pl
}

func parseTimestamp(stamp, millis string) time.Time {
	t, err := time.ParseInLocation(timestampStyle, stamp, time.UTC)
	if err != nil {
		return time.Time{}
	}
	ms, _ := strconv.Atoi(millis)
	return t.Add(time.Duration(ms) * time.Millisecond)
}

// layerName reduces "/Game/Maps/Narva/Gameplay_Layers/Narva_RAAS_v1.Narva_RAAS_v1"
// to "Narva_RAAS_v1".
func layerName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[:i]
	}
	return path
}
