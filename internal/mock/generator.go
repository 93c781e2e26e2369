package mock

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/admincam/camwatch/internal/events"
	"github.com/admincam/camwatch/internal/logger"
)

type mockAdmin struct {
	player  events.Player
	pattern string
	// period is the number of ticks between camera visits and stay the
	// number of ticks each visit lasts.
	period int
	stay   int
	offset int

	inCamera  bool
	enteredAt int
	bounced   bool
	online    bool
	goneAt    int
	awayFor   int
}

// Personas used when no roster is supplied. IDs are stable so Admins.cfg
// entries written by WriteAdminsCfg keep matching across restarts.
var defaultAdmins = []mockAdmin{
	{
		player:  events.Player{EOSID: mockEOS(1), SteamID: "76561198000000001", Name: "Alice"},
		pattern: "patrol", period: 40, stay: 18, offset: 2,
	},
	{
		player:  events.Player{EOSID: mockEOS(2), SteamID: "76561198000000002", Name: "Bob"},
		pattern: "peek", period: 14, stay: 3, offset: 5,
	},
	{
		player:  events.Player{EOSID: mockEOS(3), SteamID: "76561198000000003", Name: "Carol"},
		pattern: "bounce", period: 9, stay: 1, offset: 7,
	},
	{
		player:  events.Player{EOSID: mockEOS(4), SteamID: "76561198000000004", Name: "Dave"},
		pattern: "flaky", period: 30, stay: 10, offset: 12,
	},
}

func mockEOS(n int) string {
	return fmt.Sprintf("0002%028x", n)
}

// Commands the first admin types in admin chat, cycled in order.
var mockCommands = []events.Chat{
	{Channel: "ChatAdmin", Command: "camerastats"},
	{Channel: "ChatAdmin", Command: "cameradebug"},
	{Channel: "ChatAdmin", Command: "cameratest"},
}

var mockLayers = []string{"Narva_RAAS_v1", "Yehorivka_AAS_v2", "Gorodok_Invasion_v1", "Sumari_Seed_v1"}

// Generator is an events.Source that plays scripted admins through camera
// visits, disconnects and match changes. It stands in for SquadGame.log when
// running without a game server.
type Generator struct {
	admins     []*mockAdmin
	interval   time.Duration
	roundTicks int
	rng        *rand.Rand

	layer   int
	command int
}

func NewGenerator(interval time.Duration) *Generator {
	if interval <= 0 {
		interval = time.Second
	}
	g := &Generator{
		interval:   interval,
		roundTicks: 240,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, a := range defaultAdmins {
		a := a
		a.online = true
		g.admins = append(g.admins, &a)
	}
	return g
}

func (g *Generator) Name() string { return "mock" }

// Players returns the scripted admins, including ones currently offline.
func (g *Generator) Players() []events.Player {
	out := make([]events.Player, len(g.admins))
	for i, a := range g.admins {
		out[i] = a.player
	}
	return out
}

func (g *Generator) Run(ctx context.Context, sink events.Sink) error {
	log := logger.With("source", g.Name())
	log.Info("mock event source started", "admins", len(g.admins), "interval", g.interval.String())

	if err := sink.Post(ctx, events.Event{Kind: events.NewMatch, Time: time.Now(), Layer: mockLayers[0]}); err != nil {
		return err
	}
	for _, a := range g.admins {
		if err := sink.Post(ctx, events.Event{Kind: events.PlayerConnected, Time: time.Now(), Player: a.player}); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			tick++
			for _, ev := range g.step(tick, time.Now()) {
				if err := sink.Post(ctx, ev); err != nil {
					return err
				}
			}
		}
	}
}

// step advances every admin by one tick and returns the resulting events.
func (g *Generator) step(tick int, now time.Time) []events.Event {
	var out []events.Event
	round := tick % g.roundTicks

	if round == g.roundTicks-10 {
		for _, a := range g.admins {
			if a.inCamera {
				a.inCamera = false
				out = append(out, events.Event{Kind: events.CameraLeave, Time: now, Player: a.player})
			}
		}
		return append(out, events.Event{Kind: events.MatchEnded, Time: now, Winner: "Team " + strconv.Itoa(1+g.rng.Intn(2))})
	}
	if round == 0 {
		g.layer = (g.layer + 1) % len(mockLayers)
		return append(out, events.Event{Kind: events.NewMatch, Time: now, Layer: mockLayers[g.layer]})
	}
	if round > g.roundTicks-10 {
		return out
	}

	for _, a := range g.admins {
		out = append(out, g.advance(a, tick, now)...)
	}

	if tick%25 == 0 {
		a := g.admins[0]
		if a.online {
			chat := mockCommands[g.command%len(mockCommands)]
			g.command++
			out = append(out, events.Event{Kind: events.ChatCommand, Time: now, Player: a.player, Chat: &chat})
		}
	}
	return out
}

func (g *Generator) advance(a *mockAdmin, tick int, now time.Time) []events.Event {
	ev := func(kind events.Kind) events.Event {
		return events.Event{Kind: kind, Time: now, Player: a.player}
	}

	if !a.online {
		if tick-a.goneAt < a.awayFor {
			return nil
		}
		a.online = true
		out := []events.Event{ev(events.PlayerConnected)}
		if a.inCamera {
			// Rejoining spawns a soldier, which releases the camera.
			a.inCamera = false
			out = append(out, ev(events.CameraLeave))
		}
		return out
	}

	phase := (tick + a.offset) % a.period

	if !a.inCamera {
		if phase == 0 {
			a.inCamera = true
			a.enteredAt = tick
			return []events.Event{ev(events.CameraEnter)}
		}
		return nil
	}

	if a.pattern == "flaky" && tick-a.enteredAt == a.stay/2 && g.rng.Intn(2) == 0 {
		// The server never logs an unpossess for a dropped client. Some
		// drops come back quickly and some outlast the cleanup timeout.
		a.online = false
		a.goneAt = tick
		a.awayFor = 5
		if g.rng.Intn(3) == 0 {
			a.awayFor = 150
		}
		return []events.Event{ev(events.PlayerDisconnected)}
	}

	if tick-a.enteredAt >= a.stay {
		a.inCamera = false
		out := []events.Event{ev(events.CameraLeave)}
		if a.pattern == "bounce" && !a.bounced {
			// Re-enter straight away to exercise the cooldown.
			a.inCamera = true
			a.enteredAt = tick
			out = append(out, ev(events.CameraEnter))
		}
		a.bounced = !a.bounced
		return out
	}
	return nil
}
