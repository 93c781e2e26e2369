package squadlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admincam/camwatch/internal/events"
)

const (
	aliceEOS   = "00026e1a4f9b4b1c8d3e2f5a6b7c8d9e"
	aliceSteam = "76561198000000001"
	bobEOS     = "0002b0b0b0b0b0b0b0b0b0b0b0b0b0b0"
)

func possessLine(stamp, name, eos, pawn string) string {
	return "[" + stamp + "][412]LogSquadTrace: [DedicatedServer]ASQPlayerController::OnPossess(): PC=" + name +
		" (Online IDs: EOS: " + eos + " steam: " + aliceSteam + ") Pawn=" + pawn + "_C_2130401015 FullPath=" + pawn + "_C /Game/Maps/Narva.Narva:PersistentLevel." + pawn + "_C_2130401015"
}

func unpossessLine(stamp, name, eos string) string {
	return "[" + stamp + "][413]LogSquadTrace: [DedicatedServer]ASQPlayerController::OnUnPossess(): PC=" + name +
		" (Online IDs: EOS: " + eos + " steam: " + aliceSteam + ") Exit Pawn=CameraMan_C_2130401015"
}

func TestParseCameraEnterAndLeave(t *testing.T) {
	p := NewParser()

	ev, ok := p.Parse(possessLine("2026.03.14-20.31.45:123", "AdminAlice", aliceEOS, "CameraMan") + "\r\n")
	require.True(t, ok)
	assert.Equal(t, events.CameraEnter, ev.Kind)
	assert.Equal(t, events.Player{EOSID: aliceEOS, SteamID: aliceSteam, Name: "AdminAlice"}, ev.Player)
	assert.Equal(t, time.Date(2026, 3, 14, 20, 31, 45, 123e6, time.UTC), ev.Time)

	ev, ok = p.Parse(unpossessLine("2026.03.14-20.36.45:000", "AdminAlice", aliceEOS))
	require.True(t, ok)
	assert.Equal(t, events.CameraLeave, ev.Kind)
	assert.Equal(t, aliceEOS, ev.Player.EOSID)
}

func TestParseUnpossessOutsideCameraIgnored(t *testing.T) {
	p := NewParser()
	_, ok := p.Parse(unpossessLine("2026.03.14-20.36.45:000", "Grunt", bobEOS))
	assert.False(t, ok)
}

func TestParseSoldierPossessEndsCamera(t *testing.T) {
	p := NewParser()

	_, ok := p.Parse(possessLine("2026.03.14-20.31.45:123", "AdminAlice", aliceEOS, "BP_Soldier_RU_Rifleman"))
	assert.False(t, ok, "soldier spawn outside camera is not an event")

	_, ok = p.Parse(possessLine("2026.03.14-20.32.00:000", "AdminAlice", aliceEOS, "CameraMan"))
	require.True(t, ok)

	ev, ok := p.Parse(possessLine("2026.03.14-20.33.00:000", "AdminAlice", aliceEOS, "BP_Soldier_RU_Rifleman"))
	require.True(t, ok)
	assert.Equal(t, events.CameraLeave, ev.Kind)

	_, ok = p.Parse(unpossessLine("2026.03.14-20.33.00:001", "AdminAlice", aliceEOS))
	assert.False(t, ok, "camera already released")
}

func TestParsePlayerConnected(t *testing.T) {
	p := NewParser()

	_, ok := p.Parse("[2026.03.14-20.30.00:001][100]LogNet: Join succeeded: AdminBob")
	assert.False(t, ok)

	ev, ok := p.Parse("[2026.03.14-20.30.00:002][100]LogSquad: PostLogin: NewPlayer: BP_PlayerController_C " +
		"/Game/Maps/Narva/Narva.Narva:PersistentLevel.BP_PlayerController_C_2130401015 " +
		"(IP: 10.0.0.5 | Online IDs: EOS: " + bobEOS + " steam: 76561198000000002)")
	require.True(t, ok)
	assert.Equal(t, events.PlayerConnected, ev.Kind)
	assert.Equal(t, events.Player{EOSID: bobEOS, SteamID: "76561198000000002", Name: "AdminBob"}, ev.Player)
}

func TestParsePlayerDisconnected(t *testing.T) {
	p := NewParser()
	ev, ok := p.Parse("[2026.03.14-20.40.00:500][200]LogNet: UChannel::Close: Sending CloseBunch. ChIndex == 0. " +
		"Name: [UChannel] ChIndex: 0, Closing: 0 [UNetConnection] RemoteAddr: 10.0.0.5:7777, " +
		"Name: EOSIpNetConnection_2147482486, Driver: GameNetDriver EOSNetDriver_2147482510, IsServer: YES, " +
		"PC: BP_PlayerController_C_2147482489, Owner: BP_PlayerController_C_2147482489, UniqueId: RedpointEOS:" + bobEOS)
	require.True(t, ok)
	assert.Equal(t, events.PlayerDisconnected, ev.Kind)
	assert.Equal(t, bobEOS, ev.Player.EOSID)
}

func TestParseMatchLifecycle(t *testing.T) {
	p := NewParser()

	_, ok := p.Parse("[2026.03.14-21.10.00:000][300]LogSquadGameEvents: Display: Team 1, " +
		"1st Battalion, Royal Welsh ( Royal Welsh ) has won the match with 210 Tickets on layer Narva RAAS v1 (level Narva)!")
	assert.False(t, ok)

	ev, ok := p.Parse("[2026.03.14-21.10.00:001][300]LogGameState: Match State Changed from InProgress to WaitingPostMatch")
	require.True(t, ok)
	assert.Equal(t, events.MatchEnded, ev.Kind)
	assert.Equal(t, "1st Battalion, Royal Welsh", ev.Winner)

	_, ok = p.Parse("[2026.03.14-21.12.00:000][301]LogWorld: Bringing World /Game/Maps/TransitionMap.TransitionMap up for play (max tick rate 50) at 2026.03.14-21.12.00")
	assert.False(t, ok, "transition map is not a new match")

	_, ok = p.Parse(possessLine("2026.03.14-21.12.10:000", "AdminAlice", aliceEOS, "CameraMan"))
	require.True(t, ok)

	ev, ok = p.Parse("[2026.03.14-21.13.00:000][302]LogWorld: Bringing World /Game/Maps/Narva/Gameplay_Layers/Narva_RAAS_v1.Narva_RAAS_v1 up for play (max tick rate 50) at 2026.03.14-21.13.00")
	require.True(t, ok)
	assert.Equal(t, events.NewMatch, ev.Kind)
	assert.Equal(t, "Narva_RAAS_v1", ev.Layer)

	_, ok = p.Parse(unpossessLine("2026.03.14-21.14.00:000", "AdminAlice", aliceEOS))
	assert.False(t, ok, "camera state is cleared on map change")
}

func TestParseIgnoresNoise(t *testing.T) {
	p := NewParser()
	for _, line := range []string{
		"",
		"Log file open, 03/14/26 20:30:00",
		"[2026.03.14-20.30.00:000][  0]LogInit: Build: ++depot+UE4-Squad",
		"[2026.03.14-20.30.00:000][  0]LogSquad: Player AdminAlice has been added to Team 1",
	} {
		_, ok := p.Parse(line)
		assert.False(t, ok, "line %q", line)
	}
}

func TestLayerName(t *testing.T) {
	assert.Equal(t, "Narva_RAAS_v1", layerName("/Game/Maps/Narva/Gameplay_Layers/Narva_RAAS_v1.Narva_RAAS_v1"))
	assert.Equal(t, "Plain", layerName("Plain"))
}
