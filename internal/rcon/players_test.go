package rcon

import "testing"

const listPlayersResp = `----- Active Players -----
ID: 0 | Online IDs: EOS: 0002a10386e4473a9ec8ba6e23b1b4a0 steam: 76561198000000001 | Name: Alice | Team ID: 1 | Squad ID: N/A | Is Leader: False | Role: USA_Rifleman_01
ID: 3 | Online IDs: EOS: 0002b20386e4473a9ec8ba6e23b1b4a1 steam: 76561198000000002 | Name: [TAG] Bob | Smith | Team ID: 2 | Squad ID: 1 | Is Leader: True | Role: RGF_SL_01
----- Recently Disconnected Players [Max of 15] -----
ID: 1 | Online IDs: EOS: 0002c30386e4473a9ec8ba6e23b1b4a2 steam: 76561198000000003 | Since Disconnect: 02m.30s | Name: Carol
`

func TestParsePlayers(t *testing.T) {
	players := ParsePlayers(listPlayersResp)
	if len(players) != 2 {
		t.Fatalf("got %d players, want 2: %+v", len(players), players)
	}

	tests := []struct {
		got, want any
		field     string
	}{
		{players[0].EOSID, "0002a10386e4473a9ec8ba6e23b1b4a0", "EOSID"},
		{players[0].SteamID, "76561198000000001", "SteamID"},
		{players[0].Name, "Alice", "Name"},
		{players[0].SquadID, "N/A", "SquadID"},
		{players[1].ID, 3, "ID"},
		{players[1].Name, "[TAG] Bob | Smith", "Name with pipe"},
		{players[1].IsLeader, true, "IsLeader"},
		{players[1].Role, "RGF_SL_01", "Role"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.field, tt.got, tt.want)
		}
	}
}

func TestParsePlayersEmpty(t *testing.T) {
	if got := ParsePlayers("----- Active Players -----\n"); len(got) != 0 {
		t.Errorf("ParsePlayers(empty) = %+v", got)
	}
}
