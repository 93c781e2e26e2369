package mock

import (
	"context"
	"math/rand"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admincam/camwatch/internal/admins"
	"github.com/admincam/camwatch/internal/events"
)

func newTestGenerator() *Generator {
	g := NewGenerator(time.Millisecond)
	g.rng = rand.New(rand.NewSource(1))
	return g
}

// camState replays events and tracks who is in camera, failing on any
// leave without a matching enter.
func camState(t *testing.T, evs []events.Event, in map[string]bool) {
	t.Helper()
	for _, ev := range evs {
		switch ev.Kind {
		case events.CameraEnter:
			in[ev.Player.EOSID] = true
		case events.CameraLeave:
			require.True(t, in[ev.Player.EOSID], "leave without enter for %s", ev.Player.Name)
			delete(in, ev.Player.EOSID)
		case events.NewMatch:
			assert.Empty(t, in, "camera sessions still open at new match")
		}
	}
}

func TestGeneratorProducesConsistentCameraEvents(t *testing.T) {
	g := newTestGenerator()
	in := make(map[string]bool)
	kinds := make(map[events.Kind]int)
	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

	for tick := 1; tick <= 2*g.roundTicks; tick++ {
		evs := g.step(tick, now.Add(time.Duration(tick)*time.Second))
		for _, ev := range evs {
			kinds[ev.Kind]++
		}
		camState(t, evs, in)
	}

	assert.Positive(t, kinds[events.CameraEnter])
	assert.Positive(t, kinds[events.CameraLeave])
	assert.Positive(t, kinds[events.ChatCommand])
	assert.Equal(t, 2, kinds[events.MatchEnded])
	assert.Equal(t, 2, kinds[events.NewMatch])
}

func TestGeneratorBounceReentersOnce(t *testing.T) {
	g := newTestGenerator()
	var carol *mockAdmin
	for _, a := range g.admins {
		if a.pattern == "bounce" {
			carol = a
		}
	}
	require.NotNil(t, carol)

	now := time.Now()
	var enters int
	for tick := 1; tick <= carol.period*2; tick++ {
		for _, ev := range g.advance(carol, tick, now) {
			if ev.Kind == events.CameraEnter {
				enters++
			}
		}
	}
	// Two visits, each with one immediate re-entry.
	assert.Equal(t, 4, enters)
}

func TestGeneratorRunPostsStartupEvents(t *testing.T) {
	g := newTestGenerator()
	g.interval = time.Hour
	sink := &recordSink{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx, sink) }()

	require.Eventually(t, func() bool { return sink.len() == 1+len(g.admins) }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	got := sink.events()
	assert.Equal(t, events.NewMatch, got[0].Kind)
	for _, ev := range got[1:] {
		assert.Equal(t, events.PlayerConnected, ev.Kind)
	}
}

func TestServerRosterMatchesAdminsCfg(t *testing.T) {
	g := newTestGenerator()
	srv := NewServer(g)

	path, err := WriteAdminsCfg(t.TempDir(), "canseeadminchat", g)
	require.NoError(t, err)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "Group=MockAdmin:canseeadminchat"))

	l := admins.NewLister(path, "canseeadminchat", srv, time.Minute)
	got, err := l.EligibleAdmins(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, len(g.admins))
}

func TestServerRecordsWarnings(t *testing.T) {
	srv := NewServer(newTestGenerator())
	require.NoError(t, srv.Warn(context.Background(), "p1", "hello"))
	require.NoError(t, srv.Warn(context.Background(), "p1", "again"))
	assert.Equal(t, []string{"hello", "again"}, srv.Warnings("p1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, srv.Warn(ctx, "p1", "late"))
}
