package squadlog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admincam/camwatch/internal/events"
)

type sliceSink struct {
	got []events.Event
}

func (s *sliceSink) Post(_ context.Context, ev events.Event) error {
	s.got = append(s.got, ev)
	return nil
}

func (s *sliceSink) kinds() []events.Kind {
	out := make([]events.Kind, len(s.got))
	for i, ev := range s.got {
		out[i] = ev.Kind
	}
	return out
}

func appendFile(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(text)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestTailerReadsCompleteLinesOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "SquadGame.log")
	enter := possessLine("2026.03.14-20.31.45:123", "AdminAlice", aliceEOS, "CameraMan")
	leave := unpossessLine("2026.03.14-20.36.45:000", "AdminAlice", aliceEOS)

	appendFile(t, path, enter+"\n"+leave[:40])

	tl := NewTailer(path, 0, true)
	sink := &sliceSink{}
	ctx := context.Background()

	require.NoError(t, tl.poll(ctx, sink))
	assert.Equal(t, []events.Kind{events.CameraEnter}, sink.kinds())

	appendFile(t, path, leave[40:]+"\n")
	require.NoError(t, tl.poll(ctx, sink))
	assert.Equal(t, []events.Kind{events.CameraEnter, events.CameraLeave}, sink.kinds())

	h := tl.Health()
	assert.Equal(t, StatusHealthy, h.Status)
	assert.EqualValues(t, 2, h.EventsRead)
}

func TestTailerStartsAtEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "SquadGame.log")
	appendFile(t, path, possessLine("2026.03.14-20.31.45:123", "AdminAlice", aliceEOS, "CameraMan")+"\n")

	tl := NewTailer(path, 0, false)
	fi, err := os.Stat(path)
	require.NoError(t, err)
	tl.file, tl.offset = fi, fi.Size()

	sink := &sliceSink{}
	require.NoError(t, tl.poll(context.Background(), sink))
	assert.Empty(t, sink.got)

	appendFile(t, path, possessLine("2026.03.14-20.32.00:000", "AdminBob", bobEOS, "CameraMan")+"\n")
	require.NoError(t, tl.poll(context.Background(), sink))
	require.Len(t, sink.got, 1)
	assert.Equal(t, bobEOS, sink.got[0].Player.EOSID)
}

func TestTailerRestartsAfterTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "SquadGame.log")
	line := possessLine("2026.03.14-20.31.45:123", "AdminAlice", aliceEOS, "CameraMan") + "\n"
	appendFile(t, path, line+line)

	tl := NewTailer(path, 0, true)
	sink := &sliceSink{}
	require.NoError(t, tl.poll(context.Background(), sink))
	require.Len(t, sink.got, 2)

	require.NoError(t, os.WriteFile(path, []byte(possessLine("2026.03.14-22.00.00:000", "AdminBob", bobEOS, "CameraMan")+"\n"), 0o644))
	require.NoError(t, tl.poll(context.Background(), sink))
	require.Len(t, sink.got, 3)
	assert.Equal(t, bobEOS, sink.got[2].Player.EOSID)
}

func TestTailerMissingFileDegrades(t *testing.T) {
	tl := NewTailer(filepath.Join(t.TempDir(), "missing.log"), 0, false)
	err := tl.poll(context.Background(), &sliceSink{})
	require.Error(t, err)

	assert.True(t, tl.health.recordFailure(err))
	assert.Equal(t, StatusDegraded, tl.Health().Status)

	tl.health.recordSuccess()
	assert.Equal(t, StatusHealthy, tl.Health().Status)
}

func TestTailerName(t *testing.T) {
	var src events.Source = NewTailer("x", 0, false)
	assert.Equal(t, "squadlog", src.Name())
}
