package matches

import (
	"strings"
	"testing"
	"time"

	"github.com/admincam/camwatch/internal/archive"
	"github.com/admincam/camwatch/internal/camera"
)

func sample() []archive.Match {
	t0 := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	return []archive.Match{
		{ID: 7, Layer: "Narva_RAAS_v1", Winner: "Royal Welsh", EndedAt: t0, Stats: camera.Stats{TotalSessions: 3, TotalTimeMs: 65000}},
		{ID: 6, Layer: "Gorodok_RAAS_v1", EndedAt: t0.Add(-time.Hour)},
	}
}

func TestNavigation(t *testing.T) {
	m := New()
	m.SetMatches(sample())

	if id, ok := m.Current(); !ok || id != 7 {
		t.Fatalf("Current() = %d, %v, want 7", id, ok)
	}
	m.Sessions = []*camera.Session{{Name: "Alice"}}
	m.Down()
	if id, _ := m.Current(); id != 6 {
		t.Errorf("after Down, Current() = %d, want 6", id)
	}
	if m.Sessions != nil {
		t.Error("moving the selection should drop loaded sessions")
	}
	m.Down()
	if m.Selected != 1 {
		t.Errorf("Selected = %d, want 1 at the end of the list", m.Selected)
	}
	m.Up()
	m.Up()
	if m.Selected != 0 {
		t.Errorf("Selected = %d, want 0", m.Selected)
	}
}

func TestViewStates(t *testing.T) {
	m := New()
	if v := m.View(100, 30); !strings.Contains(v, "Loading") {
		t.Error("new overlay should show loading")
	}
	m.SetMatches(nil)
	if v := m.View(100, 30); !strings.Contains(v, "No archived matches") {
		t.Error("empty archive should say so")
	}
	m.SetMatches(sample())
	v := m.View(120, 30)
	for _, want := range []string{"Narva_RAAS_v1", "Royal Welsh", "1m 5s"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
	m.Err = "GET /api/matches: 503 archive not enabled"
	if v := m.View(100, 30); !strings.Contains(v, "archive not enabled") {
		t.Error("error should be shown")
	}
}
