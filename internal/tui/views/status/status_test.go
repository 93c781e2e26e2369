package status

import (
	"strings"
	"testing"

	"github.com/admincam/camwatch/internal/squadlog"
	"github.com/admincam/camwatch/internal/tui/client"
)

func TestViewDisconnected(t *testing.T) {
	m := New()
	m.Width = 160
	v := m.View()
	if !strings.Contains(v, "Connecting...") {
		t.Errorf("view should show connecting state, got %q", v)
	}
	if !strings.Contains(v, "0 in camera") {
		t.Errorf("view should show zero active, got %q", v)
	}
	if strings.Contains(v, "disconnected") {
		t.Error("no pending orphans should not render a disconnected count")
	}
}

func TestViewCountsAndServer(t *testing.T) {
	m := New()
	m.Width = 160
	m.Connected = true
	m.Server = "Squad #1"
	m.SetCounts(2, 1)

	v := m.View()
	for _, want := range []string{"Connected", "Squad #1", "2 in camera", "1 disconnected"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q: %q", want, v)
		}
	}
}

func TestHealthView(t *testing.T) {
	tests := []struct {
		name   string
		health *client.Health
		want   string
	}{
		{"none", nil, ""},
		{"mock source", &client.Health{Source: "mock"}, "mock"},
		{"degraded log", &client.Health{
			Source:       "squadlog",
			SourceHealth: &squadlog.HealthSnapshot{Status: squadlog.StatusDegraded},
		}, "squadlog: degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Model{Health: tt.health}
			got := m.healthView()
			if tt.want == "" {
				if got != "" {
					t.Errorf("healthView() = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("healthView() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}
