package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "camwatch.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
squad:
  log_path: /srv/squad/SquadGame.log
  server_name: "Test Server"
discord:
  channel_id: "123456789"
notifications:
  cooldown_window: 45s
  disconnect_timeout: 90s
  stealth_notices: true
ignore:
  enabled: true
  eos_ids: ["0002a1b2c3"]
messages:
  enter: "{admin} is watching"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want default 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Squad.LogPath != "/srv/squad/SquadGame.log" {
		t.Errorf("Squad.LogPath = %q", cfg.Squad.LogPath)
	}
	if cfg.Notifications.CooldownWindow != 45*time.Second {
		t.Errorf("CooldownWindow = %v, want 45s", cfg.Notifications.CooldownWindow)
	}
	if cfg.Notifications.DisconnectTimeout != 90*time.Second {
		t.Errorf("DisconnectTimeout = %v, want 90s", cfg.Notifications.DisconnectTimeout)
	}
	if !cfg.Notifications.StealthNotices {
		t.Error("StealthNotices = false, want true")
	}
	if !cfg.Notifications.Cooldown {
		t.Error("Cooldown default lost after partial override")
	}
	if cfg.Messages.Enter != "{admin} is watching" {
		t.Errorf("Messages.Enter = %q", cfg.Messages.Enter)
	}
	if !strings.Contains(cfg.Messages.Leave, "{admin}") {
		t.Errorf("Messages.Leave default lost: %q", cfg.Messages.Leave)
	}
	if len(cfg.Ignore.EOSIDs) != 1 || cfg.Ignore.EOSIDs[0] != "0002a1b2c3" {
		t.Errorf("Ignore.EOSIDs = %v", cfg.Ignore.EOSIDs)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() of missing file returned nil error")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unterminated")
	if _, err := Load(path); err == nil {
		t.Error("Load() of invalid YAML returned nil error")
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	d := Default()
	if cfg.Notifications.CooldownWindow != d.Notifications.CooldownWindow {
		t.Errorf("CooldownWindow = %v, want %v", cfg.Notifications.CooldownWindow, d.Notifications.CooldownWindow)
	}
	if cfg.Discord.EnterColor != 16711680 || cfg.Discord.LeaveColor != 65280 || cfg.Discord.SummaryColor != 16776960 {
		t.Errorf("unexpected default colors: %+v", cfg.Discord)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "bot-secret")
	t.Setenv("RCON_PASSWORD", "rcon-secret")
	t.Setenv("CAMWATCH_TOKEN", "feed-secret")
	t.Setenv("DISCORD_CHANNEL_ID", "42")

	path := writeConfig(t, `
rcon:
  password: from-file
discord:
  channel_id: "7"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"discord token", cfg.Discord.Token, "bot-secret"},
		{"rcon password", cfg.RCON.Password, "rcon-secret"},
		{"auth token", cfg.Server.AuthToken, "feed-secret"},
		{"channel", cfg.Discord.ChannelID, "42"},
		{"rcon address default", cfg.RCON.Address, "127.0.0.1:21114"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestAddr(t *testing.T) {
	cfg := Default()
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 7000
	if got := cfg.Addr(); got != "0.0.0.0:7000" {
		t.Errorf("Addr() = %q", got)
	}
}
