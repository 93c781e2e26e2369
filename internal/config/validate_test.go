package config

import (
	"strings"
	"testing"
)

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestValidateMissingChannelDisablesDiscord(t *testing.T) {
	cfg := Default()
	cfg.Notifications.SessionSummary = true
	cfg.RCON.Password = "x"

	warnings := cfg.Validate()

	if cfg.Notifications.Discord || cfg.Notifications.SessionSummary {
		t.Errorf("discord features still enabled: %+v", cfg.Notifications)
	}
	if !hasWarning(warnings, "channel_id not configured") {
		t.Errorf("warnings = %v, want channel warning", warnings)
	}
	if hasWarning(warnings, "role pings") {
		t.Errorf("role warning emitted without a channel: %v", warnings)
	}
}

func TestValidateMissingRole(t *testing.T) {
	cfg := Default()
	cfg.Discord.ChannelID = "123"
	cfg.Discord.Token = "t"
	cfg.RCON.Password = "x"

	warnings := cfg.Validate()

	if !cfg.Notifications.Discord {
		t.Error("discord disabled despite valid channel and token")
	}
	if !hasWarning(warnings, "role pings disabled") {
		t.Errorf("warnings = %v, want role warning", warnings)
	}
}

func TestValidateMissingToken(t *testing.T) {
	cfg := Default()
	cfg.Discord.ChannelID = "123"
	cfg.Discord.AdminRoleID = "456"

	warnings := cfg.Validate()
	if cfg.Notifications.Discord {
		t.Error("discord enabled without a token")
	}
	if !hasWarning(warnings, "DISCORD_TOKEN") {
		t.Errorf("warnings = %v, want token warning", warnings)
	}
}

func TestValidateEmptyIgnoreList(t *testing.T) {
	cfg := Default()
	cfg.Ignore.Enabled = true

	if !hasWarning(cfg.Validate(), "ignore list enabled") {
		t.Error("missing empty ignore list warning")
	}
}

func TestValidateTimeouts(t *testing.T) {
	cfg := Default()
	cfg.Notifications.CooldownWindow = 0
	cfg.Notifications.DisconnectTimeout = -1

	warnings := cfg.Validate()
	if cfg.Notifications.Cooldown {
		t.Error("cooldown still enabled with zero window")
	}
	if !hasWarning(warnings, "disconnect_timeout") {
		t.Errorf("warnings = %v, want disconnect warning", warnings)
	}
}

func TestValidateMessageLength(t *testing.T) {
	cfg := Default()
	cfg.RCON.MaxMessageLength = 0
	cfg.Validate()
	if cfg.RCON.MaxMessageLength != 200 {
		t.Errorf("MaxMessageLength = %d, want 200", cfg.RCON.MaxMessageLength)
	}
}

func TestValidatePublicListenerWithoutToken(t *testing.T) {
	cfg := Default()
	cfg.Server.Host = "0.0.0.0"
	if !hasWarning(cfg.Validate(), "without auth_token") {
		t.Error("missing auth token warning")
	}
}
