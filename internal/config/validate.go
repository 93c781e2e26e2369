package config

import "fmt"

// Validate checks the configuration for inconsistencies that should not stop
// the service and fixes them up in place. Each returned string describes
// one adjustment or risk and is meant to be logged as a warning.
func (c *Config) Validate() []string {
	var warnings []string
	n := &c.Notifications

	if !c.Discord.ChannelConfigured() {
		if n.Discord || n.SessionSummary {
			warnings = append(warnings, "discord channel_id not configured; discord notifications and session summaries disabled")
		}
		n.Discord = false
		n.SessionSummary = false
	} else if c.Discord.Token == "" {
		warnings = append(warnings, "discord token not set (DISCORD_TOKEN); discord notifications disabled")
		n.Discord = false
		n.SessionSummary = false
	}
	if c.Discord.ChannelConfigured() && !c.Discord.RoleConfigured() {
		warnings = append(warnings, "discord admin_role_id not configured; role pings disabled")
	}

	if c.Ignore.Enabled && len(c.Ignore.EOSIDs) == 0 && len(c.Ignore.SteamIDs) == 0 {
		warnings = append(warnings, "ignore list enabled but no IDs configured; only runtime additions will apply")
	}

	if n.Cooldown && n.CooldownWindow <= 0 {
		warnings = append(warnings, fmt.Sprintf("cooldown_window %s is not positive; cooldown disabled", n.CooldownWindow))
		n.Cooldown = false
	}
	if n.DisconnectTracking && n.DisconnectTimeout <= 0 {
		warnings = append(warnings, fmt.Sprintf("disconnect_timeout %s is not positive; orphaned sessions close immediately", n.DisconnectTimeout))
	}

	if n.InGameWarnings && c.RCON.Password == "" {
		warnings = append(warnings, "rcon password not set (RCON_PASSWORD); in-game warnings will fail")
	}
	if c.RCON.MaxMessageLength <= 0 {
		warnings = append(warnings, "rcon max_message_length must be positive; using 200")
		c.RCON.MaxMessageLength = 200
	}
	if n.AdminPermission == "" {
		n.AdminPermission = "canseeadminchat"
	}

	if c.Server.AuthToken == "" && c.Server.Host != "127.0.0.1" && c.Server.Host != "localhost" {
		warnings = append(warnings, fmt.Sprintf("feed server listening on %s without auth_token", c.Server.Host))
	}
	return warnings
}
