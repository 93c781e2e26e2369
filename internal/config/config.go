package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Sentinel used by Squad server configs for "not configured".
const unsetID = "default"

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Squad         SquadConfig         `yaml:"squad"`
	RCON          RCONConfig          `yaml:"rcon"`
	Discord       DiscordConfig       `yaml:"discord"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Ignore        IgnoreConfig        `yaml:"ignore"`
	Messages      MessagesConfig      `yaml:"messages"`
	Archive       ArchiveConfig       `yaml:"archive"`
	Log           LogConfig           `yaml:"log"`
}

type ServerConfig struct {
	Port              int           `yaml:"port"`
	Host              string        `yaml:"host"`
	AuthToken         string        `yaml:"auth_token"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
	SnapshotInterval  time.Duration `yaml:"snapshot_interval"`
	BroadcastThrottle time.Duration `yaml:"broadcast_throttle"`
	MaxConnections    int           `yaml:"max_connections"`
	// CommandOperators lists the EOS IDs /api/command may act as. When
	// empty, any holder of the auth token may act as any admin.
	CommandOperators []string `yaml:"command_operators"`
}

type SquadConfig struct {
	LogPath      string        `yaml:"log_path"`
	AdminsCfg    string        `yaml:"admins_cfg"`
	PollInterval time.Duration `yaml:"poll_interval"`
	ServerName   string        `yaml:"server_name"`
	// ReadFromStart replays the whole log on startup instead of tailing
	// from the current end.
	ReadFromStart bool `yaml:"read_from_start"`
}

type RCONConfig struct {
	Address          string        `yaml:"address"`
	Password         string        `yaml:"password"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	WarnsPerSecond   float64       `yaml:"warns_per_second"`
	MaxMessageLength int           `yaml:"max_message_length"`
	RosterInterval   time.Duration `yaml:"roster_interval"`
}

type DiscordConfig struct {
	Token        string `yaml:"token"`
	ChannelID    string `yaml:"channel_id"`
	AdminRoleID  string `yaml:"admin_role_id"`
	EnterColor   int    `yaml:"enter_color"`
	LeaveColor   int    `yaml:"leave_color"`
	SummaryColor int    `yaml:"summary_color"`
	OrphanColor  int    `yaml:"orphan_color"`
}

// ChannelConfigured reports whether a real channel ID is set.
func (d DiscordConfig) ChannelConfigured() bool {
	return d.ChannelID != "" && d.ChannelID != unsetID
}

// RoleConfigured reports whether a real role ID is set.
func (d DiscordConfig) RoleConfigured() bool {
	return d.AdminRoleID != "" && d.AdminRoleID != unsetID
}

type NotificationsConfig struct {
	InGameWarnings     bool          `yaml:"in_game_warnings"`
	Discord            bool          `yaml:"discord"`
	Confirmations      bool          `yaml:"confirmations"`
	Cooldown           bool          `yaml:"cooldown"`
	CooldownWindow     time.Duration `yaml:"cooldown_window"`
	TrackSuppressed    bool          `yaml:"track_suppressed"`
	IncludeDuration    bool          `yaml:"include_duration"`
	FirstEntry         bool          `yaml:"first_entry"`
	LastExit           bool          `yaml:"last_exit"`
	SessionSummary     bool          `yaml:"session_summary"`
	DisconnectTracking bool          `yaml:"disconnect_tracking"`
	DisconnectTimeout  time.Duration `yaml:"disconnect_timeout"`
	WarnOnlyInCamera   bool          `yaml:"warn_only_in_camera"`
	StealthNotices     bool          `yaml:"stealth_notices"`
	AdminPermission    string        `yaml:"admin_permission"`
}

type IgnoreConfig struct {
	Enabled  bool     `yaml:"enabled"`
	EOSIDs   []string `yaml:"eos_ids"`
	SteamIDs []string `yaml:"steam_ids"`
	// StateDir holds the list edited at runtime by chat command. Empty
	// means the XDG state directory.
	StateDir string `yaml:"state_dir"`
}

type MessagesConfig struct {
	Enter                         string `yaml:"enter"`
	Leave                         string `yaml:"leave"`
	LeaveWithDuration             string `yaml:"leave_with_duration"`
	EnterConfirmation             string `yaml:"enter_confirmation"`
	LeaveConfirmation             string `yaml:"leave_confirmation"`
	LeaveConfirmationWithDuration string `yaml:"leave_confirmation_with_duration"`
	FirstEntry                    string `yaml:"first_entry"`
	LastExit                      string `yaml:"last_exit"`
	Orphaned                      string `yaml:"orphaned"`
	CooldownNotice                string `yaml:"cooldown_notice"`
	IgnoredNotice                 string `yaml:"ignored_notice"`
}

type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8080,
			Host:              "127.0.0.1",
			SnapshotInterval:  5 * time.Second,
			BroadcastThrottle: 100 * time.Millisecond,
			MaxConnections:    64,
		},
		Squad: SquadConfig{
			LogPath:      "SquadGame/Saved/Logs/SquadGame.log",
			AdminsCfg:    "SquadGame/ServerConfig/Admins.cfg",
			PollInterval: 250 * time.Millisecond,
			ServerName:   "Squad Server",
		},
		RCON: RCONConfig{
			Address:          "127.0.0.1:21114",
			DialTimeout:      5 * time.Second,
			WarnsPerSecond:   5,
			MaxMessageLength: 200,
			RosterInterval:   5 * time.Second,
		},
		Discord: DiscordConfig{
			ChannelID:    unsetID,
			AdminRoleID:  unsetID,
			EnterColor:   16711680,
			LeaveColor:   65280,
			SummaryColor: 16776960,
			OrphanColor:  16753920,
		},
		Notifications: NotificationsConfig{
			InGameWarnings:     true,
			Discord:            true,
			Confirmations:      true,
			Cooldown:           true,
			CooldownWindow:     30 * time.Second,
			IncludeDuration:    true,
			FirstEntry:         true,
			LastExit:           true,
			DisconnectTracking: true,
			DisconnectTimeout:  2 * time.Minute,
			AdminPermission:    "canseeadminchat",
		},
		Messages: MessagesConfig{
			Enter:                         "🚨 {admin} entered admin camera. Active admins: {count}",
			Leave:                         "✅ {admin} left admin camera. Active admins: {count}",
			LeaveWithDuration:             "✅ {admin} left admin camera after {duration}. Active admins: {count}",
			EnterConfirmation:             "You entered admin camera. Active admins: {count}",
			LeaveConfirmation:             "You left admin camera. Active admins: {count}",
			LeaveConfirmationWithDuration: "You left admin camera after {duration}. Active admins: {count}",
			FirstEntry:                    "🚨 ADMIN CAMERA ACTIVATED - {admin} is now monitoring",
			LastExit:                      "✅ ADMIN CAMERA DEACTIVATED - No admins currently monitoring",
			Orphaned:                      "⚠️ {admin} disconnected while in admin camera. Session closed after {duration}. Active admins: {count}",
			CooldownNotice:                "Camera notification skipped (cooldown). Active admins: {count}",
			IgnoredNotice:                 "Camera notification skipped (ignore list). Active admins: {count}",
		},
		Archive: ArchiveConfig{
			Path: "camwatch.db",
		},
		Log: LogConfig{
			Level: "",
		},
	}
}

// Load reads the YAML file at path over Default and then applies environment
// overrides. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr returns the listen address for the feed server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
