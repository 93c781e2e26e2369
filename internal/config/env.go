package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// envOverrides lists the settings that may come from the environment.
// Secrets are expected here rather than in the YAML file.
type envOverrides struct {
	DiscordToken string `env:"DISCORD_TOKEN"`
	ChannelID    string `env:"DISCORD_CHANNEL_ID"`
	RoleID       string `env:"DISCORD_ADMIN_ROLE_ID"`
	RCONAddress  string `env:"RCON_ADDRESS"`
	RCONPassword string `env:"RCON_PASSWORD"`
	AuthToken    string `env:"CAMWATCH_TOKEN"`
	LogLevel     string `env:"CAMWATCH_LOG_LEVEL"`
}

// LoadDotEnv loads a .env file from the working directory if one exists.
func LoadDotEnv() {
	// not an error - production environments may not have .env file
	_ = godotenv.Load()
}

func applyEnv(cfg *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Discord.Token, o.DiscordToken)
	set(&cfg.Discord.ChannelID, o.ChannelID)
	set(&cfg.Discord.AdminRoleID, o.RoleID)
	set(&cfg.RCON.Address, o.RCONAddress)
	set(&cfg.RCON.Password, o.RCONPassword)
	set(&cfg.Server.AuthToken, o.AuthToken)
	set(&cfg.Log.Level, o.LogLevel)
	return nil
}
