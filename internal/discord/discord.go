// Package discord posts camera notifications to a Discord channel.
package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/admincam/camwatch/internal/config"
	"github.com/admincam/camwatch/internal/notify"
)

var ErrNotConfigured = errors.New("discord: channel or token not configured")

// channelMessenger is the discordgo call the sender needs.
type channelMessenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Sender implements notify.EmbedSender over the Discord REST API. It keeps
// below Discord's per-channel limit of five messages per five seconds.
type Sender struct {
	api       channelMessenger
	channelID string
	roleID    string
	limiter   *rate.Limiter
}

// New creates a Sender from cfg. It returns ErrNotConfigured when there is no
// usable channel or token.
func New(cfg config.DiscordConfig) (*Sender, error) {
	if !cfg.ChannelConfigured() || cfg.Token == "" {
		return nil, ErrNotConfigured
	}
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return newSender(s, cfg), nil
}

func newSender(api channelMessenger, cfg config.DiscordConfig) *Sender {
	roleID := ""
	if cfg.RoleConfigured() {
		roleID = cfg.AdminRoleID
	}
	return &Sender{
		api:       api,
		channelID: cfg.ChannelID,
		roleID:    roleID,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

func (s *Sender) SendEmbed(ctx context.Context, e notify.Embed) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	msg := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{toDiscord(e)},
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Roles: []string{},
		},
	}
	if e.PingRole && s.roleID != "" {
		msg.Content = fmt.Sprintf("<@&%s>", s.roleID)
		msg.AllowedMentions.Roles = []string{s.roleID}
	}
	if _, err := s.api.ChannelMessageSendComplex(s.channelID, msg, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord send to %s: %w", s.channelID, err)
	}
	return nil
}

func toDiscord(e notify.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if !e.Timestamp.IsZero() {
		out.Timestamp = e.Timestamp.UTC().Format(time.RFC3339)
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return out
}
