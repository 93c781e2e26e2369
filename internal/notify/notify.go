// Package notify turns tracker transitions into in-game warnings and Discord
// embeds.
package notify

import (
	"context"
	"time"

	"github.com/admincam/camwatch/internal/camera"
)

// Warner delivers a private in-game message to one player.
type Warner interface {
	Warn(ctx context.Context, playerID, text string) error
}

// EmbedSender posts an embed to the configured Discord channel.
type EmbedSender interface {
	SendEmbed(ctx context.Context, e Embed) error
}

// AdminLister returns the online admins that should receive warnings.
type AdminLister interface {
	EligibleAdmins(ctx context.Context) ([]camera.Admin, error)
}

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a transport-neutral rich message.
type Embed struct {
	Title       string
	Description string
	Color       int
	Timestamp   time.Time
	Footer      string
	Fields      []Field
	// PingRole asks the sender to mention the configured admin role.
	PingRole bool
}
