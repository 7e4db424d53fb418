package notify

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

const alertColor = 0xEF4444

type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordSender posts alerts to a Discord webhook as a red embed.
type DiscordSender struct {
	webhookID string
	token     string
	session   webhookExecutor
}

// NewDiscordSender creates a DiscordSender. Webhooks need no bot token, so
// the session is created without one.
func NewDiscordSender(webhookID, token string) (*DiscordSender, error) {
	s, err := discordgo.New("")
	if err != nil {
		return nil, err
	}
	return &DiscordSender{webhookID: webhookID, token: token, session: s}, nil
}

func (d *DiscordSender) Send(ctx context.Context, title, message string) error {
	_, err := d.session.WebhookExecute(d.webhookID, d.token, false, &discordgo.WebhookParams{
		Username: "options-arb",
		Embeds: []*discordgo.MessageEmbed{{
			Title:       title,
			Description: message,
			Color:       alertColor,
		}},
	}, discordgo.WithContext(ctx))
	return err
}

func (d *DiscordSender) Name() string {
	return "discord"
}
