package notifications

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

type DiscordProvider struct {
	session *discordgo.Session
}

func NewDiscordProvider(token string) (*DiscordProvider, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session, %s", err)
	}

	return &DiscordProvider{session: session}, nil
}

// Post sends the message as a rich embed
func (d *DiscordProvider) Post(ctx context.Context, channel string, msg *Message) (MessageRef, error) {
	sent, err := d.session.ChannelMessageSendEmbed(channel, msg.AsDiscordEmbed(), discordgo.WithContext(ctx))
	if err != nil {
		return MessageRef{}, err
	}

	return MessageRef{ID: sent.ID, Channel: sent.ChannelID}, nil
}

func (d *DiscordProvider) Update(ctx context.Context, ref MessageRef, msg *Message) error {
	_, err := d.session.ChannelMessageEditEmbed(ref.Channel, ref.ID, msg.AsDiscordEmbed(), discordgo.WithContext(ctx))
	return err
}

func (d *DiscordProvider) Delete(ctx context.Context, ref MessageRef) error {
	return d.session.ChannelMessageDelete(ref.Channel, ref.ID, discordgo.WithContext(ctx))
}
