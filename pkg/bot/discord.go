package bot

import (
	"context"

	"github.com/samber/lo"

	"pixelmirror/pkg/command"
	"pixelmirror/pkg/discord"
)

func NewDiscordSender(c *discord.Client) Sender {
	return &discordSender{c: c}
}

type discordSender struct {
	c *discord.Client
}

func (s *discordSender) Send(ctx context.Context, channelID uint64, text string) error {
	_, err := s.c.CreateMessage(ctx, discord.Snowflake(channelID), &discord.MessageSend{Content: text})
	return err
}

// ResolveOwners returns configured when set, the owners of the bot
// application otherwise.
func ResolveOwners(ctx context.Context, c *discord.Client, configured uint64) (command.Authorizer, []uint64, error) {
	if configured != 0 {
		return command.Owners(configured), []uint64{configured}, nil
	}

	app, err := c.Application(ctx)
	if err != nil {
		return nil, nil, err
	}

	ids := lo.Map(app.Owners(), func(id discord.Snowflake, _ int) uint64 {
		return uint64(id)
	})
	return command.Owners(ids...), ids, nil
}
