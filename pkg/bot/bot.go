package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"pixelmirror/pkg/command"
	"pixelmirror/pkg/discord"
	"pixelmirror/pkg/mirror"
)

const (
	RepoURL       = "https://github.com/JMcB17/pydis-pixels"
	CompendiumURL = "https://jmcb17.github.io/pydis-pixels/pages/"
	CommunityURL  = "discord.gg/python"
)

var ErrInvalidChannel = errors.New("invalid channel")

// Sender posts plain text replies.
type Sender interface {
	Send(ctx context.Context, channelID uint64, text string) error
}

func New(keeper *mirror.Keeper, sender Sender, logger *zap.Logger) *Bot {
	return &Bot{
		keeper: keeper,
		sender: sender,
		log:    logger.With(zap.String("via", "bot")),
	}
}

type Bot struct {
	keeper *mirror.Keeper
	sender Sender
	router *command.Router
	self   func() discord.Snowflake
	log    *zap.Logger
}

// Commands is the complete command table of the bot.
func (b *Bot) Commands() []*command.Command {
	return append(b.mirrorCommands(), b.infoCommands()...)
}

func (b *Bot) mirrorCommands() []*command.Command {
	return []*command.Command{
		{
			Name:       "startmirror",
			Args:       1,
			Usage:      "startmirror <#channel>",
			Restricted: true,
			Handler: func(ctx context.Context, inv *command.Invocation) (string, error) {
				channelID, err := ParseChannel(inv.Args[0])
				if err != nil {
					return "", err
				}

				id, err := b.keeper.Create(ctx, channelID)
				if err != nil {
					return "", err
				}

				return fmt.Sprintf("Done, message ID: %d, channel ID: %d", id.MessageID, id.ChannelID), nil
			},
		},
	}
}

func (b *Bot) infoCommands() []*command.Command {
	reply := func(text string) command.Handler {
		return func(context.Context, *command.Invocation) (string, error) {
			return text, nil
		}
	}

	return []*command.Command{
		{Name: "repo", Aliases: []string{"github", "source"}, Handler: reply(RepoURL)},
		{Name: "compendium", Handler: reply(fmt.Sprintf("<%s>", CompendiumURL))},
		{Name: "python_discord", Aliases: []string{"discord", "pydis"}, Handler: reply(CommunityURL)},
	}
}

// Route builds the command router. It fails on conflicting names.
func (b *Bot) Route(prefix string, authorize command.Authorizer) error {
	router, err := command.New(prefix, authorize, b.log, b.Commands()...)
	if err != nil {
		return err
	}

	b.router = router
	b.log.With(zap.Strings("commands", router.Names())).Info("commands registered")
	return nil
}

// Attach routes the commands arriving on gw.
func (b *Bot) Attach(gw *discord.Gateway, prefix string, authorize command.Authorizer) error {
	if err := b.Route(prefix, authorize); err != nil {
		return err
	}

	b.self = gw.Self
	gw.OnMessageCreate(b.HandleMessage)
	return nil
}

func (b *Bot) HandleMessage(ctx context.Context, m *discord.Message) {
	if b.router == nil || m.Author == nil || m.Author.Bot {
		return
	}
	if b.self != nil && m.Author.ID == b.self() {
		return
	}

	reply, handled := b.router.Dispatch(ctx, command.Invocation{
		AuthorID:  uint64(m.Author.ID),
		ChannelID: uint64(m.ChannelID),
		GuildID:   uint64(m.GuildID),
	}, m.Content)
	if !handled || reply == "" {
		return
	}

	if err := b.sender.Send(ctx, uint64(m.ChannelID), reply); err != nil {
		b.log.With(zap.Error(err), zap.Stringer("channel", m.ChannelID)).Info("reply failed")
	}
}

// ParseChannel accepts a channel mention (<#id>) or a bare id.
func ParseChannel(arg string) (uint64, error) {
	s := arg
	if strings.HasPrefix(s, "<#") && strings.HasSuffix(s, ">") {
		s = s[2 : len(s)-1]
	}

	id, err := discord.ParseSnowflake(s)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChannel, arg)
	}

	return uint64(id), nil
}
