package mirror

import (
	"bytes"
	"context"
	"fmt"

	"pixelmirror/pkg/discord"
)

// NewDiscordTransport publishes the mirror through the Discord REST API.
func NewDiscordTransport(c *discord.Client) Transport {
	return &discordTransport{c: c}
}

type discordTransport struct {
	c *discord.Client
}

func (d *discordTransport) CreateMessage(ctx context.Context, channelID uint64, embed Embed) (Identity, error) {
	m, err := d.c.CreateMessage(ctx, discord.Snowflake(channelID), &discord.MessageSend{
		Embeds: []*discord.Embed{toDiscordEmbed(embed)},
	})
	if err != nil {
		return Identity{}, wrapNotFound(err)
	}

	return Identity{ChannelID: uint64(m.ChannelID), MessageID: uint64(m.ID)}, nil
}

func (d *discordTransport) FetchMessage(ctx context.Context, id Identity) (*Message, error) {
	m, err := d.c.GetMessage(ctx, discord.Snowflake(id.ChannelID), discord.Snowflake(id.MessageID))
	if err != nil {
		return nil, wrapNotFound(err)
	}

	msg := &Message{Identity: Identity{ChannelID: uint64(m.ChannelID), MessageID: uint64(m.ID)}}
	for _, e := range m.Embeds {
		msg.Embeds = append(msg.Embeds, fromDiscordEmbed(e))
	}

	return msg, nil
}

func (d *discordTransport) PatchMessage(ctx context.Context, id Identity, embed Embed, attachments []Attachment) error {
	edit := &discord.MessageEdit{
		Embeds:      []*discord.Embed{toDiscordEmbed(embed)},
		Attachments: make([]*discord.PartialAttachment, 0, len(attachments)),
	}

	files := make([]*discord.File, 0, len(attachments))
	for i, a := range attachments {
		edit.Attachments = append(edit.Attachments, &discord.PartialAttachment{
			ID:       fmt.Sprint(i),
			Filename: a.Name,
		})
		files = append(files, &discord.File{
			Name:        a.Name,
			ContentType: a.ContentType,
			Reader:      bytes.NewReader(a.Data),
		})
	}

	if _, err := d.c.EditMessage(ctx, discord.Snowflake(id.ChannelID), discord.Snowflake(id.MessageID), edit, files...); err != nil {
		return wrapNotFound(err)
	}

	return nil
}

func wrapNotFound(err error) error {
	if discord.IsNotFound(err) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

func toDiscordEmbed(e Embed) *discord.Embed {
	de := &discord.Embed{Title: e.Title}
	if e.Footer != "" {
		de.Footer = &discord.EmbedFooter{Text: e.Footer}
	}
	if e.ImageURL != "" {
		de.Image = &discord.EmbedImage{URL: e.ImageURL}
	}
	if !e.Timestamp.IsZero() {
		ts := e.Timestamp
		de.Timestamp = &ts
	}
	return de
}

func fromDiscordEmbed(de *discord.Embed) Embed {
	e := Embed{Title: de.Title}
	if de.Footer != nil {
		e.Footer = de.Footer.Text
	}
	if de.Image != nil {
		e.ImageURL = de.Image.URL
	}
	if de.Timestamp != nil {
		e.Timestamp = *de.Timestamp
	}
	return e
}
