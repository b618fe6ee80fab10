package discord

import (
	"encoding/json"
	"io"
	"strconv"
	"time"
)

// Snowflake is a Discord id. The API sends them as strings.
type Snowflake uint64

func ParseSnowflake(s string) (Snowflake, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	return Snowflake(v), err
}

func (s Snowflake) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

func (s Snowflake) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Snowflake) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = 0
		return nil
	}

	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		// tolerate plain numbers
		var n uint64
		if err2 := json.Unmarshal(b, &n); err2 != nil {
			return err
		}
		*s = Snowflake(n)
		return nil
	}

	v, err := ParseSnowflake(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type User struct {
	ID       Snowflake `json:"id"`
	Username string    `json:"username"`
	Bot      bool      `json:"bot,omitempty"`
}

type Message struct {
	ID          Snowflake     `json:"id"`
	ChannelID   Snowflake     `json:"channel_id"`
	GuildID     Snowflake     `json:"guild_id,omitempty"`
	Author      *User         `json:"author,omitempty"`
	Content     string        `json:"content"`
	Embeds      []*Embed      `json:"embeds"`
	Attachments []*Attachment `json:"attachments"`
}

type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Timestamp   *time.Time   `json:"timestamp,omitempty"`
	Color       int          `json:"color,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Image       *EmbedImage  `json:"image,omitempty"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

type EmbedImage struct {
	URL string `json:"url"`
}

type Attachment struct {
	ID          Snowflake `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int       `json:"size,omitempty"`
	URL         string    `json:"url,omitempty"`
}

// PartialAttachment references an attachment in an edit payload. New uploads
// use their files[n] index as id.
type PartialAttachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename,omitempty"`
}

type MessageSend struct {
	Content string   `json:"content,omitempty"`
	Embeds  []*Embed `json:"embeds,omitempty"`
}

// MessageEdit replaces the listed fields. Attachments is always sent: every
// existing attachment not listed is removed from the message.
type MessageEdit struct {
	Content     *string              `json:"content,omitempty"`
	Embeds      []*Embed             `json:"embeds"`
	Attachments []*PartialAttachment `json:"attachments"`
}

type File struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

type Team struct {
	OwnerUserID Snowflake     `json:"owner_user_id"`
	Members     []*TeamMember `json:"members"`
}

type TeamMember struct {
	User *User `json:"user"`
}

type Application struct {
	ID    Snowflake `json:"id"`
	Name  string    `json:"name"`
	Owner *User     `json:"owner,omitempty"`
	Team  *Team     `json:"team,omitempty"`
}

// Owners lists every user allowed to act as the bot owner.
func (a *Application) Owners() []Snowflake {
	var ids []Snowflake
	if a.Team != nil {
		for _, m := range a.Team.Members {
			if m.User != nil {
				ids = append(ids, m.User.ID)
			}
		}
		if len(ids) == 0 && a.Team.OwnerUserID != 0 {
			ids = append(ids, a.Team.OwnerUserID)
		}
		return ids
	}
	if a.Owner != nil {
		ids = append(ids, a.Owner.ID)
	}
	return ids
}
