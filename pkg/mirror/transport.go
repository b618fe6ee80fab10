package mirror

import (
	"context"
	"time"
)

type Embed struct {
	Title     string
	Footer    string
	ImageURL  string
	Timestamp time.Time
}

type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

type Message struct {
	Identity Identity
	Embeds   []Embed
}

// Transport is the chat platform side of the mirror. Implementations report
// a missing channel or message with an error matching ErrNotFound and are
// expected to bound every call with their own timeout.
type Transport interface {
	CreateMessage(ctx context.Context, channelID uint64, embed Embed) (Identity, error)
	FetchMessage(ctx context.Context, id Identity) (*Message, error)
	// PatchMessage replaces the embed and the complete attachment set of the
	// message in a single request.
	PatchMessage(ctx context.Context, id Identity, embed Embed, attachments []Attachment) error
}
