package virtual

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"pixelmirror/pkg/mirror"
)

// Mock is an in-memory chat platform. It logs every call and keeps the
// messages it was asked to create, so it doubles as a dry-run transport.
func Mock(logger *zap.Logger) *Mocker {
	return &Mocker{
		l:        logger.With(zap.String("via", "virtual")),
		messages: make(map[mirror.Identity]*Stored),
		nextID:   1000,
	}
}

type Stored struct {
	Embed       mirror.Embed
	Attachments []mirror.Attachment
}

type Patch struct {
	Identity    mirror.Identity
	Embed       mirror.Embed
	Attachments []mirror.Attachment
}

type Mocker struct {
	sync.Mutex
	l        *zap.Logger
	messages map[mirror.Identity]*Stored
	nextID   uint64

	Creates int
	Fetches int
	Patches []Patch

	// FailWith, when set, is returned by every call instead of performing it.
	FailWith error
}

func (m *Mocker) CreateMessage(_ context.Context, channelID uint64, embed mirror.Embed) (mirror.Identity, error) {
	m.Lock()
	defer m.Unlock()

	m.Creates++
	if m.FailWith != nil {
		return mirror.Identity{}, m.FailWith
	}

	m.nextID++
	id := mirror.Identity{ChannelID: channelID, MessageID: m.nextID}
	m.messages[id] = &Stored{Embed: embed}

	m.l.With(zap.Stringer("identity", id), zap.String("title", embed.Title)).Info("create-message")
	return id, nil
}

func (m *Mocker) FetchMessage(_ context.Context, id mirror.Identity) (*mirror.Message, error) {
	m.Lock()
	defer m.Unlock()

	m.Fetches++
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	s, ok := m.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", id, mirror.ErrNotFound)
	}

	m.l.With(zap.Stringer("identity", id)).Info("fetch-message")
	return &mirror.Message{Identity: id, Embeds: []mirror.Embed{s.Embed}}, nil
}

func (m *Mocker) PatchMessage(_ context.Context, id mirror.Identity, embed mirror.Embed, attachments []mirror.Attachment) error {
	m.Lock()
	defer m.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}

	s, ok := m.messages[id]
	if !ok {
		return fmt.Errorf("message %s: %w", id, mirror.ErrNotFound)
	}

	m.Patches = append(m.Patches, Patch{Identity: id, Embed: embed, Attachments: attachments})
	s.Embed = embed
	s.Attachments = attachments

	m.l.With(
		zap.Stringer("identity", id),
		zap.String("image", embed.ImageURL),
		zap.Int("attachments", len(attachments)),
	).Info("patch-message")
	return nil
}

// Message returns the current remote state of id.
func (m *Mocker) Message(id mirror.Identity) (*Stored, bool) {
	m.Lock()
	defer m.Unlock()
	s, ok := m.messages[id]
	return s, ok
}

// Delete simulates a message removed by hand on the platform.
func (m *Mocker) Delete(id mirror.Identity) {
	m.Lock()
	defer m.Unlock()
	delete(m.messages, id)
}

// Calls is the total number of remote calls made.
func (m *Mocker) Calls() int {
	m.Lock()
	defer m.Unlock()
	return m.Creates + m.Fetches + len(m.Patches)
}
