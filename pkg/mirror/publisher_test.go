package mirror_test

import (
	"bytes"
	"context"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"pixelmirror/pkg/mirror"
	"pixelmirror/pkg/mirror/virtual"
	"pixelmirror/pkg/raster"
)

var dims = raster.Dimensions{Width: 2, Height: 1}

var redGreen = []byte{255, 0, 0, 0, 255, 0}

func newPublisher(t *testing.T, opts ...mirror.Option) (*mirror.Publisher, *virtual.Mocker) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	m := virtual.Mock(logger)
	return mirror.NewPublisher(m, dims, logger, opts...), m
}

func TestCreate(t *testing.T) {
	p, m := newPublisher(t)

	id, err := p.Create(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, id.Ready())
	assert.Equal(t, uint64(42), id.ChannelID)

	s, ok := m.Message(id)
	require.True(t, ok)
	assert.Equal(t, mirror.EmbedTitle, s.Embed.Title)
	assert.Equal(t, mirror.EmbedFooter, s.Embed.Footer)
	assert.Empty(t, s.Embed.ImageURL)
	assert.Empty(t, s.Attachments)
}

// Creating twice posts two messages; callers guard against duplicates.
func TestCreateIsNotIdempotent(t *testing.T) {
	p, m := newPublisher(t)

	first, err := p.Create(context.Background(), 42)
	require.NoError(t, err)
	second, err := p.Create(context.Background(), 42)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, m.Creates)
}

func TestCreateFailure(t *testing.T) {
	p, m := newPublisher(t)
	m.FailWith = errors.New("connection reset")

	_, err := p.Create(context.Background(), 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, mirror.ErrPublish)
	assert.NotErrorIs(t, err, mirror.ErrStaleMirror)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestUpdateWithoutIdentityIsNoop(t *testing.T) {
	p, m := newPublisher(t)

	for _, id := range []mirror.Identity{
		{},
		{ChannelID: 42},
		{MessageID: 7},
	} {
		require.NoError(t, p.Update(context.Background(), id, redGreen))
	}
	// no validation happens either
	require.NoError(t, p.Update(context.Background(), mirror.Identity{}, []byte{1}))

	assert.Zero(t, m.Calls())
}

func TestUpdate(t *testing.T) {
	now := time.Date(2021, 5, 27, 12, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	p, m := newPublisher(t, mirror.WithScale(3), mirror.WithClock(func() time.Time { return now }))

	id, err := p.Create(context.Background(), 42)
	require.NoError(t, err)

	require.NoError(t, p.Update(context.Background(), id, redGreen))

	require.Len(t, m.Patches, 1)
	patch := m.Patches[0]
	assert.Equal(t, id, patch.Identity)
	require.Len(t, patch.Attachments, 1)

	a := patch.Attachments[0]
	assert.Equal(t, "attachment://"+a.Name, patch.Embed.ImageURL)
	assert.True(t, strings.HasPrefix(a.Name, "pixels_mirror_"))
	assert.Equal(t, "image/png", a.ContentType)
	assert.Equal(t, mirror.EmbedTitle, patch.Embed.Title)
	assert.Equal(t, mirror.EmbedFooter, patch.Embed.Footer)
	assert.Equal(t, now.UTC(), patch.Embed.Timestamp)
	assert.Equal(t, time.UTC, patch.Embed.Timestamp.Location())

	img, err := png.Decode(bytes.NewReader(a.Data))
	require.NoError(t, err)
	assert.Equal(t, 6, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
}

func TestUpdateNeverAccumulatesAttachments(t *testing.T) {
	p, m := newPublisher(t)

	id, err := p.Create(context.Background(), 42)
	require.NoError(t, err)

	require.NoError(t, p.Update(context.Background(), id, redGreen))
	require.NoError(t, p.Update(context.Background(), id, []byte{0, 0, 255, 255, 255, 255}))

	require.Len(t, m.Patches, 2)
	assert.Len(t, m.Patches[0].Attachments, 1)
	assert.Len(t, m.Patches[1].Attachments, 1)
	assert.NotEqual(t, m.Patches[0].Attachments[0].Name, m.Patches[1].Attachments[0].Name)
	assert.Equal(t, 2, m.Fetches)

	s, _ := m.Message(id)
	assert.Len(t, s.Attachments, 1)
	assert.Equal(t, m.Patches[1].Attachments[0].Name, s.Attachments[0].Name)
}

func TestUpdateStale(t *testing.T) {
	p, m := newPublisher(t)

	id, err := p.Create(context.Background(), 42)
	require.NoError(t, err)
	m.Delete(id)

	err = p.Update(context.Background(), id, redGreen)
	require.Error(t, err)
	assert.ErrorIs(t, err, mirror.ErrStaleMirror)
	assert.ErrorIs(t, err, mirror.ErrNotFound)
	assert.NotErrorIs(t, err, mirror.ErrPublish)

	var stale *mirror.StaleError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, id, stale.Identity)
	assert.Empty(t, m.Patches)
}

func TestUpdatePublishError(t *testing.T) {
	p, m := newPublisher(t)

	id, err := p.Create(context.Background(), 42)
	require.NoError(t, err)
	m.FailWith = context.DeadlineExceeded

	err = p.Update(context.Background(), id, redGreen)
	assert.ErrorIs(t, err, mirror.ErrPublish)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUpdateRasterErrorsPropagate(t *testing.T) {
	p, m := newPublisher(t)

	id, err := p.Create(context.Background(), 42)
	require.NoError(t, err)

	err = p.Update(context.Background(), id, redGreen[:5])
	assert.ErrorIs(t, err, raster.ErrInvalidBufferLength)
	assert.NotErrorIs(t, err, mirror.ErrPublish)

	p2 := mirror.NewPublisher(m, dims, zaptest.NewLogger(t), mirror.WithScale(0))
	err = p2.Update(context.Background(), id, redGreen)
	assert.ErrorIs(t, err, raster.ErrInvalidScale)

	assert.Empty(t, m.Patches)
}

// The embed of the live message is kept, only image and timestamp change.
func TestUpdateKeepsRemoteEmbed(t *testing.T) {
	p, m := newPublisher(t)

	id, err := m.CreateMessage(context.Background(), 1, mirror.Embed{Title: "Custom", Footer: "Updated at"})
	require.NoError(t, err)

	require.NoError(t, p.Update(context.Background(), id, redGreen))
	require.Len(t, m.Patches, 1)
	assert.Equal(t, "Custom", m.Patches[0].Embed.Title)
	assert.Equal(t, "Updated at", m.Patches[0].Embed.Footer)
}
